// Package store persists graph execution state in Redis.
//
// RedisStateStore implements ports.StateStorage from dago-libs. The RPN
// worker uses it to record each node's evaluation outcome in the state of the
// execution that requested it.
//
// Example usage:
//
//	st := store.NewRedisStateStore(redisClient, logger)
//	data, err := st.Load(ctx, executionID)
package store
