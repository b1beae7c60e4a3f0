// Package worker implements the RPN worker lifecycle and Redis Streams integration.
//
// The worker reads evaluation requests from a Redis Stream consumer group,
// evaluates and routes them with the calculator, records the outcome in the
// execution state and publishes the decision back to the orchestrator.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	calc, _ := calculator.NewCalculator(calculator.Options{CELEnabled: true}, logger)
//	stateStore := store.NewRedisStateStore(redisClient, logger)
//
//	worker := worker.NewWorker(cfg, redisClient, calc, stateStore, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop(ctx)
//
// A request message carries a single "data" field holding JSON:
//
//	{"execution_id": "exec-1", "node_id": "compute", "config": {"expression": "2 3 +", "fallback": "next"}}
//
// Health checks and metrics are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8083, redisClient, collector.Handler(), logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
