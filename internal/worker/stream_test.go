package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aescanero/dago-node-rpn/internal/calculator"
	"github.com/aescanero/dago-node-rpn/internal/config"
	"github.com/aescanero/dago-node-rpn/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type streamFixture struct {
	worker *Worker
	client *redis.Client
	store  *store.RedisStateStore
}

func newStreamFixture(t *testing.T) *streamFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calc, err := calculator.NewCalculator(calculator.Options{CELEnabled: true}, zap.NewNop())
	require.NoError(t, err)

	cfg := &config.Config{
		WorkerID:      "rpn-test",
		StreamKey:     "rpn.work",
		ConsumerGroup: "rpn-workers",
		ResultStream:  "rpn.evaluated",
		BlockTime:     50 * time.Millisecond,
	}
	stateStore := store.NewRedisStateStore(client, zap.NewNop())

	return &streamFixture{
		worker: NewWorker(cfg, client, calc, stateStore, zap.NewNop()),
		client: client,
		store:  stateStore,
	}
}

// deliver adds a work request to the stream and reads it through the
// consumer group so that it is pending until acknowledged.
func (f *streamFixture) deliver(t *testing.T, data string) redis.XMessage {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.worker.ensureConsumerGroup())
	require.NoError(t, f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "rpn.work",
		Values: map[string]interface{}{"data": data},
	}).Err())

	streams, err := f.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    "rpn-workers",
		Consumer: "rpn-test",
		Streams:  []string{"rpn.work", ">"},
		Count:    1,
	}).Result()
	require.NoError(t, err)
	require.Len(t, streams, 1)
	require.Len(t, streams[0].Messages, 1)
	return streams[0].Messages[0]
}

func (f *streamFixture) pending(t *testing.T) int64 {
	t.Helper()
	summary, err := f.client.XPending(context.Background(), "rpn.work", "rpn-workers").Result()
	require.NoError(t, err)
	return summary.Count
}

func (f *streamFixture) events(t *testing.T, stream string) []map[string]interface{} {
	t.Helper()
	messages, err := f.client.XRange(context.Background(), stream, "-", "+").Result()
	require.NoError(t, err)

	events := make([]map[string]interface{}, 0, len(messages))
	for _, message := range messages {
		data, ok := message.Values["data"].(string)
		require.True(t, ok)

		var event map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(data), &event))
		events = append(events, event)
	}
	return events
}

func TestEnsureConsumerGroup_Idempotent(t *testing.T) {
	f := newStreamFixture(t)

	require.NoError(t, f.worker.ensureConsumerGroup())
	require.NoError(t, f.worker.ensureConsumerGroup())

	groups, err := f.client.XInfoGroups(context.Background(), "rpn.work").Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "rpn-workers", groups[0].Name)
}

func TestHandleMessage_PublishesDecision(t *testing.T) {
	f := newStreamFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Save(ctx, "exec-1", map[string]interface{}{
		"execution_id": "exec-1",
		"input":        "kept",
	}))

	message := f.deliver(t, `{"execution_id":"exec-1","node_id":"compute","config":{`+
		`"expression":"14 4 6 8 + * /","fallback":"next",`+
		`"rules":[{"condition":"result < 1.0","target":"fraction"}]}}`)
	f.worker.handleMessage(message)

	events := f.events(t, "rpn.evaluated")
	require.Len(t, events, 1)
	assert.Equal(t, "exec-1", events[0]["execution_id"])
	assert.Equal(t, "compute", events[0]["node_id"])
	assert.Equal(t, "fraction", events[0]["target_node"])
	assert.Equal(t, calculator.PathRule, events[0]["path_taken"])
	assert.Equal(t, 0.25, events[0]["result"])
	assert.NotEmpty(t, events[0]["evaluation_id"])

	st, err := f.store.Load(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, "kept", st["input"])
	outcome, ok := st["compute"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fraction", outcome["target_node"])
	assert.Equal(t, events[0]["evaluation_id"], outcome["evaluation_id"])

	assert.Zero(t, f.pending(t))
}

func TestHandleMessage_FailedEvaluationIsRouted(t *testing.T) {
	f := newStreamFixture(t)

	message := f.deliver(t, `{"execution_id":"exec-2","node_id":"compute","config":{`+
		`"expression":"2 0 /","fallback":"next","error_target":"errors"}}`)
	f.worker.handleMessage(message)

	events := f.events(t, "rpn.evaluated")
	require.Len(t, events, 1)
	assert.Equal(t, "errors", events[0]["target_node"])
	assert.Equal(t, "division_by_zero", events[0]["error_kind"])
	assert.NotContains(t, events[0], "result")

	assert.Empty(t, f.events(t, "rpn.evaluated.errors"))
	assert.Zero(t, f.pending(t))
}

func TestHandleMessage_InvalidConfig(t *testing.T) {
	f := newStreamFixture(t)

	message := f.deliver(t, `{"execution_id":"exec-3","node_id":"compute","config":{"expression":"1 2 +"}}`)
	f.worker.handleMessage(message)

	assert.Empty(t, f.events(t, "rpn.evaluated"))

	errorEvents := f.events(t, "rpn.evaluated.errors")
	require.Len(t, errorEvents, 1)
	assert.Equal(t, "exec-3", errorEvents[0]["execution_id"])
	assert.Contains(t, errorEvents[0]["error"], "fallback route is required")

	exists, err := f.store.Exists(context.Background(), "exec-3")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Zero(t, f.pending(t))
}

func TestHandleMessage_UnparsableRequest(t *testing.T) {
	f := newStreamFixture(t)

	f.worker.handleMessage(f.deliver(t, "{"))

	assert.Empty(t, f.events(t, "rpn.evaluated"))
	assert.Empty(t, f.events(t, "rpn.evaluated.errors"))
	assert.Zero(t, f.pending(t))
}

func TestWorker_StartStop(t *testing.T) {
	f := newStreamFixture(t)
	ctx := context.Background()

	require.NoError(t, f.worker.Start())
	assert.Error(t, f.worker.Start())

	require.NoError(t, f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "rpn.work",
		Values: map[string]interface{}{
			"data": `{"execution_id":"exec-4","node_id":"compute","config":{"expression":"2 3 +","fallback":"next"}}`,
		},
	}).Err())

	require.Eventually(t, func() bool {
		n, err := f.client.XLen(ctx, "rpn.evaluated").Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, f.worker.Stop(stopCtx))

	events := f.events(t, "rpn.evaluated")
	assert.Equal(t, "next", events[0]["target_node"])
	assert.Equal(t, 5.0, events[0]["result"])
	assert.Zero(t, f.pending(t))
}

func TestWorker_StopWithoutStart(t *testing.T) {
	f := newStreamFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, f.worker.Stop(ctx))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
