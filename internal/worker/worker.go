package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/aescanero/dago-node-rpn/internal/calculator"
	"github.com/aescanero/dago-node-rpn/internal/config"
	"github.com/aescanero/dago-node-rpn/internal/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StateStore is the subset of ports.StateStorage used by the worker
type StateStore interface {
	Load(ctx context.Context, executionID string) (state.State, error)
	Save(ctx context.Context, executionID string, st state.State) error
	SetTTL(ctx context.Context, executionID string, ttl time.Duration) error
}

// Worker represents the RPN worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	calculator    *calculator.Calculator
	stateStore    StateStore
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	started       atomic.Bool
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	calc *calculator.Calculator,
	stateStore StateStore,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		calculator:    calc,
		stateStore:    stateStore,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting rpn worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("worker already started")
	}
	go w.processWork()

	w.logger.Info("rpn worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker and waits for the in-flight message to finish
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("stopping rpn worker", zap.String("worker_id", w.id))

	w.cancel()

	if !w.started.Load() {
		return nil
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop: %w", ctx.Err())
	}

	w.logger.Info("rpn worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single evaluation request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing evaluation request",
		zap.String("message_id", messageID),
	)

	request, err := parseWorkRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse work request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	if err := w.processRequest(w.ctx, request); err != nil {
		w.logger.Error("failed to process evaluation request",
			zap.String("message_id", messageID),
			zap.String("execution_id", request.ExecutionID),
			zap.Error(err),
		)
		w.publishError(request, err)
	}

	w.acknowledgeMessage(messageID)
}

// WorkRequest represents an evaluation work request
type WorkRequest struct {
	ExecutionID string                `json:"execution_id"`
	NodeID      string                `json:"node_id"`
	Config      calculator.NodeConfig `json:"config"`
}

// parseWorkRequest parses a work request from a Redis message
func parseWorkRequest(values map[string]interface{}) (*WorkRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request WorkRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work request: %w", err)
	}

	if request.ExecutionID == "" {
		return nil, fmt.Errorf("execution_id is required")
	}
	if request.NodeID == "" {
		return nil, fmt.Errorf("node_id is required")
	}

	return &request, nil
}

// processRequest evaluates a request, records it and publishes the decision
func (w *Worker) processRequest(ctx context.Context, request *WorkRequest) error {
	result, err := w.calculator.Calculate(ctx, &request.Config)
	if err != nil {
		return fmt.Errorf("calculation failed: %w", err)
	}

	evaluationID := uuid.NewString()

	if err := w.recordState(ctx, request, evaluationID, result); err != nil {
		// The decision is still published; the orchestrator owns the state.
		w.logger.Warn("failed to record evaluation in state",
			zap.String("execution_id", request.ExecutionID),
			zap.Error(err),
		)
	}

	if err := w.publish(ctx, w.resultStream, buildDecisionEvent(request, evaluationID, result)); err != nil {
		return fmt.Errorf("failed to publish decision: %w", err)
	}

	w.logger.Info("published evaluation decision",
		zap.String("execution_id", request.ExecutionID),
		zap.String("evaluation_id", evaluationID),
		zap.String("target_node", result.TargetNode),
	)

	return nil
}

// recordState stores the node outcome in the execution state
func (w *Worker) recordState(ctx context.Context, request *WorkRequest, evaluationID string, result *calculator.Result) error {
	st, err := w.stateStore.Load(ctx, request.ExecutionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		st = state.State{"execution_id": request.ExecutionID}
	}
	if st == nil {
		st = state.State{"execution_id": request.ExecutionID}
	}

	st[request.NodeID] = nodeOutcome(evaluationID, result)

	if err := w.stateStore.Save(ctx, request.ExecutionID, st); err != nil {
		return err
	}

	if w.config.StateTTL > 0 {
		return w.stateStore.SetTTL(ctx, request.ExecutionID, w.config.StateTTL)
	}
	return nil
}

// nodeOutcome is the value stored under the node ID in the execution state
func nodeOutcome(evaluationID string, result *calculator.Result) map[string]interface{} {
	outcome := map[string]interface{}{
		"evaluation_id": evaluationID,
		"expression":    result.Expression,
		"target_node":   result.TargetNode,
	}
	if result.Failed() {
		outcome["error_kind"] = string(result.ErrorKind)
		outcome["error"] = result.Error
	} else {
		outcome["result"] = jsonNumber(result.Value)
	}
	if result.Summary != "" {
		outcome["summary"] = result.Summary
	}
	return outcome
}

// buildDecisionEvent builds the event published to the result stream
func buildDecisionEvent(request *WorkRequest, evaluationID string, result *calculator.Result) map[string]interface{} {
	event := map[string]interface{}{
		"evaluation_id": evaluationID,
		"execution_id":  request.ExecutionID,
		"node_id":       request.NodeID,
		"target_node":   result.TargetNode,
		"reasoning":     result.Reasoning,
		"path_taken":    result.PathTaken,
		"duration_ms":   float64(result.Duration.Microseconds()) / 1000,
		"timestamp":     time.Now().UTC(),
	}
	if result.Failed() {
		event["error_kind"] = string(result.ErrorKind)
		event["error"] = result.Error
	} else {
		event["result"] = jsonNumber(result.Value)
	}
	if result.Summary != "" {
		event["summary"] = result.Summary
	}
	return event
}

// jsonNumber keeps finite values numeric and spells out IEEE specials,
// which encoding/json cannot represent.
func jsonNumber(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return v
}

// publishError publishes an error event
func (w *Worker) publishError(request *WorkRequest, err error) {
	errorEvent := map[string]interface{}{
		"execution_id": request.ExecutionID,
		"node_id":      request.NodeID,
		"error":        err.Error(),
		"timestamp":    time.Now().UTC(),
	}

	if publishErr := w.publish(w.ctx, w.config.ErrorStream(), errorEvent); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// publish adds a JSON encoded event to a stream
func (w *Worker) publish(ctx context.Context, stream string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	return nil
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
