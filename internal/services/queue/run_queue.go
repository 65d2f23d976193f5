package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/queue"
)

// runQueueKey is the global list of pending dialogue run requests.
const runQueueKey = "dialogue-runs"

// RunQueue manages the queue of pending dialogue runs. It owns its
// Redis connection; callers close it with Close when done.
type RunQueue struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewRunQueue connects to Redis and verifies the connection.
func NewRunQueue(redisURL string, logger *slog.Logger) (*RunQueue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Run queue connected to Redis", "url", redisURL)

	return &RunQueue{
		rdb:    rdb,
		logger: logger,
	}, nil
}

// Close closes the Redis connection.
func (q *RunQueue) Close() error {
	return q.rdb.Close()
}

// Enqueue adds a run request to the end of the queue.
func (q *RunQueue) Enqueue(ctx context.Context, req *queue.RunRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid run request: %w", err)
	}

	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize run request: %w", err)
	}

	if err := q.rdb.RPush(ctx, runQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue run request: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next run request.
// Returns nil if the queue is empty.
func (q *RunQueue) Dequeue(ctx context.Context) (*queue.RunRequest, error) {
	result, err := q.rdb.LPop(ctx, runQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue run request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse run request: %w", err)
	}

	return req, nil
}

// BlockingDequeue blocks until a request is available, then returns it.
// A zero timeout waits forever.
func (q *RunQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.RunRequest, error) {
	result, err := q.rdb.BLPop(ctx, timeout, runQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Timed out with nothing queued
		}
		return nil, fmt.Errorf("failed to dequeue run request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse run request: %w", err)
	}

	return req, nil
}

// Depth returns the number of pending run requests.
func (q *RunQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.rdb.LLen(ctx, runQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all pending run requests.
func (q *RunQueue) Clear(ctx context.Context) error {
	if err := q.rdb.Del(ctx, runQueueKey).Err(); err != nil {
		return fmt.Errorf("failed to clear run queue: %w", err)
	}
	return nil
}
