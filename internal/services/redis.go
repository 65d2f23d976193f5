package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// RedisStore implements TranscriptStore on Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements TranscriptStore interface
var _ TranscriptStore = (*RedisStore)(nil)

// transcriptTTL keeps finished transcripts for a month.
const transcriptTTL = 30 * 24 * time.Hour

// NewRedisStore creates a new Redis-backed transcript store.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

func transcriptKey(id uuid.UUID) string {
	return fmt.Sprintf("transcript:%s", id.String())
}

func (r *RedisStore) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisStore) SaveTranscript(ctx context.Context, t *dialogue.Transcript) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	key := transcriptKey(t.ID)
	if err := r.client.Set(ctx, key, data, transcriptTTL).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	r.logger.Debug("Transcript saved", "key", key, "turns", len(t.Turns), "status", t.Status)
	return nil
}

func (r *RedisStore) LoadTranscript(ctx context.Context, id uuid.UUID) (*dialogue.Transcript, error) {
	key := transcriptKey(id)
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Transcript not found", "key", key)
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}

	var t dialogue.Transcript
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return &t, nil
}

func (r *RedisStore) DeleteTranscript(ctx context.Context, id uuid.UUID) error {
	key := transcriptKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

// GetClient returns the underlying Redis client for direct operations
func (r *RedisStore) GetClient() *redis.Client {
	return r.client
}

// WaitForConnection waits for Redis to be available with retries
func (r *RedisStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
