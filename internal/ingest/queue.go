package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// queueKey is the redis list carrying pending document ids.
const queueKey = "casereport:ingest:queue"

// Queue hands document ids to the worker substrate through a redis list.
// Delivery is at-least-once; the pipeline's per-document claim absorbs
// duplicates.
type Queue struct {
	client *redis.Client
}

// NewQueue connects to redis and verifies the connection.
func NewQueue(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Queue{client: client}, nil
}

// Enqueue schedules ingestion for a document.
func (q *Queue) Enqueue(ctx context.Context, documentID uuid.UUID) error {
	if err := q.client.LPush(ctx, queueKey, documentID.String()).Err(); err != nil {
		return fmt.Errorf("enqueue document %s: %w", documentID, err)
	}
	return nil
}

// Dequeue blocks up to wait for the next document id. The second return
// value is false when the wait elapsed without work.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (uuid.UUID, bool, error) {
	vals, err := q.client.BRPop(ctx, wait, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("dequeue: %w", err)
	}

	// BRPOP returns [key, value].
	id, err := uuid.Parse(vals[1])
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("malformed document id %q: %w", vals[1], err)
	}
	return id, true, nil
}

// Close releases the redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
