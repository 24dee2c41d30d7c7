package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zk-lending-engine/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const submissionQueueKey = "proof:submissions"

// SubmissionQueue implements ports.SubmissionQueue as a Redis list:
// LPUSH on submit, BRPOP in the verification worker. Losing a queued
// submission is tolerable since the proof can always be re-submitted or
// reported directly through the admin endpoint.
type SubmissionQueue struct {
	client *goredis.Client
}

// NewSubmissionQueue creates a new Redis-backed submission queue.
func NewSubmissionQueue(client *goredis.Client) *SubmissionQueue {
	return &SubmissionQueue{client: client}
}

// Enqueue pushes a submission onto the queue.
func (q *SubmissionQueue) Enqueue(ctx context.Context, sub domain.ProofSubmission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	if err := q.client.LPush(ctx, submissionQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("redis submission push: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next submission. Returns nil, nil
// when the timeout elapses with an empty queue.
func (q *SubmissionQueue) Dequeue(ctx context.Context, timeout time.Duration) (*domain.ProofSubmission, error) {
	vals, err := q.client.BRPop(ctx, timeout, submissionQueueKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis submission pop: %w", err)
	}
	// BRPop returns [key, value].
	var sub domain.ProofSubmission
	if err := json.Unmarshal([]byte(vals[1]), &sub); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	return &sub, nil
}
