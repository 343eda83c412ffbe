package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fuel_dispatch/internal/apperrors"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Job kinds carried by the dispatch queue.
const (
	KindAssignDriver     = "assign_driver"
	KindSendNotification = "send_notification"
)

// Job is one unit of asynchronous dispatch work. Delivery is at least
// once; consumers must be idempotent per order.
type Job struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	OrderID    uint      `json:"order_id"`
	Lat        *float64  `json:"lat,omitempty"`
	Lng        *float64  `json:"lng,omitempty"`
	Message    string    `json:"message,omitempty"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	// payload is the wire form this job was delivered with; Ack uses it
	// to remove exactly this entry from the processing list.
	payload string
}

func NewJob(kind string, orderID uint) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		OrderID:    orderID,
		EnqueuedAt: time.Now(),
	}
}

const (
	jobsKey    = "dispatch:jobs"
	delayedKey = "dispatch:delayed"
	deadKey    = "dispatch:dead"

	processingPrefix = "dispatch:processing:"
)

func processingKey(consumer string) string {
	return processingPrefix + consumer
}

// Queue is a durable redis-backed job queue: a list for ready jobs, a
// sorted set for delayed jobs (score = ready time) and a dead-letter
// list for jobs that exhausted their retries.
type Queue struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue appends a job to the ready list. It returns once redis has
// durably accepted the push; it never blocks on processing.
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := q.rdb.LPush(ctx, jobsKey, data).Err(); err != nil {
		return fmt.Errorf("%w: enqueue job %s: %v", apperrors.ErrQueueUnavailable, job.ID, err)
	}
	return nil
}

// EnqueueAfter parks a job in the delayed set until readyAt.
func (q *Queue) EnqueueAfter(ctx context.Context, job *Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	member := redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: data,
	}
	if err := q.rdb.ZAdd(ctx, delayedKey, &member).Err(); err != nil {
		return fmt.Errorf("%w: delay job %s: %v", apperrors.ErrQueueUnavailable, job.ID, err)
	}
	return nil
}

// Dequeue blocks for up to timeout waiting for a ready job. The job is
// moved onto the consumer's processing list rather than removed outright,
// so a crash between delivery and Ack leaves it recoverable. It returns
// (nil, nil) when the wait times out with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) (*Job, error) {
	payload, err := q.rdb.BRPopLPush(ctx, jobsKey, processingKey(consumer), timeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dequeue: %v", apperrors.ErrQueueUnavailable, err)
	}

	var job Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		// An undecodable payload is parked on the dead-letter list so it
		// is neither redelivered forever nor dropped.
		q.rdb.LRem(ctx, processingKey(consumer), 1, payload)
		q.rdb.LPush(ctx, deadKey, payload)
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.payload = payload
	return &job, nil
}

// Ack removes a delivered job from the consumer's processing list once
// its handling has settled: done, re-enqueued or dead-lettered.
func (q *Queue) Ack(ctx context.Context, consumer string, job *Job) error {
	if job.payload == "" {
		return nil
	}
	if err := q.rdb.LRem(ctx, processingKey(consumer), 1, job.payload).Err(); err != nil {
		return fmt.Errorf("%w: ack job %s: %v", apperrors.ErrQueueUnavailable, job.ID, err)
	}
	return nil
}

// Recover moves jobs stranded on a consumer's processing list by an
// earlier crash back onto the ready list for redelivery.
func (q *Queue) Recover(ctx context.Context, consumer string) (int, error) {
	moved := 0
	for {
		_, err := q.rdb.RPopLPush(ctx, processingKey(consumer), jobsKey).Result()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("%w: recover %s: %v", apperrors.ErrQueueUnavailable, consumer, err)
		}
		moved++
	}
}

// PromoteDue moves delayed jobs whose ready time has passed onto the
// ready list. Called periodically by the worker.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	members, err := q.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	promoted := 0
	for _, m := range members {
		// Only the remover promotes, so concurrent promoters cannot
		// duplicate a job.
		removed, err := q.rdb.ZRem(ctx, delayedKey, m).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to remove delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, jobsKey, m).Err(); err != nil {
			return promoted, fmt.Errorf("failed to promote delayed job: %w", err)
		}
		promoted++
	}
	return promoted, nil
}

// DeadLetter parks a job that exhausted its retries. Dead jobs are kept
// for inspection; they are never silently dropped.
func (q *Queue) DeadLetter(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job %s: %w", job.ID, err)
	}
	if err := q.rdb.LPush(ctx, deadKey, data).Err(); err != nil {
		return fmt.Errorf("%w: dead-letter job %s: %v", apperrors.ErrQueueUnavailable, job.ID, err)
	}
	return nil
}
