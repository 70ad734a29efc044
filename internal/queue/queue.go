// Package queue holds the in-memory retry queue and the single-consumer
// dispatch loop that drains it.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ibp/labeld/internal/render"
)

type Job struct {
	ID         uuid.UUID
	Label      render.Label
	Retries    int
	ReceivedAt time.Time
}

func NewJob(label render.Label) *Job {
	return &Job{
		ID:         uuid.New(),
		Label:      label,
		ReceivedAt: time.Now(),
	}
}

// Queue is a bounded FIFO shared between the request acceptors (many
// producers) and the dispatch loop (one consumer). Producers block when the
// queue is full; that back-pressure is the only flow control.
type Queue struct {
	jobs chan *Job
}

func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{jobs: make(chan *Job, capacity)}
}

// Enqueue appends at the tail, blocking until there is room or ctx ends.
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue appends without blocking. The dispatch loop uses it to
// re-enqueue failed jobs: blocking here would deadlock the loop against
// itself when the queue is full.
func (q *Queue) TryEnqueue(job *Job) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Dequeue blocks until a job arrives or ctx ends. The second return is
// false only on ctx cancellation, which is the loop's shutdown path.
func (q *Queue) Dequeue(ctx context.Context) (*Job, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	case <-ctx.Done():
		return nil, false
	}
}

func (q *Queue) Len() int {
	return len(q.jobs)
}
