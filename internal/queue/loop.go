package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/ibp/labeld/internal/render"
)

// Outcomes recorded for finished jobs.
const (
	OutcomePrinted = "printed"
	OutcomeDropped = "dropped"
)

// Printer is the print orchestration collaborator (dispatch.Engine in
// production).
type Printer interface {
	PrintLabel(ctx context.Context, label render.Label) error
}

// Recorder persists final job outcomes.
type Recorder interface {
	RecordOutcome(ctx context.Context, jobID string, label render.Label, outcome string, attempts int, errMsg string) error
}

// Notifier announces final job outcomes to external listeners.
type Notifier interface {
	NotifyJobEvent(event string, jobID string, packageID string, attempts int, errMsg string)
}

type Stats struct {
	Printed int64 `json:"printed"`
	Retried int64 `json:"retried"`
	Dropped int64 `json:"dropped"`
	Depth   int   `json:"depth"`
}

// Loop dequeues one job at a time, prints it, and either discards it on
// success, re-enqueues it at the tail with an incremented retry counter, or
// drops it once the ceiling is reached. Strictly single-consumer.
type Loop struct {
	queue      *Queue
	printer    Printer
	recorder   Recorder
	notifier   Notifier
	maxRetries int

	printed atomic.Int64
	retried atomic.Int64
	dropped atomic.Int64
}

func NewLoop(q *Queue, printer Printer, recorder Recorder, notifier Notifier, maxRetries int) *Loop {
	return &Loop{
		queue:      q,
		printer:    printer,
		recorder:   recorder,
		notifier:   notifier,
		maxRetries: maxRetries,
	}
}

func (l *Loop) Run(ctx context.Context) {
	slog.Info("dispatch loop started", "max_retries", l.maxRetries)

	for {
		job, ok := l.queue.Dequeue(ctx)
		if !ok {
			slog.Info("dispatch loop stopped")
			return
		}
		l.process(ctx, job)
	}
}

func (l *Loop) process(ctx context.Context, job *Job) {
	// An in-flight print attempt is never aborted by shutdown; it runs to a
	// terminal state or its own poll timeout.
	err := l.printer.PrintLabel(context.WithoutCancel(ctx), job.Label)
	if err == nil {
		l.printed.Add(1)
		slog.Info("label printed", "job", job.ID, "package_id", job.Label.PackageID, "attempts", job.Retries+1)
		l.record(ctx, job, OutcomePrinted, "")
		l.notify("job_printed", job, "")
		return
	}

	var vErr *render.ValidationError
	if errors.As(err, &vErr) {
		// Deterministic render failure: retrying reproduces it forever.
		slog.Error("label rejected by renderer", "job", job.ID, "error", err)
		l.drop(ctx, job, err)
		return
	}

	if job.Retries < l.maxRetries {
		job.Retries++
		l.retried.Add(1)
		slog.Warn("print failed, re-enqueueing",
			"job", job.ID, "error", err, "retry", job.Retries, "max_retries", l.maxRetries)
		if !l.queue.TryEnqueue(job) {
			slog.Error("queue full, cannot re-enqueue", "job", job.ID)
			l.drop(ctx, job, err)
		}
		return
	}

	slog.Error("print failed after retries", "job", job.ID, "retries", job.Retries, "error", err)
	l.drop(ctx, job, err)
}

func (l *Loop) drop(ctx context.Context, job *Job, cause error) {
	l.dropped.Add(1)
	l.record(ctx, job, OutcomeDropped, cause.Error())
	l.notify("job_dropped", job, cause.Error())
}

func (l *Loop) record(ctx context.Context, job *Job, outcome, errMsg string) {
	if l.recorder == nil {
		return
	}
	if err := l.recorder.RecordOutcome(ctx, job.ID.String(), job.Label, outcome, job.Retries+1, errMsg); err != nil {
		slog.Error("failed to record job outcome", "job", job.ID, "error", err)
	}
}

func (l *Loop) notify(event string, job *Job, errMsg string) {
	if l.notifier == nil {
		return
	}
	l.notifier.NotifyJobEvent(event, job.ID.String(), job.Label.PackageID, job.Retries+1, errMsg)
}

func (l *Loop) Stats() Stats {
	return Stats{
		Printed: l.printed.Load(),
		Retried: l.retried.Load(),
		Dropped: l.dropped.Load(),
		Depth:   l.queue.Len(),
	}
}
