// Package dispatch drives a rendered label through discovery, submission,
// status polling, and per-target failover.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/discover"
)

type Dispatcher struct {
	client      cups.Client
	cache       *discover.Cache
	pollPeriod  time.Duration
	pollTimeout time.Duration
}

func NewDispatcher(client cups.Client, cache *discover.Cache, pollPeriod, pollTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:      client,
		cache:       cache,
		pollPeriod:  pollPeriod,
		pollTimeout: pollTimeout,
	}
}

// jobHandle is consumed entirely within one target attempt; it never
// escapes Dispatch.
type jobHandle struct {
	id          int
	submittedAt time.Time
}

// Dispatch tries each discovered printer in cache order until one completes
// the job. Any per-target failure invalidates the discovery cache before
// moving on, so the next dispatch re-checks what is actually attached.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) error {
	targets := d.cache.Targets(ctx)
	if len(targets) == 0 {
		return ErrNoTargets
	}

	for _, target := range targets {
		err := d.tryTarget(ctx, target, path)
		if err == nil {
			return nil
		}
		slog.Warn("failed to print on target, trying next", "printer", target.Name, "error", err)
		d.cache.Invalidate()
	}

	return ErrAllTargetsFailed
}

func (d *Dispatcher) tryTarget(ctx context.Context, target cups.Printer, path string) error {
	slog.Info("submitting print job", "printer", target.Name, "file", path)

	handle, err := d.submit(ctx, target, path)
	if err != nil {
		return err
	}

	if err := d.awaitTerminal(ctx, handle); err != nil {
		return err
	}

	slog.Info("print job completed", "printer", target.Name, "job_id", handle.id)
	return nil
}

// submit makes exactly one attempt; retries happen at higher layers.
func (d *Dispatcher) submit(ctx context.Context, target cups.Printer, path string) (jobHandle, error) {
	id, err := d.client.Submit(ctx, target.Name, path, filepath.Base(path))
	if err != nil {
		return jobHandle{}, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	return jobHandle{id: id, submittedAt: time.Now()}, nil
}

// awaitTerminal polls the job until it reaches a terminal state or the poll
// timeout elapses. State reads that fail count as unknown and keep polling;
// they never block timeout expiry.
func (d *Dispatcher) awaitTerminal(ctx context.Context, handle jobHandle) error {
	deadline := handle.submittedAt.Add(d.pollTimeout)

	for {
		state := d.readState(ctx, handle.id)

		if state.Terminal() {
			if state.Succeeded() {
				return nil
			}
			return &JobFailedError{State: state}
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w after %s (job %d)", ErrPollTimeout, d.pollTimeout, handle.id)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollPeriod):
		}
	}
}

func (d *Dispatcher) readState(ctx context.Context, jobID int) cups.JobState {
	state, err := d.client.State(ctx, jobID)
	if err != nil {
		slog.Debug("job state read failed", "job_id", jobID, "error", err)
		return cups.StateUnknown
	}
	return state
}
