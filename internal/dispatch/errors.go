package dispatch

import (
	"errors"
	"fmt"

	"github.com/ibp/labeld/internal/cups"
)

var (
	// ErrNoTargets means discovery found no eligible printer at all.
	ErrNoTargets = errors.New("no available printers")

	// ErrSubmit wraps a subsystem rejection of the submitted artifact.
	ErrSubmit = errors.New("job submission rejected")

	// ErrPollTimeout is client-side abandonment: the job never reached a
	// terminal state within the poll window. It may still complete on the
	// printer.
	ErrPollTimeout = errors.New("print job timed out")

	// ErrAllTargetsFailed means every discovered printer was tried and
	// none completed the job.
	ErrAllTargetsFailed = errors.New("failed to print on all available printers")
)

// JobFailedError carries the terminal non-success state for diagnostics.
type JobFailedError struct {
	State cups.JobState
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("print job failed in state %q", e.State)
}
