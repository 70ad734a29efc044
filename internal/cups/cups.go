// Package cups talks to the local printing subsystem. The dispatch engine
// only ever sees the Client interface; the exec-backed implementation lives
// in exec.go.
package cups

import "context"

type Printer struct {
	Name      string
	DeviceURI string
}

type JobState string

const (
	StatePending    JobState = "pending"
	StateHeld       JobState = "held"
	StateProcessing JobState = "processing"
	StateStopped    JobState = "stopped"
	StateCanceled   JobState = "canceled"
	StateAborted    JobState = "aborted"
	StateCompleted  JobState = "completed"
	StateUnknown    JobState = "unknown"
)

// IPP job-state attribute values (RFC 8011 section 5.3.7).
var ippStates = map[int]JobState{
	3: StatePending,
	4: StateHeld,
	5: StateProcessing,
	6: StateStopped,
	7: StateCanceled,
	8: StateAborted,
	9: StateCompleted,
}

func StateFromIPP(code int) JobState {
	if s, ok := ippStates[code]; ok {
		return s
	}
	return StateUnknown
}

// Terminal reports whether no further transition can occur. Unknown is
// deliberately non-terminal: an unreadable status keeps the poller going
// until its timeout expires.
func (s JobState) Terminal() bool {
	switch s {
	case StatePending, StateProcessing, StateUnknown:
		return false
	}
	return true
}

func (s JobState) Succeeded() bool {
	return s == StateCompleted
}

// Client is the printing-subsystem collaborator. All methods may fail when
// the subsystem is unreachable; callers treat such failures uniformly.
type Client interface {
	// Printers lists registered endpoints with their device URIs, in the
	// subsystem's own order.
	Printers(ctx context.Context) ([]Printer, error)

	// Submit hands a file to one printer and returns the subsystem job ID.
	Submit(ctx context.Context, printer, path, title string) (int, error)

	// State reads the current state of a submitted job.
	State(ctx context.Context, jobID int) (JobState, error)

	// MediaSize returns the printer's default media dimensions in pixels
	// at the given DPI.
	MediaSize(ctx context.Context, printer string, dpi int) (w, h int, err error)
}
