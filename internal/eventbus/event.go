package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a generation milestone.
type Kind string

const (
	RunStarted      Kind = "run_started"
	EnumsRegistered Kind = "enums_registered"
	SliceRendered   Kind = "slice_rendered"
	FilePlanned     Kind = "file_planned"
	RunFinished     Kind = "run_finished"
	RunFailed       Kind = "run_failed"
)

// Event is one progress notification. Fields that do not apply to a kind
// are left zero.
type Event struct {
	ID         string
	RunID      string
	Kind       Kind
	OccurredAt time.Time
	Flow       string
	Slice      string
	Path       string
	Count      int
	Err        string
}

func newID() string { return uuid.New().String() }

// NewRunID returns an identifier shared by every event of one run.
func NewRunID() string { return newID() }

func newEvent(runID string, kind Kind) Event {
	return Event{ID: newID(), RunID: runID, Kind: kind, OccurredAt: time.Now()}
}

// NewRunStarted reports a run about to render the given number of slices.
func NewRunStarted(runID string, slices int) Event {
	e := newEvent(runID, RunStarted)
	e.Count = slices
	return e
}

// NewEnumsRegistered reports the enum barrier: count enums derived for the
// shared module at path.
func NewEnumsRegistered(runID string, count int, path string) Event {
	e := newEvent(runID, EnumsRegistered)
	e.Count = count
	e.Path = path
	return e
}

// NewSliceRendered reports a slice whose files all rendered.
func NewSliceRendered(runID, flow, slice string, files int) Event {
	e := newEvent(runID, SliceRendered)
	e.Flow, e.Slice, e.Count = flow, slice, files
	return e
}

// NewFilePlanned reports one file added to the plan.
func NewFilePlanned(runID, flow, slice, path string) Event {
	e := newEvent(runID, FilePlanned)
	e.Flow, e.Slice, e.Path = flow, slice, path
	return e
}

// NewRunFinished reports a successful run with files planned.
func NewRunFinished(runID string, files int) Event {
	e := newEvent(runID, RunFinished)
	e.Count = files
	return e
}

// NewRunFailed reports a run aborted by err.
func NewRunFailed(runID string, err error) Event {
	e := newEvent(runID, RunFailed)
	e.Err = err.Error()
	return e
}
