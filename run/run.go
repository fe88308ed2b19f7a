// Package run defines the optional run status/phase tracking contract
// (spec §4.10/§6): coarse lifecycle status plus finer-grained phase,
// recorded by the runner façade independent of and in addition to
// checkpoint persistence. Grounded on the teacher's runtime/agent/run
// package's Status/Phase enums, narrowed to the subset this spec's engine
// loop can actually report (no Temporal-workflow-specific phases).
package run

import (
	"context"
	"errors"
	"time"
)

// Status is the coarse-grained lifecycle state of a run.
type Status string

const (
	// StatusPending indicates the run has been accepted but not started.
	StatusPending Status = "pending"
	// StatusRunning indicates the run is actively executing.
	StatusRunning Status = "running"
	// StatusCompleted indicates the run finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the run failed permanently.
	StatusFailed Status = "failed"
	// StatusCanceled indicates the run was canceled.
	StatusCanceled Status = "canceled"
	// StatusPaused indicates execution is paused awaiting external
	// intervention (an approval gate interrupt, spec §4.5).
	StatusPaused Status = "paused"
)

// Phase is a finer-grained lifecycle phase, intended for streaming/UX
// surfaces; it does not replace Status, which orchestration logic branches
// on.
type Phase string

const (
	// PhasePrompted indicates a user message has been received and the run
	// is about to start.
	PhasePrompted Phase = "prompted"
	// PhaseThinking indicates the model is generating the next turn.
	PhaseThinking Phase = "thinking"
	// PhaseActing indicates tool calls are being dispatched.
	PhaseActing Phase = "acting"
	// PhaseCompleted indicates the run has completed successfully.
	PhaseCompleted Phase = "completed"
	// PhaseFailed indicates the run has failed.
	PhaseFailed Phase = "failed"
	// PhaseCanceled indicates the run was canceled.
	PhaseCanceled Phase = "canceled"
	// PhasePaused indicates the run is paused at an approval gate.
	PhasePaused Phase = "paused"
)

// State is the full status/phase record the Store persists per thread.
type State struct {
	ThreadID string
	Status   Status
	Phase    Phase
	// UpdatedAt records when this state was last written.
	UpdatedAt time.Time
}

// Store records and reports run status/phase per thread, independent of
// the checkpointer's channel-value history.
//
// Contract:
//   - Set is idempotent: the most recent call for a threadID wins.
//   - Get returns ErrNotFound when no state has been recorded for threadID.
type Store interface {
	Set(ctx context.Context, threadID string, status Status, phase Phase) error
	Get(ctx context.Context, threadID string) (State, error)
}

// ErrNotFound is returned by Store.Get when threadID has no recorded state.
var ErrNotFound = errors.New("run: no status recorded for thread")
