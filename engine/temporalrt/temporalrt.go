// Package temporalrt adapts the execution engine (spec §4.3, §6: "an
// optional engine/temporalrt backend drives the same loop as a Temporal
// workflow for durable, crash-resilient execution") to run as a Temporal
// workflow. Grounded on the teacher's runtime/agent/engine/temporal
// package's Engine-adapter shape (client/worker wiring, activity-boundary
// JSON-safety discipline), narrowed from its general pluggable
// Engine/WorkflowContext abstraction — built to let generated code swap in
// any agent-defined workflow — down to one concrete workflow type bound to
// state.ReActState, since this spec has exactly one graph shape to drive
// durably rather than a registry of dynamically defined ones.
//
// The workflow itself does not replay engine.Run node-by-node: engine.Run's
// loop is generic over graph.CompiledPlan[S], whose nodes are opaque
// closures, and Temporal workflow code must be built from serializable,
// replay-deterministic primitives. Instead the workflow delegates the
// entire run to a single RunGraph activity (mirroring how the teacher's
// PlanActivityInput/Output keep `any`-shaped planner state off the
// workflow boundary — see runtime/agent/api/types.go's boundary-safety
// contracts) and durability comes from Temporal retrying that activity and
// persisting workflow history across worker restarts; per-node resume
// inside one activity attempt still comes from the engine's own
// checkpoint.Store, exactly as in the in-process engine.Run caller.
package temporalrt

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/engine"
	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

const (
	// WorkflowName is the logical name the workflow is registered under.
	WorkflowName = "graphrt.Run"
	// RunActivityName is the logical name the RunGraph activity is
	// registered under.
	RunActivityName = "graphrt.RunGraph"
	// SignalApproval delivers an ApprovalSignal to a workflow paused at an
	// approval gate (spec §4.5).
	SignalApproval = "graphrt.approval"

	interruptedErrorType = "GraphInterrupted"
)

// Input starts or resumes a durable run.
type Input struct {
	ThreadID         string
	CheckpointNS     string
	InitialState     state.ReActState
	ResumeFromNodeID string
	RecursionLimit   int
}

// ApprovalSignal carries an operator's decision for a paused approval gate,
// delivered via SignalApproval. Workflow does not read NodeID: it resumes
// from the node the interrupt reported, once the decision has been merged
// into the checkpointed state by the caller driving the signal (the same
// resume contract runner.Resume documents: the engine reads the
// checkpoint, not the signal payload, for the actual decision).
type ApprovalSignal struct {
	NodeID string
}

// Adapter bundles the compiled plan and checkpoint store every activity
// invocation needs. Constructed once per worker process and wired onto a
// worker.Worker via Register.
type Adapter struct {
	Plan  *graph.CompiledPlan[state.ReActState]
	Store checkpoint.Store[state.ReActState]
}

// Register wires Workflow and the RunGraph activity onto w.
func (a *Adapter) Register(w worker.Worker) {
	w.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(a.runGraphActivity, activity.RegisterOptions{Name: RunActivityName})
}

// runOutput is the RunGraph activity's JSON-safe result envelope.
type runOutput struct {
	Final state.ReActState
}

// Workflow drives one durable run to completion. It executes the RunGraph
// activity; if that activity reports the run interrupted at an approval
// gate, the workflow blocks on SignalApproval before retrying from the
// interrupted node. Temporal persists workflow history across worker
// crashes/restarts, so a run waiting days for an operator's decision
// resumes without re-executing already-completed nodes.
func Workflow(ctx workflow.Context, in Input) (state.ReActState, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy:         &sdktemporal.RetryPolicy{MaximumAttempts: 3},
	})

	for {
		var out runOutput
		err := workflow.ExecuteActivity(ctx, RunActivityName, in).Get(ctx, &out)
		if err == nil {
			return out.Final, nil
		}

		nodeID, ok := interruptedNodeID(err)
		if !ok {
			return state.ReActState{}, err
		}

		var sig ApprovalSignal
		workflow.GetSignalChannel(ctx, SignalApproval).Receive(ctx, &sig)
		in.ResumeFromNodeID = nodeID
	}
}

// runGraphActivity runs the compiled plan to completion or interruption.
// Activities (unlike workflow code) may perform arbitrary I/O, so this is
// where the in-process engine.Run loop actually executes.
func (a *Adapter) runGraphActivity(ctx context.Context, in Input) (runOutput, error) {
	final, err := engine.Run(ctx, a.Plan, a.Store, in.InitialState, engine.RunConfig{
		ThreadID:         in.ThreadID,
		CheckpointNS:     in.CheckpointNS,
		ResumeFromNodeID: in.ResumeFromNodeID,
		RecursionLimit:   in.RecursionLimit,
	})
	if err != nil {
		var interrupted *engine.Interrupted
		if errors.As(err, &interrupted) {
			return runOutput{}, sdktemporal.NewApplicationErrorWithCause(
				interrupted.Reason, interruptedErrorType, err, interrupted.NodeID)
		}
		return runOutput{}, err
	}
	return runOutput{Final: final}, nil
}

// interruptedNodeID extracts the node id an activity error reports the run
// interrupted at, decoded from the ApplicationError details
// runGraphActivity attaches (concrete *engine.Interrupted values do not
// survive the workflow/activity boundary's JSON encoding).
func interruptedNodeID(err error) (string, bool) {
	var appErr *sdktemporal.ApplicationError
	if !errors.As(err, &appErr) || appErr.Type() != interruptedErrorType {
		return "", false
	}
	var nodeID string
	if derr := appErr.Details(&nodeID); derr != nil {
		return "", false
	}
	return nodeID, true
}
