// Package runner implements the runner façade (spec §4.10): the
// entrypoint that builds an initial state (fresh or restored from a
// checkpoint), composes a compiled plan with a tool source and model, and
// drives the engine to completion, optionally streaming events. Grounded
// on the teacher's runtime/agent/runtime.Runtime's Options/New/Run shape
// (noop substitution for unset telemetry, construction-time validation);
// the workflow-engine/Temporal-durability half of that type has no
// analogue here since this spec's engine (C6) is the single execution
// backend, not a pluggable one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/compress"
	"github.com/arwynlabs/graphrt/engine"
	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/modellimit"
	"github.com/arwynlabs/graphrt/run"
	"github.com/arwynlabs/graphrt/session"
	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/stream"
	"github.com/arwynlabs/graphrt/telemetry"
	"github.com/arwynlabs/graphrt/transcript"
)

// Config aggregates everything the runner needs to build and drive one
// thread's runs, read once at construction (spec §6: "Model-catalog URL,
// refresh interval, LLM/embedding endpoints, and approval policy are read
// once at façade construction").
type Config struct {
	// Plan is the compiled graph to run. Callers build it with
	// react.NewGraph (or react.BuildDup/BuildTot/BuildGot) ahead of time;
	// the runner does not compile graphs itself.
	Plan *graph.CompiledPlan[state.ReActState]

	// Checkpointer persists and restores state between calls. Nil means
	// every Invoke/Stream call starts fresh and nothing survives the
	// process (spec §4.10: "checkpointer?" is optional).
	Checkpointer checkpoint.Store[state.ReActState]
	// Sessions optionally records raw user messages independent of graph
	// state (spec §6's user-message store collaborator). Nil disables it.
	Sessions session.Store
	// RunStatus optionally records coarse run status/phase transitions
	// independent of checkpoint persistence. Nil disables it.
	RunStatus run.Store
	// Transcripts optionally records a flattened, append-only ledger view
	// of each run (spec §10's supplemental transcript-ledger feature),
	// independent of the raw Checkpoint history. Nil disables it.
	Transcripts transcript.Store

	// SystemPrompt seeds a fresh conversation's first message.
	SystemPrompt string

	// ThreadID and CheckpointNS select the checkpoint/session partition
	// this runner operates over.
	ThreadID     string
	CheckpointNS string

	// Compressor, when configured, runs once per Invoke/Stream call on the
	// initial messages before the engine starts (spec §4.6), bounding
	// context size against a model's resolved limit. It does not run again
	// before later Think calls in that run, and Resume does not run it.
	Compressor *compress.Controller
	// Limits resolves a model's context/output budget (spec §4.9); Provider
	// and Model name the model being driven, for that lookup. Both may be
	// left zero to skip limit resolution entirely.
	Limits   modellimit.Resolver
	Provider string
	Model    string

	// WorkingFolder is the filesystem prefix file tools must not escape
	// (spec §6). Enforcement lives in the tool implementations themselves;
	// the runner only carries the configured value through for them to
	// consult.
	WorkingFolder string

	RecursionLimit int
	NodeRetry      map[string]engine.RetryPolicy

	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

func (c Config) logger() telemetry.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return telemetry.NewNoopLogger()
}

func (c Config) metrics() telemetry.Metrics {
	if c.Metrics != nil {
		return c.Metrics
	}
	return telemetry.NewNoopMetrics()
}

// EnvConfig holds the subset of Config sourced from the process
// environment (spec §6), read once via FromEnv rather than scattered
// os.Getenv calls throughout construction.
type EnvConfig struct {
	ModelCatalogURL string
	RefreshInterval time.Duration
	RequireApproval bool
	WorkingFolder   string
}

// FromEnv reads GRAPHRT_MODEL_CATALOG_URL, GRAPHRT_LIMIT_REFRESH_INTERVAL,
// GRAPHRT_REQUIRE_APPROVAL, and GRAPHRT_WORKING_FOLDER, applying the given
// defaults for any unset variable.
func FromEnv(defaults EnvConfig) EnvConfig {
	out := defaults
	if v := os.Getenv("GRAPHRT_MODEL_CATALOG_URL"); v != "" {
		out.ModelCatalogURL = v
	}
	if v := os.Getenv("GRAPHRT_LIMIT_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			out.RefreshInterval = d
		}
	}
	if v := os.Getenv("GRAPHRT_REQUIRE_APPROVAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			out.RequireApproval = b
		}
	}
	if v := os.Getenv("GRAPHRT_WORKING_FOLDER"); v != "" {
		out.WorkingFolder = v
	}
	return out
}

// Runner drives one thread's runs against a fixed Config.
type Runner struct {
	cfg Config
}

// New validates cfg and constructs a Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Plan == nil {
		return nil, fmt.Errorf("runner: Plan is required")
	}
	if cfg.ThreadID == "" {
		return nil, fmt.Errorf("runner: ThreadID is required")
	}
	return &Runner{cfg: cfg}, nil
}

// BuildInitialState implements build_initial_state (spec §4.10): if a
// checkpointer is configured and a checkpoint exists for the runner's
// thread, load it, append User(userMessage) to the restored messages, and
// clear transient per-turn fields; otherwise produce a fresh state with
// [System(prompt), User(userMessage)].
func (r *Runner) BuildInitialState(ctx context.Context, userMessage string) (state.ReActState, error) {
	if r.cfg.Checkpointer != nil {
		cp, found, err := r.cfg.Checkpointer.GetTuple(ctx, r.checkpointConfig())
		if err != nil {
			return state.ReActState{}, err
		}
		if found {
			restored := cp.ChannelValues.Clone()
			restored.Messages = append(restored.Messages, state.User(userMessage))
			restored.ToolCalls = nil
			restored.ToolResults = nil
			restored.ApprovalResult = nil
			return restored, nil
		}
	}

	messages := make([]state.Message, 0, 2)
	if r.cfg.SystemPrompt != "" {
		messages = append(messages, state.System(r.cfg.SystemPrompt))
	}
	messages = append(messages, state.User(userMessage))
	return state.ReActState{Messages: messages}, nil
}

func (r *Runner) checkpointConfig() checkpoint.Config {
	return checkpoint.Config{ThreadID: r.cfg.ThreadID, CheckpointNS: r.cfg.CheckpointNS}
}

// Invoke implements invoke(message) -> final_state (spec §4.10): builds
// the initial state, records the user message in the optional session
// store, and runs the engine to completion without streaming.
func (r *Runner) Invoke(ctx context.Context, message string) (state.ReActState, error) {
	return r.run(ctx, message, nil)
}

// Stream implements stream(message, modes, subscriber) -> final_state
// (spec §4.10): runs the engine with a Broadcaster configured for modes,
// handing the caller a live Subscription before the run starts so no
// early events are missed.
func (r *Runner) Stream(ctx context.Context, message string, modes stream.Modes, onSubscribe func(stream.Subscription)) (state.ReActState, error) {
	broadcaster := stream.NewBroadcaster(r.cfg.ThreadID, 64, false)
	defer broadcaster.Close()

	sub, err := broadcaster.Subscribe(ctx, modes)
	if err != nil {
		return state.ReActState{}, err
	}
	if onSubscribe != nil {
		onSubscribe(sub)
	}

	return r.run(ctx, message, broadcaster)
}

func (r *Runner) run(ctx context.Context, message string, broadcaster *stream.Broadcaster) (state.ReActState, error) {
	log := r.cfg.logger()
	log.Info(ctx, "runner: starting run", "thread_id", r.cfg.ThreadID)

	r.setRunStatus(ctx, run.StatusRunning, run.PhasePrompted)

	if r.cfg.Sessions != nil {
		if _, err := r.cfg.Sessions.Append(ctx, r.cfg.ThreadID, message); err != nil {
			return state.ReActState{}, err
		}
	}

	initial, err := r.BuildInitialState(ctx, message)
	if err != nil {
		return state.ReActState{}, err
	}

	if r.cfg.Compressor != nil {
		r.cfg.Compressor.Config.MaxContextTokens = r.resolveContextLimit(ctx)
		compressed, err := r.cfg.Compressor.Compress(ctx, initial.Messages)
		if err != nil {
			return state.ReActState{}, err
		}
		initial.Messages = compressed
	}

	final, err := engine.Run(ctx, r.cfg.Plan, r.cfg.Checkpointer, initial, engine.RunConfig{
		ThreadID:       r.cfg.ThreadID,
		CheckpointNS:   r.cfg.CheckpointNS,
		RecursionLimit: r.cfg.RecursionLimit,
		Stream:         broadcaster,
		NodeRetry:      r.cfg.NodeRetry,
	})
	if err != nil {
		log.Warn(ctx, "runner: run did not complete", "thread_id", r.cfg.ThreadID, "error", err.Error())
		r.setRunStatus(ctx, statusForError(err), phaseForError(err))
		return final, err
	}

	r.cfg.metrics().IncCounter("runner.run.completed", 1, "thread_id", r.cfg.ThreadID)
	r.setRunStatus(ctx, run.StatusCompleted, run.PhaseCompleted)
	if r.cfg.Transcripts != nil {
		if err := transcript.Record(ctx, r.cfg.Transcripts, r.cfg.ThreadID, final); err != nil {
			log.Warn(ctx, "runner: failed to record transcript", "thread_id", r.cfg.ThreadID, "error", err.Error())
		}
	}
	return final, nil
}

// setRunStatus records a status/phase transition via the optional
// RunStatus store; a nil store or a recording error is non-fatal (spec's
// run status/phase tracking is observability, not a correctness gate).
func (r *Runner) setRunStatus(ctx context.Context, status run.Status, phase run.Phase) {
	if r.cfg.RunStatus == nil {
		return
	}
	if err := r.cfg.RunStatus.Set(ctx, r.cfg.ThreadID, status, phase); err != nil {
		r.cfg.logger().Warn(ctx, "runner: failed to record run status", "thread_id", r.cfg.ThreadID, "error", err.Error())
	}
}

// statusForError classifies a failed run's terminal status: an
// approval-gate or recursion-limit interrupt pauses rather than fails, a
// cancellation is its own status, anything else is a failure.
func statusForError(err error) run.Status {
	var interrupted *engine.Interrupted
	if errors.As(err, &interrupted) {
		return run.StatusPaused
	}
	var cancelled *engine.Cancelled
	if errors.As(err, &cancelled) {
		return run.StatusCanceled
	}
	return run.StatusFailed
}

func phaseForError(err error) run.Phase {
	var interrupted *engine.Interrupted
	if errors.As(err, &interrupted) {
		return run.PhasePaused
	}
	var cancelled *engine.Cancelled
	if errors.As(err, &cancelled) {
		return run.PhaseCanceled
	}
	return run.PhaseFailed
}

// Resume re-enters a run that previously interrupted, after the caller has
// merged an external decision (e.g. an approval) into the checkpointed
// state via r.Checkpointer().Put (spec §4.3; see react package's resume
// contract note: the engine's initialState argument is ignored whenever
// ResumeFromNodeID is set, so there is nothing for Resume to pass besides
// the thread/node coordinates).
func (r *Runner) Resume(ctx context.Context, fromNodeID string) (state.ReActState, error) {
	r.setRunStatus(ctx, run.StatusRunning, run.PhaseActing)
	final, err := engine.Run(ctx, r.cfg.Plan, r.cfg.Checkpointer, state.ReActState{}, engine.RunConfig{
		ThreadID:         r.cfg.ThreadID,
		CheckpointNS:     r.cfg.CheckpointNS,
		ResumeFromNodeID: fromNodeID,
		RecursionLimit:   r.cfg.RecursionLimit,
		NodeRetry:        r.cfg.NodeRetry,
	})
	if err != nil {
		r.setRunStatus(ctx, statusForError(err), phaseForError(err))
		return final, err
	}
	r.setRunStatus(ctx, run.StatusCompleted, run.PhaseCompleted)
	return final, nil
}

// Checkpointer exposes the configured store so callers can Put a merged
// approval/interrupt-response state ahead of calling Resume.
func (r *Runner) Checkpointer() checkpoint.Store[state.ReActState] { return r.cfg.Checkpointer }

// resolveContextLimit looks up the configured model's context budget via
// Limits, falling back to the compressor's already-configured
// MaxContextTokens when no resolver is wired or the model is unknown.
func (r *Runner) resolveContextLimit(ctx context.Context) int {
	if r.cfg.Limits == nil || r.cfg.Provider == "" || r.cfg.Model == "" {
		return r.cfg.Compressor.Config.MaxContextTokens
	}
	limit, ok := r.cfg.Limits.Resolve(ctx, r.cfg.Provider, r.cfg.Model)
	if !ok {
		return r.cfg.Compressor.Config.MaxContextTokens
	}
	return limit.Context
}
