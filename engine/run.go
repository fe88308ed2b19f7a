package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/stream"
)

// Run interprets plan against initialState, following spec §4.3's loop
// exactly: schedule, wrap with middleware (applied at Compile time),
// retry, checkpoint, emit, resolve_next, repeat until END, a
// GraphInterrupt, cancellation, or the recursion limit.
//
// store may be nil, in which case no checkpoint is persisted (useful for
// tests and for callers that only want in-memory execution). When
// cfg.ResumeFromNodeID is set, store must be non-nil and hold a
// checkpoint for (cfg.ThreadID, cfg.CheckpointNS); the latest one's state
// becomes the starting point instead of initialState.
func Run[S any](ctx context.Context, plan *graph.CompiledPlan[S], store checkpoint.Store[S], initialState S, cfg RunConfig) (S, error) {
	state := initialState
	var current string
	var err error

	if cfg.ResumeFromNodeID != "" {
		current, state, err = resumeFrom(ctx, store, cfg)
		if err != nil {
			var zero S
			return zero, err
		}
	} else {
		current, err = plan.StartID(state)
		if err != nil {
			var zero S
			return zero, err
		}
	}

	depth := 0
	for {
		if depth > cfg.recursionLimit() {
			var zero S
			ckptCfg, cerr := persistInterrupt(ctx, store, cfg, current, state, RecursionLimitReason)
			if cerr != nil {
				return zero, cerr
			}
			return zero, &Interrupted{Reason: RecursionLimitReason, NodeID: current, Checkpoint: ckptCfg}
		}
		depth++

		if cfg.cancelled() {
			var zero S
			if store != nil {
				_ = persistCancelled(ctx, store, cfg, current, state)
			}
			return zero, &Cancelled{NodeID: current}
		}

		node, ok := plan.Node(current)
		if !ok {
			var zero S
			return zero, &graph.NodeNotFound{ID: current}
		}

		if cfg.Stream != nil {
			cfg.Stream.Publish(stream.ModeTasks, current, stream.TasksPayload{Node: current, Phase: stream.TaskStart})
			cfg.Stream.Publish(stream.ModeUpdates, current, stream.UpdatesPayload{Node: current, Phase: "input", State: mustJSON(state)})
		}

		newState, next, runErr := runWithRetry(ctx, node, state, cfg.NodeRetry[current])
		if runErr != nil {
			var interrupt *GraphInterrupt
			if ok := asGraphInterrupt(runErr, &interrupt); ok {
				var zero S
				ckptCfg, cerr := persistInterrupt(ctx, store, cfg, current, state, interrupt.Reason)
				if cerr != nil {
					return zero, cerr
				}
				return zero, &Interrupted{Reason: interrupt.Reason, NodeID: current, Payload: interrupt.Payload, Checkpoint: ckptCfg}
			}
			var zero S
			return zero, runErr
		}
		state = newState

		if store != nil {
			if err := persistStep(ctx, store, cfg, current, state); err != nil {
				var zero S
				return zero, err
			}
		}

		if cfg.Stream != nil {
			cfg.Stream.Publish(stream.ModeTasks, current, stream.TasksPayload{Node: current, Phase: stream.TaskEnd})
			cfg.Stream.Publish(stream.ModeUpdates, current, stream.UpdatesPayload{Node: current, Phase: "output", State: mustJSON(state)})
			cfg.Stream.Publish(stream.ModeValues, current, stream.ValuesPayload{State: mustJSON(state)})
		}

		nextID, err := plan.Resolve(current, state, next)
		if err != nil {
			var zero S
			return zero, err
		}
		if nextID == graph.End {
			return state, nil
		}
		current = nextID
	}
}

// runWithRetry retries node.Run per policy, distinguishing retryable
// from terminal errors (spec §4.3 "Retries"). A zero-value policy means
// no retries: a single attempt, error propagates immediately.
func runWithRetry[S any](ctx context.Context, node graph.Node[S], state S, policy RetryPolicy) (S, graph.Next, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		newState, next, err := node.Run(ctx, state)
		if err == nil {
			return newState, next, nil
		}
		var interrupt *GraphInterrupt
		if asGraphInterrupt(err, &interrupt) {
			var zero S
			return zero, graph.Next{}, err
		}
		lastErr = err
		if attempt == attempts || !policy.retryable(err) {
			break
		}
		delay := policy.Backoff.delay(attempt)
		if delay > 0 {
			select {
			case <-ctx.Done():
				var zero S
				return zero, graph.Next{}, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	var zero S
	return zero, graph.Next{}, lastErr
}

func asGraphInterrupt(err error, out **GraphInterrupt) bool {
	interrupt, ok := err.(*GraphInterrupt)
	if !ok {
		return false
	}
	*out = interrupt
	return true
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf("%q", err.Error()))
	}
	return b
}

func resumeFrom[S any](ctx context.Context, store checkpoint.Store[S], cfg RunConfig) (string, S, error) {
	var zero S
	if store == nil {
		return "", zero, fmt.Errorf("engine: resume requires a checkpoint store")
	}
	cp, found, err := store.GetTuple(ctx, checkpoint.Config{
		ThreadID:     cfg.ThreadID,
		CheckpointNS: cfg.CheckpointNS,
	})
	if err != nil {
		return "", zero, err
	}
	if !found {
		return "", zero, checkpoint.ErrNotFound
	}
	return cfg.ResumeFromNodeID, cp.ChannelValues, nil
}

func persistStep[S any](ctx context.Context, store checkpoint.Store[S], cfg RunConfig, nodeID string, state S) error {
	_, err := store.Put(ctx, checkpoint.Config{ThreadID: cfg.ThreadID, CheckpointNS: cfg.CheckpointNS, UserID: cfg.UserID}, checkpoint.Checkpoint[S]{
		ChannelValues: state,
		TS:            time.Now().UTC().Format(time.RFC3339Nano),
		Meta:          checkpoint.Metadata{Source: checkpoint.SourceLoop},
	})
	return err
}

func persistInterrupt[S any](ctx context.Context, store checkpoint.Store[S], cfg RunConfig, nodeID string, state S, reason string) (checkpoint.Config, error) {
	ckptCfg := checkpoint.Config{ThreadID: cfg.ThreadID, CheckpointNS: cfg.CheckpointNS, UserID: cfg.UserID, ResumeFromNodeID: nodeID}
	if store == nil {
		return ckptCfg, nil
	}
	_, err := store.Put(ctx, ckptCfg, checkpoint.Checkpoint[S]{
		ChannelValues: state,
		TS:            time.Now().UTC().Format(time.RFC3339Nano),
		Meta:          checkpoint.Metadata{Source: checkpoint.SourceUpdate, Step: -1},
	})
	return ckptCfg, err
}

func persistCancelled[S any](ctx context.Context, store checkpoint.Store[S], cfg RunConfig, nodeID string, state S) error {
	_, err := store.Put(ctx, checkpoint.Config{ThreadID: cfg.ThreadID, CheckpointNS: cfg.CheckpointNS, UserID: cfg.UserID, ResumeFromNodeID: nodeID}, checkpoint.Checkpoint[S]{
		ChannelValues: state,
		TS:            time.Now().UTC().Format(time.RFC3339Nano),
		Meta:          checkpoint.Metadata{Source: checkpoint.SourceLoop},
	})
	return err
}
