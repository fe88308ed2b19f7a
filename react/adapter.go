package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// CoreProjector reads and writes the embedded ReActState inside an outer
// state type S, letting one react.Node implementation serve DUP/ToT/GoT
// graphs without runtime type erasure (spec §9: "adapter nodes convert
// between state types by projecting S.core into ReActState, running the
// inner node, and writing the result back").
type CoreProjector[S any] struct {
	Get func(S) state.ReActState
	Set func(S, state.ReActState) S
}

// Lift wraps a graph.Node[state.ReActState] (Think, Act, Observe, or any
// other core node) as a graph.Node[S], projecting the outer state down to
// its embedded core before Run and writing the result back afterward. The
// inner node's Next is passed through unchanged, since Think/Act/Observe
// name node ids from their own graph's namespace.
func Lift[S any](proj CoreProjector[S], inner graph.Node[state.ReActState]) graph.NodeFunc[S] {
	return func(ctx context.Context, outer S) (S, graph.Next, error) {
		core := proj.Get(outer)
		newCore, next, err := inner.Run(ctx, core)
		outer = proj.Set(outer, newCore)
		return outer, next, err
	}
}

// DupCoreProjector projects DupState.Core.
func DupCoreProjector() CoreProjector[state.DupState] {
	return CoreProjector[state.DupState]{
		Get: func(s state.DupState) state.ReActState { return s.Core },
		Set: func(s state.DupState, core state.ReActState) state.DupState { s.Core = core; return s },
	}
}

// TotCoreProjector projects TotState.Core.
func TotCoreProjector() CoreProjector[state.TotState] {
	return CoreProjector[state.TotState]{
		Get: func(s state.TotState) state.ReActState { return s.Core },
		Set: func(s state.TotState, core state.ReActState) state.TotState { s.Core = core; return s },
	}
}

// GotCoreProjector projects GotState.Core.
func GotCoreProjector() CoreProjector[state.GotState] {
	return CoreProjector[state.GotState]{
		Get: func(s state.GotState) state.ReActState { return s.Core },
		Set: func(s state.GotState, core state.ReActState) state.GotState { s.Core = core; return s },
	}
}

// AddCoreTo registers Lift-wrapped Think/Act/Observe nodes into an outer
// graph builder over S, using proj to reach the embedded core. Unlike AddTo
// (which builds a standalone ReActState graph), this is meant to be called
// alongside the outer graph's own Understand/Expand-Evaluate/Plan-graph
// nodes — AddCoreTo only wires the three core nodes and their internal
// edges; the caller wires START and whatever precedes/follows the core.
func AddCoreTo[S any](b *graph.Builder[S], proj CoreProjector[S], cfg Config) error {
	if err := b.AddNode(ThinkNodeID, Lift(proj, Think(cfg.Think))); err != nil {
		return err
	}
	if err := b.AddNode(ActNodeID, Lift(proj, Act(cfg.Act))); err != nil {
		return err
	}
	if err := b.AddNode(ObserveNodeID, Lift(proj, Observe())); err != nil {
		return err
	}
	if err := b.AddEdge(ThinkNodeID, graph.End); err != nil {
		return err
	}
	if err := b.AddEdge(ActNodeID, ObserveNodeID); err != nil {
		return err
	}
	if err := b.AddEdge(ObserveNodeID, graph.End); err != nil {
		return err
	}
	return nil
}
