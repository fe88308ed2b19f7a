package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// Expander proposes candidate continuations from the current conversation
// and a selected parent (empty for the root expansion), driving ToT's
// "Expand" step (spec C8).
type Expander interface {
	Expand(ctx context.Context, core state.ReActState, parent string) ([]state.Candidate, error)
}

// Evaluator scores a batch of candidates, driving ToT's "Evaluate" step.
// Implementations fill in Candidate.Score; Evaluate treats the
// highest-scored candidate as the winner.
type Evaluator interface {
	Evaluate(ctx context.Context, core state.ReActState, candidates []state.Candidate) ([]state.Candidate, error)
}

const (
	ExpandNodeID   = "expand"
	EvaluateNodeID = "evaluate"
)

// Expand generates candidate continuations from the currently selected
// thought (or the root, if none selected yet) and always proceeds to
// Evaluate.
func Expand(e Expander) graph.NodeFunc[state.TotState] {
	return func(ctx context.Context, s state.TotState) (state.TotState, graph.Next, error) {
		candidates, err := e.Expand(ctx, s.Core, s.Selected)
		if err != nil {
			return s, graph.Next{}, err
		}
		s.Candidates = append(s.Candidates, candidates...)
		return s, graph.GoTo(EvaluateNodeID), nil
	}
}

// Evaluate scores the accumulated candidates and writes the highest-scored
// one's text into the core conversation as a user-visible thought before
// handing control to Think, matching the "adapter nodes project S.core
// into ReActState" design (spec §9) for how ToT's extra state feeds the
// shared core loop.
func Evaluate(ev Evaluator) graph.NodeFunc[state.TotState] {
	return func(ctx context.Context, s state.TotState) (state.TotState, graph.Next, error) {
		scored, err := ev.Evaluate(ctx, s.Core, s.Candidates)
		if err != nil {
			return s, graph.Next{}, err
		}
		s.Candidates = scored

		best := bestCandidate(scored)
		if best != nil {
			s.Selected = best.ID
			s.Core.Messages = append(s.Core.Messages, stateUserThought(best.Thought))
		}
		return s, graph.GoTo(ThinkNodeID), nil
	}
}

func bestCandidate(candidates []state.Candidate) *state.Candidate {
	var best *state.Candidate
	for i := range candidates {
		c := &candidates[i]
		if c.Score == nil {
			continue
		}
		if best == nil || *c.Score > *best.Score {
			best = c
		}
	}
	return best
}

func stateUserThought(thought string) state.Message { return state.User(thought) }

// BuildTot assembles a full ToT graph: START → Expand → Evaluate → Think →
// {Act, END} → Observe → {Think, END}.
func BuildTot(expander Expander, evaluator Evaluator, cfg Config) (*graph.CompiledPlan[state.TotState], error) {
	b := graph.NewBuilder[state.TotState]()
	if err := b.AddNode(ExpandNodeID, Expand(expander)); err != nil {
		return nil, err
	}
	if err := b.AddNode(EvaluateNodeID, Evaluate(evaluator)); err != nil {
		return nil, err
	}
	if err := b.AddEdge(graph.Start, ExpandNodeID); err != nil {
		return nil, err
	}
	if err := b.AddEdge(ExpandNodeID, EvaluateNodeID); err != nil {
		return nil, err
	}
	if err := b.AddEdge(EvaluateNodeID, graph.End); err != nil {
		return nil, err
	}
	if err := AddCoreTo(b, TotCoreProjector(), cfg); err != nil {
		return nil, err
	}
	return b.Compile()
}
