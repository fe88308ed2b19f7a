package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// Understander produces DUP's pre-loop analysis (spec C8: "Understand").
// No concrete LLM adapter ships in this repository (spec Non-goals);
// callers wrap their own Model behind this narrower interface.
type Understander interface {
	Understand(ctx context.Context, messages []state.Message) (state.UnderstandOutput, error)
}

// UnderstandNodeID is the conventional node id for the DUP analysis step,
// registered ahead of the lifted ReAct core (Decompose-Understand-Plan:
// Understand runs once before Think/Act/Observe take over).
const UnderstandNodeID = "understand"

// Understand runs the analysis pass and always continues into the embedded
// ReAct core's Think node.
func Understand(u Understander) graph.NodeFunc[state.DupState] {
	return func(ctx context.Context, s state.DupState) (state.DupState, graph.Next, error) {
		out, err := u.Understand(ctx, s.Core.Messages)
		if err != nil {
			return s, graph.Next{}, err
		}
		s.Understood = &out
		return s, graph.GoTo(ThinkNodeID), nil
	}
}

// BuildDup assembles a full DUP graph: START → Understand → Think → {Act,
// END} → Observe → {Think, END}.
func BuildDup(understander Understander, cfg Config) (*graph.CompiledPlan[state.DupState], error) {
	b := graph.NewBuilder[state.DupState]()
	if err := b.AddNode(UnderstandNodeID, Understand(understander)); err != nil {
		return nil, err
	}
	if err := b.AddEdge(graph.Start, UnderstandNodeID); err != nil {
		return nil, err
	}
	if err := b.AddEdge(UnderstandNodeID, graph.End); err != nil {
		return nil, err
	}
	if err := AddCoreTo(b, DupCoreProjector(), cfg); err != nil {
		return nil, err
	}
	return b.Compile()
}
