package react

import (
	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// Config bundles Think and Act's configuration for AddTo.
type Config struct {
	Think ThinkConfig
	Act   ActConfig

	// Store optionally attaches long-term memory to the built graph (spec
	// §4.2, with_store), distinct from the checkpointer a runner is
	// configured with. Nil means the compiled plan carries no store.
	Store graph.Store
}

// AddTo registers Think, Act, and Observe on b and wires START → Think →
// {Act, END} → Observe → {Think, END}, the state machine spec §4.5 names.
// Think and Observe compute their own successor at run time (see their doc
// comments), so their registered edges are placeholders the engine never
// actually follows.
func AddTo(b *graph.Builder[state.ReActState], cfg Config) error {
	if err := b.AddNode(ThinkNodeID, Think(cfg.Think)); err != nil {
		return err
	}
	if err := b.AddNode(ActNodeID, Act(cfg.Act)); err != nil {
		return err
	}
	if err := b.AddNode(ObserveNodeID, Observe()); err != nil {
		return err
	}
	if err := b.AddEdge(graph.Start, ThinkNodeID); err != nil {
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
	if cfg.Store != nil {
		b.WithStore(cfg.Store)
	}
	return nil
}

// NewGraph builds and compiles a standalone ReAct graph over the base
// state.ReActState type. DUP/ToT/GoT callers that need the loop embedded
// inside a larger state instead use AddCoreTo, which registers Lift-wrapped
// core nodes on their own builder (see adapter.go).
func NewGraph(cfg Config) (*graph.CompiledPlan[state.ReActState], error) {
	b := graph.NewBuilder[state.ReActState]()
	if err := AddTo(b, cfg); err != nil {
		return nil, err
	}
	return b.Compile()
}
