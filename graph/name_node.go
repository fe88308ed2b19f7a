package graph

import "context"

// NameNode is a no-op pass-through node usable as a named placeholder in a
// chain: it returns its input state unchanged and always continues along
// the node's static unconditional edge. Grounded on the original
// implementation's NameNode (loom/src/graph/name_node.rs), useful wherever
// a graph needs a stable, addressable id at a point in the chain that does
// no work of its own (e.g. a branch target for AddConditionalEdges' path
// map before a later node is wired in).
type NameNode[S any] struct{ Name string }

// Run implements Node[S]: it returns state unchanged and Continue().
func (n NameNode[S]) Run(_ context.Context, state S) (S, Next, error) {
	return state, Continue(), nil
}
