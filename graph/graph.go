// Package graph implements the typed state graph builder and compiler:
// node/edge registration, conditional routing, and compile-time validation
// producing an immutable execution plan (spec §4.2). The state type S is a
// type parameter throughout, following the teacher's preference for
// generics over runtime type erasure (spec §9).
package graph

import (
	"context"
	"fmt"
)

// Sentinel node ids.
const (
	Start = "__start__"
	End   = "__end__"
)

// NextKind discriminates what a node requests as its successor.
type NextKind int

const (
	NextContinue NextKind = iota // follow the node's sole unconditional edge
	NextNode                    // jump to a specific node id
	NextEnd                     // terminate the run
)

// Next is returned by a node alongside its new state, naming the
// successor. Conditional-edge nodes have their Next ignored by the engine;
// the attached router decides instead (spec §4.3, resolve_next).
type Next struct {
	Kind NextKind
	Node string
}

func Continue() Next         { return Next{Kind: NextContinue} }
func GoTo(node string) Next  { return Next{Kind: NextNode, Node: node} }
func Finish() Next           { return Next{Kind: NextEnd} }

// Node is one unit of graph execution: it receives the current state and
// returns the new state plus a routing decision.
type Node[S any] interface {
	Run(ctx context.Context, state S) (S, Next, error)
}

// NodeFunc adapts a plain function to Node.
type NodeFunc[S any] func(ctx context.Context, state S) (S, Next, error)

func (f NodeFunc[S]) Run(ctx context.Context, state S) (S, Next, error) { return f(ctx, state) }

// Router decides the next node id (or a key resolved via a path map) from
// the current state.
type Router[S any] func(state S) string

// Middleware wraps a node's Run uniformly, applied in registration order
// (outermost first) by compile (spec §4.2, with_middleware).
type Middleware[S any] func(next Node[S]) Node[S]

type edgeKind int

const (
	edgeNone edgeKind = iota
	edgeUnconditional
	edgeConditional
)

type nodeEntry[S any] struct {
	id   string
	node Node[S]
	kind edgeKind

	// edgeUnconditional
	to string

	// edgeConditional
	router   Router[S]
	pathMap  map[string]string // nil means the router's key IS the destination
}

// Builder accumulates nodes and edges prior to Compile. The virtual Start
// node is tracked with the same nodeEntry shape as real nodes so it is
// subject to the identical linear-chain/router-exclusivity discipline
// (spec §4.2 rule 5: "A branch from START ... fails InvalidChain").
type Builder[S any] struct {
	nodes       map[string]*nodeEntry[S]
	order       []string
	middlewares []Middleware[S]
	start       nodeEntry[S]
	store       Store
}

// NewBuilder constructs an empty graph builder.
func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{nodes: make(map[string]*nodeEntry[S]), start: nodeEntry[S]{id: Start}}
}

// AddNode registers a node; rejects duplicate ids.
func (b *Builder[S]) AddNode(id string, node Node[S]) error {
	if id == Start || id == End {
		return &DuplicateNode{ID: id}
	}
	if _, exists := b.nodes[id]; exists {
		return &DuplicateNode{ID: id}
	}
	b.nodes[id] = &nodeEntry[S]{id: id, node: node}
	b.order = append(b.order, id)
	return nil
}

// entryFor returns the entry for id, where id may be the Start sentinel
// (backed by b.start) or a registered node.
func (b *Builder[S]) entryFor(id string) (*nodeEntry[S], bool) {
	if id == Start {
		return &b.start, true
	}
	entry, ok := b.nodes[id]
	return entry, ok
}

// AddEdge adds an unconditional edge. from/to may be Start/End sentinels.
// START is subject to the same linear-chain discipline as any other node:
// a second unconditional edge from START, or mixing it with conditional
// routing, fails just as it would for a regular node (spec §4.2 rule 5).
func (b *Builder[S]) AddEdge(from, to string) error {
	entry, ok := b.entryFor(from)
	if !ok {
		return &NodeNotFound{ID: from}
	}
	if to != End {
		if _, ok := b.nodes[to]; !ok {
			return &NodeNotFound{ID: to}
		}
	}
	if entry.kind == edgeConditional {
		return &RouterConflict{ID: from}
	}
	if entry.kind == edgeUnconditional {
		return &InvalidChain{ID: from, Reason: "more than one unconditional outgoing edge"}
	}
	entry.kind = edgeUnconditional
	entry.to = to
	return nil
}

// AddConditionalEdges attaches dynamic routing from `from` (which may be
// Start). If pathMap is non-nil, the router's returned key is looked up in
// pathMap to find the destination node id (or End); otherwise the key
// itself is the destination and cannot be statically validated (spec
// §9(a): an unmapped router is resolved to NodeNotFound only at run time).
func (b *Builder[S]) AddConditionalEdges(from string, router Router[S], pathMap map[string]string) error {
	entry, ok := b.entryFor(from)
	if !ok {
		return &NodeNotFound{ID: from}
	}
	if entry.kind == edgeUnconditional {
		return &RouterConflict{ID: from}
	}
	if pathMap != nil {
		for key, dest := range pathMap {
			if dest != End {
				if _, ok := b.nodes[dest]; !ok {
					return &NodeNotFound{ID: fmt.Sprintf("%s (path_map[%q])", dest, key)}
				}
			}
		}
	}
	entry.kind = edgeConditional
	entry.router = router
	entry.pathMap = pathMap
	return nil
}

// WithMiddleware attaches a node middleware wrapped around every run, in
// the order added (first added is outermost).
func (b *Builder[S]) WithMiddleware(m Middleware[S]) *Builder[S] {
	b.middlewares = append(b.middlewares, m)
	return b
}
