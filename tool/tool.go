// Package tool defines the tool-source abstraction: a uniform interface for
// listing and invoking tools, an aggregate registry over named sub-sources,
// and the per-step tool-call context threaded through Act (spec §4.7).
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arwynlabs/graphrt/graph"
)

// Spec describes one tool's metadata and JSON schema, matching the shape
// the teacher's tools.ToolSpec renders from codegen but populated directly
// here since this runtime has no DSL/codegen layer.
type Spec struct {
	Name        string
	Description string
	Tags        []string
	// Schema is the JSON Schema (draft 2020-12) describing the argument
	// payload, validated via tool.Validate.
	Schema json.RawMessage
}

// CallContent is the result of invoking a tool: free-form text content plus
// an optional structured JSON blob, mirroring the MCP tool-result shape so
// native and MCP-backed tools share one result type.
type CallContent struct {
	Content    string
	Structured json.RawMessage
	IsError    bool
}

// StreamSink is the subset of the streaming pipeline's capability exposed to
// tools: emit_custom(v) from spec §4.4, funnelled through the currently
// executing node's channel and envelope.
type StreamSink interface {
	EmitCustom(ctx context.Context, value any)
}

// CallContext bundles what a tool needs to know about the step it is
// running within: the current message tail, identifiers for envelope
// correlation, and a stream writer for emit_custom.
type CallContext struct {
	RunID       string
	SessionID   string
	NodeID      string
	MessageTail []string
	Stream      StreamSink
	// Store is the graph's long-term-memory collaborator (spec §4.2,
	// with_store), when one is attached. Nil when the compiled plan
	// carries no store.
	Store graph.Store
}

// Source is implemented by the local aggregate registry and the fixed-set
// wrappers built on it (File/Bash/ShortTermMemory). MCP tools join an
// AggregateSource through mcp.ToolAdapter's Handler rather than
// implementing Source themselves.
type Source interface {
	ListTools(ctx context.Context) ([]Spec, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (CallContent, error)
	CallToolWithContext(ctx context.Context, name string, args json.RawMessage, cc CallContext) (CallContent, error)
	SetCallContext(cc CallContext)
}

// Handler is a locally registered tool implementation.
type Handler func(ctx context.Context, args json.RawMessage, cc CallContext) (CallContent, error)

// ErrDuplicateName is returned when registering a tool or sub-source whose
// name collides with an existing one.
type ErrDuplicateName struct{ Name string }

func (e *ErrDuplicateName) Error() string { return fmt.Sprintf("tool: duplicate name %q", e.Name) }

// ErrNotFound is returned when a tool name is not known to the aggregate.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("tool: not found: %q", e.Name) }

// AggregateSource holds a registry of named local tools plus nested
// sub-sources; CallTool dispatches by name, checking local tools first and
// then each sub-source in registration order. Duplicate names across either
// local tools or sub-source tool lists are rejected at registration time.
type AggregateSource struct {
	mu        sync.RWMutex
	specs     map[string]Spec
	handlers  map[string]Handler
	subs      []Source
	subNames  map[string][]string // sub-source index -> tool names, for duplicate detection
	callCtx   CallContext
}

// NewAggregateSource constructs an empty aggregate tool registry.
func NewAggregateSource() *AggregateSource {
	return &AggregateSource{
		specs:    make(map[string]Spec),
		handlers: make(map[string]Handler),
	}
}

// RegisterTool adds a local tool. Returns ErrDuplicateName if the name is
// already registered locally or by a nested sub-source.
func (a *AggregateSource) RegisterTool(spec Spec, h Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.checkNameLocked(spec.Name); err != nil {
		return err
	}
	a.specs[spec.Name] = spec
	a.handlers[spec.Name] = h
	return nil
}

// AddSource registers a nested Source whose tools are listed alongside the
// local ones. The sub-source's tool list is snapshotted at registration
// time to detect name collisions; callers that mutate a sub-source's tool
// set after registration are responsible for keeping names unique.
func (a *AggregateSource) AddSource(ctx context.Context, src Source) error {
	specs, err := src.ListTools(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		if err := a.checkNameLocked(s.Name); err != nil {
			return err
		}
		names = append(names, s.Name)
	}
	for _, n := range names {
		a.specs[n] = Spec{} // placeholder; real spec served by ListTools aggregation
	}
	a.subs = append(a.subs, src)
	if a.subNames == nil {
		a.subNames = make(map[string][]string)
	}
	a.subNames[fmt.Sprintf("%d", len(a.subs)-1)] = names
	return nil
}

func (a *AggregateSource) checkNameLocked(name string) error {
	if _, ok := a.specs[name]; ok {
		return &ErrDuplicateName{Name: name}
	}
	return nil
}

func (a *AggregateSource) ListTools(ctx context.Context) ([]Spec, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Spec, 0, len(a.specs))
	for name, spec := range a.specs {
		if _, isLocal := a.handlers[name]; isLocal {
			out = append(out, spec)
		}
	}
	for _, sub := range a.subs {
		specs, err := sub.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, specs...)
	}
	return out, nil
}

func (a *AggregateSource) CallTool(ctx context.Context, name string, args json.RawMessage) (CallContent, error) {
	a.mu.RLock()
	cc := a.callCtx
	a.mu.RUnlock()
	return a.CallToolWithContext(ctx, name, args, cc)
}

func (a *AggregateSource) CallToolWithContext(ctx context.Context, name string, args json.RawMessage, cc CallContext) (CallContent, error) {
	a.mu.RLock()
	h, ok := a.handlers[name]
	subs := a.subs
	a.mu.RUnlock()
	if ok {
		return h(ctx, args, cc)
	}
	for _, sub := range subs {
		content, err := sub.CallToolWithContext(ctx, name, args, cc)
		if err == nil {
			return content, nil
		}
		var nf *ErrNotFound
		if !asNotFound(err, &nf) {
			return content, err
		}
	}
	return CallContent{}, &ErrNotFound{Name: name}
}

func (a *AggregateSource) SetCallContext(cc CallContext) {
	a.mu.Lock()
	a.callCtx = cc
	a.mu.Unlock()
	for _, sub := range a.subs {
		sub.SetCallContext(cc)
	}
}

func asNotFound(err error, target **ErrNotFound) bool {
	nf, ok := err.(*ErrNotFound)
	if ok {
		*target = nf
	}
	return ok
}
