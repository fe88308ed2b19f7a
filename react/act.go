package react

import (
	"context"
	"sync"

	"github.com/arwynlabs/graphrt/engine"
	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/policy"
	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/tool"
)

// DefaultToolConcurrency is the fan-out bound applied when ActConfig.Concurrency
// is zero (spec §4.5, §9(c): "this spec fixes a default of 4").
const DefaultToolConcurrency = 4

// ApprovalReason is the GraphInterrupt.Reason Act raises when a tool call
// requires operator approval before dispatch.
const ApprovalReason = "needs_approval"

// rejectedContent is the synthetic tool-result content written when an
// operator rejects a gated call (spec §4.5 step 2, scenario B).
const rejectedContent = "user rejected"

// ActConfig configures the Act node (spec §4.5 "Act").
type ActConfig struct {
	Tools       tool.Source
	Policy      policy.Engine
	Concurrency int
	ErrorPolicy HandleToolErrors

	RunID         string
	SessionID     string
	MessageTailN  int // number of trailing messages bundled into CallContext; 0 means all
	StreamSink    tool.StreamSink
	// Store is threaded into each tool call's CallContext so tool
	// implementations (e.g. a remember/recall pair) can read or write
	// long-term memory (spec §4.2, with_store). Nil disables it.
	Store graph.Store
}

func (c ActConfig) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultToolConcurrency
	}
	return c.Concurrency
}

// Act dispatches the tool calls Think requested, honoring the approval gate
// and HandleToolErrors policy. It returns Continue(); Act is wired as a
// plain linear-chain node (no router) since Observe always follows.
func Act(cfg ActConfig) graph.NodeFunc[state.ReActState] {
	return func(ctx context.Context, s state.ReActState) (state.ReActState, graph.Next, error) {
		s = s.Clone()

		if len(s.ToolCalls) == 0 {
			return s, graph.Continue(), nil
		}

		gatedIdx := -1
		if cfg.Policy != nil {
			for i, c := range s.ToolCalls {
				if cfg.Policy.Classify(ctx, c.Name, c.Arguments).RequiresApproval() {
					gatedIdx = i
					break
				}
			}
		}

		if gatedIdx >= 0 && s.ApprovalResult == nil {
			return s, graph.Next{}, &engine.GraphInterrupt{
				Reason:  ApprovalReason,
				Payload: s.ToolCalls[gatedIdx],
			}
		}

		if gatedIdx >= 0 && s.ApprovalResult != nil && !s.ApprovalResult.Approved {
			results := make([]state.ToolResult, len(s.ToolCalls))
			for i, c := range s.ToolCalls {
				results[i] = state.ToolResult{CallID: c.ID, Name: c.Name, IsError: true, Content: rejectedContent}
			}
			s.ToolResults = results
			s.ApprovalResult = nil
			return s, graph.Continue(), nil
		}

		cc := tool.CallContext{
			RunID:       cfg.RunID,
			SessionID:   cfg.SessionID,
			NodeID:      ActNodeID,
			MessageTail: tailContent(s.Messages, cfg.MessageTailN),
			Stream:      cfg.StreamSink,
			Store:       cfg.Store,
		}
		results, err := dispatchParallel(ctx, cfg, cc, s.ToolCalls)
		if err != nil {
			return s, graph.Next{}, err
		}
		s.ToolResults = results
		s.ApprovalResult = nil
		return s, graph.Continue(), nil
	}
}

func tailContent(messages []state.Message, n int) []string {
	if n <= 0 || n >= len(messages) {
		n = len(messages)
	}
	start := len(messages) - n
	out := make([]string, 0, n)
	for _, m := range messages[start:] {
		out = append(out, m.Content)
	}
	return out
}

// dispatchParallel runs one tool call per goroutine bounded by
// cfg.concurrency(), writing results back in the original call order (spec
// §4.5: "results are collected and written to tool_results in the original
// tool_calls order"). An unhandled error (HandleToolErrors declines to
// render it) aborts the whole step.
//
// Calls sharing a non-empty IdempotencyKey and a Name tagged
// tool.IdempotencyScopeStep are de-duplicated: only the first such call in
// the batch actually reaches cfg.Tools, and later duplicates reuse its
// result (grounded on the teacher's tools/idempotency.go tagging scheme).
func dispatchParallel(ctx context.Context, cfg ActConfig, cc tool.CallContext, calls []state.ToolCall) ([]state.ToolResult, error) {
	dupOf, err := idempotentDuplicates(ctx, cfg.Tools, calls)
	if err != nil {
		return nil, err
	}

	results := make([]state.ToolResult, len(calls))
	errs := make([]error, len(calls))
	sem := make(chan struct{}, cfg.concurrency())
	var wg sync.WaitGroup

	for i, c := range calls {
		if dupOf[i] >= 0 {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c state.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			content, err := cfg.Tools.CallToolWithContext(ctx, c.Name, c.Arguments, cc)
			if err != nil {
				if rendered, ok := cfg.ErrorPolicy.Render(err); ok {
					results[i] = state.ToolResult{CallID: c.ID, Name: c.Name, IsError: true, Content: rendered}
					return
				}
				errs[i] = err
				return
			}
			results[i] = state.ToolResult{CallID: c.ID, Name: c.Name, Content: content.Content, IsError: content.IsError}
		}(i, c)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}

	for i, first := range dupOf {
		if first < 0 {
			continue
		}
		results[i] = state.ToolResult{
			CallID:  calls[i].ID,
			Name:    calls[i].Name,
			Content: results[first].Content,
			IsError: results[first].IsError,
		}
	}
	return results, nil
}

// idempotentDuplicates returns, for each call index, the index of the
// earlier call in the same batch it duplicates (-1 if it is not a
// duplicate). Only tools declaring tool.IdempotencyScopeStep are eligible.
func idempotentDuplicates(ctx context.Context, src tool.Source, calls []state.ToolCall) ([]int, error) {
	dupOf := make([]int, len(calls))
	for i := range dupOf {
		dupOf[i] = -1
	}

	specs, err := src.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	stepIdempotent := make(map[string]bool, len(specs))
	for _, spec := range specs {
		scope, ok, err := tool.IdempotencyScopeFromTags(spec.Tags)
		if err != nil {
			return nil, err
		}
		if ok && scope == tool.IdempotencyScopeStep {
			stepIdempotent[spec.Name] = true
		}
	}

	seen := make(map[string]int, len(calls))
	for i, c := range calls {
		if c.IdempotencyKey == "" || !stepIdempotent[c.Name] {
			continue
		}
		key := c.Name + "\x00" + c.IdempotencyKey
		if first, ok := seen[key]; ok {
			dupOf[i] = first
			continue
		}
		seen[key] = i
	}
	return dupOf, nil
}
