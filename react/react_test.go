package react_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/checkpoint/inmem"
	"github.com/arwynlabs/graphrt/engine"
	"github.com/arwynlabs/graphrt/policy"
	"github.com/arwynlabs/graphrt/react"
	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/tool"
)

// scriptedModel replies with a canned sequence of GenerateReply values, one
// per call, so a test can script a full think/act/observe round-trip.
type scriptedModel struct {
	replies []react.GenerateReply
	calls   int
}

func (m *scriptedModel) Generate(_ context.Context, _ react.GenerateRequest) (react.GenerateReply, error) {
	r := m.replies[m.calls]
	m.calls++
	return r, nil
}

func newTimeTool(t *testing.T) *tool.AggregateSource {
	t.Helper()
	src := tool.NewAggregateSource()
	require.NoError(t, src.RegisterTool(tool.Spec{Name: "get_time"}, func(_ context.Context, _ json.RawMessage, _ tool.CallContext) (tool.CallContent, error) {
		return tool.CallContent{Content: "2025-01-29 12:00:00"}, nil
	}))
	return src
}

// TestReActOneToolRoundTrip mirrors spec scenario A: a single tool call,
// then a final response.
func TestReActOneToolRoundTrip(t *testing.T) {
	model := &scriptedModel{replies: []react.GenerateReply{
		{Content: "", ToolCalls: []state.ToolCall{{ID: "1", Name: "get_time"}}},
		{Content: "The time is 2025-01-29 12:00:00."},
	}}
	tools := newTimeTool(t)

	plan, err := react.NewGraph(react.Config{
		Think: react.ThinkConfig{Model: model, Tools: tools},
		Act:   react.ActConfig{Tools: tools},
	})
	require.NoError(t, err)

	store := inmem.New[state.ReActState]()
	final, err := engine.Run(context.Background(), plan, store, state.ReActState{
		Messages: []state.Message{state.User("what time is it?")},
	}, engine.RunConfig{ThreadID: "scenario-a"})
	require.NoError(t, err)

	require.NotEmpty(t, final.Messages)
	last := final.Messages[len(final.Messages)-1]
	assert.Equal(t, state.RoleAssistant, last.Role)
	assert.Equal(t, "The time is 2025-01-29 12:00:00.", last.Content)
	assert.EqualValues(t, 1, final.TurnCount)
	assert.Empty(t, final.ToolCalls)
	assert.Empty(t, final.ToolResults)
}

// TestReActApprovalGateRejection mirrors spec scenario B: a destructive call
// is gated, the run interrupts, and a rejected resume produces a synthetic
// error tool result before reaching END.
func TestReActApprovalGateRejection(t *testing.T) {
	model := &scriptedModel{replies: []react.GenerateReply{
		{ToolCalls: []state.ToolCall{{ID: "1", Name: "delete_file", Arguments: json.RawMessage(`{"path":"x"}`)}}},
		{Content: "Done."},
	}}
	tools := tool.NewAggregateSource()
	require.NoError(t, tools.RegisterTool(tool.Spec{Name: "delete_file"}, func(context.Context, json.RawMessage, tool.CallContext) (tool.CallContent, error) {
		t.Fatal("delete_file must not be dispatched when rejected")
		return tool.CallContent{}, nil
	}))

	pol := policy.NewAllowlistEngine(map[string]policy.Classification{
		"delete_file": policy.ClassificationDestructive,
	}, policy.CapsState{})

	plan, err := react.NewGraph(react.Config{
		Think: react.ThinkConfig{Model: model, Tools: tools},
		Act:   react.ActConfig{Tools: tools, Policy: pol},
	})
	require.NoError(t, err)

	store := inmem.New[state.ReActState]()
	initial := state.ReActState{Messages: []state.Message{state.User("delete x")}}
	_, err = engine.Run(context.Background(), plan, store, initial, engine.RunConfig{ThreadID: "scenario-b"})
	require.Error(t, err)
	var interrupted *engine.Interrupted
	require.ErrorAs(t, err, &interrupted)
	assert.Equal(t, "act", interrupted.NodeID)
	assert.Equal(t, react.ApprovalReason, interrupted.Reason)

	// The caller merges the operator's decision into the checkpointed state
	// (spec §4.3: "resumes ... with the prior state plus an optional merged
	// payload ... written into state.approval_result") before re-running
	// with ResumeFromNodeID set; the engine loads its starting state from
	// the store, not from the initialState argument, when resuming.
	atInterrupt, found, err := store.GetTuple(context.Background(), checkpoint.Config{ThreadID: "scenario-b"})
	require.NoError(t, err)
	require.True(t, found)
	require.NotEmpty(t, atInterrupt.ChannelValues.ToolCalls, "persisted pre-Act state must still carry the gated tool call")

	resumeState := atInterrupt.ChannelValues
	resumeState.ApprovalResult = &state.Approval{Approved: false, Reason: "not today"}
	_, err = store.Put(context.Background(), checkpoint.Config{ThreadID: "scenario-b"}, checkpoint.Checkpoint[state.ReActState]{
		ChannelValues: resumeState,
		Meta:          checkpoint.Metadata{Source: checkpoint.SourceUpdate},
	})
	require.NoError(t, err)

	final, err := engine.Run(context.Background(), plan, store, state.ReActState{}, engine.RunConfig{
		ThreadID:         "scenario-b",
		ResumeFromNodeID: interrupted.NodeID,
	})
	require.NoError(t, err)
	assert.Empty(t, final.ToolCalls)
	assert.Empty(t, final.ToolResults)
}

// TestActRunsToolCallsConcurrentlyAndPreservesOrder exercises the fan-out
// policy directly: N tool calls dispatched with a concurrency bound still
// produce results in the original tool_calls order.
func TestActRunsToolCallsConcurrentlyAndPreservesOrder(t *testing.T) {
	src := tool.NewAggregateSource()
	for _, name := range []string{"a", "b", "c"} {
		name := name
		require.NoError(t, src.RegisterTool(tool.Spec{Name: name}, func(_ context.Context, _ json.RawMessage, _ tool.CallContext) (tool.CallContent, error) {
			return tool.CallContent{Content: name + "-result"}, nil
		}))
	}

	act := react.Act(react.ActConfig{Tools: src, Concurrency: 2})
	in := state.ReActState{ToolCalls: []state.ToolCall{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}}}
	out, _, err := act.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.ToolResults, 3)
	assert.Equal(t, "a-result", out.ToolResults[0].Content)
	assert.Equal(t, "b-result", out.ToolResults[1].Content)
	assert.Equal(t, "c-result", out.ToolResults[2].Content)
}

// TestHandleToolErrorsRendersMatchedErrorsIntoToolResults covers the
// HandleToolErrors{Match} path: a failing tool call becomes an error tool
// result instead of failing the Act step.
func TestHandleToolErrorsRendersMatchedErrorsIntoToolResults(t *testing.T) {
	src := tool.NewAggregateSource()
	require.NoError(t, src.RegisterTool(tool.Spec{Name: "flaky"}, func(context.Context, json.RawMessage, tool.CallContext) (tool.CallContent, error) {
		return tool.CallContent{}, react.NewToolError("boom")
	}))

	act := react.Act(react.ActConfig{
		Tools: src,
		ErrorPolicy: react.HandleToolErrors{
			Mode:      react.ErrorMatch,
			Predicate: func(error) bool { return true },
			Template:  "tool failed: %s",
		},
	})
	in := state.ReActState{ToolCalls: []state.ToolCall{{ID: "1", Name: "flaky"}}}
	out, _, err := act.Run(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out.ToolResults, 1)
	assert.True(t, out.ToolResults[0].IsError)
	assert.Equal(t, "tool failed: boom", out.ToolResults[0].Content)
}

// TestActDeduplicatesIdempotentToolCallsWithinOneStep covers the
// idempotency-key dedup path: two calls to a step-idempotent tool sharing
// an IdempotencyKey invoke the tool only once, and the duplicate reuses the
// first call's result.
func TestActDeduplicatesIdempotentToolCallsWithinOneStep(t *testing.T) {
	invocations := 0
	src := tool.NewAggregateSource()
	require.NoError(t, src.RegisterTool(tool.Spec{Name: "search", Tags: []string{tool.TagIdempotencyStep}},
		func(context.Context, json.RawMessage, tool.CallContext) (tool.CallContent, error) {
			invocations++
			return tool.CallContent{Content: "result"}, nil
		}))

	act := react.Act(react.ActConfig{Tools: src})
	in := state.ReActState{ToolCalls: []state.ToolCall{
		{ID: "1", Name: "search", IdempotencyKey: "q=foo"},
		{ID: "2", Name: "search", IdempotencyKey: "q=foo"},
	}}
	out, _, err := act.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, invocations, "the tool must only be invoked once for the duplicated key")
	require.Len(t, out.ToolResults, 2)
	assert.Equal(t, "1", out.ToolResults[0].CallID)
	assert.Equal(t, "2", out.ToolResults[1].CallID)
	assert.Equal(t, "result", out.ToolResults[0].Content)
	assert.Equal(t, "result", out.ToolResults[1].Content)
}

// TestActDoesNotDeduplicateWithoutIdempotencyTag confirms a tool lacking
// the idempotency tag is invoked for every call even when IdempotencyKey
// values collide.
func TestActDoesNotDeduplicateWithoutIdempotencyTag(t *testing.T) {
	invocations := 0
	src := tool.NewAggregateSource()
	require.NoError(t, src.RegisterTool(tool.Spec{Name: "search"},
		func(context.Context, json.RawMessage, tool.CallContext) (tool.CallContent, error) {
			invocations++
			return tool.CallContent{Content: "result"}, nil
		}))

	act := react.Act(react.ActConfig{Tools: src})
	in := state.ReActState{ToolCalls: []state.ToolCall{
		{ID: "1", Name: "search", IdempotencyKey: "q=foo"},
		{ID: "2", Name: "search", IdempotencyKey: "q=foo"},
	}}
	_, _, err := act.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, invocations)
}
