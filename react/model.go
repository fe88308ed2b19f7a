// Package react implements the Think/Act/Observe tool-dispatch state
// machine (spec §4.5) and the DUP/ToT/GoT adapter nodes that lift it into
// the outer state shapes (spec §9's "adapter nodes project S.core into
// ReActState" design). Grounded on the teacher's planner.Planner contract
// (PlanStart/PlanResume, ToolRequest fan-out) and workflow_turn.go's tool
// dispatch loop, narrowed to the think/act/observe node shape this spec
// requires instead of a Temporal-activity planner abstraction.
package react

import (
	"context"

	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/tool"
)

// GenerateRequest bundles what a Model needs to produce the next assistant
// turn: the conversation so far and the tool catalog available this round.
type GenerateRequest struct {
	Messages []state.Message
	Tools    []tool.Spec
}

// GenerateReply is the parsed model output Think applies to state: response
// text, any requested tool calls, and token accounting for this call.
type GenerateReply struct {
	Content   string
	ToolCalls []state.ToolCall
	Usage     state.TokenUsage
}

// Model is the seam between Think and a concrete LLM provider. No provider
// SDK adapter (Anthropic/OpenAI/Bedrock) lives in this repository (spec
// Non-goals); callers supply their own Model implementation wrapping one.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateReply, error)
}
