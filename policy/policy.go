// Package policy codifies tool-approval classification, which the ReAct
// loop's Act step consults before dispatching a tool call (spec §4.5
// "Act"), plus allowlist/cap bookkeeping behind Engine.Decide, which the
// ReAct loop does not call. Grounded on the teacher's
// agents/runtime/policy engine (tool allowlisting, caps, retry hints)
// narrowed to the approval-gate concern this spec names.
package policy

import (
	"context"
	"time"
)

// Classification is the outcome of classifying one tool call for
// approval purposes (spec §4.5 step 1).
type Classification string

const (
	// ClassificationAllow lets the call proceed without an interrupt.
	ClassificationAllow Classification = "allow"
	// ClassificationAlwaysAsk requires operator approval every time,
	// regardless of prior approvals in the run.
	ClassificationAlwaysAsk Classification = "always_ask"
	// ClassificationDestructive requires operator approval because the
	// call can mutate or delete state outside the run's own sandbox.
	ClassificationDestructive Classification = "destructive"
)

// RequiresApproval reports whether a classification must halt for an
// approval interrupt before the call is dispatched.
func (c Classification) RequiresApproval() bool {
	return c == ClassificationAlwaysAsk || c == ClassificationDestructive
}

// ToolMetadata describes a candidate tool to the policy engine, mirroring
// the subset of tool.Spec a policy decision needs without importing the
// tool package (avoids an import cycle: tool -> policy would be the
// natural direction if react wires both).
type ToolMetadata struct {
	Name        string
	Description string
	Tags        []string
}

// CapsState tracks remaining per-run execution budgets (spec §9's
// resolved "what else does a production run need" question): once the
// tool-call or consecutive-failure budget is exhausted,
// AllowlistEngine.Decide returns DisableTools, mirroring the teacher's
// CapsState. Nothing in the ReAct loop calls Decide, so the caps are not
// enforced during a run.
type CapsState struct {
	MaxToolCalls                        int
	RemainingToolCalls                  int
	MaxConsecutiveFailedToolCalls        int
	RemainingConsecutiveFailedToolCalls int
	ExpiresAt                           time.Time
}

// Exhausted reports whether the run has no budget left to make another
// tool call.
func (c CapsState) Exhausted(now time.Time) bool {
	if c.MaxToolCalls > 0 && c.RemainingToolCalls <= 0 {
		return true
	}
	if c.MaxConsecutiveFailedToolCalls > 0 && c.RemainingConsecutiveFailedToolCalls <= 0 {
		return true
	}
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return true
	}
	return false
}

// Decision is one turn's policy outcome: the allowlist to enforce and
// the caps snapshot carried into the next turn.
type Decision struct {
	AllowedTools []string
	Caps         CapsState
	DisableTools bool
}

// Input groups everything the Engine needs to decide a turn.
type Input struct {
	Tools         []ToolMetadata
	Requested     []string
	RemainingCaps CapsState
	Labels        map[string]string
}

// Engine decides, per turn, which tools remain callable and classifies
// individual calls for approval. Act calls Classify on each proposed
// ToolCall in order and stops at the first one that requires approval;
// nothing in the runtime calls Decide.
type Engine interface {
	Decide(ctx context.Context, input Input) (Decision, error)
	Classify(ctx context.Context, toolName string, arguments []byte) Classification
}

// AllowlistEngine is the reference Engine: a static per-tool
// classification map plus cap bookkeeping, suitable for single-process
// deployments and tests. A nil classifications map classifies every tool
// as ClassificationAllow.
type AllowlistEngine struct {
	Classifications map[string]Classification
	Caps            CapsState
}

// NewAllowlistEngine constructs an engine with the given per-tool
// classifications (by name) and initial caps.
func NewAllowlistEngine(classifications map[string]Classification, caps CapsState) *AllowlistEngine {
	return &AllowlistEngine{Classifications: classifications, Caps: caps}
}

func (e *AllowlistEngine) Decide(_ context.Context, input Input) (Decision, error) {
	if e.Caps.Exhausted(time.Now()) {
		return Decision{DisableTools: true, Caps: e.Caps}, nil
	}
	allowed := make([]string, 0, len(input.Tools))
	for _, t := range input.Tools {
		allowed = append(allowed, t.Name)
	}
	return Decision{AllowedTools: allowed, Caps: e.Caps}, nil
}

func (e *AllowlistEngine) Classify(_ context.Context, toolName string, _ []byte) Classification {
	if e.Classifications == nil {
		return ClassificationAllow
	}
	if c, ok := e.Classifications[toolName]; ok {
		return c
	}
	return ClassificationAllow
}
