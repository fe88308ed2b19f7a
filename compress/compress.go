// Package compress implements the context-compression controller (spec
// §4.6): a token estimator, an LLM-summarization auto-compact pass, and an
// independent tool-result prune pass. runner.Runner applies it once per
// Invoke or Stream call, to the initial messages before the engine starts;
// it is not applied again before later Think calls in the same run.
// Grounded on the teacher's token-accounting conventions in
// runtime/agent/model/model.go (TokenUsage) — the controller itself and
// its prune/compact passes are novel to this spec (no single teacher
// analogue), built in the teacher's idiom of small, composable passes over
// []state.Message.
package compress

import (
	"context"
	"fmt"
	"strings"

	"github.com/arwynlabs/graphrt/state"
)

// Config bounds the controller's behavior. Zero values disable both passes
// (Compress becomes a no-op besides estimation).
type Config struct {
	// MaxContextTokens is the hard budget resolved through the model-limit
	// resolver (spec §4.8/§4.9); overridable here.
	MaxContextTokens int
	// ReserveTokens is headroom subtracted from MaxContextTokens before
	// comparing against the estimate (room for the next completion).
	ReserveTokens int

	AutoCompact bool
	// CompactKeepRecent is the number of trailing messages the compaction
	// window never touches. Zero uses DefaultCompactKeepRecent.
	CompactKeepRecent int

	Prune bool
	// PruneKeepTokens bounds the total estimated size of tool-result
	// messages kept verbatim; older ones beyond the budget are replaced
	// with PrunePlaceholder.
	PruneKeepTokens int
}

// DefaultCompactKeepRecent is the window auto-compact never summarizes
// (spec §4.6: "older than compact_keep_recent (default 20)").
const DefaultCompactKeepRecent = 20

// PrunePlaceholder replaces a pruned tool-result message's content.
const PrunePlaceholder = "[tool result pruned]"

func (c Config) keepRecent() int {
	if c.CompactKeepRecent <= 0 {
		return DefaultCompactKeepRecent
	}
	return c.CompactKeepRecent
}

// Summarizer produces a synthetic summary for messages compaction is about
// to drop. No concrete LLM provider adapter ships in this repository (spec
// Non-goals); callers supply their own summarizer wrapping one.
type Summarizer interface {
	Summarize(ctx context.Context, messages []state.Message) (string, error)
}

// Estimate returns a token-count estimate for messages: a hybrid of a
// chars-per-token heuristic plus extra weight for tool-result-shaped
// messages (spec §4.6: "hybrid (message-length heuristic plus tool-result
// weighting)"; §9(b): "monotone in message length"). Appending any message,
// or lengthening any message's content, never decreases the estimate.
func Estimate(messages []state.Message) int {
	total := 0
	for _, m := range messages {
		total += estimateOne(m)
	}
	return total
}

const charsPerToken = 4
const toolResultWeight = 2 // tool-result messages cost extra: they are often noisy JSON/log dumps

func estimateOne(m state.Message) int {
	base := (len(m.Content) + charsPerToken - 1) / charsPerToken
	if isToolResultMessage(m) {
		return base * toolResultWeight
	}
	return base
}

func isToolResultMessage(m state.Message) bool {
	return m.Role == state.RoleUser && strings.HasPrefix(m.Content, "Tool ")
}

// Controller runs the compression passes ahead of a Think call.
type Controller struct {
	Config     Config
	Summarizer Summarizer
}

// lastUserIndex returns the index of the last User message, or -1.
func lastUserIndex(messages []state.Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == state.RoleUser {
			return i
		}
	}
	return -1
}

// Compress applies auto-compact (only when the estimate plus
// ReserveTokens exceeds MaxContextTokens) then prune (whenever Prune is
// set), and returns the resulting message slice. The context budget is
// checked once, before compaction; it is not re-checked after compaction
// or after pruning. It never mutates
// messages in place. Calling Compress twice on an already-idempotent
// result (one already under budget, with nothing left to prune) returns an
// equal slice both times (spec §8 invariant 6).
func (c *Controller) Compress(ctx context.Context, messages []state.Message) ([]state.Message, error) {
	out := append([]state.Message(nil), messages...)

	if c.Config.AutoCompact && c.overBudget(out) {
		compacted, err := c.compact(ctx, out)
		if err != nil {
			return nil, err
		}
		out = compacted
	}

	if c.Config.Prune {
		out = c.prune(out)
	}

	return out, nil
}

func (c *Controller) overBudget(messages []state.Message) bool {
	if c.Config.MaxContextTokens <= 0 {
		return false
	}
	return Estimate(messages)+c.Config.ReserveTokens > c.Config.MaxContextTokens
}

// protectedIndices returns the indices compact must never summarize away:
// the first message if it is System, the last User message, and everything
// within the trailing keepRecent window.
func protectedIndices(messages []state.Message, keepRecent int) map[int]bool {
	protected := make(map[int]bool)
	if len(messages) > 0 && messages[0].Role == state.RoleSystem {
		protected[0] = true
	}
	if idx := lastUserIndex(messages); idx >= 0 {
		protected[idx] = true
	}
	windowStart := len(messages) - keepRecent
	for i := windowStart; i < len(messages); i++ {
		if i >= 0 {
			protected[i] = true
		}
	}
	return protected
}

// compact replaces the unprotected prefix of messages with one synthetic
// System summary message (spec §4.6 "auto_compact").
func (c *Controller) compact(ctx context.Context, messages []state.Message) ([]state.Message, error) {
	keepRecent := c.Config.keepRecent()
	protected := protectedIndices(messages, keepRecent)

	var toSummarize []state.Message
	var rest []state.Message
	for i, m := range messages {
		if protected[i] {
			rest = append(rest, m)
			continue
		}
		toSummarize = append(toSummarize, m)
	}
	if len(toSummarize) == 0 {
		return messages, nil
	}

	var summaryText string
	if c.Summarizer != nil {
		s, err := c.Summarizer.Summarize(ctx, toSummarize)
		if err != nil {
			return nil, err
		}
		summaryText = s
	} else {
		summaryText = fallbackSummary(toSummarize)
	}

	out := make([]state.Message, 0, len(rest)+1)
	insertedSummary := false
	for i, m := range messages {
		if !protected[i] {
			if !insertedSummary {
				out = append(out, state.System(summaryText))
				insertedSummary = true
			}
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func fallbackSummary(messages []state.Message) string {
	return fmt.Sprintf("[summary of %d earlier messages omitted]", len(messages))
}

// prune trims tool-result messages so their total estimated size is at
// most PruneKeepTokens, oldest-first, replacing dropped ones with
// PrunePlaceholder (spec §4.6 "prune").
func (c *Controller) prune(messages []state.Message) []state.Message {
	budget := c.Config.PruneKeepTokens
	out := append([]state.Message(nil), messages...)

	// Walk newest-to-oldest, keeping tool-result messages while budget
	// allows; once exhausted, every older tool-result message is replaced.
	remaining := budget
	for i := len(out) - 1; i >= 0; i-- {
		if !isToolResultMessage(out[i]) {
			continue
		}
		cost := estimateOne(out[i])
		if remaining >= cost {
			remaining -= cost
			continue
		}
		remaining = 0
		if out[i].Content != PrunePlaceholder {
			out[i].Content = PrunePlaceholder
		}
	}
	return out
}
