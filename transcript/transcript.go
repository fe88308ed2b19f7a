// Package transcript provides the optional append-only, thread-scoped
// ledger of rendered messages (spec §6/§10): a flattened view of a run
// distinct from the raw Checkpoint history, usable by callers that want to
// show or replay "what was said" without reconstructing it from channel
// snapshots. Grounded on the teacher's runtime/agent/transcript.Ledger,
// narrowed from its provider-payload-precision concern (Bedrock
// thinking/tool_use/tool_result ordering, multi-provider part types) to the
// plain state.Message/ToolCall/ToolResult shapes this spec's ReAct loop
// actually produces, since no provider SDK adapter lives in this repository
// (spec Non-goals).
package transcript

import (
	"context"
	"errors"
	"time"

	"github.com/arwynlabs/graphrt/state"
)

type (
	// Entry is one recorded step of a run's flattened transcript: either a
	// conversation message, a tool call, or a tool result. Exactly one of
	// Message, ToolCall, or ToolResult is non-nil.
	Entry struct {
		// ThreadID identifies the conversation this entry belongs to.
		ThreadID string
		// Cursor is a store-assigned, strictly increasing identifier
		// within a thread, used for List pagination (mirroring session.Entry's
		// convention).
		Cursor int64
		// At records when the entry was appended.
		At time.Time

		Message    *state.Message
		ToolCall   *state.ToolCall
		ToolResult *state.ToolResult
	}

	// Store persists and lists transcript entries per thread.
	//
	// Contract:
	//   - Append is ordering-preserving: entries are listed in the order
	//     they were appended.
	//   - List returns entries in ascending Cursor order, optionally
	//     starting strictly after the entry whose Cursor equals before
	//     (pass 0 for no cursor), bounded by limit (0 means unbounded).
	Store interface {
		// Append records entry under threadID and returns the Entry the
		// store assigned it, including its Cursor.
		Append(ctx context.Context, threadID string, entry Entry) (Entry, error)
		// List returns up to limit entries for threadID with Cursor >
		// before, in ascending Cursor order.
		List(ctx context.Context, threadID string, before int64, limit int) ([]Entry, error)
	}
)

// ErrThreadIDRequired is returned by Store implementations when threadID is
// empty.
var ErrThreadIDRequired = errors.New("transcript: thread id is required")

// EntriesFromState flattens one ReActState step into the ordered entries a
// ledger would record for it: each message, each tool call Think issued,
// and each tool result Act/Observe produced, in that order (mirroring how
// the teacher's Ledger coalesces thinking/text/tool_use ahead of
// tool_result).
func EntriesFromState(threadID string, s state.ReActState) []Entry {
	out := make([]Entry, 0, len(s.Messages)+len(s.ToolCalls)+len(s.ToolResults))
	for i := range s.Messages {
		m := s.Messages[i]
		out = append(out, Entry{ThreadID: threadID, Message: &m})
	}
	for i := range s.ToolCalls {
		c := s.ToolCalls[i]
		out = append(out, Entry{ThreadID: threadID, ToolCall: &c})
	}
	for i := range s.ToolResults {
		r := s.ToolResults[i]
		out = append(out, Entry{ThreadID: threadID, ToolResult: &r})
	}
	return out
}

// Record appends every entry EntriesFromState produces for s to store under
// threadID, in order. It is the convenience a runner façade calls after
// each run to keep the ledger current.
func Record(ctx context.Context, store Store, threadID string, s state.ReActState) error {
	for _, e := range EntriesFromState(threadID, s) {
		if _, err := store.Append(ctx, threadID, e); err != nil {
			return err
		}
	}
	return nil
}
