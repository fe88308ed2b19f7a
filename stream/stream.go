// Package stream implements the five-mode event pipeline the execution
// engine feeds as it runs a graph (spec §4.4): Values, Updates, Tasks,
// Messages, and Custom. Every event is wrapped in an Envelope before
// publication so subscribers can always recover which run and node
// produced it and its position in the total per-run order.
package stream

import "encoding/json"

// Mode names one of the five orthogonal stream modes a caller may
// subscribe to.
type Mode string

const (
	ModeValues  Mode = "values"
	ModeUpdates Mode = "updates"
	ModeTasks   Mode = "tasks"
	ModeMessage Mode = "messages"
	ModeCustom  Mode = "custom"
)

// Modes is a requested subscription set; callers ask for any combination.
type Modes map[Mode]bool

func NewModes(modes ...Mode) Modes {
	m := make(Modes, len(modes))
	for _, mode := range modes {
		m[mode] = true
	}
	return m
}

func (m Modes) Has(mode Mode) bool { return m != nil && m[mode] }

// TaskPhase discriminates the two Tasks-mode markers.
type TaskPhase string

const (
	TaskStart TaskPhase = "start"
	TaskEnd   TaskPhase = "end"
)

// Envelope wraps every event published to a run's subscribers. NodeID is
// the bare id of the node that was running when the event was published;
// the engine does not qualify it with a run prefix or a sequence number.
// EventID
// is strictly increasing within one run, assigned by the Broadcaster at
// publish time so ordering survives even when multiple nodes publish
// concurrently (they don't, within one run — spec §5 — but the counter
// is still owned centrally rather than per-node).
type Envelope struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
	EventID   uint64 `json:"event_id"`
	Mode      Mode   `json:"mode"`
	Payload   any    `json:"payload"`
}

// ValuesPayload is the Values-mode snapshot: the full state after a
// completed step, serialized ahead of time so the pipeline stays
// state-type-agnostic downstream of the node that produced it.
type ValuesPayload struct {
	State json.RawMessage `json:"state"`
}

// UpdatesPayload carries the before/after state around one node's Run.
type UpdatesPayload struct {
	Node  string          `json:"node"`
	Phase string          `json:"phase"` // "input" or "output"
	State json.RawMessage `json:"state"`
}

// TasksPayload marks a node's enter or exit.
type TasksPayload struct {
	Node  string    `json:"node"`
	Phase TaskPhase `json:"phase"`
}

// MessagesPayload carries one token-level fragment from a streaming node.
type MessagesPayload struct {
	NodeID string `json:"node_id"`
	Chunk  string `json:"chunk"`
}

// CustomPayload carries an arbitrary structured value written by a node
// or by a tool during a call via tool.StreamSink.EmitCustom (reached through
// tool.CallContext.Stream).
type CustomPayload struct {
	Value any `json:"value"`
}
