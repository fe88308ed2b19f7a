package state

// ReActState is the primary graph state driven by the Think/Act/Observe
// loop. ToolCalls and ToolResults are per-round and are cleared in Observe
// (the turn invariant: both are empty immediately after Observe runs).
type ReActState struct {
	Messages    []Message    `json:"messages"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	TurnCount   uint32       `json:"turn_count"`

	ApprovalResult *Approval `json:"approval_result,omitempty"`

	Usage      *TokenUsage `json:"usage,omitempty"`
	TotalUsage *TokenUsage `json:"total_usage,omitempty"`

	// MessageCountAfterLastThink records len(Messages) as of the most
	// recent Think completion. Think sets it; the compression controller
	// does not read it (compress works on the message slice alone).
	MessageCountAfterLastThink *int `json:"message_count_after_last_think,omitempty"`
}

// Clone returns a deep-enough copy of s suitable for passing to a node
// without aliasing its slices; channel merges build new states rather than
// mutating in place.
func (s ReActState) Clone() ReActState {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.ToolCalls = append([]ToolCall(nil), s.ToolCalls...)
	out.ToolResults = append([]ToolResult(nil), s.ToolResults...)
	if s.Usage != nil {
		u := *s.Usage
		out.Usage = &u
	}
	if s.TotalUsage != nil {
		u := *s.TotalUsage
		out.TotalUsage = &u
	}
	if s.MessageCountAfterLastThink != nil {
		n := *s.MessageCountAfterLastThink
		out.MessageCountAfterLastThink = &n
	}
	if s.ApprovalResult != nil {
		a := *s.ApprovalResult
		out.ApprovalResult = &a
	}
	return out
}

// UnderstandOutput is DUP's analysis step output, produced before the ReAct
// core runs.
type UnderstandOutput struct {
	Summary     string   `json:"summary"`
	SubGoals    []string `json:"sub_goals,omitempty"`
	Assumptions []string `json:"assumptions,omitempty"`
}

// DupState adds an Understand phase ahead of the embedded ReAct core
// ("Decompose-Understand-Plan"-style graphs).
type DupState struct {
	Core      ReActState         `json:"core"`
	Understood *UnderstandOutput `json:"understood,omitempty"`
}

// Candidate is one Tree-of-Thought expansion: a candidate continuation with
// an evaluation score once scored.
type Candidate struct {
	ID      string   `json:"id"`
	Parent  string   `json:"parent,omitempty"`
	Thought string   `json:"thought"`
	Score   *float64 `json:"score,omitempty"`
}

// TotState adds the candidate-expansion tree around the embedded ReAct
// core.
type TotState struct {
	Core       ReActState  `json:"core"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Selected   string      `json:"selected,omitempty"`
}

// TaskNode is one node of a GoT task DAG. Dependencies are represented as
// non-owning id edges (TaskNode.DependsOn), never as direct Go references,
// so the DAG serializes without cycles through the owning map in GotState.
type TaskNode struct {
	ID         string   `json:"id"`
	Goal       string   `json:"goal"`
	DependsOn  []string `json:"depends_on,omitempty"`
	Done       bool     `json:"done"`
	ResultText string   `json:"result_text,omitempty"`
}

// GotState adds a task DAG (Graph-of-Thought) around the embedded ReAct
// core. Tasks is id-indexed; TaskOrder records insertion order since map
// iteration in Go is unordered and the DAG must serialize deterministically.
type GotState struct {
	Core      ReActState          `json:"core"`
	Tasks     map[string]TaskNode `json:"tasks,omitempty"`
	TaskOrder []string            `json:"task_order,omitempty"`
}
