package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// MaxReActTurns bounds the Think/Act/Observe loop (spec §4.5 "Observe":
// "End if turn_count >= MAX_REACT_TURNS (=10)").
const MaxReActTurns = 10

// Observe folds this round's tool results into the conversation and clears
// the per-round fields (spec §4.5 "Observe", and the turn invariant:
// "tool_calls and tool_results are empty after observe"). Like Think, it
// decides its own successor and should be registered with a placeholder
// AddEdge(ObserveNodeID, graph.End).
func Observe() graph.NodeFunc[state.ReActState] {
	return func(_ context.Context, s state.ReActState) (state.ReActState, graph.Next, error) {
		s = s.Clone()

		madeToolCalls := len(s.ToolResults) > 0
		for _, r := range s.ToolResults {
			s.Messages = append(s.Messages, toolReturnedMessage(r.Name, r.Content))
		}
		s.ToolCalls = nil
		s.ToolResults = nil
		s.TurnCount++

		if !madeToolCalls || s.TurnCount >= MaxReActTurns {
			return s, graph.Finish(), nil
		}
		return s, graph.GoTo(ThinkNodeID), nil
	}
}
