package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/tool"
)

// ThinkConfig configures the Think node (spec §4.5 "Think").
type ThinkConfig struct {
	Model    Model
	Tools    tool.Source
	Reminder Reminder
}

// ThinkNodeID/ActNodeID/ObserveNodeID are the conventional node ids AddTo
// registers the three states under; callers assembling their own graph
// (DUP/ToT/GoT variants) reuse these constants so adapter nodes and routers
// stay consistent across graphs.
const (
	ThinkNodeID   = "think"
	ActNodeID     = "act"
	ObserveNodeID = "observe"
)

// Think composes the system prompt and conversation into a model request,
// invokes cfg.Model, and applies the reply to state. Think decides its own
// successor (GoTo(ActNodeID) when the reply carried tool calls, Finish()
// otherwise) since the destination depends on the reply it just parsed;
// register it with a single placeholder AddEdge(ThinkNodeID, graph.End) —
// the returned Next always overrides the static edge (spec §4.5: "Next:
// Continue if tool_calls non-empty, else End").
func Think(cfg ThinkConfig) graph.NodeFunc[state.ReActState] {
	return func(ctx context.Context, s state.ReActState) (state.ReActState, graph.Next, error) {
		s = s.Clone()

		specs, err := cfg.Tools.ListTools(ctx)
		if err != nil {
			return s, graph.Next{}, err
		}

		messages := cfg.Reminder.inject(s.TurnCount, s.Messages)
		reply, err := cfg.Model.Generate(ctx, GenerateRequest{Messages: messages, Tools: specs})
		if err != nil {
			return s, graph.Next{}, err
		}

		s.Messages = append(s.Messages, state.Assistant(reply.Content))
		s.ToolCalls = reply.ToolCalls

		usage := reply.Usage
		s.Usage = &usage
		total := usage
		if s.TotalUsage != nil {
			total = s.TotalUsage.Add(usage)
		}
		s.TotalUsage = &total

		n := len(s.Messages)
		s.MessageCountAfterLastThink = &n

		if len(s.ToolCalls) > 0 {
			return s, graph.GoTo(ActNodeID), nil
		}
		return s, graph.Finish(), nil
	}
}
