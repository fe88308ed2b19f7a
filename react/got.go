package react

import (
	"context"

	"github.com/arwynlabs/graphrt/graph"
	"github.com/arwynlabs/graphrt/state"
)

// GraphPlanner decomposes the current request into a task DAG, driving
// GoT's "Plan-graph" step (spec C8).
type GraphPlanner interface {
	PlanGraph(ctx context.Context, core state.ReActState) (tasks map[string]state.TaskNode, order []string, err error)
}

// GraphExecutor runs one task of the DAG once its dependencies are done,
// driving GoT's "Execute-graph" step.
type GraphExecutor interface {
	ExecuteTask(ctx context.Context, core state.ReActState, task state.TaskNode) (resultText string, err error)
}

const (
	PlanGraphNodeID    = "plan_graph"
	ExecuteGraphNodeID = "execute_graph"
)

// PlanGraphNode builds the task DAG once and proceeds to execution.
func PlanGraphNode(p GraphPlanner) graph.NodeFunc[state.GotState] {
	return func(ctx context.Context, s state.GotState) (state.GotState, graph.Next, error) {
		tasks, order, err := p.PlanGraph(ctx, s.Core)
		if err != nil {
			return s, graph.Next{}, err
		}
		s.Tasks = tasks
		s.TaskOrder = order
		return s, graph.GoTo(ExecuteGraphNodeID), nil
	}
}

// ExecuteGraphNode runs a single runnable task (the first in TaskOrder whose
// dependencies are all Done and which is not itself Done yet) per
// invocation, honoring the single-threaded-cooperative-per-run scheduling
// model (spec §5: "at most one node executes at a time within a run").
// It loops back to itself via GoTo until every task is Done, then hands
// control to Think so the core loop can summarize the completed graph.
func ExecuteGraphNode(x GraphExecutor) graph.NodeFunc[state.GotState] {
	return func(ctx context.Context, s state.GotState) (state.GotState, graph.Next, error) {
		next := nextRunnableTask(s)
		if next == nil {
			return s, graph.GoTo(ThinkNodeID), nil
		}

		result, err := x.ExecuteTask(ctx, s.Core, *next)
		if err != nil {
			return s, graph.Next{}, err
		}
		task := *next
		task.Done = true
		task.ResultText = result
		s.Tasks[task.ID] = task
		s.Core.Messages = append(s.Core.Messages, toolReturnedMessage(task.ID, result))

		return s, graph.GoTo(ExecuteGraphNodeID), nil
	}
}

func nextRunnableTask(s state.GotState) *state.TaskNode {
	for _, id := range s.TaskOrder {
		task, ok := s.Tasks[id]
		if !ok || task.Done {
			continue
		}
		if allDone(s, task.DependsOn) {
			t := task
			return &t
		}
	}
	return nil
}

func allDone(s state.GotState, ids []string) bool {
	for _, id := range ids {
		if dep, ok := s.Tasks[id]; !ok || !dep.Done {
			return false
		}
	}
	return true
}

// BuildGot assembles a full GoT graph: START → PlanGraph → ExecuteGraph
// (self-looping until the DAG is done) → Think → {Act, END} → Observe →
// {Think, END}.
func BuildGot(planner GraphPlanner, executor GraphExecutor, cfg Config) (*graph.CompiledPlan[state.GotState], error) {
	b := graph.NewBuilder[state.GotState]()
	if err := b.AddNode(PlanGraphNodeID, PlanGraphNode(planner)); err != nil {
		return nil, err
	}
	if err := b.AddNode(ExecuteGraphNodeID, ExecuteGraphNode(executor)); err != nil {
		return nil, err
	}
	if err := b.AddEdge(graph.Start, PlanGraphNodeID); err != nil {
		return nil, err
	}
	if err := b.AddEdge(PlanGraphNodeID, ExecuteGraphNodeID); err != nil {
		return nil, err
	}
	if err := b.AddEdge(ExecuteGraphNodeID, graph.End); err != nil {
		return nil, err
	}
	if err := AddCoreTo(b, GotCoreProjector(), cfg); err != nil {
		return nil, err
	}
	return b.Compile()
}
