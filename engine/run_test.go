package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/checkpoint/inmem"
	"github.com/arwynlabs/graphrt/engine"
	"github.com/arwynlabs/graphrt/graph"
)

type counterState struct {
	visited []string
	count   int
}

func step(id string) graph.NodeFunc[counterState] {
	return func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		s.visited = append(s.visited, id)
		s.count++
		return s, graph.Continue(), nil
	}
}

func linearPlan(t *testing.T) *graph.CompiledPlan[counterState] {
	t.Helper()
	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("a", step("a")))
	require.NoError(t, b.AddNode("b", step("b")))
	require.NoError(t, b.AddEdge(graph.Start, "a"))
	require.NoError(t, b.AddEdge("a", "b"))
	require.NoError(t, b.AddEdge("b", graph.End))
	plan, err := b.Compile()
	require.NoError(t, err)
	return plan
}

func TestRunFollowsLinearChainToEnd(t *testing.T) {
	plan := linearPlan(t)
	store := inmem.New[counterState]()
	final, err := engine.Run(context.Background(), plan, store, counterState{}, engine.RunConfig{ThreadID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, final.visited)

	cp, found, err := store.GetTuple(context.Background(), checkpoint.Config{ThreadID: "t1"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a", "b"}, cp.ChannelValues.visited)
}

func TestRunPersistsACheckpointPerStep(t *testing.T) {
	plan := linearPlan(t)
	store := inmem.New[counterState]()
	_, err := engine.Run(context.Background(), plan, store, counterState{}, engine.RunConfig{ThreadID: "t2"})
	require.NoError(t, err)

	items, err := store.List(context.Background(), checkpoint.Config{ThreadID: "t2"}, 0, "", "")
	require.NoError(t, err)
	assert.Len(t, items, 2) // one checkpoint after node a, one after node b
}

func TestRunRetriesRetryableErrorsThenSucceeds(t *testing.T) {
	attempts := 0
	flaky := graph.NodeFunc[counterState](func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		attempts++
		if attempts < 3 {
			return s, graph.Next{}, errors.New("transient")
		}
		s.visited = append(s.visited, "flaky")
		return s, graph.Continue(), nil
	})

	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("flaky", flaky))
	require.NoError(t, b.AddEdge(graph.Start, "flaky"))
	require.NoError(t, b.AddEdge("flaky", graph.End))
	plan, err := b.Compile()
	require.NoError(t, err)

	final, err := engine.Run(context.Background(), plan, nil, counterState{}, engine.RunConfig{
		ThreadID: "t3",
		NodeRetry: map[string]engine.RetryPolicy{
			"flaky": {Attempts: 5, Backoff: engine.Backoff{Fixed: time.Millisecond}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"flaky"}, final.visited)
}

func TestRunDoesNotRetryWhenRetryOnRejectsTheError(t *testing.T) {
	attempts := 0
	permanent := errors.New("permanent")
	failing := graph.NodeFunc[counterState](func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		attempts++
		return s, graph.Next{}, permanent
	})

	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("fail", failing))
	require.NoError(t, b.AddEdge(graph.Start, "fail"))
	require.NoError(t, b.AddEdge("fail", graph.End))
	plan, err := b.Compile()
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), plan, nil, counterState{}, engine.RunConfig{
		ThreadID: "t3b",
		NodeRetry: map[string]engine.RetryPolicy{
			"fail": {Attempts: 5, RetryOn: func(error) bool { return false }},
		},
	})
	require.Error(t, err)
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, attempts)
}

func TestRunPropagatesNonRetryableError(t *testing.T) {
	boom := errors.New("boom")
	failing := graph.NodeFunc[counterState](func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		return s, graph.Next{}, boom
	})

	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("fail", failing))
	require.NoError(t, b.AddEdge(graph.Start, "fail"))
	require.NoError(t, b.AddEdge("fail", graph.End))
	plan, err := b.Compile()
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), plan, nil, counterState{}, engine.RunConfig{ThreadID: "t4"})
	require.Error(t, err)
	assert.Equal(t, boom, err)
}

func TestRunSurfacesInterruptAndResumes(t *testing.T) {
	approved := false
	gate := graph.NodeFunc[counterState](func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		if !approved {
			return s, graph.Next{}, &engine.GraphInterrupt{Reason: "needs_approval"}
		}
		s.visited = append(s.visited, "gate")
		return s, graph.Continue(), nil
	})

	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("gate", gate))
	require.NoError(t, b.AddEdge(graph.Start, "gate"))
	require.NoError(t, b.AddEdge("gate", graph.End))
	plan, err := b.Compile()
	require.NoError(t, err)

	store := inmem.New[counterState]()
	_, err = engine.Run(context.Background(), plan, store, counterState{}, engine.RunConfig{ThreadID: "t5"})
	require.Error(t, err)
	var interrupted *engine.Interrupted
	require.ErrorAs(t, err, &interrupted)
	assert.Equal(t, "gate", interrupted.NodeID)
	assert.Equal(t, "needs_approval", interrupted.Reason)

	approved = true
	final, err := engine.Run(context.Background(), plan, store, counterState{}, engine.RunConfig{
		ThreadID:         "t5",
		ResumeFromNodeID: interrupted.NodeID,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"gate"}, final.visited)
}

func TestRunSurfacesCancellation(t *testing.T) {
	cancel := make(chan struct{})
	close(cancel)

	plan := linearPlan(t)
	_, err := engine.Run(context.Background(), plan, nil, counterState{}, engine.RunConfig{
		ThreadID: "t6",
		Cancel:   cancel,
	})
	require.Error(t, err)
	var cancelled *engine.Cancelled
	require.ErrorAs(t, err, &cancelled)
}

// TestRunHitsRecursionLimit builds a graph that routes back to itself
// forever (the router always returns the "continue" key) and checks that the
// engine raises Interrupted{Reason: recursion_limit} rather than spinning
// indefinitely, per spec §4.3's "enforce depth <= recursion_limit" guard.
func TestRunHitsRecursionLimit(t *testing.T) {
	loop := graph.NodeFunc[counterState](func(_ context.Context, s counterState) (counterState, graph.Next, error) {
		s.count++
		return s, graph.Continue(), nil
	})

	b := graph.NewBuilder[counterState]()
	require.NoError(t, b.AddNode("loop", loop))
	require.NoError(t, b.AddEdge(graph.Start, "loop"))
	require.NoError(t, b.AddConditionalEdges("loop", func(counterState) string { return "continue" }, map[string]string{
		"continue": "loop",
		"stop":     graph.End,
	}))
	plan, err := b.Compile()
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), plan, nil, counterState{}, engine.RunConfig{
		ThreadID:       "t7",
		RecursionLimit: 5,
	})
	require.Error(t, err)
	var interrupted *engine.Interrupted
	require.ErrorAs(t, err, &interrupted)
	assert.Equal(t, engine.RecursionLimitReason, interrupted.Reason)
}
