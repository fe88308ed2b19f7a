package react_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/react"
	"github.com/arwynlabs/graphrt/react/cache/inmem"
	"github.com/arwynlabs/graphrt/state"
)

type countingModel struct {
	calls int
	reply react.GenerateReply
}

func (m *countingModel) Generate(context.Context, react.GenerateRequest) (react.GenerateReply, error) {
	m.calls++
	return m.reply, nil
}

func TestCachingModelReusesReplyForIdenticalRequests(t *testing.T) {
	inner := &countingModel{reply: react.GenerateReply{Content: "hi"}}
	cached := react.CachingModel{Model: inner, Cache: inmem.New()}

	req := react.GenerateRequest{Messages: []state.Message{state.User("hello")}}

	first, err := cached.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hi", first.Content)

	second, err := cached.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hi", second.Content)

	assert.Equal(t, 1, inner.calls, "an identical request must not reach the wrapped Model twice")
}

func TestCachingModelCallsWrappedModelForDifferentRequests(t *testing.T) {
	inner := &countingModel{reply: react.GenerateReply{Content: "hi"}}
	cached := react.CachingModel{Model: inner, Cache: inmem.New()}

	_, err := cached.Generate(context.Background(), react.GenerateRequest{Messages: []state.Message{state.User("hello")}})
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), react.GenerateRequest{Messages: []state.Message{state.User("goodbye")}})
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}
