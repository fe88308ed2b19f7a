package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/stream"
)

func TestPublishDeliversInOrderWithIncreasingEventIDs(t *testing.T) {
	b := stream.NewBroadcaster("sess-1", 8, false)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := b.Subscribe(ctx, nil)
	require.NoError(t, err)

	b.Publish(stream.ModeValues, "nodeA", "first")
	b.Publish(stream.ModeValues, "nodeA", "second")

	first := <-sub.C()
	second := <-sub.C()
	assert.Equal(t, "sess-1", first.SessionID)
	assert.Equal(t, uint64(1), first.EventID)
	assert.Equal(t, uint64(2), second.EventID)
	assert.Equal(t, "first", first.Payload)
	assert.Equal(t, "second", second.Payload)
}

func TestSubscribeFiltersByMode(t *testing.T) {
	b := stream.NewBroadcaster("sess-2", 8, false)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := b.Subscribe(ctx, stream.NewModes(stream.ModeCustom))
	require.NoError(t, err)

	b.Publish(stream.ModeValues, "nodeA", "ignored")
	b.Publish(stream.ModeCustom, "nodeA", "kept")
	b.Publish(stream.ModeValues, "nodeA", "ignored-too")

	select {
	case env := <-sub.C():
		assert.Equal(t, "kept", env.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for custom event")
	}

	select {
	case env := <-sub.C():
		t.Fatalf("unexpected second delivery: %+v", env)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCloseClosesSubscriptionChannel(t *testing.T) {
	b := stream.NewBroadcaster("sess-3", 1, false)
	ctx := context.Background()
	sub, err := b.Subscribe(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, b.Close())

	_, ok := <-sub.C()
	assert.False(t, ok)

	b.Publish(stream.ModeValues, "nodeA", "dropped") // no-op after close, must not panic
}

func TestDropPolicyDoesNotBlockWhenSubscriberBufferIsFull(t *testing.T) {
	b := stream.NewBroadcaster("sess-4", 1, true)
	defer b.Close()
	ctx := context.Background()
	sub, err := b.Subscribe(ctx, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		b.Publish(stream.ModeValues, "nodeA", "one")
		b.Publish(stream.ModeValues, "nodeA", "two") // buffer full, dropped rather than blocking
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked despite drop policy")
	}

	first := <-sub.C()
	assert.Equal(t, "one", first.Payload)
}
