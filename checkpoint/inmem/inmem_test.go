package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/checkpoint/inmem"
)

type fixture struct {
	Value int
}

func TestPutGetRoundTrip(t *testing.T) {
	// Scenario D from spec §8: put(cp1) then get_tuple returns cp1; after
	// put(cp2), get_tuple returns cp2; get_tuple pinned to cp1's id still
	// returns cp1.
	ctx := context.Background()
	store := inmem.New[fixture]()
	cfg := checkpoint.Config{ThreadID: "t1"}

	cp1 := checkpoint.Checkpoint[fixture]{ID: "cp1", TS: "2025-01-01T00:00:00Z", ChannelValues: fixture{Value: 1}}
	_, err := store.Put(ctx, cfg, cp1)
	require.NoError(t, err)

	got, ok, err := store.GetTuple(ctx, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.ChannelValues.Value)

	cp2 := checkpoint.Checkpoint[fixture]{ID: "cp2", TS: "2025-01-01T00:00:01Z", ChannelValues: fixture{Value: 2}}
	_, err = store.Put(ctx, cfg, cp2)
	require.NoError(t, err)

	got, ok, err = store.GetTuple(ctx, cfg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.ChannelValues.Value)

	pinned, ok, err := store.GetTuple(ctx, checkpoint.Config{ThreadID: "t1", CheckpointID: "cp1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, pinned.ChannelValues.Value)
}

func TestGetTupleMissingThreadReturnsNotFound(t *testing.T) {
	store := inmem.New[fixture]()
	_, ok, err := store.GetTuple(context.Background(), checkpoint.Config{ThreadID: "nope"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutRequiresThreadID(t *testing.T) {
	store := inmem.New[fixture]()
	_, err := store.Put(context.Background(), checkpoint.Config{}, checkpoint.Checkpoint[fixture]{ID: "x"})
	assert.ErrorIs(t, err, checkpoint.ErrThreadIDRequired)
}

func TestListDescendingOrderAndPagination(t *testing.T) {
	ctx := context.Background()
	store := inmem.New[fixture]()
	cfg := checkpoint.Config{ThreadID: "t1"}
	for i, id := range []string{"a", "b", "c"} {
		_, err := store.Put(ctx, cfg, checkpoint.Checkpoint[fixture]{
			ID: id,
			TS: []string{"2025-01-01T00:00:00Z", "2025-01-01T00:00:01Z", "2025-01-01T00:00:02Z"}[i],
		})
		require.NoError(t, err)
	}
	items, err := store.List(ctx, cfg, 0, "", "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{items[0].ID, items[1].ID, items[2].ID})

	limited, err := store.List(ctx, cfg, 1, "", "")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}
