package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/session"
	"github.com/arwynlabs/graphrt/session/inmem"
)

func TestAppendAssignsStrictlyIncreasingCursorsPerThread(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	e1, err := store.Append(ctx, "t1", "hello")
	require.NoError(t, err)
	e2, err := store.Append(ctx, "t1", "world")
	require.NoError(t, err)
	assert.Less(t, e1.Cursor, e2.Cursor)

	// A second thread's cursor sequence is independent.
	e3, err := store.Append(ctx, "t2", "first in t2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e3.Cursor)
}

func TestListReturnsEntriesInInsertionOrderAfterCursor(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	for _, msg := range []string{"a", "b", "c"} {
		_, err := store.Append(ctx, "t1", msg)
		require.NoError(t, err)
	}

	all, err := store.List(ctx, "t1", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, contents(all))

	tail, err := store.List(ctx, "t1", all[0].Cursor, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, contents(tail))
}

func TestListHonorsLimit(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()
	for _, msg := range []string{"a", "b", "c"} {
		_, err := store.Append(ctx, "t1", msg)
		require.NoError(t, err)
	}

	page, err := store.List(ctx, "t1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, contents(page))
}

func TestAppendAndListRejectEmptyThreadID(t *testing.T) {
	store := inmem.New()
	ctx := context.Background()

	_, err := store.Append(ctx, "", "x")
	assert.ErrorIs(t, err, session.ErrThreadIDRequired)

	_, err = store.List(ctx, "", 0, 0)
	assert.ErrorIs(t, err, session.ErrThreadIDRequired)
}

func contents(entries []session.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Content
	}
	return out
}
