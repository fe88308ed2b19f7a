package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/run"
	"github.com/arwynlabs/graphrt/run/inmem"
)

func TestGetReturnsErrNotFoundForUnknownThread(t *testing.T) {
	s := inmem.New()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, run.ErrNotFound)
}

func TestSetOverwritesPreviousState(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "t1", run.StatusRunning, run.PhaseThinking))
	require.NoError(t, s.Set(ctx, "t1", run.StatusCompleted, run.PhaseCompleted))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, got.Status)
	assert.Equal(t, run.PhaseCompleted, got.Phase)
}
