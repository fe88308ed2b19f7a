package channel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/channel"
)

func TestLastValueKeepsMostRecentWrite(t *testing.T) {
	var c channel.LastValue[int]
	changed, err := c.Update([]int{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, changed)
	v, ok := c.Read()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestLastValueNoWriteIsNoop(t *testing.T) {
	var c channel.LastValue[int]
	changed, err := c.Update(nil)
	require.NoError(t, err)
	assert.False(t, changed)
	_, ok := c.Read()
	assert.False(t, ok)
}

func TestEphemeralValueConsume(t *testing.T) {
	var c channel.EphemeralValue[string]
	_, err := c.Update([]string{"hello"})
	require.NoError(t, err)
	v, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, "hello", v)
	c.Consume()
	_, ok = c.Read()
	assert.False(t, ok, "value must be absent after Consume until the next write")
}

func TestTopicAppendsInOrder(t *testing.T) {
	var c channel.Topic[string]
	_, err := c.Update([]string{"a", "b"})
	require.NoError(t, err)
	_, err = c.Update([]string{"c"})
	require.NoError(t, err)
	vs, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, vs)
}

func TestTopicSingleWriteRejectsMultipleWritesInOneStep(t *testing.T) {
	c := channel.NewTopicSingleWrite[int]("slot")
	_, err := c.Update([]int{1})
	require.NoError(t, err)
	_, err = c.Update([]int{2, 3})
	require.Error(t, err)
	var invalid *channel.InvalidUpdate
	assert.ErrorAs(t, err, &invalid)
}

func TestBinaryOperatorAggregateFoldsLeftToRight(t *testing.T) {
	sum := channel.NewBinaryOperatorAggregate(func(cur, w int) int { return cur + w }, 0)
	_, err := sum.Update([]int{1, 2, 3})
	require.NoError(t, err)
	v, ok := sum.Read()
	require.True(t, ok)
	assert.Equal(t, 6, v)
}

func TestNamedBarrierReleasesOnlyWhenAllNamesPresent(t *testing.T) {
	b := channel.NewNamedBarrierValue[int]("barrier", []string{"a", "b"})
	combine := func(values map[string]int) int { return values["a"] + values["b"] }

	changed, err := b.Update([]channel.NamedWrite[int]{{Name: "a", Value: 1}}, combine)
	require.NoError(t, err)
	assert.False(t, changed, "barrier must not release until every name has written")

	changed, err = b.Update([]channel.NamedWrite[int]{{Name: "b", Value: 2}}, combine)
	require.NoError(t, err)
	assert.True(t, changed)
	v, ok := b.Read()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestNamedBarrierRejectsUnknownParticipant(t *testing.T) {
	b := channel.NewNamedBarrierValue[int]("barrier", []string{"a"})
	_, err := b.Update([]channel.NamedWrite[int]{{Name: "z", Value: 1}}, func(map[string]int) int { return 0 })
	require.Error(t, err)
}
