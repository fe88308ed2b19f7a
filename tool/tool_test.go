package tool_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/tool"
)

func echoHandler(content string) tool.Handler {
	return func(_ context.Context, _ json.RawMessage, _ tool.CallContext) (tool.CallContent, error) {
		return tool.CallContent{Content: content}, nil
	}
}

func TestAggregateSourceRejectsDuplicateNames(t *testing.T) {
	a := tool.NewAggregateSource()
	require.NoError(t, a.RegisterTool(tool.Spec{Name: "get_time"}, echoHandler("t1")))
	err := a.RegisterTool(tool.Spec{Name: "get_time"}, echoHandler("t2"))
	require.Error(t, err)
	var dup *tool.ErrDuplicateName
	assert.ErrorAs(t, err, &dup)
}

func TestAggregateSourceDispatchesByName(t *testing.T) {
	a := tool.NewAggregateSource()
	require.NoError(t, a.RegisterTool(tool.Spec{Name: "get_time"}, echoHandler("2025-01-29 12:00:00")))

	content, err := a.CallTool(context.Background(), "get_time", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-29 12:00:00", content.Content)
}

func TestAggregateSourceUnknownToolIsNotFound(t *testing.T) {
	a := tool.NewAggregateSource()
	_, err := a.CallTool(context.Background(), "nope", nil)
	var nf *tool.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestAggregateSourceNestedSubSource(t *testing.T) {
	inner := tool.NewAggregateSource()
	require.NoError(t, inner.RegisterTool(tool.Spec{Name: "inner_tool"}, echoHandler("from inner")))

	outer := tool.NewAggregateSource()
	require.NoError(t, outer.RegisterTool(tool.Spec{Name: "outer_tool"}, echoHandler("from outer")))
	require.NoError(t, outer.AddSource(context.Background(), inner))

	specs, err := outer.ListTools(context.Background())
	require.NoError(t, err)
	names := map[string]bool{}
	for _, s := range specs {
		names[s.Name] = true
	}
	assert.True(t, names["outer_tool"])
	assert.True(t, names["inner_tool"])

	content, err := outer.CallTool(context.Background(), "inner_tool", nil)
	require.NoError(t, err)
	assert.Equal(t, "from inner", content.Content)
}

func TestValidateRejectsMismatchedArguments(t *testing.T) {
	spec := tool.Spec{
		Name: "get_time",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {"timezone": {"type": "string"}},
			"required": ["timezone"]
		}`),
	}
	err := tool.Validate(spec, json.RawMessage(`{}`))
	assert.Error(t, err)

	err = tool.Validate(spec, json.RawMessage(`{"timezone": "UTC"}`))
	assert.NoError(t, err)
}

func TestFileToolSourceRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	src, err := tool.NewFileToolSource(dir)
	require.NoError(t, err)

	_, err = src.CallTool(context.Background(), "read_file", json.RawMessage(`{"path":"../../etc/passwd"}`))
	assert.Error(t, err)
}
