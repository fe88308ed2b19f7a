package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arwynlabs/graphrt/tool/mcp"
)

// fakeTransport is an in-memory stand-in for a real MCP server: it answers
// "initialize" with an empty result and "tools/call" with a fixed
// directory-listing response, letting Session be tested without spawning a
// subprocess or opening a socket (scenario F from spec §8, stubbed).
type fakeTransport struct {
	deliver func(frame []byte)
	ready   chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{ready: make(chan struct{})}
}

type rpcIn struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      uint64          `json:"id"`
	Params  json.RawMessage `json:"params"`
}

func (f *fakeTransport) Send(_ context.Context, frame []byte) error {
	<-f.ready
	var req rpcIn
	if err := json.Unmarshal(frame, &req); err != nil {
		return err
	}
	var result json.RawMessage
	switch req.Method {
	case "initialize":
		result = json.RawMessage(`{}`)
	case "tools/call":
		result = json.RawMessage(`{"content":[{"type":"text","text":"file1\nfile2"}],"isError":false}`)
	case "tools/list":
		result = json.RawMessage(`{"tools":[{"name":"list_directory","description":"list a directory"}]}`)
	}
	resp, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.ID,
		"result":  result,
	})
	if err != nil {
		return err
	}
	f.deliver(resp)
	return nil
}

func (f *fakeTransport) Listen(ctx context.Context, deliver func(frame []byte)) {
	f.deliver = deliver
	close(f.ready)
	<-ctx.Done()
}

func (f *fakeTransport) Close() error { return nil }

func TestSessionListAndCallTool(t *testing.T) {
	// Scenario F: list_tools returns a ToolSpec named "list_directory";
	// call_tool("list_directory", ...) returns non-empty content.
	ctx := context.Background()
	session, err := mcp.NewSession(ctx, newFakeTransport(), mcp.Options{})
	require.NoError(t, err)
	defer session.Shutdown(ctx)

	specs, err := mcp.ListToolsFromSession(ctx, session)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "list_directory", specs[0].Name)

	resp, err := session.CallTool(ctx, mcp.CallRequest{Tool: "list_directory", Payload: json.RawMessage(`{"path":"file:///tmp"}`)})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Result)
}

func TestWaitForResultTimesOutDistinctFromTransportError(t *testing.T) {
	ctx := context.Background()
	var deliver func([]byte)
	transport := initOnlyTransport{deliverRef: &deliver, ready: make(chan struct{})}
	session, err := mcp.NewSession(ctx, transport, mcp.Options{})
	require.NoError(t, err)
	defer session.Shutdown(ctx)

	id, err := session.SendRequest(ctx, "tools/call", map[string]any{"name": "slow_tool"})
	require.NoError(t, err)

	_, err = session.WaitForResult(ctx, id, 10*time.Millisecond)
	require.Error(t, err)
	var timedOut *mcp.TimedOut
	assert.ErrorAs(t, err, &timedOut)
}

// initOnlyTransport answers "initialize" so NewSession succeeds, but never
// answers any subsequent request, so WaitForResult must time out. ready
// synchronizes Send with Listen so Send never races the reader's setup of
// the deliver callback.
type initOnlyTransport struct {
	deliverRef *func([]byte)
	ready      chan struct{}
}

func (t initOnlyTransport) Send(_ context.Context, frame []byte) error {
	var req rpcIn
	if err := json.Unmarshal(frame, &req); err != nil {
		return err
	}
	if req.Method != "initialize" {
		return nil
	}
	<-t.ready
	resp, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": json.RawMessage(`{}`)})
	(*t.deliverRef)(resp)
	return nil
}

func (t initOnlyTransport) Listen(ctx context.Context, deliver func([]byte)) {
	*t.deliverRef = deliver
	close(t.ready)
	<-ctx.Done()
}

func (t initOnlyTransport) Close() error { return nil }
