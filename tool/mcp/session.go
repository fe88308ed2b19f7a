package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultProtocolVersion is the MCP protocol version used when none is
// configured.
const DefaultProtocolVersion = "2024-11-05"

// Transport delivers framed JSON-RPC requests to an MCP server. Session
// does not serialize its calls to Send, so Send must be safe for
// concurrent use (StdioTransport serializes its writes with a mutex);
// implementations
// that receive responses asynchronously (stdio) deliver them via the
// deliver callback passed to Listen. Implementations that receive responses
// synchronously (HTTP request/response) may call deliver directly from
// within Send and need not implement Listen with a background loop.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	// Listen runs a dedicated reader loop that invokes deliver for every
	// response frame received, until the transport is closed or the
	// context is cancelled. Transports that resolve responses
	// synchronously inside Send may implement this as a no-op that blocks
	// until ctx is done.
	Listen(ctx context.Context, deliver func(frame []byte))
	Close() error
}

// pendingResult is the one-shot result slot for one in-flight request.
type pendingResult struct {
	resp rpcResponse
	err  error
}

// Session manages one MCP JSON-RPC 2.0 connection: assigning request ids,
// maintaining the pending-request table, and routing responses from the
// transport's reader task back to the caller awaiting them (spec §4.7).
type Session struct {
	transport Transport

	nextID  uint64
	pending sync.Map // uint64 -> chan pendingResult

	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
	closeMu   sync.Mutex

	readerDone chan struct{}
}

// Options configures session initialization.
type Options struct {
	ProtocolVersion string
	ClientName      string
	ClientVersion   string
	InitTimeout     time.Duration
}

// NewSession wraps transport in a Session and performs the MCP initialize
// handshake. The caller must have already established the transport
// connection (spawned the subprocess, etc.) before calling NewSession.
func NewSession(ctx context.Context, transport Transport, opts Options) (*Session, error) {
	s := &Session{
		transport:  transport,
		closed:     make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	readerCtx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(s.readerDone)
		defer cancel()
		transport.Listen(readerCtx, s.dispatch)
		s.failAllPending(errors.New("mcp: transport closed"))
	}()
	// Shutdown closes s.closed; cancel the reader's context then so that
	// transports whose Listen blocks until ctx is done return.
	go func() {
		select {
		case <-s.closed:
		case <-readerCtx.Done():
		}
		cancel()
	}()

	protocol := opts.ProtocolVersion
	if protocol == "" {
		protocol = DefaultProtocolVersion
	}
	clientName := opts.ClientName
	if clientName == "" {
		clientName = "graphrt"
	}
	clientVersion := opts.ClientVersion
	if clientVersion == "" {
		clientVersion = "dev"
	}
	initCtx := ctx
	if opts.InitTimeout > 0 {
		var icancel context.CancelFunc
		initCtx, icancel = context.WithTimeout(ctx, opts.InitTimeout)
		defer icancel()
	}
	payload := map[string]any{
		"protocolVersion": protocol,
		"clientInfo": map[string]any{
			"name":    clientName,
			"version": clientVersion,
		},
	}
	if err := s.call(initCtx, "initialize", payload, nil, opts.InitTimeout); err != nil {
		_ = s.Shutdown(context.Background())
		return nil, err
	}
	return s, nil
}

// SendRequest writes a framed JSON-RPC request and returns the assigned
// request id; the caller must subsequently call WaitForResult(id, timeout)
// to retrieve the response.
func (s *Session) SendRequest(ctx context.Context, method string, params any) (uint64, error) {
	id := atomic.AddUint64(&s.nextID, 1)
	s.pending.Store(id, make(chan pendingResult, 1))
	data, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, ID: id, Params: params})
	if err != nil {
		s.pending.Delete(id)
		return 0, err
	}
	if err := s.transport.Send(ctx, data); err != nil {
		s.pending.Delete(id)
		return 0, &TransportError{Cause: err}
	}
	return id, nil
}

// WaitForResult blocks until the reader delivers a response matching id, the
// timeout elapses (returning *TimedOut), the context is cancelled, or the
// session closes. A zero timeout waits indefinitely (bounded only by ctx).
func (s *Session) WaitForResult(ctx context.Context, id uint64, timeout time.Duration) (rpcResponse, error) {
	v, ok := s.pending.Load(id)
	if !ok {
		return rpcResponse{}, errors.New("mcp: unknown request id")
	}
	ch := v.(chan pendingResult)

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-timeoutCh:
		s.pending.Delete(id)
		return rpcResponse{}, &TimedOut{RequestID: id}
	case <-ctx.Done():
		s.pending.Delete(id)
		return rpcResponse{}, ctx.Err()
	case <-s.closed:
		return rpcResponse{}, s.closeError()
	}
}

// call performs a request/response round trip, unmarshaling the result into
// out when non-nil.
func (s *Session) call(ctx context.Context, method string, params any, out any, timeout time.Duration) error {
	id, err := s.SendRequest(ctx, method, params)
	if err != nil {
		return err
	}
	resp, err := s.WaitForResult(ctx, id, timeout)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error.callerError()
	}
	if out != nil && resp.Result != nil {
		return json.Unmarshal(resp.Result, out)
	}
	return nil
}

// CallTool invokes tools/call and normalizes the response, implementing
// Caller.
func (s *Session) CallTool(ctx context.Context, req CallRequest) (CallResponse, error) {
	params := map[string]any{
		"name":      req.Tool,
		"arguments": req.Payload,
	}
	var result toolsCallResult
	if err := s.call(ctx, "tools/call", params, &result, 0); err != nil {
		return CallResponse{}, err
	}
	return normalizeToolResult(result)
}

// dispatch is called by the reader loop for every response frame; it routes
// the parsed response to the pending slot matching its id, if any,
// discarding responses to unknown (timed-out or cancelled) requests and
// notifications (responses with id == 0).
func (s *Session) dispatch(frame []byte) {
	var resp rpcResponse
	if err := json.Unmarshal(frame, &resp); err != nil {
		return
	}
	if resp.ID == 0 {
		return
	}
	v, ok := s.pending.LoadAndDelete(resp.ID)
	if !ok {
		return
	}
	ch := v.(chan pendingResult)
	ch <- pendingResult{resp: resp}
}

func (s *Session) failAllPending(err error) {
	s.setCloseError(err)
	s.pending.Range(func(key, value any) bool {
		s.pending.Delete(key)
		value.(chan pendingResult) <- pendingResult{err: err}
		return true
	})
}

func (s *Session) setCloseError(err error) {
	s.closeMu.Lock()
	if s.closeErr == nil {
		s.closeErr = err
	}
	s.closeMu.Unlock()
}

func (s *Session) closeError() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closeErr == nil {
		return errors.New("mcp: session closed")
	}
	return s.closeErr
}

// Shutdown sends a graceful close if the transport supports it and waits
// for the reader task to finish.
func (s *Session) Shutdown(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = s.transport.Close()
		close(s.closed)
		<-s.readerDone
	})
	return err
}
