package mcp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HTTPOptions configures an HTTP JSON-RPC MCP transport.
type HTTPOptions struct {
	Endpoint string
	Client   *http.Client
}

// HTTPTransport implements Transport over HTTP JSON-RPC request/response.
// Each Send performs a full round trip and delivers the response to the
// Session synchronously (via the deliver callback captured from Listen),
// since HTTP has no independent reader task the way the stdio transport
// does; Listen simply blocks until the context is cancelled.
type HTTPTransport struct {
	endpoint string
	client   *http.Client

	mu      sync.Mutex
	deliver func(frame []byte)
}

// NewHTTPTransport constructs an HTTPTransport bound to endpoint.
func NewHTTPTransport(opts HTTPOptions) *HTTPTransport {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8080/rpc"
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPTransport{endpoint: endpoint, client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, frame []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(frame))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mcp: http status %d", resp.StatusCode)
	}
	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return err
	}
	t.mu.Lock()
	deliver := t.deliver
	t.mu.Unlock()
	if deliver != nil {
		deliver(body.Bytes())
	}
	return nil
}

func (t *HTTPTransport) Listen(ctx context.Context, deliver func(frame []byte)) {
	t.mu.Lock()
	t.deliver = deliver
	t.mu.Unlock()
	<-ctx.Done()
}

func (t *HTTPTransport) Close() error { return nil }
