// Package wsapi defines the wire-frame types for the optional WebSocket
// protocol (spec §6): client → server requests (run, tools_list,
// tool_show, ping) and server → client responses (reply, event,
// tools_list, tool_show, pong, error), every frame a JSON object tagged by
// "type" and carrying the request's correlation "id". No transport code
// (no net/http, no gorilla/websocket upgrade/read/write loop) lives here —
// that belongs to a caller wiring this protocol onto an actual socket; this
// package only shapes and (de)serializes the frames themselves. Grounded
// on the request/response frame conventions visible in the teacher's
// generated websocket/streaming service packages
// (example/cmd/assistant/http.go wires gorilla/websocket-upgraded
// goa-generated endpoints whose frame shapes are produced by DSL codegen
// this spec has no analogue for), hand-written here since this spec's
// protocol is fixed and small enough not to need a DSL.
package wsapi

import (
	"encoding/json"
	"fmt"

	"github.com/arwynlabs/graphrt/stream"
	"github.com/arwynlabs/graphrt/tool"
)

// RequestType discriminates a client → server frame.
type RequestType string

const (
	RequestRun       RequestType = "run"
	RequestToolsList RequestType = "tools_list"
	RequestToolShow  RequestType = "tool_show"
	RequestPing      RequestType = "ping"
)

// ResponseType discriminates a server → client frame.
type ResponseType string

const (
	ResponseReply     ResponseType = "reply"
	ResponseEvent     ResponseType = "event"
	ResponseToolsList ResponseType = "tools_list"
	ResponseToolShow  ResponseType = "tool_show"
	ResponsePong      ResponseType = "pong"
	ResponseError     ResponseType = "error"
)

// header is the minimal shape every frame carries, used to peek a
// request's Type and ID ahead of decoding its full payload.
type header struct {
	Type RequestType `json:"type"`
	ID   string      `json:"id"`
}

// RunRequest starts (or resumes, via ThreadID) a run and optionally
// requests streaming by naming Modes; an empty Modes means no streaming,
// only the final ReplyResponse.
type RunRequest struct {
	Type     RequestType  `json:"type"`
	ID       string       `json:"id"`
	ThreadID string       `json:"thread_id"`
	Message  string       `json:"message"`
	Modes    []stream.Mode `json:"modes,omitempty"`
}

// ToolsListRequest asks for every tool available to the session.
type ToolsListRequest struct {
	Type RequestType `json:"type"`
	ID   string      `json:"id"`
}

// ToolShowRequest asks for one named tool's full spec.
type ToolShowRequest struct {
	Type RequestType `json:"type"`
	ID   string      `json:"id"`
	Name string      `json:"name"`
}

// PingRequest is a liveness check, answered with PongResponse.
type PingRequest struct {
	Type RequestType `json:"type"`
	ID   string      `json:"id"`
}

// ReplyResponse carries a run's final assistant content.
type ReplyResponse struct {
	Type    ResponseType `json:"type"`
	ID      string       `json:"id"`
	Content string       `json:"content"`
}

// EventResponse embeds one streamed envelope (spec §4.4) inside a
// correlated response frame.
type EventResponse struct {
	Type  ResponseType   `json:"type"`
	ID    string         `json:"id"`
	Event stream.Envelope `json:"event"`
}

// ToolsListResponse answers ToolsListRequest.
type ToolsListResponse struct {
	Type  ResponseType `json:"type"`
	ID    string       `json:"id"`
	Tools []tool.Spec  `json:"tools"`
}

// ToolShowResponse answers ToolShowRequest.
type ToolShowResponse struct {
	Type ResponseType `json:"type"`
	ID   string       `json:"id"`
	Tool tool.Spec    `json:"tool"`
}

// PongResponse answers PingRequest.
type PongResponse struct {
	Type ResponseType `json:"type"`
	ID   string       `json:"id"`
}

// ErrorResponse reports a malformed or unprocessable frame. Invalid JSON
// yields one with an empty ID (spec §6: "Invalid JSON yields
// {"type":"error","error":"parse error: ..."} without closing the
// socket").
type ErrorResponse struct {
	Type  ResponseType `json:"type"`
	ID    string       `json:"id,omitempty"`
	Error string       `json:"error"`
}

// NewErrorResponse builds an ErrorResponse for id (empty when the frame
// could not even be parsed far enough to find one) and err.
func NewErrorResponse(id string, err error) ErrorResponse {
	return ErrorResponse{Type: ResponseError, ID: id, Error: err.Error()}
}

// ParseError wraps a JSON decoding failure with the "parse error: ..."
// prefix spec §6 specifies.
type ParseError struct{ Cause error }

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %s", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

// DecodeRequest parses one client → server frame, peeking Type to select
// the concrete request type to unmarshal into. Returns one of
// *RunRequest, *ToolsListRequest, *ToolShowRequest, *PingRequest.
func DecodeRequest(raw []byte) (any, error) {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, &ParseError{Cause: err}
	}

	switch h.Type {
	case RequestRun:
		var r RunRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &ParseError{Cause: err}
		}
		return &r, nil
	case RequestToolsList:
		var r ToolsListRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &ParseError{Cause: err}
		}
		return &r, nil
	case RequestToolShow:
		var r ToolShowRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &ParseError{Cause: err}
		}
		return &r, nil
	case RequestPing:
		var r PingRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, &ParseError{Cause: err}
		}
		return &r, nil
	default:
		return nil, &ParseError{Cause: fmt.Errorf("unknown request type %q", h.Type)}
	}
}
