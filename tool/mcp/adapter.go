package mcp

import (
	"context"
	"encoding/json"

	"github.com/arwynlabs/graphrt/tool"
)

// ToolAdapter wraps one MCP tool as a local tool.Source entry so it can be
// registered beside native tools in a tool.AggregateSource. Call delegates
// to the shared Session/Caller.
type ToolAdapter struct {
	caller Caller
	spec   tool.Spec
}

// NewToolAdapter constructs an adapter for one MCP tool, described by spec,
// dispatched through caller (typically a *Session).
func NewToolAdapter(caller Caller, spec tool.Spec) *ToolAdapter {
	return &ToolAdapter{caller: caller, spec: spec}
}

// Spec returns the wrapped tool's metadata.
func (a *ToolAdapter) Spec() tool.Spec { return a.spec }

// Handler returns a tool.Handler suitable for tool.AggregateSource.RegisterTool.
func (a *ToolAdapter) Handler() tool.Handler {
	return func(ctx context.Context, args json.RawMessage, _ tool.CallContext) (tool.CallContent, error) {
		resp, err := a.caller.CallTool(ctx, CallRequest{Tool: a.spec.Name, Payload: args})
		if err != nil {
			return tool.CallContent{}, err
		}
		return tool.CallContent{Content: string(resp.Result), Structured: resp.Structured}, nil
	}
}

// ListToolsFromSession calls tools/list on session and converts the MCP
// tool descriptors into tool.Spec values, ready for registration via
// NewToolAdapter.
func ListToolsFromSession(ctx context.Context, session *Session) ([]tool.Spec, error) {
	var result struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}
	if err := session.call(ctx, "tools/list", map[string]any{}, &result, 0); err != nil {
		return nil, err
	}
	specs := make([]tool.Spec, 0, len(result.Tools))
	for _, t := range result.Tools {
		specs = append(specs, tool.Spec{Name: t.Name, Description: t.Description, Schema: t.InputSchema})
	}
	return specs, nil
}
