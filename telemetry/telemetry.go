// Package telemetry defines the logging, metrics, and tracing seams used
// throughout the engine, runner, and tool dispatch layers. Grounded on
// runtime/agents/telemetry/telemetry.go: the same three small interfaces
// (Logger/Metrics/Tracer) plus a Noop implementation for tests and a
// Clue/OTEL-backed implementation for production, carried over verbatim
// since ambient observability plumbing has no domain-specific shape to
// adapt.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime. The
// interface is intentionally small so tests can provide lightweight stubs
// without pulling in a concrete logging library.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter/timer/gauge helpers for engine and tool
// instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so engine code stays agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// ToolTelemetry captures observability metadata for one tool call.
// tool.CallContext carries no ToolTelemetry field, and nothing in this
// repository fills in or reads one.
type ToolTelemetry struct {
	// DurationMs is the wall-clock execution time in milliseconds.
	DurationMs int64
	// TokensUsed tracks tokens consumed, for tool calls that themselves
	// invoke a model (e.g. an agent-as-tool composition).
	TokensUsed int
	// Model identifies which model a tool-internal LLM call used, if any.
	Model string
	// Extra holds tool-specific metadata not captured by the common fields.
	Extra map[string]any
}
