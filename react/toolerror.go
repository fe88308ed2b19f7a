package react

import (
	"errors"
	"fmt"
)

// ToolError is a structured tool-call failure, grounded on the teacher's
// toolerrors.ToolError (message + causal chain, errors.Is/As-compatible via
// Unwrap) and narrowed to react's own concern: rendering a failed call into
// a tool-result message rather than propagating the raw error.
type ToolError struct {
	Message string
	Cause   *ToolError
}

func NewToolError(message string) *ToolError { return &ToolError{Message: message} }

func ToolErrorFromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{Message: err.Error(), Cause: ToolErrorFromError(errors.Unwrap(err))}
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *ToolError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return nil
	}
	return e.Cause
}

// ErrorMode selects how HandleToolErrors treats a failed tool call.
type ErrorMode int

const (
	// ErrorNever never renders a tool error into a result; the failure
	// propagates out of Act and fails the step.
	ErrorNever ErrorMode = iota
	// ErrorAlways renders every tool error into a tool-result message.
	ErrorAlways
	// ErrorMatch renders only errors accepted by Predicate.
	ErrorMatch
)

// HandleToolErrors is the Act-step error policy named in spec §4.5: matched
// errors become a `ToolResult{IsError: true}` instead of failing the step.
type HandleToolErrors struct {
	Mode      ErrorMode
	Template  string // fmt verb %s for the error text; empty uses the raw message
	Predicate func(error) bool
}

// Render reports whether err should be captured as a tool result, and if so
// the rendered content.
func (h HandleToolErrors) Render(err error) (string, bool) {
	switch h.Mode {
	case ErrorAlways:
		return h.format(err), true
	case ErrorMatch:
		if h.Predicate != nil && h.Predicate(err) {
			return h.format(err), true
		}
		return "", false
	default:
		return "", false
	}
}

func (h HandleToolErrors) format(err error) string {
	msg := ToolErrorFromError(err).Error()
	if h.Template == "" {
		return msg
	}
	return fmt.Sprintf(h.Template, msg)
}
