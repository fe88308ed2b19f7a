// Package engine interprets a compiled graph.CompiledPlan: it schedules
// nodes, applies retry policies, persists checkpoints, and surfaces
// interrupts and cooperative cancellation back to the caller (spec §4.3).
// Run executes the loop in-process, single-threaded and cooperative within
// one run (spec §5); engine/temporalrt offers a durable alternative that
// wraps a whole Run call in a Temporal activity.
package engine

import (
	"time"

	"github.com/arwynlabs/graphrt/checkpoint"
	"github.com/arwynlabs/graphrt/stream"
)

// DefaultRecursionLimit is the recursion limit used when
// RunConfig.RecursionLimit is unset; it bounds how many node transitions
// one run may take before the engine raises
// Interrupted{Reason: RecursionLimitReason}.
const DefaultRecursionLimit = 1000

// Backoff describes how the delay between retry attempts grows.
type Backoff struct {
	Fixed       time.Duration // used when Exponential is the zero value
	Exponential bool
	Base        time.Duration
	Cap         time.Duration
}

func (b Backoff) delay(attempt int) time.Duration {
	if !b.Exponential {
		return b.Fixed
	}
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Cap > 0 && d > b.Cap {
			return b.Cap
		}
	}
	if b.Cap > 0 && d > b.Cap {
		return b.Cap
	}
	return d
}

// RetryPolicy governs how a node's failed Run is retried (spec §4.3).
// RetryOn decides whether an error is retryable at all; a nil RetryOn
// treats every error as retryable.
type RetryPolicy struct {
	Attempts int
	Backoff  Backoff
	RetryOn  func(error) bool
}

func (p RetryPolicy) retryable(err error) bool {
	if p.RetryOn == nil {
		return true
	}
	return p.RetryOn(err)
}

// GraphInterrupt is raised by a node to pause the run at the current node,
// surfacing AgentError-shaped control to the caller without advancing
// (spec §4.3 "Interrupts").
type GraphInterrupt struct {
	Reason  string
	Payload any
}

func (e *GraphInterrupt) Error() string { return "engine: interrupted: " + e.Reason }

// Interrupted is the error surfaced to the caller of Run when a node
// raises GraphInterrupt or the recursion limit is hit.
type Interrupted struct {
	Reason     string
	NodeID     string
	Payload    any
	Checkpoint checkpoint.Config
}

func (e *Interrupted) Error() string { return "engine: run interrupted at " + e.NodeID + ": " + e.Reason }

// Cancelled is surfaced when the engine observes the cooperative
// cancellation flag (RunConfig.Cancel) before running a node.
type Cancelled struct{ NodeID string }

func (e *Cancelled) Error() string { return "engine: run cancelled at " + e.NodeID }

// RecursionLimitReason names the interrupt reason the engine itself raises
// (as opposed to ones raised by node code).
const (
	RecursionLimitReason = "recursion_limit"
)

// RunConfig configures one Run invocation.
type RunConfig struct {
	ThreadID         string
	CheckpointNS     string
	UserID           string
	ResumeFromNodeID string
	RecursionLimit   int
	Cancel           <-chan struct{} // closed to request cooperative cancellation
	Stream           *stream.Broadcaster
	NodeRetry        map[string]RetryPolicy
}

func (c RunConfig) recursionLimit() int {
	if c.RecursionLimit > 0 {
		return c.RecursionLimit
	}
	return DefaultRecursionLimit
}

func (c RunConfig) cancelled() bool {
	if c.Cancel == nil {
		return false
	}
	select {
	case <-c.Cancel:
		return true
	default:
		return false
	}
}
