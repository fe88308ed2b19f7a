package tool

import (
	"fmt"
	"strings"
)

// IdempotencyScope declares the semantic scope in which a tool is
// considered idempotent. Grounded on the teacher's
// runtime/agent/tools/idempotency.go.
//
// Default: tools are not idempotent across a step unless explicitly tagged.
type IdempotencyScope string

const (
	// IdempotencyScopeStep indicates the tool is idempotent within a
	// single Act step: repeated calls sharing Name and IdempotencyKey may
	// be de-duplicated, the later ones reusing the first result instead of
	// re-invoking the tool.
	IdempotencyScopeStep IdempotencyScope = "step"

	// TagIdempotencyStep is the tag a Spec carries in Tags when its tool is
	// declared idempotent within a step.
	TagIdempotencyStep = "graphrt.idempotency=step"
)

const idempotencyTagPrefix = "graphrt.idempotency="

// IdempotencyScopeFromTags returns the idempotency scope declared in tags.
//
// Contract:
//   - The idempotency tag appears at most once; multiple tags is a design
//     bug.
//   - An unrecognized idempotency value is a design bug and is returned as
//     an error.
func IdempotencyScopeFromTags(tags []string) (IdempotencyScope, bool, error) {
	var (
		scope IdempotencyScope
		found bool
	)
	for _, tag := range tags {
		if !strings.HasPrefix(tag, idempotencyTagPrefix) {
			continue
		}
		if found {
			return "", false, fmt.Errorf("tool: multiple idempotency tags (first=%q, second=%q)", string(scope), tag)
		}
		raw := strings.TrimPrefix(tag, idempotencyTagPrefix)
		switch raw {
		case string(IdempotencyScopeStep):
			scope = IdempotencyScopeStep
			found = true
		default:
			return "", false, fmt.Errorf("tool: unknown idempotency scope %q", raw)
		}
	}
	return scope, found, nil
}
