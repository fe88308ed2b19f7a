package tool

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate checks args against spec's JSON Schema, if one is declared.
// Tools with no schema accept any payload. Validation failures are
// InvalidInput-class (spec §7): not retryable, surfaced as tool-error
// content when a HandleToolErrors policy matches.
func Validate(spec Spec, args json.RawMessage) error {
	if len(spec.Schema) == 0 {
		return nil
	}
	compiler := jsonschema.NewCompiler()
	var doc any
	if err := json.Unmarshal(spec.Schema, &doc); err != nil {
		return fmt.Errorf("tool %q: invalid schema: %w", spec.Name, err)
	}
	resource := fmt.Sprintf("mem://%s.json", spec.Name)
	if err := compiler.AddResource(resource, doc); err != nil {
		return fmt.Errorf("tool %q: invalid schema: %w", spec.Name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("tool %q: invalid schema: %w", spec.Name, err)
	}
	var instance any
	if len(args) == 0 {
		instance = map[string]any{}
	} else if err := json.Unmarshal(args, &instance); err != nil {
		return fmt.Errorf("tool %q: invalid arguments JSON: %w", spec.Name, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("tool %q: arguments do not match schema: %w", spec.Name, err)
	}
	return nil
}
