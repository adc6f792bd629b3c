package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/urmzd/devicecontrols/pkg/device"
)

const toggleActionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"type": {"const": "boolean"},
		"value": {"type": "boolean"}
	},
	"required": ["type", "value"]
}`

const rangeActionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"type": {"const": "float"},
		"value": {"type": "number"}
	},
	"required": ["type", "value"]
}`

const anyActionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"type": {"enum": ["boolean", "float"]},
		"value": {"type": ["boolean", "number"]}
	},
	"required": ["type", "value"]
}`

// ActionSchema returns the JSON Schema an action for the given kind must satisfy.
// Unknown kinds get a schema that only checks the envelope.
func ActionSchema(kind device.ControlKind) json.RawMessage {
	switch kind {
	case device.KindToggle:
		return json.RawMessage(toggleActionSchema)
	case device.KindRange:
		return json.RawMessage(rangeActionSchema)
	}
	return json.RawMessage(anyActionSchema)
}

// Validator type-checks action payloads against JSON Schema documents.
// Compiled schemas are cached by their raw bytes.
type Validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewValidator creates a new Validator with an empty cache.
func NewValidator() *Validator {
	return &Validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// ValidateEnvelope checks that payload is a well-formed action of either variant.
// The kind match itself is left to the dispatcher, which ignores mismatches.
func (v *Validator) ValidateEnvelope(payload map[string]any) error {
	return v.Validate(ActionSchema(""), payload)
}

// ValidateAction checks payload against the action schema for kind.
func (v *Validator) ValidateAction(kind device.ControlKind, payload map[string]any) error {
	return v.Validate(ActionSchema(kind), payload)
}

// Validate validates payload against the given JSON Schema document.
// Failures wrap device.ErrValidation.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	if len(schemaDoc) == 0 || string(schemaDoc) == "{}" || string(schemaDoc) == "null" {
		return nil
	}

	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	if err := compiled.Validate(normalize(payload)); err != nil {
		return fmt.Errorf("%w: %v", device.ErrValidation, err)
	}
	return nil
}

// normalize round-trips payload through encoding/json so numbers arrive
// as float64 regardless of how the caller built the map.
func normalize(payload map[string]any) any {
	b, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return payload
	}
	return out
}

func (v *Validator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)

	v.mu.RLock()
	if s, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	var schemaMap any
	if err := json.Unmarshal(schemaDoc, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("action.json", schemaMap); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	compiled, err := c.Compile("action.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}
