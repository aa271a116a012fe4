package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

func closedObject(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// SummarySchema is the flat AISummary shape. It is sent to providers that
// support structured output and used to check what the model returned.
var SummarySchema = closedObject(map[string]any{
	"shortSummary": map[string]any{"type": "string"},
	"eligibility":  stringArray(),
	"importantDates": closedObject(map[string]any{
		"applicationStart": nullable("string"),
		"applicationEnd":   nullable("string"),
		"examDate":         nullable("string"),
		"resultDate":       nullable("string"),
	}),
	"ageLimit": closedObject(map[string]any{
		"min":        nullable("integer"),
		"max":        nullable("integer"),
		"relaxation": map[string]any{"type": "string"},
	}),
	"qualification": stringArray(),
	"vacancies": closedObject(map[string]any{
		"total": map[string]any{"type": "integer", "minimum": 0},
		"category": closedObject(map[string]any{
			"UR":  map[string]any{"type": "integer", "minimum": 0},
			"OBC": map[string]any{"type": "integer", "minimum": 0},
			"SC":  map[string]any{"type": "integer", "minimum": 0},
			"ST":  map[string]any{"type": "integer", "minimum": 0},
			"EWS": map[string]any{"type": "integer", "minimum": 0},
		}),
	}),
	"applicationFees": closedObject(map[string]any{
		"general": nullable("number"),
		"obc":     nullable("number"),
		"scst":    nullable("number"),
		"female":  nullable("number"),
	}),
	"selectionProcess": stringArray(),
	"salary":           map[string]any{"type": "string"},
	"howToApply":       map[string]any{"type": "string"},
})

// Validator checks decoded JSON values against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles schema.
func NewValidator(name string, schema map[string]any) (*Validator, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := name + ".json"
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{schema: compiled}, nil
}

// MustValidator is NewValidator for package-level schemas known to compile.
func MustValidator(name string, schema map[string]any) *Validator {
	v, err := NewValidator(name, schema)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns nil when v conforms.
func (v *Validator) Validate(value any) error {
	return v.schema.Validate(value)
}

// Violations flattens a validation error into "location: message" entries,
// one per failing leaf. The document root is reported as "/".
func Violations(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
