package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"toolbridge/internal/domain"
)

// SchemaValidatingTool wraps a Tool with JSON Schema validation. On
// Execute it validates arguments against the compiled schema before
// delegating, so backends only ever see well-formed input.
type SchemaValidatingTool struct {
	inner  domain.Tool
	schema *jsonschema.Schema
}

// WithSchemaValidation wraps a tool so that Execute validates arguments
// against the tool's JSON Schema before forwarding to the inner tool.
// Returns error if the schema fails to compile.
func WithSchemaValidation(t domain.Tool) (domain.Tool, error) {
	raw := t.Schema().Parameters
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil // no schema to validate against
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource for %q: %w", t.Name(), err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema for %q: %w", t.Name(), err)
	}

	return &SchemaValidatingTool{inner: t, schema: compiled}, nil
}

func (s *SchemaValidatingTool) Name() string            { return s.inner.Name() }
func (s *SchemaValidatingTool) Description() string     { return s.inner.Description() }
func (s *SchemaValidatingTool) Backend() domain.Backend { return s.inner.Backend() }
func (s *SchemaValidatingTool) Schema() domain.ToolSchema {
	return s.inner.Schema()
}

func (s *SchemaValidatingTool) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	// Absent arguments validate as an empty object so required-field
	// violations surface as validation failures, not decode errors.
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return nil, domain.NewDomainError(s.Name(), domain.ErrValidation,
			fmt.Sprintf("invalid JSON: %v", err))
	}
	if err := s.schema.Validate(v); err != nil {
		return nil, domain.NewDomainError(s.Name(), domain.ErrValidation, err.Error())
	}

	return s.inner.Execute(ctx, args)
}
