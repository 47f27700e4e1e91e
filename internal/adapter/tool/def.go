package tool

import (
	"context"
	"encoding/json"

	"toolbridge/internal/domain"
)

// definition is the common shape of every exposed tool: static metadata
// plus a run function bound to a backend executor.
type definition struct {
	name        string
	description string
	backend     domain.Backend
	parameters  json.RawMessage
	run         func(ctx context.Context, args json.RawMessage) (any, error)
}

func (d *definition) Name() string            { return d.name }
func (d *definition) Description() string     { return d.description }
func (d *definition) Backend() domain.Backend { return d.backend }

func (d *definition) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Name:        d.name,
		Description: d.description,
		Parameters:  d.parameters,
	}
}

func (d *definition) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	return d.run(ctx, args)
}

// typed adapts a function taking a typed argument struct to the raw
// Execute signature. Decode failures are validation errors; they can
// still happen after schema validation when a value has the right JSON
// type but does not fit the Go type (e.g. a fractional "limit").
func typed[T any](fn func(ctx context.Context, args T) (any, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, domain.NewDomainError("tool", domain.ErrValidation, err.Error())
			}
		}
		return fn(ctx, args)
	}
}

// noArgs adapts a function that takes no arguments beyond the context.
func noArgs(fn func(ctx context.Context) (any, error)) func(context.Context, json.RawMessage) (any, error) {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}
