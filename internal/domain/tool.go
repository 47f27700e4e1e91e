package domain

import (
	"context"
	"encoding/json"
)

// Backend identifies which backend a tool executes against.
type Backend string

const (
	BackendMongoDB Backend = "mongodb"
	BackendGitHub  Backend = "github"
)

// ToolSchema describes a tool for the protocol layer.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CallRequest is a single incoming tool invocation.
type CallRequest struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Tool is the interface every exposed tool implements.
//
// Execute returns a JSON-safe payload: maps, slices and primitives only.
// Backend-native values (ObjectIDs, BSON dates, response structs) must be
// converted before they leave the tool. Errors must wrap one of the domain
// sentinels so the dispatcher can classify them.
type Tool interface {
	Name() string
	Description() string
	Backend() Backend
	Schema() ToolSchema
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// ToolExecutor abstracts tool lookup for the dispatcher.
type ToolExecutor interface {
	Get(name string) (Tool, error)
	Schemas() []ToolSchema
}
