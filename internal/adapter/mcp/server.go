package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"toolbridge/internal/domain"
	"toolbridge/internal/usecase"
)

// Server exposes the dispatcher's tools over the Model Context Protocol.
// Tool results are always the dispatcher's envelope serialized as JSON
// text, for success and failure alike; protocol-level errors are reserved
// for transport problems.
type Server struct {
	mcp        *server.MCPServer
	dispatcher *usecase.Dispatcher
	logger     *slog.Logger
}

// NewServer builds an MCP server advertising every registered tool with
// its raw JSON Schema.
func NewServer(name, version string, dispatcher *usecase.Dispatcher, logger *slog.Logger) *Server {
	s := &Server{
		mcp:        server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		dispatcher: dispatcher,
		logger:     logger,
	}
	for _, schema := range dispatcher.Schemas() {
		t := mcp.NewToolWithRawSchema(schema.Name, schema.Description, schema.Parameters)
		s.mcp.AddTool(t, s.handle(schema.Name))
	}
	return s
}

func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if m := req.GetArguments(); len(m) > 0 {
			data, err := json.Marshal(m)
			if err != nil {
				return envelopeResult(domain.Fail(domain.KindValidation,
					"arguments are not a JSON object", false))
			}
			args = data
		}
		return envelopeResult(s.dispatcher.Dispatch(ctx, name, args))
	}
}

func envelopeResult(env domain.Envelope) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(env)
	if err != nil {
		// The envelope itself failed to serialize; nothing better to
		// report than a plain internal error.
		fallback, _ := json.Marshal(domain.Fail(domain.KindInternal, "internal error", false))
		return mcp.NewToolResultText(string(fallback)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// ServeStdio runs the server over stdin/stdout until the stream closes.
// Stdout carries protocol frames only; all logging must go to stderr or
// a file.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}
