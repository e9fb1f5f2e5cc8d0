// Package mcpserver exposes the tool surface over the Model Context
// Protocol, so MCP clients drive the same dispatcher the HTTP API does.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fluxgate/fluxgate/internal/tools"
)

func New(d *tools.Dispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"fluxgate",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	registerTools(s, d)
	return s
}

// ServeStdio blocks serving the MCP stdio transport.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerTools(s *server.MCPServer, d *tools.Dispatcher) {
	for _, spec := range tools.Specs() {
		opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
		for _, p := range spec.Params {
			desc := p.Description
			if p.Type == "array" {
				// MCP clients send lists awkwardly; accept them
				// comma-separated and let the dispatcher split.
				desc = "Comma-separated list. " + desc
			}
			popts := []mcp.PropertyOption{}
			if desc != "" {
				popts = append(popts, mcp.Description(desc))
			}
			if p.Required {
				popts = append(popts, mcp.Required())
			}
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
		s.AddTool(mcp.NewTool(spec.Name, opts...), handler(d, spec.Name))
	}
}

func handler(d *tools.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		params := tools.Params(req.GetArguments())

		res := d.Dispatch(ctx, name, params)
		if !res.Success {
			return mcp.NewToolResultError(*res.Error), nil
		}

		body, err := json.MarshalIndent(res.Result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
