package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
	toolx "github.com/tanpawarit/record-agent/agent/tool"
)

const EndpointPath = "/mcp"

// Server publishes the record capability catalog to MCP clients. Calls go
// through the same Catalog.Execute path as the chat agent, so validation and
// envelopes are identical.
type Server struct {
	mcpServer *server.MCPServer
	catalog   *toolx.Catalog
}

func NewServer(name, version string, catalog *toolx.Catalog) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		catalog:   catalog,
	}
	for _, t := range catalog.Tools() {
		s.mcpServer.AddTool(toMCPTool(t), s.handlerFor(t.Name))
	}
	return s
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer, server.WithEndpointPath(EndpointPath))
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := s.catalog.Execute(ctx, contractx.ToolRequest{
			Tool: name,
			Args: req.GetArguments(),
		})

		body, err := json.Marshal(res.Envelope)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		out := mcp.NewToolResultText(string(body))
		out.IsError = res.Envelope.Error
		return out, nil
	}
}

func toMCPTool(t toolx.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Desc),
		mcp.WithReadOnlyHintAnnotation(t.SideEffect == toolx.SideEffectRead),
		mcp.WithDestructiveHintAnnotation(t.SideEffect == toolx.SideEffectDestructive),
	}
	for _, p := range t.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Desc)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case schema.Integer, schema.Number:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case schema.Boolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}
