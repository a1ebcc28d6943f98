package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecoder turns tool arguments into the request an Endpoint expects.
type MCPDecoder func(mcp.CallToolRequest) (any, error)

// NoArgs decodes tools that take no arguments.
func NoArgs(mcp.CallToolRequest) (any, error) { return nil, nil }

// RegisterMCPTool exposes endpoint as an MCP tool on srv.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, MCPHandler(endpoint, decode))
}

// MCPHandler adapts an Endpoint to an MCP tool handler. The response is
// returned as JSON text; decode and endpoint errors become tool errors,
// not protocol errors. Every call gets a fresh request ID, and the "mcp"
// transport unless the connection already named one.
func MCPHandler(endpoint Endpoint, decode MCPDecoder) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if _, ok := ctx.Value(TransportKey).(string); !ok {
			ctx = WithTransport(ctx, "mcp")
		}
		ctx = WithRequestID(ctx, NewRequestID())

		resp, err := endpoint(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("marshal %s result: %w", req.Params.Name, err)
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
