package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/harborline/flowgate/internal/tools"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPHandler re-exposes the aggregated tool catalog as an MCP server over
// the streamable HTTP transport. A server is compiled per session so tools
// registered or unregistered after startup are reflected in new sessions.
type MCPHandler struct {
	catalog *tools.Catalog
	name    string
	version string

	handler http.Handler
}

// NewMCPHandler creates the /mcp handler.
func NewMCPHandler(catalog *tools.Catalog, name, version string) *MCPHandler {
	h := &MCPHandler{
		catalog: catalog,
		name:    name,
		version: version,
	}
	h.handler = mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return h.compileServer()
	}, nil)
	return h
}

// ServeHTTP delegates MCP protocol concerns to the SDK handler.
func (h *MCPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// compileServer builds an MCP server advertising every catalog tool. AddTool
// panics on schemas that are not objects, so anything else is replaced with
// a permissive object schema.
func (h *MCPHandler) compileServer() *mcpsdk.Server {
	impl := &mcpsdk.Implementation{
		Name:    h.name,
		Version: h.version,
	}
	server := mcpsdk.NewServer(impl, nil)

	for _, tool := range h.catalog.List() {
		schema := tool.InputSchema()
		if schema == nil || schema.Type != "object" {
			schema = &jsonschema.Schema{Type: "object"}
		}
		server.AddTool(&mcpsdk.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: schema,
		}, toolHandler(tool))
	}
	return server
}

// toolHandler bridges one catalog tool into an MCP tool handler. Execution
// errors come back as error-flagged results, not protocol failures.
func toolHandler(tool tools.Tool) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args map[string]any
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("invalid arguments: " + err.Error()), nil
			}
		}

		payload, err := tool.Call(ctx, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: payload}},
		}, nil
	}
}

func errorResult(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}
