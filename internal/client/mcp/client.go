// Package mcp provides a thin abstraction layer around the MCP SDK client.
// This isolates the rest of flowgate from breaking changes in the unstable
// MCP SDK.
package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Client provides a thin abstraction layer around the MCP SDK client.
type Client interface {
	// Connect establishes a new MCP session with the given transport
	Connect(ctx context.Context, transport Transport) (Session, error)
}

// Session represents an active MCP session for calling tools and listing capabilities
type Session interface {
	// CallTool invokes a tool with the given parameters
	CallTool(ctx context.Context, params *CallToolParams) (*CallToolResult, error)

	// ListTools returns all available tools from the server
	ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error)

	// Close terminates the MCP session
	Close() error
}

// Transport represents an MCP transport layer (stdio command, HTTP, etc.)
type Transport interface {
	// Underlying returns the wrapped SDK transport. Kept as any to allow
	// different transport types without forcing dependencies.
	Underlying() any
}

// CallToolParams wraps the MCP SDK's CallToolParams
type CallToolParams struct {
	Name      string
	Arguments map[string]any
}

// CallToolResult wraps the MCP SDK's CallToolResult
type CallToolResult struct {
	Content []Content
	IsError bool
}

// ListToolsParams wraps the MCP SDK's ListToolsParams
type ListToolsParams struct{}

// ListToolsResult wraps the MCP SDK's ListToolsResult
type ListToolsResult struct {
	Tools []Tool
}

// Tool represents an available MCP tool. The input schema is carried through
// so remote tools can be re-advertised with their original shape.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Content represents MCP content (text, JSON, etc.)
type Content interface {
	// Type returns the content type ("text", "json", etc.)
	Type() string
}

// TextContent represents text content from MCP
type TextContent struct {
	Text string
}

func (t *TextContent) Type() string {
	return "text"
}

// Implementation represents MCP implementation details
type Implementation struct {
	Name    string
	Version string
}

// client implements the Client interface using the MCP SDK
type client struct {
	impl      *Implementation
	mcpClient *mcpsdk.Client
}

// session implements the Session interface using the MCP SDK
type session struct {
	mcpSession *mcpsdk.ClientSession
}

// transport implements the Transport interface
type transport struct {
	underlying any
}

// NewClient creates a new MCP client with the given implementation details
func NewClient(impl *Implementation) Client {
	mcpImpl := &mcpsdk.Implementation{
		Name:    impl.Name,
		Version: impl.Version,
	}

	return &client{
		impl:      impl,
		mcpClient: mcpsdk.NewClient(mcpImpl, nil),
	}
}

// NewStreamableTransport creates a new streamable HTTP transport
func NewStreamableTransport(url string, httpClient *http.Client) Transport {
	return &transport{
		underlying: &mcpsdk.StreamableClientTransport{
			Endpoint:   url,
			HTTPClient: httpClient,
		},
	}
}

// NewCommandTransport creates a transport that spawns a subprocess and
// speaks MCP over its stdin/stdout. Extra environment entries are appended
// to the current process environment.
func NewCommandTransport(command string, args []string, env map[string]string) (Transport, error) {
	if command == "" {
		return nil, ErrMissingCommand
	}

	cmd := exec.Command(command, args...)
	if len(env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	return &transport{
		underlying: &mcpsdk.CommandTransport{Command: cmd},
	}, nil
}

// Connect establishes a new MCP session
func (c *client) Connect(ctx context.Context, transport Transport) (Session, error) {
	mcpTransport, ok := transport.Underlying().(mcpsdk.Transport)
	if !ok {
		return nil, ErrInvalidTransport
	}

	mcpSession, err := c.mcpClient.Connect(ctx, mcpTransport, nil)
	if err != nil {
		return nil, err
	}

	return &session{mcpSession: mcpSession}, nil
}

// CallTool invokes a tool with the given parameters
func (s *session) CallTool(ctx context.Context, params *CallToolParams) (*CallToolResult, error) {
	mcpParams := &mcpsdk.CallToolParams{
		Name:      params.Name,
		Arguments: params.Arguments,
	}

	result, err := s.mcpSession.CallTool(ctx, mcpParams)
	if err != nil {
		return nil, err
	}

	// Convert MCP content to our abstraction
	content := make([]Content, len(result.Content))
	for i, mcpContent := range result.Content {
		switch v := mcpContent.(type) {
		case *mcpsdk.TextContent:
			content[i] = &TextContent{Text: v.Text}
		default:
			content[i] = &TextContent{Text: "unsupported content type"}
		}
	}

	return &CallToolResult{
		Content: content,
		IsError: result.IsError,
	}, nil
}

// ListTools returns all available tools
func (s *session) ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	mcpParams := &mcpsdk.ListToolsParams{}

	result, err := s.mcpSession.ListTools(ctx, mcpParams)
	if err != nil {
		return nil, err
	}

	tools := make([]Tool, len(result.Tools))
	for i, mcpTool := range result.Tools {
		tools[i] = Tool{
			Name:        mcpTool.Name,
			Description: mcpTool.Description,
			InputSchema: schemaFromWire(mcpTool.InputSchema),
		}
	}

	return &ListToolsResult{Tools: tools}, nil
}

// schemaFromWire converts the SDK's untyped input schema (a map[string]any
// on the client side) into a typed schema. Unparseable schemas become nil;
// callers substitute a permissive default.
func schemaFromWire(raw any) *jsonschema.Schema {
	if raw == nil {
		return nil
	}
	if s, ok := raw.(*jsonschema.Schema); ok {
		return s
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(data, schema); err != nil {
		return nil
	}
	return schema
}

// Close terminates the MCP session
func (s *session) Close() error {
	return s.mcpSession.Close()
}

// Underlying returns the underlying transport implementation
func (t *transport) Underlying() any {
	return t.underlying
}
