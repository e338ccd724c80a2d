package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	clientmcp "github.com/harborline/flowgate/internal/client/mcp"
)

// RemoteTool adapts a tool served by an external MCP server to the Tool
// interface. Calls go through the owning session.
type RemoteTool struct {
	server      string
	name        string
	description string
	schema      *jsonschema.Schema
	session     clientmcp.Session
}

// NewRemoteTool wraps one entry of an MCP ListTools result.
func NewRemoteTool(server string, t clientmcp.Tool, session clientmcp.Session) *RemoteTool {
	return &RemoteTool{
		server:      server,
		name:        t.Name,
		description: t.Description,
		schema:      t.InputSchema,
		session:     session,
	}
}

// Server returns the name of the MCP server this tool came from.
func (r *RemoteTool) Server() string {
	return r.server
}

func (r *RemoteTool) Name() string {
	return r.name
}

func (r *RemoteTool) Description() string {
	return r.description
}

func (r *RemoteTool) InputSchema() *jsonschema.Schema {
	if r.schema != nil {
		return r.schema
	}
	// MCP requires an input schema; an absent one means "any object".
	return &jsonschema.Schema{Type: "object"}
}

// Call forwards to the remote server and flattens text content into a single
// payload. A result flagged IsError comes back as a Go error so the caller
// can mark the tool result accordingly.
func (r *RemoteTool) Call(ctx context.Context, args map[string]any) (string, error) {
	result, err := r.session.CallTool(ctx, &clientmcp.CallToolParams{
		Name:      r.name,
		Arguments: args,
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*clientmcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	payload := strings.Join(parts, "\n")

	if result.IsError {
		if payload == "" {
			payload = "tool reported an error"
		}
		return "", errors.New(payload)
	}
	return payload, nil
}
