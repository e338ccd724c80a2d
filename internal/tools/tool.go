// Package tools defines the tool abstraction shared by native tools and
// tools imported from external MCP servers, plus the catalog that holds them.
package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a callable capability offered to the agent. Implementations must
// be safe for concurrent use.
type Tool interface {
	// Name is the unique tool identifier advertised to the model.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// InputSchema describes the tool's argument shape.
	InputSchema() *jsonschema.Schema

	// Call executes the tool. The returned string is the tool result payload
	// handed back to the model; an error marks the result as failed but must
	// not abort the conversation.
	Call(ctx context.Context, args map[string]any) (string, error)
}
