package tools

import (
	"context"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	clientmcp "github.com/harborline/flowgate/internal/client/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	lastParams *clientmcp.CallToolParams
	result     *clientmcp.CallToolResult
	err        error
}

func (f *fakeSession) CallTool(_ context.Context, params *clientmcp.CallToolParams) (*clientmcp.CallToolResult, error) {
	f.lastParams = params
	return f.result, f.err
}

func (f *fakeSession) ListTools(context.Context, *clientmcp.ListToolsParams) (*clientmcp.ListToolsResult, error) {
	return &clientmcp.ListToolsResult{}, nil
}

func (f *fakeSession) Close() error { return nil }

func TestRemoteToolCall(t *testing.T) {
	decl := clientmcp.Tool{
		Name:        "search_documentation",
		Description: "Search AWS documentation",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}

	t.Run("text content flattened", func(t *testing.T) {
		session := &fakeSession{result: &clientmcp.CallToolResult{
			Content: []clientmcp.Content{
				&clientmcp.TextContent{Text: "first"},
				&clientmcp.TextContent{Text: "second"},
			},
		}}
		tool := NewRemoteTool("aws-docs", decl, session)

		out, err := tool.Call(t.Context(), map[string]any{"query": "s3"})
		require.NoError(t, err)
		assert.Equal(t, "first\nsecond", out)
		assert.Equal(t, "search_documentation", session.lastParams.Name)
		assert.Equal(t, "s3", session.lastParams.Arguments["query"])
	})

	t.Run("error result surfaces as error", func(t *testing.T) {
		session := &fakeSession{result: &clientmcp.CallToolResult{
			Content: []clientmcp.Content{&clientmcp.TextContent{Text: "boom"}},
			IsError: true,
		}}
		tool := NewRemoteTool("aws-docs", decl, session)

		_, err := tool.Call(t.Context(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("metadata passthrough", func(t *testing.T) {
		tool := NewRemoteTool("aws-docs", decl, &fakeSession{})
		assert.Equal(t, "aws-docs", tool.Server())
		assert.Equal(t, "search_documentation", tool.Name())
		assert.Equal(t, "Search AWS documentation", tool.Description())
		assert.Equal(t, "object", tool.InputSchema().Type)
	})

	t.Run("missing schema defaults to object", func(t *testing.T) {
		bare := clientmcp.Tool{Name: "bare"}
		tool := NewRemoteTool("srv", bare, &fakeSession{})
		require.NotNil(t, tool.InputSchema())
		assert.Equal(t, "object", tool.InputSchema().Type)
	})
}
