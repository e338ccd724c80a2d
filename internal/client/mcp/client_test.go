package mcp

import (
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommandTransport(t *testing.T) {
	t.Run("empty command rejected", func(t *testing.T) {
		_, err := NewCommandTransport("", nil, nil)
		require.ErrorIs(t, err, ErrMissingCommand)
	})

	t.Run("wraps an SDK transport", func(t *testing.T) {
		tr, err := NewCommandTransport("uvx", []string{"--from", "pkg", "srv"}, map[string]string{"AWS_REGION": "us-west-2"})
		require.NoError(t, err)
		_, ok := tr.Underlying().(mcpsdk.Transport)
		assert.True(t, ok)
	})
}

func TestNewStreamableTransport(t *testing.T) {
	tr := NewStreamableTransport("http://localhost:8080/mcp", nil)
	_, ok := tr.Underlying().(mcpsdk.Transport)
	assert.True(t, ok)
}

func TestTextContent(t *testing.T) {
	c := &TextContent{Text: "hello"}
	assert.Equal(t, "text", c.Type())
}

func TestClientConnectRejectsForeignTransport(t *testing.T) {
	c := NewClient(&Implementation{Name: "flowgate", Version: "test"})

	_, err := c.Connect(t.Context(), &transport{underlying: "not a transport"})
	require.ErrorIs(t, err, ErrInvalidTransport)
}
