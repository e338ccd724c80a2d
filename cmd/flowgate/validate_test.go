package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harborline/flowgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

const validConfigContent = `
[logging]
level = "info"
format = "text"

[http]
listen = ":8080"

[agent]
model_id = "anthropic.claude-3-5-sonnet-20241022-v2:0"
region = "us-east-1"

[[mcp_servers]]
name = "awsdac"
command = "uvx"
args = ["awsdac-mcp-server"]
required = true

[tools.deploy_stack]
enabled = true
`

const invalidConfigContent = `
[http]
listen = ":8080"

[[mcp_servers]]
name = "awsdac"
command = "uvx"

[[mcp_servers]]
name = "awsdac"
command = "uvx"
`

// createTempConfigFile creates a temporary config file with the given content
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "test_config.toml")
	err := os.WriteFile(configPath, []byte(content), 0o644)
	require.NoError(t, err)

	return configPath
}

func runValidate(t *testing.T, args ...string) error {
	t.Helper()

	root := &cli.Command{
		Name:     "flowgate",
		Commands: []*cli.Command{validateCmd},
	}
	return root.Run(context.Background(), append([]string{"flowgate", "validate"}, args...))
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid config via flag", func(t *testing.T) {
		configPath := createTempConfigFile(t, validConfigContent)
		err := runValidate(t, "--config", configPath)
		assert.NoError(t, err)
	})

	t.Run("valid config via positional arg", func(t *testing.T) {
		configPath := createTempConfigFile(t, validConfigContent)
		err := runValidate(t, configPath)
		assert.NoError(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		configPath := createTempConfigFile(t, invalidConfigContent)
		err := runValidate(t, "--config", configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("missing file", func(t *testing.T) {
		err := runValidate(t, "--config", "/nonexistent/flowgate.toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("no path provided", func(t *testing.T) {
		err := runValidate(t)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file path required")
	})
}

func TestRenderConfigSummary(t *testing.T) {
	cfg, err := config.NewFromBytes([]byte(validConfigContent))
	require.NoError(t, err)

	summary := renderConfigSummary("/tmp/flowgate.toml", cfg)
	assert.Contains(t, summary, "/tmp/flowgate.toml")
	assert.Contains(t, summary, "Listen: :8080")
	assert.Contains(t, summary, "MCP servers: 1")
	assert.Contains(t, summary, "Native tools: 1")
}
