// Package config defines the flowgate configuration model and its TOML
// loader. Configuration is parsed into plain structs, env-interpolated, then
// validated before any component consumes it.
package config

import (
	"fmt"
	"os"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
)

// Defaults applied by New when the TOML file leaves fields unset.
const (
	DefaultListenAddr    = ":8080"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultMaxTurns      = 10
	DefaultHistoryDepth  = 50
	DefaultMemoryPath    = "flowgate.db"
	DefaultPollInterval  = 10 * time.Second
	DefaultDeployTimeout = 30 * time.Minute
)

// Config is the root configuration for the gateway.
type Config struct {
	Logging    Logging      `toml:"logging"`
	HTTP       HTTP         `toml:"http"`
	Agent      Agent        `toml:"agent"`
	Memory     Memory       `toml:"memory"`
	MCPServers []*MCPServer `toml:"mcp_servers"`
	Tools      Tools        `toml:"tools"`
}

// Logging controls the slog handler installed at startup.
type Logging struct {
	Level  string `toml:"level"  env_interpolation:"yes"`
	Format string `toml:"format" env_interpolation:"yes"`
}

// HTTP configures the public listener.
type HTTP struct {
	Listen       string   `toml:"listen" env_interpolation:"yes"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	IdleTimeout  Duration `toml:"idle_timeout"`
	DrainTimeout Duration `toml:"drain_timeout"`
}

// Agent configures the Bedrock conversation loop.
type Agent struct {
	ModelID      string `toml:"model_id"      env_interpolation:"yes"`
	Region       string `toml:"region"        env_interpolation:"yes"`
	SystemPrompt string `toml:"system_prompt" env_interpolation:"yes"`
	MaxTurns     int    `toml:"max_turns"`
}

// Memory configures the session transcript store.
type Memory struct {
	Path         string `toml:"path" env_interpolation:"yes"`
	HistoryDepth int    `toml:"history_depth"`
}

// MCPServer describes one stdio MCP server subprocess to spawn and fold into
// the tool catalog.
type MCPServer struct {
	Name     string            `toml:"name"     env_interpolation:"no"`
	Command  string            `toml:"command"  env_interpolation:"yes"`
	Args     []string          `toml:"args"     env_interpolation:"yes"`
	Env      map[string]string `toml:"env"      env_interpolation:"yes"`
	Required bool              `toml:"required"`
}

// Tools configures the native built-in tools.
type Tools struct {
	DeployStack DeployStack `toml:"deploy_stack"`
	InvokeFlow  InvokeFlow  `toml:"invoke_flow"`
}

// DeployStack configures the CloudFormation deploy tool.
type DeployStack struct {
	Enabled      bool     `toml:"enabled"`
	Region       string   `toml:"region" env_interpolation:"yes"`
	PollInterval Duration `toml:"poll_interval"`
	Timeout      Duration `toml:"timeout"`
}

// InvokeFlow configures the Bedrock Flow invocation tool.
type InvokeFlow struct {
	Enabled bool   `toml:"enabled"`
	Region  string `toml:"region" env_interpolation:"yes"`
}

// New reads, parses, and defaults a configuration file. Validate must still
// be called before the config is used.
func New(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	return NewFromBytes(data)
}

// NewFromBytes parses a configuration from raw TOML.
func NewFromBytes(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := gotoml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListenAddr
	}
	if c.Agent.MaxTurns == 0 {
		c.Agent.MaxTurns = DefaultMaxTurns
	}
	if c.Memory.Path == "" {
		c.Memory.Path = DefaultMemoryPath
	}
	if c.Memory.HistoryDepth == 0 {
		c.Memory.HistoryDepth = DefaultHistoryDepth
	}
	if c.Tools.DeployStack.PollInterval == 0 {
		c.Tools.DeployStack.PollInterval = FromDuration(DefaultPollInterval)
	}
	if c.Tools.DeployStack.Timeout == 0 {
		c.Tools.DeployStack.Timeout = FromDuration(DefaultDeployTimeout)
	}
	if c.Tools.DeployStack.Region == "" {
		c.Tools.DeployStack.Region = c.Agent.Region
	}
	if c.Tools.InvokeFlow.Region == "" {
		c.Tools.InvokeFlow.Region = c.Agent.Region
	}
}
