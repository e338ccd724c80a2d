package config

import "errors"

// Top-level error categories
var (
	ErrFailedToLoadConfig     = errors.New("failed to load config")
	ErrFailedToValidateConfig = errors.New("failed to validate config")
)

// Validation specific errors
var (
	ErrMissingListenAddress = errors.New("missing listen address")
	ErrMissingModelID       = errors.New("missing model id")
	ErrMissingRegion        = errors.New("missing region")
	ErrMissingMemoryPath    = errors.New("missing memory path")
	ErrInvalidMaxTurns      = errors.New("max turns must be positive")
	ErrInvalidHistoryDepth  = errors.New("history depth must be positive")
)

// MCP server entry errors
var (
	ErrMissingServerName    = errors.New("missing mcp server name")
	ErrMissingServerCommand = errors.New("missing mcp server command")
	ErrDuplicateServerName  = errors.New("duplicate mcp server name")
)

// Native tool errors
var (
	ErrInvalidPollInterval = errors.New("poll interval must be positive")
	ErrInvalidDeployWindow = errors.New("deploy timeout must exceed poll interval")
)
