package config

import (
	"errors"
	"fmt"

	"github.com/harborline/flowgate/internal/interpolation"
)

// Validate interpolates environment variables and checks the configuration
// for use. All problems are gathered and joined rather than failing on the
// first one.
func (c *Config) Validate() error {
	var errs []error

	// Environment variable interpolation FIRST
	if err := interpolation.InterpolateStruct(c); err != nil {
		errs = append(errs, fmt.Errorf("interpolation failed: %w", err))
	}

	if c.HTTP.Listen == "" {
		errs = append(errs, ErrMissingListenAddress)
	}

	if c.Agent.ModelID == "" {
		errs = append(errs, fmt.Errorf("%w: agent.model_id", ErrMissingModelID))
	}
	if c.Agent.Region == "" {
		errs = append(errs, fmt.Errorf("%w: agent.region", ErrMissingRegion))
	}
	if c.Agent.MaxTurns <= 0 {
		errs = append(errs, ErrInvalidMaxTurns)
	}

	if c.Memory.Path == "" {
		errs = append(errs, ErrMissingMemoryPath)
	}
	if c.Memory.HistoryDepth <= 0 {
		errs = append(errs, ErrInvalidHistoryDepth)
	}

	seen := make(map[string]bool, len(c.MCPServers))
	for i, srv := range c.MCPServers {
		if srv.Name == "" {
			errs = append(errs, fmt.Errorf("%w: mcp_servers[%d]", ErrMissingServerName, i))
			continue
		}
		if seen[srv.Name] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateServerName, srv.Name))
		}
		seen[srv.Name] = true
		if srv.Command == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingServerCommand, srv.Name))
		}
	}

	if c.Tools.DeployStack.Enabled {
		if c.Tools.DeployStack.Region == "" {
			errs = append(errs, fmt.Errorf("%w: tools.deploy_stack.region", ErrMissingRegion))
		}
		if c.Tools.DeployStack.PollInterval <= 0 {
			errs = append(errs, ErrInvalidPollInterval)
		}
		if c.Tools.DeployStack.Timeout <= c.Tools.DeployStack.PollInterval {
			errs = append(errs, ErrInvalidDeployWindow)
		}
	}

	if c.Tools.InvokeFlow.Enabled && c.Tools.InvokeFlow.Region == "" {
		errs = append(errs, fmt.Errorf("%w: tools.invoke_flow.region", ErrMissingRegion))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}
	return nil
}
