package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/harborline/flowgate/internal/config"
	"github.com/urfave/cli/v3"
)

var validateCmd = &cli.Command{
	Name:    "validate",
	Aliases: []string{"lint"},
	Usage:   "Validate a configuration file",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Show detailed tree view of the validated configuration",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the configuration file",
		},
	},
	Suggest: true,
	Action:  validateAction,
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		if cmd.Args().Len() < 1 {
			return fmt.Errorf(
				"config file path required (use the --config flag, or provide the config file as positional argument)",
			)
		}
		configPath = cmd.Args().Get(0)
	}

	cfg, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	fmt.Printf("Configuration file %s is valid\n", configPath)

	if cmd.Bool("tree") {
		fmt.Println(cfg)
		return nil
	}

	fmt.Println(renderConfigSummary(configPath, cfg))
	return nil
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	var summary strings.Builder

	summary.WriteString("\nConfig Summary:\n")
	summary.WriteString(fmt.Sprintf("- Path: %s\n", path))
	summary.WriteString(fmt.Sprintf("- Listen: %s\n", cfg.HTTP.Listen))
	summary.WriteString(fmt.Sprintf("- Model: %s\n", cfg.Agent.ModelID))
	summary.WriteString(fmt.Sprintf("- MCP servers: %d\n", len(cfg.MCPServers)))

	native := 0
	if cfg.Tools.DeployStack.Enabled {
		native++
	}
	if cfg.Tools.InvokeFlow.Enabled {
		native++
	}
	summary.WriteString(fmt.Sprintf("- Native tools: %d\n", native))
	summary.WriteString("\nUse --tree for a more detailed view of the config.")

	return summary.String()
}
