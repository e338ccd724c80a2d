package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harborline/flowgate/internal/agent"
	"github.com/harborline/flowgate/internal/config"
	"github.com/harborline/flowgate/internal/memory"
	"github.com/harborline/flowgate/internal/server/gateway"
	httplistener "github.com/harborline/flowgate/internal/server/runnables/listeners/http"
	"github.com/harborline/flowgate/internal/server/runnables/mcphost"
	"github.com/harborline/flowgate/internal/tools"
	"github.com/harborline/flowgate/internal/tools/cfn"
	"github.com/harborline/flowgate/internal/tools/flow"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/urfave/cli/v3"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Start the flowgate server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to TOML configuration file",
			Aliases: []string{"c"},
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		configPath := cmd.String("config")
		if configPath == "" {
			return cli.Exit("The --config flag is required", 1)
		}

		cfg, err := config.New(configPath)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
		}
		if err := cfg.Validate(); err != nil {
			return cli.Exit(fmt.Errorf("invalid config: %w", err), 1)
		}

		SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
		logger := slog.Default()

		store, err := memory.Open(cfg.Memory.Path, cfg.Memory.HistoryDepth)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to open memory store: %w", err), 1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close memory store", "error", err)
			}
		}()

		catalog := tools.NewCatalog()
		if err := registerNativeTools(ctx, cfg, catalog, logger); err != nil {
			return cli.Exit(err, 1)
		}

		agentCore, err := agent.NewFromConfig(ctx, cfg.Agent, catalog, store,
			agent.WithLogger(logger.With("component", "agent")))
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create agent: %w", err), 1)
		}

		mcpRunner, err := mcphost.NewRunner(cfg.MCPServers, catalog,
			mcphost.WithLogger(logger.With("component", "mcphost")))
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create mcp host: %w", err), 1)
		}

		gw := gateway.New(agentCore, catalog,
			gateway.WithLogger(logger.With("component", "gateway")),
			gateway.WithReadiness(mcpRunner.IsRunning))
		mcpHandler := gateway.NewMCPHandler(catalog, "flowgate", Version)

		listener, err := httplistener.NewRunner(cfg.HTTP, []httplistener.Endpoint{
			{ID: "invoke", Path: "/invoke", Handler: gw.HandleInvoke},
			{ID: "health", Path: "/health", Handler: gw.HandleHealth},
			{ID: "mcp", Path: "/mcp", Handler: mcpHandler.ServeHTTP},
		}, httplistener.WithLogger(logger.With("component", "http")))
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create HTTP listener: %w", err), 1)
		}

		// Order is important: tool discovery runs before the listener accepts
		// traffic.
		runnables := []supervisor.Runnable{
			mcpRunner,
			listener,
		}

		super, err := supervisor.New(
			supervisor.WithRunnables(runnables...),
			supervisor.WithLogHandler(logger.Handler()),
			supervisor.WithContext(ctx),
		)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create supervisor: %w", err), 1)
		}
		if err := super.Run(); err != nil {
			return cli.Exit(fmt.Errorf("failed to run server: %w", err), 1)
		}

		logger.Info("Server shutdown complete")
		return nil
	},
}

// registerNativeTools adds the enabled built-in AWS tools to the catalog.
func registerNativeTools(ctx context.Context, cfg *config.Config, catalog *tools.Catalog, logger *slog.Logger) error {
	if cfg.Tools.DeployStack.Enabled {
		deployTool, err := cfn.NewFromRegion(ctx, cfg.Tools.DeployStack.Region,
			cfn.WithPollInterval(cfg.Tools.DeployStack.PollInterval.AsDuration()),
			cfn.WithTimeout(cfg.Tools.DeployStack.Timeout.AsDuration()),
			cfn.WithLogger(logger.With("tool", "deploy_stack")))
		if err != nil {
			return fmt.Errorf("failed to create deploy_stack tool: %w", err)
		}
		if err := catalog.Register(deployTool); err != nil {
			return fmt.Errorf("failed to register deploy_stack tool: %w", err)
		}
	}

	if cfg.Tools.InvokeFlow.Enabled {
		flowTool, err := flow.NewFromRegion(ctx, cfg.Tools.InvokeFlow.Region,
			flow.WithLogger(logger.With("tool", "invoke_flow")))
		if err != nil {
			return fmt.Errorf("failed to create invoke_flow tool: %w", err)
		}
		if err := catalog.Register(flowTool); err != nil {
			return fmt.Errorf("failed to register invoke_flow tool: %w", err)
		}
	}

	return nil
}
