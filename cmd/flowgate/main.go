package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:    "flowgate",
		Version: Version,
		Usage:   "Agent gateway for MCP tools and Bedrock flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text or json)",
				Value: "text",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			SetupLogger(cmd.String("log-level"), cmd.String("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serverCmd,
			validateCmd,
			toolsCmd,
			versionCmd,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
