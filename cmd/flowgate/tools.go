package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientmcp "github.com/harborline/flowgate/internal/client/mcp"
	"github.com/harborline/flowgate/internal/fancy"
	"github.com/urfave/cli/v3"
)

var toolsCmd = &cli.Command{
	Name:  "tools",
	Usage: "Inspect and call tools on a running flowgate server",
	Commands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the tools advertised by the server",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "server",
					Usage:   "Server MCP endpoint URL",
					Aliases: []string{"s"},
					Value:   "http://localhost:8080/mcp",
				},
				&cli.IntFlag{
					Name:    "timeout",
					Usage:   "Timeout for the operation in seconds",
					Aliases: []string{"t"},
					Value:   30,
				},
			},
			Action: toolsListAction,
		},
		{
			Name:  "call",
			Usage: "Call a tool with JSON arguments",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "server",
					Usage:   "Server MCP endpoint URL",
					Aliases: []string{"s"},
					Value:   "http://localhost:8080/mcp",
				},
				&cli.StringFlag{
					Name:     "name",
					Usage:    "Tool name",
					Aliases:  []string{"n"},
					Required: true,
				},
				&cli.StringFlag{
					Name:    "args",
					Usage:   "Tool arguments as a JSON object",
					Aliases: []string{"a"},
					Value:   "{}",
				},
				&cli.IntFlag{
					Name:    "timeout",
					Usage:   "Timeout for the operation in seconds",
					Aliases: []string{"t"},
					Value:   300,
				},
			},
			Action: toolsCallAction,
		},
	},
}

func dialServer(ctx context.Context, url string) (clientmcp.Session, error) {
	client := clientmcp.NewClient(&clientmcp.Implementation{
		Name:    "flowgate-cli",
		Version: Version,
	})
	return client.Connect(ctx, clientmcp.NewStreamableTransport(url, nil))
}

func toolsListAction(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int("timeout"))*time.Second)
	defer cancel()

	session, err := dialServer(ctx, cmd.String("server"))
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to connect: %w", err), 1)
	}
	defer func() { _ = session.Close() }()

	result, err := session.ListTools(ctx, &clientmcp.ListToolsParams{})
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to list tools: %w", err), 1)
	}

	t := fancy.BranchNode("Tools", fmt.Sprintf("(%d)", len(result.Tools)))
	for _, tool := range result.Tools {
		node := t.Child(fancy.ToolText(tool.Name))
		if tool.Description != "" {
			node.Child(fancy.InfoStyle.Render(fancy.TruncateString(tool.Description, 100)))
		}
	}
	fmt.Println(t.String())

	return nil
}

func toolsCallAction(ctx context.Context, cmd *cli.Command) error {
	var args map[string]any
	if err := json.Unmarshal([]byte(cmd.String("args")), &args); err != nil {
		return cli.Exit(fmt.Errorf("invalid --args JSON: %w", err), 1)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int("timeout"))*time.Second)
	defer cancel()

	session, err := dialServer(ctx, cmd.String("server"))
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to connect: %w", err), 1)
	}
	defer func() { _ = session.Close() }()

	result, err := session.CallTool(ctx, &clientmcp.CallToolParams{
		Name:      cmd.String("name"),
		Arguments: args,
	})
	if err != nil {
		return cli.Exit(fmt.Errorf("tool call failed: %w", err), 1)
	}

	for _, content := range result.Content {
		if text, ok := content.(*clientmcp.TextContent); ok {
			fmt.Println(text.Text)
		}
	}
	if result.IsError {
		return cli.Exit(fancy.ErrorText("tool reported an error"), 1)
	}

	return nil
}
