package config

import (
	"fmt"

	"github.com/harborline/flowgate/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	return ConfigTree(c)
}

// ConfigTree converts a Config struct into a rendered tree string
func ConfigTree(cfg *Config) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render("Flowgate Config"))

	loggingTree := t.Child("Logging")
	loggingTree.Child(fmt.Sprintf("Format: %s", cfg.Logging.Format))
	loggingTree.Child(fmt.Sprintf("Level: %s", cfg.Logging.Level))

	httpTree := t.Child("HTTP")
	httpTree.Child(fmt.Sprintf("Listen: %s", cfg.HTTP.Listen))

	agentTree := t.Child("Agent")
	agentTree.Child(fmt.Sprintf("Model: %s", cfg.Agent.ModelID))
	agentTree.Child(fmt.Sprintf("Region: %s", cfg.Agent.Region))
	agentTree.Child(fmt.Sprintf("Max turns: %d", cfg.Agent.MaxTurns))

	memoryTree := t.Child("Memory")
	memoryTree.Child(fmt.Sprintf("Path: %s", fancy.PathText(cfg.Memory.Path)))
	memoryTree.Child(fmt.Sprintf("History depth: %d", cfg.Memory.HistoryDepth))

	serversTree := t.Child(fmt.Sprintf("MCP Servers %s", fancy.CountText(fmt.Sprintf("(%d)", len(cfg.MCPServers)))))
	for _, s := range cfg.MCPServers {
		st := fancy.ServerTree(s.Name)
		st.AddChild(fmt.Sprintf("Command: %s", s.Command))
		if len(s.Args) > 0 {
			st.AddChild(fmt.Sprintf("Args: %v", s.Args))
		}
		if s.Required {
			st.AddChild("Required: true")
		}
		serversTree.Child(st.Tree())
	}

	toolsTree := t.Child("Native Tools")
	if cfg.Tools.DeployStack.Enabled {
		dt := fancy.ToolTree("deploy_stack")
		dt.AddChild(fmt.Sprintf("Region: %s", cfg.Tools.DeployStack.Region))
		dt.AddChild(fmt.Sprintf("Poll interval: %s", cfg.Tools.DeployStack.PollInterval))
		dt.AddChild(fmt.Sprintf("Timeout: %s", cfg.Tools.DeployStack.Timeout))
		toolsTree.Child(dt.Tree())
	}
	if cfg.Tools.InvokeFlow.Enabled {
		ft := fancy.ToolTree("invoke_flow")
		ft.AddChild(fmt.Sprintf("Region: %s", cfg.Tools.InvokeFlow.Region))
		toolsTree.Child(ft.Tree())
	}

	return t.String()
}
