package tools

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a registry of tools keyed by name. Native tools register first;
// tools discovered from MCP servers are folded in afterwards and lose on
// name collision.
type Catalog struct {
	tools map[string]Tool
	mutex sync.RWMutex
}

// NewCatalog creates an empty Catalog
func NewCatalog() *Catalog {
	return &Catalog{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the catalog. Names must be unique.
func (c *Catalog) Register(tool Tool) error {
	if tool.Name() == "" {
		return ErrEmptyToolName
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.tools[tool.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name())
	}
	c.tools[tool.Name()] = tool
	return nil
}

// Unregister removes a tool from the catalog.
func (c *Catalog) Unregister(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.tools, name)
}

// Get retrieves a tool by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	tool, ok := c.tools[name]
	return tool, ok
}

// List returns all registered tools sorted by name.
func (c *Catalog) List() []Tool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]Tool, 0, len(c.tools))
	for _, tool := range c.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.tools)
}
