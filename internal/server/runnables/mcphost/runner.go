// Package mcphost owns the stdio MCP server subprocesses: it spawns each
// configured server, folds the discovered tools into the catalog, and tears
// the sessions down on shutdown.
package mcphost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	clientmcp "github.com/harborline/flowgate/internal/client/mcp"
	"github.com/harborline/flowgate/internal/config"
	"github.com/harborline/flowgate/internal/server/finitestate"
	"github.com/harborline/flowgate/internal/tools"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Interface guards
var (
	_ supervisor.Runnable  = (*Runner)(nil)
	_ supervisor.Stateable = (*Runner)(nil)
)

// Dialer establishes MCP sessions. Swapped out in tests.
type Dialer interface {
	Dial(ctx context.Context, srv *config.MCPServer) (clientmcp.Session, error)
}

// commandDialer is the production dialer: one subprocess per server entry.
type commandDialer struct{}

func (commandDialer) Dial(ctx context.Context, srv *config.MCPServer) (clientmcp.Session, error) {
	transport, err := clientmcp.NewCommandTransport(srv.Command, srv.Args, srv.Env)
	if err != nil {
		return nil, err
	}
	client := clientmcp.NewClient(&clientmcp.Implementation{
		Name:    "flowgate",
		Version: "1.0.0",
	})
	return client.Connect(ctx, transport)
}

// Runner manages the MCP subprocess sessions as a supervised runnable.
type Runner struct {
	servers []*config.MCPServer
	catalog *tools.Catalog
	dialer  Dialer
	fsm     finitestate.Machine
	logger  *slog.Logger

	mutex      sync.Mutex
	sessions   map[string]clientmcp.Session
	registered []string
	cancel     context.CancelFunc
}

// Option is a functional option for configuring the Runner
type Option func(*Runner)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithDialer overrides how MCP sessions are established
func WithDialer(d Dialer) Option {
	return func(r *Runner) { r.dialer = d }
}

// NewRunner creates a runner for the configured MCP servers.
func NewRunner(servers []*config.MCPServer, catalog *tools.Catalog, opts ...Option) (*Runner, error) {
	r := &Runner{
		servers:  servers,
		catalog:  catalog,
		dialer:   commandDialer{},
		logger:   slog.Default().WithGroup("mcphost.Runner"),
		sessions: make(map[string]clientmcp.Session),
	}
	for _, opt := range opts {
		opt(r)
	}

	machine, err := finitestate.New(r.logger.Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	r.fsm = machine
	return r, nil
}

// String returns a unique identifier for this runner
func (r *Runner) String() string {
	return "MCPHostRunner"
}

// Run connects every configured server, then blocks until Stop or context
// cancellation.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.fsm.Transition(finitestate.StatusBooting); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mutex.Lock()
	r.cancel = cancel
	r.mutex.Unlock()
	defer cancel()

	for _, srv := range r.servers {
		if err := r.connectServer(runCtx, srv); err != nil {
			if srv.Required {
				r.setError()
				return fmt.Errorf("required mcp server %s: %w", srv.Name, err)
			}
			// Optional servers are skipped so one bad subprocess does not
			// take the gateway down.
			r.logger.Warn("skipping mcp server", "server", srv.Name, "error", err)
		}
	}

	if err := r.fsm.Transition(finitestate.StatusRunning); err != nil {
		return err
	}
	r.mutex.Lock()
	sessions, registered := len(r.sessions), len(r.registered)
	r.mutex.Unlock()
	r.logger.Info("mcp host running", "servers", sessions, "tools", registered)

	<-runCtx.Done()

	if err := r.fsm.Transition(finitestate.StatusStopping); err != nil {
		return err
	}
	r.teardown()
	return r.fsm.Transition(finitestate.StatusStopped)
}

// Stop signals Run to shut down.
func (r *Runner) Stop() {
	r.mutex.Lock()
	cancel := r.cancel
	r.mutex.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) connectServer(ctx context.Context, srv *config.MCPServer) error {
	session, err := r.dialer.Dial(ctx, srv)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	listed, err := session.ListTools(ctx, &clientmcp.ListToolsParams{})
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions[srv.Name] = session

	for _, decl := range listed.Tools {
		remote := tools.NewRemoteTool(srv.Name, decl, session)
		if err := r.catalog.Register(remote); err != nil {
			// Collisions lose; native tools and earlier servers keep the name.
			r.logger.Warn("tool name collision", "server", srv.Name, "tool", decl.Name, "error", err)
			continue
		}
		r.registered = append(r.registered, decl.Name)
	}

	r.logger.Info("mcp server connected", "server", srv.Name, "tools", len(listed.Tools))
	return nil
}

// teardown unregisters this runner's tools and closes every session.
func (r *Runner) teardown() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, name := range r.registered {
		r.catalog.Unregister(name)
	}
	r.registered = nil

	for name, session := range r.sessions {
		if err := session.Close(); err != nil {
			r.logger.Debug("failed to close mcp session", "server", name, "error", err)
		}
	}
	r.sessions = make(map[string]clientmcp.Session)
}

func (r *Runner) setError() {
	if !r.fsm.TransitionBool(finitestate.StatusError) {
		r.logger.Debug("failed to transition to error state", "from", r.fsm.GetState())
	}
}

// GetState returns the current state of the runner
func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

// IsRunning returns whether the runner is running
func (r *Runner) IsRunning() bool {
	return r.fsm.GetState() == finitestate.StatusRunning
}

// GetStateChan returns a channel that emits state changes
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}
