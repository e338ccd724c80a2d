// Package http provides the public HTTP listener for the gateway endpoints.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/harborline/flowgate/internal/config"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Interface guards: the listener runs under go-supervisor.
var (
	_ supervisor.Runnable  = (*Runner)(nil)
	_ supervisor.Stateable = (*Runner)(nil)
)

// serverImplementation abstracts the underlying httpserver sub-runnable.
type serverImplementation interface {
	Run(ctx context.Context) error
	Stop()
	GetState() string
	IsRunning() bool
	GetStateChan(ctx context.Context) <-chan string
}

// Runner wraps the go-supervisor httpserver.Runner with a fixed route table.
type Runner struct {
	id      string
	address string
	server  serverImplementation

	logger *slog.Logger
	routes []httpserver.Route
	cfg    config.HTTP
	mutex  sync.Mutex
}

// Option is a functional option for configuring the Runner
type Option func(*Runner)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// Endpoint binds a path to a handler on the listener.
type Endpoint struct {
	ID      string
	Path    string
	Handler http.HandlerFunc
}

// NewRunner creates the listener from the HTTP config section and the
// gateway endpoints.
func NewRunner(cfg config.HTTP, endpoints []Endpoint, opts ...Option) (*Runner, error) {
	r := &Runner{
		id:      "gateway",
		address: cfg.Listen,
		cfg:     cfg,
		logger:  slog.Default().WithGroup("http.Runner"),
	}
	for _, opt := range opts {
		opt(r)
	}

	routes := make([]httpserver.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		route, err := httpserver.NewRouteFromHandlerFunc(ep.ID, ep.Path, ep.Handler)
		if err != nil {
			return nil, fmt.Errorf("failed to create route %s: %w", ep.ID, err)
		}
		routes = append(routes, *route)
	}
	r.routes = routes

	if err := r.initializeRunner(); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP listener: %w", err)
	}
	return r, nil
}

func (r *Runner) initializeRunner() error {
	configCallback := func() (*httpserver.Config, error) {
		r.mutex.Lock()
		address := r.address
		routes := make([]httpserver.Route, len(r.routes))
		copy(routes, r.routes)
		cfg := r.cfg
		r.mutex.Unlock()

		options := []httpserver.ConfigOption{}
		if d := cfg.ReadTimeout.AsDuration(); d > 0 {
			options = append(options, httpserver.WithReadTimeout(d))
		}
		if d := cfg.WriteTimeout.AsDuration(); d > 0 {
			options = append(options, httpserver.WithWriteTimeout(d))
		}
		if d := cfg.IdleTimeout.AsDuration(); d > 0 {
			options = append(options, httpserver.WithIdleTimeout(d))
		}
		if d := cfg.DrainTimeout.AsDuration(); d > 0 {
			options = append(options, httpserver.WithDrainTimeout(d))
		}

		config, err := httpserver.NewConfig(address, routes, options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
		}
		return config, nil
	}

	server, err := httpserver.NewRunner(httpserver.WithConfigCallback(configCallback))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server runner: %w", err)
	}
	r.server = server
	return nil
}

// String returns a unique identifier for this listener.
func (r *Runner) String() string {
	return fmt.Sprintf("HTTPListener[%s]", r.id)
}

// Run starts the HTTP listener and blocks until it stops.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting HTTP listener", "address", r.address, "routes", len(r.routes))
	return r.server.Run(ctx)
}

// Stop signals the listener to shut down.
func (r *Runner) Stop() {
	r.logger.Info("Stopping HTTP listener", "address", r.address)
	r.server.Stop()
}

// GetState returns the current state of the listener.
func (r *Runner) GetState() string {
	if r.server == nil {
		return "unknown"
	}
	return r.server.GetState()
}

// IsRunning returns whether the listener is serving.
func (r *Runner) IsRunning() bool {
	if r.server == nil {
		return false
	}
	return r.server.IsRunning()
}

// GetStateChan returns a channel that emits state changes.
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	if r.server == nil {
		ch := make(chan string)
		go func() {
			<-ctx.Done()
			close(ch)
		}()
		return ch
	}
	return r.server.GetStateChan(ctx)
}
