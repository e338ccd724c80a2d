// Package gateway implements the public HTTP surface: the /invoke and
// /health endpoints plus the aggregated MCP server at /mcp.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/harborline/flowgate/internal/agent"
	"github.com/harborline/flowgate/internal/tools"
)

// Invoker runs one prompt through the agent loop.
type Invoker interface {
	Invoke(ctx context.Context, sessionID, prompt string) (string, error)
}

// InvokeRequest is the POST /invoke body.
type InvokeRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id,omitempty"`
}

// InvokeResponse is the POST /invoke reply.
type InvokeResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// healthResponse is the GET /health reply.
type healthResponse struct {
	Status     string `json:"status"`
	AgentReady bool   `json:"agent_ready"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Gateway holds the handlers' shared dependencies.
type Gateway struct {
	agent   Invoker
	catalog *tools.Catalog
	ready   func() bool
	logger  *slog.Logger
}

// Option is a functional option for configuring the Gateway
type Option func(*Gateway)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithReadiness supplies the readiness probe reported by /health and
// enforced by /invoke
func WithReadiness(ready func() bool) Option {
	return func(g *Gateway) { g.ready = ready }
}

// New creates a Gateway.
func New(invoker Invoker, catalog *tools.Catalog, opts ...Option) *Gateway {
	g := &Gateway{
		agent:   invoker,
		catalog: catalog,
		ready:   func() bool { return true },
		logger:  slog.Default().WithGroup("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HandleInvoke serves POST /invoke.
func (g *Gateway) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	if !g.ready() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "agent not initialized"})
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "api-" + uuid.Must(uuid.NewV4()).String()
	}

	response, err := g.agent.Invoke(r.Context(), sessionID, req.Prompt)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyPrompt) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		g.logger.Error("invoke failed", "session", sessionID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, InvokeResponse{
		Response:  response,
		SessionID: sessionID,
	})
}

// HandleHealth serves GET /health. Readiness is reported in the body; the
// status code stays 200 either way.
func (g *Gateway) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "healthy",
		AgentReady: g.ready(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
