package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/harborline/flowgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func testEndpoints() []Endpoint {
	return []Endpoint{
		{ID: "invoke", Path: "/invoke", Handler: okHandler},
		{ID: "health", Path: "/health", Handler: okHandler},
	}
}

func TestNewRunner(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		cfg := config.HTTP{Listen: "localhost:8080"}
		runner, err := NewRunner(cfg, testEndpoints())
		require.NoError(t, err)
		assert.NotNil(t, runner)
		assert.Equal(t, "HTTPListener[gateway]", runner.String())
		assert.Len(t, runner.routes, 2)
	})

	t.Run("success with timeouts", func(t *testing.T) {
		cfg := config.HTTP{
			Listen:       "localhost:8080",
			ReadTimeout:  config.FromDuration(20 * time.Second),
			WriteTimeout: config.FromDuration(25 * time.Second),
			IdleTimeout:  config.FromDuration(70 * time.Second),
			DrainTimeout: config.FromDuration(35 * time.Second),
		}
		runner, err := NewRunner(cfg, testEndpoints())
		require.NoError(t, err)
		assert.NotNil(t, runner)
	})

	t.Run("invalid endpoint fails", func(t *testing.T) {
		cfg := config.HTTP{Listen: "localhost:8080"}
		_, err := NewRunner(cfg, []Endpoint{{ID: "", Path: "", Handler: nil}})
		assert.Error(t, err)
	})
}

func TestRunner_GetState(t *testing.T) {
	t.Run("nil server", func(t *testing.T) {
		runner := &Runner{id: "gateway"}
		assert.Equal(t, "unknown", runner.GetState())
		assert.False(t, runner.IsRunning())
	})

	t.Run("initialized server", func(t *testing.T) {
		cfg := config.HTTP{Listen: "localhost:8080"}
		runner, err := NewRunner(cfg, testEndpoints())
		require.NoError(t, err)
		assert.Equal(t, "New", runner.GetState())
		assert.False(t, runner.IsRunning())
	})
}

func TestRunner_GetStateChan(t *testing.T) {
	runner := &Runner{id: "gateway"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := runner.GetStateChan(ctx)
	require.NotNil(t, ch)

	cancel()
	_, open := <-ch
	assert.False(t, open, "channel should close after context cancellation")
}
