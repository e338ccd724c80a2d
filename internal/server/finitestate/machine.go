// Package finitestate wraps the go-fsm state machine used to track runnable
// lifecycle states.
package finitestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

const (
	StatusNew      = fsm.StatusNew
	StatusBooting  = fsm.StatusBooting
	StatusRunning  = fsm.StatusRunning
	StatusStopping = fsm.StatusStopping
	StatusStopped  = fsm.StatusStopped
	StatusError    = fsm.StatusError
	StatusUnknown  = fsm.StatusUnknown
)

// TypicalTransitions is a set of standard transitions for a finite state machine.
var TypicalTransitions = fsm.TypicalTransitions

// Machine defines the interface for the finite state machine that tracks a
// runnable's lifecycle.
type Machine interface {
	// Transition attempts to transition the state machine to the specified state.
	Transition(state string) error

	// TransitionBool attempts to transition the state machine to the specified state.
	TransitionBool(state string) bool

	// TransitionIfCurrentState attempts to transition the state machine to the specified state
	TransitionIfCurrentState(currentState, newState string) error

	// SetState sets the state of the state machine to the specified state.
	SetState(state string) error

	// GetState returns the current state of the state machine.
	GetState() string

	// GetStateChan returns a channel that emits the state machine's state
	// whenever it changes. The channel is closed when the context is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// runnerFSM embeds fsm.Machine and overrides GetStateChan for sync broadcast
type runnerFSM struct {
	*fsm.Machine
}

// GetStateChan returns a sync broadcast channel with a timeout so state
// updates are delivered during shutdown
func (m *runnerFSM) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanWithOptions(ctx, fsm.WithSyncTimeout(5*time.Second))
}

// New creates a new finite state machine with "standard" state transitions.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusNew, TypicalTransitions)
	if err != nil {
		return nil, err
	}
	return &runnerFSM{Machine: machine}, nil
}
