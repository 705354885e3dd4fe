package process

import "github.com/ykarpov/procnode/internal/logging"

// CommandProvider generates the command string for a probe ID, typically
// from the probe store.
type CommandProvider func(id string) (command string, err error)

// StateChangeCallback is called when a probe's state changes.
type StateChangeCallback func(id string, oldState, newState State, err error)

// Configurer customizes a Process before it starts (output handler etc.).
type Configurer func(id string, proc *Process)

// PoolOptions configures a new Pool.
type PoolOptions struct {
	// CommandProvider generates the command for a probe ID (required).
	CommandProvider CommandProvider

	// OnStateChange is called on probe state transitions (optional).
	OnStateChange StateChangeCallback

	// ConfigureProcess customizes the Process before start (optional).
	ConfigureProcess Configurer

	// Logger for pool operations. Defaults to the process module logger.
	Logger logging.Logger
}
