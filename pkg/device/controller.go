package device

import "context"

// Provider is the contract the host control surface talks to.
// Every transport (REST, WebSocket, MCP, MQTT) is a thin adapter over it.
type Provider interface {
	// ListAll returns every available control, independent of stream state
	ListAll(ctx context.Context) []Descriptor

	// Open starts a live stream for the given controls, superseding any previous one
	Open(ctx context.Context, ids []string) (Stream, error)

	// Perform acknowledges the action through ack, then applies it
	Perform(ctx context.Context, id string, action Action, ack func(Response)) Result

	// State returns the current snapshot of one control
	State(ctx context.Context, id string) (ControlState, error)

	// ActiveStream returns the id of the open stream, if any
	ActiveStream() (string, bool)
}

// Stream is a live, ordered sequence of snapshots.
// It never ends on its own; C is closed after Close or when a newer stream supersedes it.
type Stream interface {
	ID() string
	Devices() []string
	C() <-chan ControlState
	Close() error
}
