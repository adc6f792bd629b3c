// Package controls wires the registry, state store and dispatcher into the
// provider the host control surface talks to.
package controls

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/dispatch"
	"github.com/urmzd/devicecontrols/pkg/i18n"
	"github.com/urmzd/devicecontrols/pkg/state"
)

// Service implements device.Provider.
type Service struct {
	registry   *device.Registry
	store      *state.Store
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger

	mu     sync.Mutex
	closed bool
}

var _ device.Provider = (*Service)(nil)

// NewService builds a provider over the given catalog.
func NewService(catalog []device.Descriptor, translator *i18n.Translator) (*Service, error) {
	registry, err := device.NewRegistry(catalog)
	if err != nil {
		return nil, err
	}
	if translator == nil {
		translator = i18n.New("en")
	}

	store := state.NewStore(registry, state.WithTranslator(translator))

	return &Service{
		registry:   registry,
		store:      store,
		dispatcher: dispatch.NewDispatcher(registry, store, translator),
		logger:     log.With().Str("component", "controls").Logger(),
	}, nil
}

// ListAll returns the full catalog.
func (s *Service) ListAll(ctx context.Context) []device.Descriptor {
	return s.registry.ListAll()
}

// Describe returns one descriptor.
func (s *Service) Describe(ctx context.Context, id string) (device.Descriptor, error) {
	return s.registry.Get(id)
}

// Open starts a stream for ids, closing any previous stream.
func (s *Service) Open(ctx context.Context, ids []string) (device.Stream, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, device.ErrStreamClosed
	}
	return s.store.Open(ids), nil
}

// Perform acknowledges and applies an action.
func (s *Service) Perform(ctx context.Context, id string, action device.Action, ack func(device.Response)) device.Result {
	res := s.dispatcher.Perform(id, action, ack)

	event := s.logger.Info()
	if !res.Applied() {
		event = s.logger.Warn().Err(res.Err())
	}
	event.
		Str("device", id).
		Str("action", string(action.Type)).
		Str("outcome", string(res.Outcome)).
		Bool("clamped", res.Clamped).
		Msg("Action dispatched")

	return res
}

// State returns the current snapshot of id.
func (s *Service) State(ctx context.Context, id string) (device.ControlState, error) {
	st, ok := s.store.Current(id)
	if !ok {
		_, err := s.registry.Get(id)
		return device.ControlState{}, err
	}
	return st, nil
}

// ActiveStream returns the id of the open stream.
func (s *Service) ActiveStream() (string, bool) {
	return s.store.Active()
}

// Count returns the number of controls in the catalog.
func (s *Service) Count() int {
	return s.registry.Len()
}

// Close ends the active stream and refuses new ones.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.store.Close()
}
