// Package state holds the current value of every control and streams
// snapshots to the single active subscriber.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

// Store owns the per-control values and the active subscription.
// At most one subscription is active; Open supersedes the previous one.
type Store struct {
	registry   *device.Registry
	translator *i18n.Translator
	logger     zerolog.Logger
	now        func() time.Time

	mu     sync.Mutex
	values map[string]device.ControlState
	active *Subscription
	seq    uint64
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithTranslator localizes the default toggle status text.
func WithTranslator(t *i18n.Translator) Option {
	return func(s *Store) { s.translator = t }
}

// WithLogger sets the store's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store for the controls in registry.
func NewStore(registry *device.Registry, opts ...Option) *Store {
	s := &Store{
		registry:   registry,
		translator: i18n.New("en"),
		logger:     log.With().Str("component", "state").Logger(),
		now:        time.Now,
		values:     make(map[string]device.ControlState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a new subscription for ids, closing the previous one.
// The subscription is seeded with one snapshot per known id in request order.
// Unknown and repeated ids are skipped.
func (s *Store) Open(ids []string) *Subscription {
	devices := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !s.registry.Has(id) {
			s.logger.Warn().Str("device", id).Msg("Ignoring unknown device in subscription request")
			continue
		}
		devices = append(devices, id)
	}

	sub := newSubscription(devices, s.release)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = sub.Close()
		return sub
	}
	previous := s.active
	s.active = sub
	for _, id := range devices {
		sub.enqueue(s.currentLocked(id))
	}
	s.mu.Unlock()

	if previous != nil {
		s.logger.Debug().Str("subscription", previous.ID()).Msg("Superseding subscription")
		_ = previous.Close()
	}

	s.logger.Info().
		Str("subscription", sub.ID()).
		Strs("devices", devices).
		Msg("Subscription opened")

	return sub
}

// Publish records st as the last-known value of its control and forwards it
// to the active subscription when that subscription covers the control.
// Snapshots for unknown controls or of the wrong kind are rejected. Range
// levels are clamped to the control's own range.
func (s *Store) Publish(st device.ControlState) (device.ControlState, error) {
	desc, err := s.registry.Get(st.DeviceID)
	if err != nil {
		s.logger.Warn().Str("device", st.DeviceID).Msg("Dropping snapshot for unknown device")
		return st, err
	}
	if st.Value.Kind != desc.Kind {
		s.logger.Warn().
			Str("device", st.DeviceID).
			Str("kind", string(desc.Kind)).
			Str("value_kind", string(st.Value.Kind)).
			Msg("Dropping snapshot of mismatched kind")
		return st, fmt.Errorf("%w: %s is a %s control, got %s value", device.ErrKindMismatch, st.DeviceID, desc.Kind, st.Value.Kind)
	}

	switch desc.Kind {
	case device.KindToggle:
		st.Value = device.ToggleValue(st.Value.On)
	case device.KindRange:
		level := st.Value.Level
		st.Value = device.RangeValue(*desc.Range, level)
		if st.Value.Level != level || st.StatusText == "" {
			st.StatusText = desc.Range.FormatLevel(st.Value.Level)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	st.Seq = s.seq
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now()
	}
	if st.Status == "" {
		st.Status = device.StatusOK
	}
	s.values[st.DeviceID] = st

	if s.active != nil && s.active.covering(st.DeviceID) {
		s.active.enqueue(st)
	}
	return st, nil
}

// Current returns the last-known snapshot of id, or its default.
func (s *Store) Current(id string) (device.ControlState, bool) {
	if !s.registry.Has(id) {
		return device.ControlState{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(id), true
}

// Active returns the id of the active subscription.
func (s *Store) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", false
	}
	return s.active.ID(), true
}

// Close ends the active subscription, if any. Subscriptions opened
// afterwards are returned already closed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil {
		_ = active.Close()
	}
}

// release forgets sub if it is still the active subscription.
func (s *Store) release(sub *Subscription) {
	s.mu.Lock()
	if s.active == sub {
		s.active = nil
	}
	s.mu.Unlock()
	s.logger.Info().Str("subscription", sub.ID()).Msg("Subscription closed")
}

func (s *Store) currentLocked(id string) device.ControlState {
	if st, ok := s.values[id]; ok {
		return st
	}

	d, _ := s.registry.Get(id)
	v := d.DefaultValue()
	st := device.ControlState{
		DeviceID:  id,
		Value:     v,
		Status:    device.StatusOK,
		UpdatedAt: s.now(),
	}
	switch v.Kind {
	case device.KindToggle:
		st.StatusText = s.translator.OnOff(v.On)
	case device.KindRange:
		st.StatusText = v.Range.FormatLevel(v.Level)
	}
	return st
}
