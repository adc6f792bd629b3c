// Package dispatch applies user actions to control state.
//
// Dispatch is two-phase. Acknowledge always succeeds and is handed to the
// host first; Apply then either publishes a new snapshot or ignores the
// action. The host interface has no way to report a late failure, so the
// outcome is only visible in the returned Result and the logs.
package dispatch

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

// Publisher receives the snapshots produced by applied actions.
type Publisher interface {
	Publish(st device.ControlState) (device.ControlState, error)
}

// Dispatcher turns actions into snapshots.
type Dispatcher struct {
	registry   *device.Registry
	publisher  Publisher
	translator *i18n.Translator
	logger     zerolog.Logger
}

// NewDispatcher creates a dispatcher publishing into p.
func NewDispatcher(registry *device.Registry, p Publisher, translator *i18n.Translator) *Dispatcher {
	if translator == nil {
		translator = i18n.New("en")
	}
	return &Dispatcher{
		registry:   registry,
		publisher:  p,
		translator: translator,
		logger:     log.With().Str("component", "dispatch").Logger(),
	}
}

// Acknowledge returns the code the host gets before the action is applied.
func (d *Dispatcher) Acknowledge() device.Response {
	return device.ResponseOK
}

// Perform acknowledges through ack and then applies the action.
// ack may be nil.
func (d *Dispatcher) Perform(id string, action device.Action, ack func(device.Response)) device.Result {
	if ack != nil {
		ack(d.Acknowledge())
	}
	return d.Apply(id, action)
}

// Apply validates the action against the target control and publishes the new state.
// Unknown controls and mismatched action variants leave state untouched.
func (d *Dispatcher) Apply(id string, action device.Action) device.Result {
	desc, err := d.registry.Get(id)
	if err != nil {
		d.logger.Debug().Str("device", id).Msg("Ignoring action for unknown device")
		return device.Result{DeviceID: id, Outcome: device.OutcomeUnknownDevice}
	}

	if !action.Matches(desc.Kind) {
		d.logger.Debug().
			Str("device", id).
			Str("kind", string(desc.Kind)).
			Str("action", string(action.Type)).
			Msg("Ignoring action of mismatched kind")
		return device.Result{DeviceID: id, Outcome: device.OutcomeKindMismatch}
	}

	st := device.ControlState{
		DeviceID: id,
		Status:   device.StatusOK,
	}
	clamped := false

	switch desc.Kind {
	case device.KindToggle:
		st.Value = device.ToggleValue(action.Bool)
		st.StatusText = d.translator.OnOff(action.Bool)
	case device.KindRange:
		st.Value = device.RangeValue(*desc.Range, action.Float)
		clamped = st.Value.Level != action.Float
		st.StatusText = desc.Range.FormatLevel(st.Value.Level)
	}

	published, err := d.publisher.Publish(st)
	if err != nil {
		d.logger.Warn().Err(err).Str("device", id).Msg("Publisher rejected snapshot")
		outcome := device.OutcomeKindMismatch
		if errors.Is(err, device.ErrUnknownDevice) {
			outcome = device.OutcomeUnknownDevice
		}
		return device.Result{DeviceID: id, Outcome: outcome}
	}
	return device.Result{
		DeviceID: id,
		Outcome:  device.OutcomeApplied,
		Clamped:  clamped,
		State:    &published,
	}
}
