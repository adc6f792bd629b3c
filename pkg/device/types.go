package device

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ControlKind is how a control is rendered and which action variant it accepts.
type ControlKind string

// Control kinds
const (
	KindToggle ControlKind = "toggle"
	KindRange  ControlKind = "range"
)

// Device type constants, used by the host for iconography.
const (
	DeviceTypeFan        = "fan"
	DeviceTypeLight      = "light"
	DeviceTypeSwitch     = "switch"
	DeviceTypeOutlet     = "outlet"
	DeviceTypeThermostat = "thermostat"
	DeviceTypeGeneric    = "generic"
)

// Range describes the bounds of a range control.
type Range struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Step    float64 `json:"step" yaml:"step"`
	Initial float64 `json:"initial" yaml:"initial"`
	Format  string  `json:"format,omitempty" yaml:"format"` // printf verb for status text
}

// Clamp limits v to [Min, Max] and snaps interior values to the nearest
// step counted from Min. Min and Max are always valid results, even when Max
// is off the step grid, so clamping a result again returns it unchanged.
func (r Range) Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v <= r.Min:
		return r.Min
	case v >= r.Max:
		return r.Max
	}
	if r.Step > 0 {
		v = r.Min + math.Round((v-r.Min)/r.Step)*r.Step
	}
	return math.Min(math.Max(v, r.Min), r.Max)
}

// FormatLevel renders v with the range's format, "%.0f" when unset.
func (r Range) FormatLevel(v float64) string {
	format := r.Format
	if format == "" {
		format = "%.0f"
	}
	return fmt.Sprintf(format, v)
}

// Descriptor is the static metadata of a controllable device.
type Descriptor struct {
	ID           string      `json:"id" yaml:"id"`
	Title        string      `json:"title" yaml:"title"`
	Subtitle     string      `json:"subtitle" yaml:"subtitle"`
	Kind         ControlKind `json:"kind" yaml:"kind"`
	Type         string      `json:"type" yaml:"type"`
	Range        *Range      `json:"range,omitempty" yaml:"range"`
	LaunchTarget string      `json:"launch_target,omitempty" yaml:"launch_target"` // Opaque, passed through to the host
}

// DefaultValue is the value a control has before any action touched it.
func (d Descriptor) DefaultValue() Value {
	if d.Kind == KindRange && d.Range != nil {
		return RangeValue(*d.Range, d.Range.Initial)
	}
	return ToggleValue(false)
}

// Value is the current value of a control: a boolean for toggles, a level for ranges.
type Value struct {
	Kind  ControlKind
	On    bool
	Level float64
	Range Range
}

// ToggleValue returns a toggle value.
func ToggleValue(on bool) Value {
	return Value{Kind: KindToggle, On: on}
}

// RangeValue returns a range value with level clamped to r.
func RangeValue(r Range, level float64) Value {
	return Value{Kind: KindRange, Level: r.Clamp(level), Range: r}
}

// MarshalJSON emits only the fields that belong to the value's kind.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindRange {
		return json.Marshal(struct {
			Kind  ControlKind `json:"kind"`
			Level float64     `json:"level"`
			Min   float64     `json:"min"`
			Max   float64     `json:"max"`
			Step  float64     `json:"step"`
		}{v.Kind, v.Level, v.Range.Min, v.Range.Max, v.Range.Step})
	}
	return json.Marshal(struct {
		Kind ControlKind `json:"kind"`
		On   bool        `json:"on"`
	}{v.Kind, v.On})
}

// Status of a control as shown by the host.
type Status string

// Status constants
const (
	StatusOK      Status = "ok"
	StatusUnknown Status = "unknown"
	StatusError   Status = "error"
)

// ControlState is a point-in-time snapshot of one control.
type ControlState struct {
	DeviceID   string    `json:"device_id"`
	Value      Value     `json:"value"`
	Status     Status    `json:"status"`
	StatusText string    `json:"status_text,omitempty"`
	Seq        uint64    `json:"seq"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ActionType selects the payload variant of an Action.
type ActionType string

// Action types
const (
	ActionBoolean ActionType = "boolean"
	ActionFloat   ActionType = "float"
)

// Action is a user request to change a control.
type Action struct {
	Type  ActionType `json:"type"`
	Bool  bool       `json:"-"`
	Float float64    `json:"-"`
}

// SetBoolean returns a boolean action.
func SetBoolean(b bool) Action {
	return Action{Type: ActionBoolean, Bool: b}
}

// SetFloat returns a float action.
func SetFloat(f float64) Action {
	return Action{Type: ActionFloat, Float: f}
}

// Matches reports whether the action variant fits the control kind.
func (a Action) Matches(kind ControlKind) bool {
	switch kind {
	case KindToggle:
		return a.Type == ActionBoolean
	case KindRange:
		return a.Type == ActionFloat
	}
	return false
}

// MarshalJSON emits {"type": ..., "value": ...}.
func (a Action) MarshalJSON() ([]byte, error) {
	var value any = a.Float
	if a.Type == ActionBoolean {
		value = a.Bool
	}
	return json.Marshal(struct {
		Type  ActionType `json:"type"`
		Value any        `json:"value"`
	}{a.Type, value})
}

// UnmarshalJSON accepts {"type": "boolean"|"float", "value": ...}.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  ActionType      `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case ActionBoolean:
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("%w: boolean action needs a boolean value", ErrValidation)
		}
		*a = SetBoolean(b)
	case ActionFloat:
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("%w: float action needs a numeric value", ErrValidation)
		}
		*a = SetFloat(f)
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrValidation, raw.Type)
	}
	return nil
}

// Response is the acknowledgement code handed to the host.
type Response string

// ResponseOK tells the host the action is being processed.
const ResponseOK Response = "ok"

// Outcome is what happened to an action after it was acknowledged.
type Outcome string

// Outcome constants
const (
	OutcomeApplied       Outcome = "applied"
	OutcomeUnknownDevice Outcome = "unknown_device"
	OutcomeKindMismatch  Outcome = "kind_mismatch"
)

// Result describes the applied (or ignored) action.
type Result struct {
	DeviceID string        `json:"device_id"`
	Outcome  Outcome       `json:"outcome"`
	Clamped  bool          `json:"clamped,omitempty"`
	State    *ControlState `json:"state,omitempty"` // nil unless applied
}

// Applied reports whether the action changed state.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeApplied
}

// Err returns the sentinel error for an ignored action, nil when applied.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeUnknownDevice:
		return fmt.Errorf("%w: %s", ErrUnknownDevice, r.DeviceID)
	case OutcomeKindMismatch:
		return fmt.Errorf("%w: %s", ErrKindMismatch, r.DeviceID)
	}
	return nil
}
