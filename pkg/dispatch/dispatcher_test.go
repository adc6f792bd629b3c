package dispatch

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/i18n"
	"github.com/urmzd/devicecontrols/pkg/state"
)

// recordingPublisher keeps every snapshot it receives.
type recordingPublisher struct {
	published []device.ControlState
}

func (p *recordingPublisher) Publish(st device.ControlState) (device.ControlState, error) {
	p.published = append(p.published, st)
	return st, nil
}

func newRegistry(t *testing.T) *device.Registry {
	t.Helper()
	reg, err := device.NewRegistry(device.DefaultCatalog())
	require.NoError(t, err)
	return reg
}

func TestApply_Toggle(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	res := d.Apply(device.ToggleButtonID, device.SetBoolean(true))
	require.True(t, res.Applied())
	require.NotNil(t, res.State)
	assert.True(t, res.State.Value.On)
	assert.Equal(t, "ON", res.State.StatusText)
	assert.NoError(t, res.Err())

	res = d.Apply(device.ToggleButtonID, device.SetBoolean(false))
	assert.Equal(t, "OFF", res.State.StatusText)
	assert.Len(t, pub.published, 2)
}

func TestApply_ToggleLocalized(t *testing.T) {
	d := NewDispatcher(newRegistry(t), &recordingPublisher{}, i18n.New("ja"))

	res := d.Apply(device.ToggleButtonID, device.SetBoolean(true))
	assert.Equal(t, "ONです", res.State.StatusText)
}

func TestApply_RangeClamps(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	res := d.Apply(device.SliderButtonID, device.SetFloat(15))
	require.True(t, res.Applied())
	assert.True(t, res.Clamped)
	assert.Equal(t, 10.0, res.State.Value.Level)
	assert.Equal(t, "10", res.State.StatusText)

	res = d.Apply(device.SliderButtonID, device.SetFloat(4))
	assert.False(t, res.Clamped)
	assert.Equal(t, 4.0, res.State.Value.Level)
}

func TestApply_RangeAlwaysInBounds(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	inputs := []float64{-1e9, -1, 0, 0.4, 3.7, 9.5, 10, 10.01, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, x := range inputs {
		res := d.Apply(device.SliderButtonID, device.SetFloat(x))
		require.True(t, res.Applied())
		lvl := res.State.Value.Level
		assert.GreaterOrEqual(t, lvl, 0.0, "input %g", x)
		assert.LessOrEqual(t, lvl, 10.0, "input %g", x)

		again := d.Apply(device.SliderButtonID, device.SetFloat(lvl))
		assert.Equal(t, lvl, again.State.Value.Level)
		assert.False(t, again.Clamped)
	}
}

func TestApply_UnknownDevice(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	res := d.Apply("unknown_id", device.SetBoolean(true))
	assert.Equal(t, device.OutcomeUnknownDevice, res.Outcome)
	assert.Nil(t, res.State)
	assert.ErrorIs(t, res.Err(), device.ErrUnknownDevice)
	assert.Empty(t, pub.published)
}

func TestApply_KindMismatch(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	res := d.Apply(device.ToggleButtonID, device.SetFloat(1))
	assert.Equal(t, device.OutcomeKindMismatch, res.Outcome)

	res = d.Apply(device.SliderButtonID, device.SetBoolean(true))
	assert.Equal(t, device.OutcomeKindMismatch, res.Outcome)
	assert.ErrorIs(t, res.Err(), device.ErrKindMismatch)

	assert.Empty(t, pub.published)
}

func TestPerform_AcknowledgesBeforeApply(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(newRegistry(t), pub, nil)

	var acked []device.Response
	ack := func(r device.Response) {
		// Nothing has been published when the host is acknowledged.
		assert.Empty(t, pub.published)
		acked = append(acked, r)
	}

	d.Perform(device.ToggleButtonID, device.SetBoolean(true), ack)
	d.Perform("unknown_id", device.SetBoolean(true), func(r device.Response) { acked = append(acked, r) })

	assert.Equal(t, []device.Response{device.ResponseOK, device.ResponseOK}, acked)
	assert.Len(t, pub.published, 1)

	assert.NotPanics(t, func() { d.Perform(device.ToggleButtonID, device.SetBoolean(false), nil) })
}

func TestScenario_WithStore(t *testing.T) {
	reg := newRegistry(t)
	store := state.NewStore(reg)
	t.Cleanup(store.Close)
	d := NewDispatcher(reg, store, nil)

	sub := store.Open([]string{device.ToggleButtonID, device.SliderButtonID})
	read := func() device.ControlState {
		select {
		case st := <-sub.C():
			return st
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
		return device.ControlState{}
	}
	read()
	read()

	d.Perform(device.ToggleButtonID, device.SetBoolean(true), nil)
	st := read()
	assert.Equal(t, device.ToggleButtonID, st.DeviceID)
	assert.True(t, st.Value.On)

	d.Perform(device.SliderButtonID, device.SetFloat(15), nil)
	st = read()
	assert.Equal(t, device.SliderButtonID, st.DeviceID)
	assert.Equal(t, 10.0, st.Value.Level)

	acked := false
	d.Perform("unknown_id", device.SetBoolean(true), func(device.Response) { acked = true })
	assert.True(t, acked)
	select {
	case st := <-sub.C():
		t.Fatalf("unexpected snapshot for unknown device: %+v", st)
	case <-time.After(50 * time.Millisecond):
	}

	cur, ok := store.Current(device.ToggleButtonID)
	require.True(t, ok)
	assert.True(t, cur.Value.On)
}

func TestApply_RangeMaxOffGrid(t *testing.T) {
	reg, err := device.NewRegistry([]device.Descriptor{{
		ID:    "dim",
		Kind:  device.KindRange,
		Range: &device.Range{Min: 0, Max: 10, Step: 3},
	}})
	require.NoError(t, err)
	d := NewDispatcher(reg, state.NewStore(reg), nil)

	res := d.Apply("dim", device.SetFloat(11))
	require.True(t, res.Applied())
	assert.Equal(t, 10.0, res.State.Value.Level)
	assert.True(t, res.Clamped)

	res = d.Apply("dim", device.SetFloat(res.State.Value.Level))
	require.True(t, res.Applied())
	assert.Equal(t, 10.0, res.State.Value.Level)
	assert.False(t, res.Clamped)
}
