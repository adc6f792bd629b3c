package controls

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(device.DefaultCatalog(), i18n.New("en"))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestNewService_InvalidCatalog(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.ErrorIs(t, err, device.ErrInvalidCatalog)
}

func TestService_ListAllAndDescribe(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	all := svc.ListAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, 2, svc.Count())

	d, err := svc.Describe(ctx, device.SliderButtonID)
	require.NoError(t, err)
	assert.Equal(t, device.KindRange, d.Kind)

	_, err = svc.Describe(ctx, "nope")
	assert.ErrorIs(t, err, device.ErrUnknownDevice)
}

func TestService_OpenPerformState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stream, err := svc.Open(ctx, []string{device.ToggleButtonID})
	require.NoError(t, err)

	id, ok := svc.ActiveStream()
	require.True(t, ok)
	assert.Equal(t, stream.ID(), id)

	<-stream.C()

	var ack device.Response
	res := svc.Perform(ctx, device.ToggleButtonID, device.SetBoolean(true), func(r device.Response) { ack = r })
	assert.Equal(t, device.ResponseOK, ack)
	assert.True(t, res.Applied())

	select {
	case st := <-stream.C():
		assert.True(t, st.Value.On)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}

	st, err := svc.State(ctx, device.ToggleButtonID)
	require.NoError(t, err)
	assert.True(t, st.Value.On)

	_, err = svc.State(ctx, "nope")
	assert.ErrorIs(t, err, device.ErrUnknownDevice)
}

func TestService_CloseRefusesStreams(t *testing.T) {
	svc := newTestService(t)

	stream, err := svc.Open(context.Background(), []string{device.ToggleButtonID})
	require.NoError(t, err)

	svc.Close()

	_, err = svc.Open(context.Background(), []string{device.ToggleButtonID})
	assert.ErrorIs(t, err, device.ErrStreamClosed)

	_, ok := svc.ActiveStream()
	assert.False(t, ok)

	// Drain until closed.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-stream.C():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("stream not closed after service close")
		}
	}
}
