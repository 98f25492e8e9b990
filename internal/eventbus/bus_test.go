package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndReceive(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	require.NoError(t, eb.SendToCore(SendMessageEvent{Message: "hi"}))
	assert.Equal(t, SendMessageEvent{Message: "hi"}, <-eb.UIToCore())

	require.NoError(t, eb.SendToUI(StateUpdateEvent{IsProcessing: true}))
	got := (<-eb.CoreToUI()).(StateUpdateEvent)
	assert.True(t, got.IsProcessing)
}

func TestFullChannelTripsBreaker(t *testing.T) {
	eb := NewEventBus()
	defer eb.Close()

	var reported []EventBusError
	eb.SetErrorCallback(func(e EventBusError) { reported = append(reported, e) })

	for i := 0; i < cap(eb.uiToCore); i++ {
		require.NoError(t, eb.SendToCore(ResetEvent{}))
	}
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, eb.SendToCore(ResetEvent{}), ErrChannelFull)
	}
	assert.Equal(t, CircuitOpen, eb.GetCircuitBreakerState())
	assert.ErrorIs(t, eb.SendToUI(StateUpdateEvent{}), ErrCircuitOpen)
	assert.Len(t, reported, 6)
}

func TestBreakerHalfOpensAfterTimeout(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	now = now.Add(2 * time.Second)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCloseIsIdempotent(t *testing.T) {
	eb := NewEventBus()
	eb.Close()
	assert.NotPanics(t, eb.Close)
}
