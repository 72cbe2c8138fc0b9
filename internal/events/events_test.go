package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var got []Event
	bus.Subscribe(TypeBookingCreated, func(e Event) error {
		got = append(got, e)
		return nil
	})

	require.NoError(t, bus.PublishJSON(TypeBookingCreated, map[string]string{"id": "b-1"}))
	require.NoError(t, bus.PublishJSON(TypeBookingCancelled, map[string]string{"id": "b-1"}))

	require.Len(t, got, 1)
	assert.Equal(t, TypeBookingCreated, got[0].Type)
	assert.False(t, got[0].CreatedAt.IsZero())

	var payload map[string]string
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, "b-1", payload["id"])
}

func TestEventBus_HandlerErrors(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	bus.Subscribe("x", func(Event) error { calls++; return errors.New("first") })
	bus.Subscribe("x", func(Event) error { calls++; return errors.New("second") })

	err := bus.Publish(Event{Type: "x"})
	assert.EqualError(t, err, "first")
	assert.Equal(t, 2, calls)
}

func TestEventBus_EncodeError(t *testing.T) {
	bus := NewEventBus()
	err := bus.PublishJSON("x", make(chan int))
	assert.ErrorContains(t, err, "encode x payload")
}
