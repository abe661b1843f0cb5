package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingHandler_DecodesEvent(t *testing.T) {
	event := NewBookingEvent(EventBookingCreated, "TKT-1234ABCD", 3, 9, "6E-2021", []string{"5A", "5B"})
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var got BookingEvent
	handler := BookingHandler(func(_ context.Context, e BookingEvent) error {
		got = e
		return nil
	})

	require.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, "TKT-1234ABCD", got.TicketID)
	assert.Equal(t, 2, got.PartySize)
	assert.Equal(t, []string{"5A", "5B"}, got.Seats)
	assert.NotEmpty(t, got.EventID)
}

func TestBookingHandler_SkipsGarbage(t *testing.T) {
	called := false
	handler := BookingHandler(func(context.Context, BookingEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("{not json")}))
	assert.False(t, called)
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
