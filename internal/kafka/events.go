package kafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated = "booking_created"
)

// BookingEvent is published after a reservation has been committed.
type BookingEvent struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	TicketID     string    `json:"ticket_id"`
	UserID       int64     `json:"user_id"`
	FlightID     int64     `json:"flight_id"`
	FlightNumber string    `json:"flight_number"`
	Seats        []string  `json:"seats"`
	PartySize    int       `json:"party_size"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType, ticketID string, userID, flightID int64, flightNumber string, seats []string) BookingEvent {
	return BookingEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		TicketID:     ticketID,
		UserID:       userID,
		FlightID:     flightID,
		FlightNumber: flightNumber,
		Seats:        seats,
		PartySize:    len(seats),
		OccurredAt:   time.Now().UTC(),
	}
}
