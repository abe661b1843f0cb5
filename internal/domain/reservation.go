package domain

import "time"

type Reservation struct {
	ID        int64
	TicketID  string
	UserID    int64
	FlightID  int64
	PartySize int
	Seats     []string
	CreatedAt time.Time
}

// ReservationSummary is one line of a user's reservation history.
type ReservationSummary struct {
	TicketID        string    `json:"ticket_id"`
	FlightNumber    string    `json:"flight_number"`
	AirlineName     string    `json:"airline_name"`
	DepartureDate   time.Time `json:"departure_date"`
	OriginCity      string    `json:"origin_city"`
	DestinationCity string    `json:"destination_city"`
	Seats           []string  `json:"seats"`
}

// TicketDetails carries everything printed on an e-ticket.
type TicketDetails struct {
	TicketID        string    `json:"ticket_id"`
	UserID          int64     `json:"user_id"`
	PassengerName   string    `json:"passenger_name"`
	FlightNumber    string    `json:"flight_number"`
	AirlineName     string    `json:"airline_name"`
	DepartureDate   time.Time `json:"departure_date"`
	DepartureTime   string    `json:"departure_time"`
	ArrivalTime     string    `json:"arrival_time"`
	OriginName      string    `json:"origin_name"`
	OriginCity      string    `json:"origin_city"`
	DestinationName string    `json:"destination_name"`
	DestinationCity string    `json:"destination_city"`
	Seats           []string  `json:"seats"`
	PartySize       int       `json:"party_size"`
	FareCents       int64     `json:"fare_cents"`
}

func (t TicketDetails) TotalFareCents() int64 {
	return t.FareCents * int64(t.PartySize)
}
