package domain

import "time"

type Flight struct {
	ID              int64     `json:"id"`
	FlightNumber    string    `json:"flight_number"`
	AirlineID       int64     `json:"airline_id"`
	AirlineName     string    `json:"airline_name"`
	AirlineCode     string    `json:"airline_code"`
	OriginID        int64     `json:"origin_id"`
	OriginCode      string    `json:"origin_code"`
	OriginCity      string    `json:"origin_city"`
	DestinationID   int64     `json:"destination_id"`
	DestinationCode string    `json:"destination_code"`
	DestinationCity string    `json:"destination_city"`
	DepartureDate   time.Time `json:"departure_date"`
	DepartureTime   string    `json:"departure_time"`
	ArrivalTime     string    `json:"arrival_time"`
	Capacity        int       `json:"capacity"`
	AvailableSeats  int       `json:"available_seats"`
	FareCents       int64     `json:"fare_cents"`
	Available       bool      `json:"available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Airline struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Airport struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
	Code string `json:"code"`
}

// Offer is a flight returned by a search provider that has not been persisted yet.
type Offer struct {
	FlightNumber    string    `json:"flight_number"`
	AirlineName     string    `json:"airline_name"`
	AirlineCode     string    `json:"airline_code"`
	OriginCode      string    `json:"origin_code"`
	OriginCity      string    `json:"origin_city"`
	DestinationCode string    `json:"destination_code"`
	DestinationCity string    `json:"destination_city"`
	DepartureDate   time.Time `json:"departure_date"`
	DepartureTime   string    `json:"departure_time"`
	ArrivalTime     string    `json:"arrival_time"`
	Duration        string    `json:"duration"`
	Aircraft        string    `json:"aircraft"`
	Capacity        int       `json:"capacity"`
	FareCents       int64     `json:"fare_cents"`
}

// DateLayout is the wire and storage layout of departure dates.
const DateLayout = "2006-01-02"
