// Package provider looks up flight offers for a route and date.
package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Domenick1991/skypass/config"
	"github.com/Domenick1991/skypass/internal/domain"
)

type Provider interface {
	Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error)
}

var iataPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Query is a normalized search request.
type Query struct {
	Origin      string
	Destination string
	Date        time.Time
}

// NewQuery upper-cases the airport codes and rejects malformed input.
func NewQuery(origin, destination string, date time.Time) (Query, error) {
	q := Query{
		Origin:      strings.ToUpper(strings.TrimSpace(origin)),
		Destination: strings.ToUpper(strings.TrimSpace(destination)),
		Date:        date,
	}
	if !iataPattern.MatchString(q.Origin) || !iataPattern.MatchString(q.Destination) {
		return Query{}, fmt.Errorf("%w: airport codes must be three letters", domain.ErrValidation)
	}
	if q.Origin == q.Destination {
		return Query{}, fmt.Errorf("%w: origin and destination are the same", domain.ErrValidation)
	}
	if date.IsZero() {
		return Query{}, fmt.Errorf("%w: departure date is required", domain.ErrValidation)
	}
	return q, nil
}

// AirlineCode derives the carrier IATA code from a flight number such as "6E-2021".
func AirlineCode(flightNumber string) string {
	n := strings.ToUpper(strings.TrimSpace(flightNumber))
	if len(n) < 2 {
		return n
	}
	return n[:2]
}

// New builds the provider selected by cfg.Kind.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case "", "simulated":
		return NewSimulated(), nil
	case "http":
		return NewHTTP(cfg)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
