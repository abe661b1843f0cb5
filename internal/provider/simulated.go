package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/Domenick1991/skypass/internal/domain"
)

type carrier struct {
	code     string
	name     string
	aircraft string
	capacity int
}

var carriers = []carrier{
	{"6E", "IndiGo", "A320neo", 180},
	{"AI", "Air India", "A321", 182},
	{"UK", "Vistara", "A320", 158},
	{"SG", "SpiceJet", "B737-800", 189},
	{"QP", "Akasa Air", "B737 MAX 8", 189},
}

var cities = map[string]string{
	"BLR": "Bengaluru",
	"BOM": "Mumbai",
	"CCU": "Kolkata",
	"DEL": "Delhi",
	"GOI": "Goa",
	"HYD": "Hyderabad",
	"MAA": "Chennai",
	"PNQ": "Pune",
}

// Simulated produces a stable schedule for every route and date so that the
// same search always yields the same offers.
type Simulated struct {
	perDay int
}

func NewSimulated() *Simulated {
	return &Simulated{perDay: 4}
}

func (s *Simulated) Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := NewQuery(origin, destination, date)
	if err != nil {
		return nil, err
	}

	seed := routeSeed(q)
	day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
	offers := make([]domain.Offer, 0, s.perDay)
	for i := 0; i < s.perDay; i++ {
		v := seed + uint32(i)*7919
		c := carriers[int(v%uint32(len(carriers)))]
		depMinutes := 6*60 + i*210 + int(v%6)*10
		durMinutes := 75 + int(v%8)*15
		offers = append(offers, domain.Offer{
			FlightNumber:    fmt.Sprintf("%s-%d", c.code, 1000+v%9000),
			AirlineName:     c.name,
			AirlineCode:     c.code,
			OriginCode:      q.Origin,
			OriginCity:      cityOf(q.Origin),
			DestinationCode: q.Destination,
			DestinationCity: cityOf(q.Destination),
			DepartureDate:   day,
			DepartureTime:   clock(depMinutes),
			ArrivalTime:     clock(depMinutes + durMinutes),
			Duration:        fmt.Sprintf("%dh %02dm", durMinutes/60, durMinutes%60),
			Aircraft:        c.aircraft,
			Capacity:        c.capacity,
			FareCents:       int64(3500+v%60*100) * 100,
		})
	}
	return offers, nil
}

func routeSeed(q Query) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(q.Origin + q.Destination + q.Date.Format(domain.DateLayout)))
	return h.Sum32()
}

func cityOf(code string) string {
	if c, ok := cities[code]; ok {
		return c
	}
	return code
}

func clock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
