package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Domenick1991/skypass/config"
	"github.com/Domenick1991/skypass/internal/domain"
)

// offerPayload is the wire shape returned by the flight API.
type offerPayload struct {
	FlightNumber    string  `json:"flight_number"`
	AirlineName     string  `json:"airline_name"`
	AirlineIATA     string  `json:"airline_iata"`
	OriginIATA      string  `json:"origin_iata"`
	OriginCity      string  `json:"origin_city"`
	DestinationIATA string  `json:"destination_iata"`
	DestinationCity string  `json:"destination_city"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalTime     string  `json:"arrival_time"`
	Duration        string  `json:"duration"`
	Aircraft        string  `json:"aircraft"`
	Capacity        int     `json:"capacity"`
	Fare            float64 `json:"fare"`
}

// HTTP queries a remote JSON flight API.
type HTTP struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTP(cfg config.ProviderConfig) (*HTTP, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider base_url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base_url: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTP{
		baseURL: u,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}, nil
}

func (p *HTTP) Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error) {
	q, err := NewQuery(origin, destination, date)
	if err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := p.baseURL.JoinPath("flights")
	params := url.Values{}
	params.Set("origin", q.Origin)
	params.Set("destination", q.Destination)
	params.Set("date", q.Date.Format(domain.DateLayout))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-API-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flight api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flight api returned %s", resp.Status)
	}

	var payload []offerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode flight api response: %w", err)
	}

	day := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
	offers := make([]domain.Offer, 0, len(payload))
	for _, o := range payload {
		if o.FlightNumber == "" {
			logrus.WithField("origin", q.Origin).Warn("flight api returned an offer without a flight number")
			continue
		}
		offer := domain.Offer{
			FlightNumber:    strings.ToUpper(o.FlightNumber),
			AirlineName:     o.AirlineName,
			AirlineCode:     strings.ToUpper(o.AirlineIATA),
			OriginCode:      q.Origin,
			OriginCity:      o.OriginCity,
			DestinationCode: q.Destination,
			DestinationCity: o.DestinationCity,
			DepartureDate:   day,
			DepartureTime:   o.DepartureTime,
			ArrivalTime:     o.ArrivalTime,
			Duration:        o.Duration,
			Aircraft:        o.Aircraft,
			Capacity:        o.Capacity,
			FareCents:       int64(o.Fare*100 + 0.5),
		}
		if offer.AirlineCode == "" {
			offer.AirlineCode = AirlineCode(offer.FlightNumber)
		}
		if offer.OriginCity == "" {
			offer.OriginCity = cityOf(q.Origin)
		}
		if offer.DestinationCity == "" {
			offer.DestinationCity = cityOf(q.Destination)
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
