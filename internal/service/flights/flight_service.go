package flights

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/provider"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/seating"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	ListAll(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	UpdateFare(ctx context.Context, id int64, fareCents int64) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
	SeatMap(ctx context.Context, id int64) (seating.Map, error)
	Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

// SeatInventory reports the seats already held on a flight.
type SeatInventory interface {
	OccupiedSeats(ctx context.Context, flightID int64) (seating.Set, error)
}

type FlightService struct {
	repo     repository.FlightRepository
	refs     repository.ReferenceRepository
	seats    SeatInventory
	cache    FlightCache
	provider provider.Provider
	log      logrus.FieldLogger
}

type CreateFlightInput struct {
	FlightNumber    string    `json:"flight_number"`
	AirlineCode     string    `json:"airline_code"`
	OriginCode      string    `json:"origin_code"`
	DestinationCode string    `json:"destination_code"`
	DepartureDate   time.Time `json:"departure_date"`
	DepartureTime   string    `json:"departure_time"`
	ArrivalTime     string    `json:"arrival_time"`
	Capacity        int       `json:"capacity"`
	FareCents       int64     `json:"fare_cents"`
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// NewFlightService builds the catalog. cache and search may be nil.
func NewFlightService(
	repo repository.FlightRepository,
	refs repository.ReferenceRepository,
	seats SeatInventory,
	cache FlightCache,
	search provider.Provider,
	log logrus.FieldLogger,
) *FlightService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FlightService{repo: repo, refs: refs, seats: seats, cache: cache, provider: search, log: log}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("failed to cache flights")
		}
	}
	return flights, nil
}

func (s *FlightService) ListAll(ctx context.Context) ([]domain.Flight, error) {
	return s.repo.ListAll(ctx)
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

// Create schedules a flight. Airline and airports must already be known.
func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	number := strings.ToUpper(strings.TrimSpace(input.FlightNumber))
	switch {
	case number == "":
		return nil, fmt.Errorf("%w: flight number is required", domain.ErrValidation)
	case input.DepartureDate.IsZero():
		return nil, fmt.Errorf("%w: departure date is required", domain.ErrValidation)
	case !clockPattern.MatchString(input.DepartureTime) || !clockPattern.MatchString(input.ArrivalTime):
		return nil, fmt.Errorf("%w: times must be HH:MM", domain.ErrValidation)
	case input.Capacity <= 0:
		return nil, fmt.Errorf("%w: capacity must be positive", domain.ErrValidation)
	case input.FareCents < 0:
		return nil, fmt.Errorf("%w: fare must not be negative", domain.ErrValidation)
	}

	airline, err := s.refs.AirlineByCode(ctx, strings.ToUpper(input.AirlineCode))
	if err != nil {
		return nil, fmt.Errorf("airline %s: %w", input.AirlineCode, err)
	}
	origin, err := s.refs.AirportByCode(ctx, strings.ToUpper(input.OriginCode))
	if err != nil {
		return nil, fmt.Errorf("origin airport %s: %w", input.OriginCode, err)
	}
	dest, err := s.refs.AirportByCode(ctx, strings.ToUpper(input.DestinationCode))
	if err != nil {
		return nil, fmt.Errorf("destination airport %s: %w", input.DestinationCode, err)
	}
	if origin.ID == dest.ID {
		return nil, fmt.Errorf("%w: origin and destination are the same", domain.ErrValidation)
	}

	flight := &domain.Flight{
		FlightNumber:  number,
		AirlineID:     airline.ID,
		OriginID:      origin.ID,
		DestinationID: dest.ID,
		DepartureDate: input.DepartureDate,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		Capacity:      input.Capacity,
		FareCents:     input.FareCents,
		Available:     true,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return s.repo.GetByID(ctx, flight.ID)
}

func (s *FlightService) UpdateFare(ctx context.Context, id int64, fareCents int64) error {
	if fareCents < 0 {
		return fmt.Errorf("%w: fare must not be negative", domain.ErrValidation)
	}
	if err := s.repo.UpdateFare(ctx, id, fareCents); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) SetAvailability(ctx context.Context, id int64, available bool) error {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes the flight and every reservation on it.
func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("flight_id", id).Info("flight deleted")
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) SeatMap(ctx context.Context, id int64) (seating.Map, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return seating.Map{}, err
	}
	occupied, err := s.seats.OccupiedSeats(ctx, id)
	if err != nil {
		return seating.Map{}, err
	}
	return seating.Render(flight.Capacity, occupied), nil
}

// Search asks the flight-search provider for offers on a route.
func (s *FlightService) Search(ctx context.Context, origin, destination string, date time.Time) ([]domain.Offer, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("flight search is not configured")
	}
	return s.provider.Search(ctx, origin, destination, date)
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate flights cache")
	}
}

var _ FlightUseCase = (*FlightService)(nil)
