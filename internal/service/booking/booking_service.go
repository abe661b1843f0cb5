package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/provider"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/seating"
)

type BookingUseCase interface {
	BookFlight(ctx context.Context, input BookFlightInput) (*BookingResult, error)
	ResolveFlight(ctx context.Context, offer domain.Offer) (*domain.Flight, error)
	MyReservations(ctx context.Context, userID int64) ([]domain.ReservationSummary, error)
	Ticket(ctx context.Context, ticketID string) (*domain.TicketDetails, error)
	CheckInventory(ctx context.Context, flightID int64) (*InventoryReport, error)
}

// Cache serializes commits per flight across processes and drops the cached
// flight list once availability changes.
type Cache interface {
	AcquireFlightLock(ctx context.Context, flightID int64, ttl time.Duration) (string, bool, error)
	ReleaseFlightLock(ctx context.Context, flightID int64, token string) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Chooser is the passenger side of a booking: it is shown the seat map and
// supplies seat candidates one at a time.
type Chooser interface {
	seating.Source
	ShowSeatMap(m seating.Map)
	// ShowConflict is called when seats picked by the passenger were taken by
	// someone else before the reservation could be stored.
	ShowConflict(err *domain.ConflictError)
}

type BookFlightInput struct {
	UserID    int64
	Offer     domain.Offer
	PartySize int
	Chooser   Chooser
}

type BookingResult struct {
	TicketID    string
	Reservation *domain.Reservation
	Flight      *domain.Flight
	SeatMap     seating.Map
	Attempts    int
}

var errLockBusy = errors.New("flight is locked by another booking")

type BookingService struct {
	reservations       repository.ReservationRepository
	flights            repository.FlightRepository
	refs               repository.ReferenceRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	lockPoll           time.Duration
	maxAttempts        int
	defaultCapacity    int
	resolveTimeout     time.Duration
	newTicketID        func() string
	resolving          singleflight.Group
	log                logrus.FieldLogger
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLockTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithMaxAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithDefaultCapacity sets the capacity used for offers that carry none.
func WithDefaultCapacity(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.defaultCapacity = n
		}
	}
}

func WithTicketIDGenerator(gen func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newTicketID = gen
	}
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// NewBookingService wires the orchestrator. cache and producer may be nil.
func NewBookingService(
	reservations repository.ReservationRepository,
	flights repository.FlightRepository,
	refs repository.ReferenceRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		reservations:    reservations,
		flights:         flights,
		refs:            refs,
		cache:           cache,
		producer:        producer,
		bookingTopic:    bookingTopic,
		lockTTL:         10 * time.Second,
		lockPoll:        50 * time.Millisecond,
		maxAttempts:     3,
		defaultCapacity: 180,
		resolveTimeout:  30 * time.Second,
		newTicketID:     NewTicketID,
		log:             logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewTicketID returns "TKT-" followed by eight upper-case hex characters.
func NewTicketID() string {
	return "TKT-" + strings.ToUpper(uuid.NewString()[:8])
}

// BookFlight resolves the offered flight, lets the chooser pick seats on the
// current seat map and commits the reservation. When the picked seats are
// taken concurrently the chooser is told and asked again on a fresh map.
func (s *BookingService) BookFlight(ctx context.Context, input BookFlightInput) (*BookingResult, error) {
	if input.PartySize < 1 {
		return nil, fmt.Errorf("%w: number of seats must be at least 1", domain.ErrValidation)
	}
	if input.Chooser == nil {
		return nil, fmt.Errorf("%w: no seat chooser", domain.ErrValidation)
	}

	flight, err := s.ResolveFlight(ctx, input.Offer)
	if err != nil {
		return nil, err
	}
	if !flight.Available {
		return nil, fmt.Errorf("%w: flight %s is closed for booking", domain.ErrValidation, flight.FlightNumber)
	}

	logger := s.log.WithFields(logrus.Fields{
		"flight_id": flight.ID,
		"flight":    flight.FlightNumber,
		"user_id":   input.UserID,
	})

	selector := seating.NewSelector(flight.Capacity)
	var lastConflict *domain.ConflictError
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		occupied, err := s.reservations.OccupiedSeats(ctx, flight.ID)
		if err != nil {
			return nil, fmt.Errorf("read seat inventory: %w", err)
		}
		seatMap := seating.Render(flight.Capacity, occupied)
		if input.PartySize > seatMap.Free {
			return nil, fmt.Errorf("%w: only %d seats left on flight %s", domain.ErrValidation, seatMap.Free, flight.FlightNumber)
		}
		input.Chooser.ShowSeatMap(seatMap)

		seats, err := selector.Select(ctx, input.PartySize, occupied, input.Chooser)
		if err != nil {
			if lastConflict != nil && errors.Is(err, seating.ErrNoMoreCandidates) {
				return nil, lastConflict
			}
			return nil, err
		}

		res := &domain.Reservation{
			TicketID:  s.newTicketID(),
			UserID:    input.UserID,
			FlightID:  flight.ID,
			PartySize: input.PartySize,
			Seats:     seating.Strings(seats),
		}
		err = s.commit(ctx, res)
		if errors.Is(err, domain.ErrDuplicateTicket) {
			logger.WithField("ticket_id", res.TicketID).Warn("ticket id already issued, retrying with a new one")
			res.TicketID = s.newTicketID()
			err = s.commit(ctx, res)
		}
		var conflict *domain.ConflictError
		switch {
		case err == nil:
			logger.WithFields(logrus.Fields{
				"ticket_id": res.TicketID,
				"seats":     seating.Join(res.Seats),
				"attempt":   attempt,
			}).Info("reservation committed")
			s.afterCommit(ctx, flight, res)
			flight.AvailableSeats = seatMap.Free - len(res.Seats)
			return &BookingResult{
				TicketID:    res.TicketID,
				Reservation: res,
				Flight:      flight,
				SeatMap:     seatMap,
				Attempts:    attempt,
			}, nil
		case errors.As(err, &conflict):
			logger.WithField("seats", seating.Join(conflict.Seats)).Warn("seats taken before commit")
			lastConflict = conflict
			input.Chooser.ShowConflict(conflict)
		default:
			return nil, &domain.ReservationCommitError{TicketID: res.TicketID, Err: err}
		}
	}
	return nil, lastConflict
}

func (s *BookingService) commit(ctx context.Context, res *domain.Reservation) error {
	if s.cache != nil {
		token, err := s.acquireLock(ctx, res.FlightID)
		if err != nil {
			if errors.Is(err, errLockBusy) || ctx.Err() != nil {
				return err
			}
			// The row lock taken by Commit still serializes writers.
			s.log.WithError(err).WithField("flight_id", res.FlightID).Warn("commit lock unavailable")
		} else {
			defer func() {
				if err := s.cache.ReleaseFlightLock(context.WithoutCancel(ctx), res.FlightID, token); err != nil {
					s.log.WithError(err).WithField("flight_id", res.FlightID).Warn("failed to release commit lock")
				}
			}()
		}
	}
	return s.reservations.Commit(ctx, res)
}

func (s *BookingService) acquireLock(ctx context.Context, flightID int64) (string, error) {
	deadline := time.Now().Add(s.lockTTL)
	for {
		token, ok, err := s.cache.AcquireFlightLock(ctx, flightID, s.lockTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", errLockBusy
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.lockPoll):
		}
	}
}

func (s *BookingService) afterCommit(ctx context.Context, flight *domain.Flight, res *domain.Reservation) {
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.WithError(err).Warn("failed to invalidate flights cache")
		}
	}
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(kafka.EventBookingCreated, res.TicketID, res.UserID, flight.ID, flight.FlightNumber, res.Seats)
	if err := s.producer.Publish(ctx, s.bookingTopic, res.TicketID, event); err != nil {
		s.log.WithError(err).WithField("ticket_id", res.TicketID).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, res.TicketID, event); err != nil {
			s.log.WithError(err).WithField("ticket_id", res.TicketID).Warn("failed to publish notification event")
		}
	}
}

// ResolveFlight returns the stored flight matching the offer's number and
// date, creating it together with its airline and airports when missing.
// Concurrent resolutions of the same flight share one lookup.
func (s *BookingService) ResolveFlight(ctx context.Context, offer domain.Offer) (*domain.Flight, error) {
	number := strings.ToUpper(strings.TrimSpace(offer.FlightNumber))
	if err := validateOffer(number, offer); err != nil {
		return nil, &domain.FlightResolutionError{FlightNumber: number, Err: err}
	}
	offer.FlightNumber = number

	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	key := number + "|" + offer.DepartureDate.Format(domain.DateLayout)
	ch := s.resolving.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.resolveTimeout)
		defer cancel()
		return s.resolveFlight(shared, offer)
	})
	select {
	case <-ctx.Done():
		return nil, &domain.FlightResolutionError{FlightNumber: number, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, &domain.FlightResolutionError{FlightNumber: number, Err: res.Err}
		}
		flight := *res.Val.(*domain.Flight)
		return &flight, nil
	}
}

func (s *BookingService) resolveFlight(ctx context.Context, offer domain.Offer) (*domain.Flight, error) {
	existing, err := s.flights.FindByNumberAndDate(ctx, offer.FlightNumber, offer.DepartureDate)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	airlineCode := strings.ToUpper(offer.AirlineCode)
	if airlineCode == "" {
		airlineCode = provider.AirlineCode(offer.FlightNumber)
	}
	airlineName := offer.AirlineName
	if airlineName == "" {
		airlineName = airlineCode
	}
	airlineID, err := s.refs.EnsureAirline(ctx, airlineCode, airlineName)
	if err != nil {
		return nil, fmt.Errorf("ensure airline %s: %w", airlineCode, err)
	}
	originID, err := s.refs.EnsureAirport(ctx, strings.ToUpper(offer.OriginCode), airportName(offer.OriginCity, offer.OriginCode), cityName(offer.OriginCity, offer.OriginCode))
	if err != nil {
		return nil, fmt.Errorf("ensure airport %s: %w", offer.OriginCode, err)
	}
	destID, err := s.refs.EnsureAirport(ctx, strings.ToUpper(offer.DestinationCode), airportName(offer.DestinationCity, offer.DestinationCode), cityName(offer.DestinationCity, offer.DestinationCode))
	if err != nil {
		return nil, fmt.Errorf("ensure airport %s: %w", offer.DestinationCode, err)
	}

	capacity := offer.Capacity
	if capacity <= 0 {
		capacity = s.defaultCapacity
	}
	flight := &domain.Flight{
		FlightNumber:  offer.FlightNumber,
		AirlineID:     airlineID,
		OriginID:      originID,
		DestinationID: destID,
		DepartureDate: offer.DepartureDate,
		DepartureTime: offer.DepartureTime,
		ArrivalTime:   offer.ArrivalTime,
		Capacity:      capacity,
		FareCents:     offer.FareCents,
		Available:     true,
	}
	inserted, err := s.flights.Ensure(ctx, flight)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.log.WithFields(logrus.Fields{"flight": flight.FlightNumber, "flight_id": flight.ID}).Info("flight created from offer")
	}
	return s.flights.GetByID(ctx, flight.ID)
}

func validateOffer(number string, offer domain.Offer) error {
	switch {
	case number == "":
		return fmt.Errorf("%w: flight number is required", domain.ErrValidation)
	case offer.OriginCode == "" || offer.DestinationCode == "":
		return fmt.Errorf("%w: origin and destination are required", domain.ErrValidation)
	case offer.DepartureDate.IsZero():
		return fmt.Errorf("%w: departure date is required", domain.ErrValidation)
	case offer.FareCents < 0:
		return fmt.Errorf("%w: fare must not be negative", domain.ErrValidation)
	case offer.Capacity < 0:
		return fmt.Errorf("%w: capacity must not be negative", domain.ErrValidation)
	}
	return nil
}

func airportName(city, code string) string {
	if city == "" {
		return strings.ToUpper(code)
	}
	return city + " Airport"
}

func cityName(city, code string) string {
	if city == "" {
		return strings.ToUpper(code)
	}
	return city
}

func (s *BookingService) MyReservations(ctx context.Context, userID int64) ([]domain.ReservationSummary, error) {
	return s.reservations.ListByUser(ctx, userID)
}

func (s *BookingService) Ticket(ctx context.Context, ticketID string) (*domain.TicketDetails, error) {
	id := strings.ToUpper(strings.TrimSpace(ticketID))
	if id == "" {
		return nil, fmt.Errorf("%w: ticket id is required", domain.ErrValidation)
	}
	return s.reservations.TicketDetails(ctx, id)
}

// InventoryReport compares the seat index with the seats recorded on the
// reservations themselves.
type InventoryReport struct {
	FlightID   int64
	Indexed    []string
	Ledger     []string
	Missing    []string // on a reservation but not indexed
	Orphaned   []string // indexed without a reservation
	Consistent bool
}

func (s *BookingService) CheckInventory(ctx context.Context, flightID int64) (*InventoryReport, error) {
	indexed, err := s.reservations.OccupiedSeats(ctx, flightID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.reservations.LedgerSeats(ctx, flightID)
	if err != nil {
		return nil, err
	}
	report := &InventoryReport{
		FlightID: flightID,
		Indexed:  indexed.Strings(),
		Ledger:   ledger.Strings(),
	}
	for _, seat := range ledger.Sorted() {
		if !indexed.Has(seat) {
			report.Missing = append(report.Missing, seat.String())
		}
	}
	for _, seat := range indexed.Sorted() {
		if !ledger.Has(seat) {
			report.Orphaned = append(report.Orphaned, seat.String())
		}
	}
	report.Consistent = len(report.Missing) == 0 && len(report.Orphaned) == 0
	return report, nil
}

var _ BookingUseCase = (*BookingService)(nil)
