package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/Domenick1991/skypass/internal/ticket"
)

// Mock structures

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireFlightLock(ctx context.Context, flightID int64, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, flightID, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) ReleaseFlightLock(ctx context.Context, flightID int64, token string) error {
	args := m.Called(ctx, flightID, token)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) OccupiedSeats(ctx context.Context, flightID int64) (seating.Set, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(seating.Set), args.Error(1)
}

func (m *MockReservationRepository) LedgerSeats(ctx context.Context, flightID int64) (seating.Set, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(seating.Set), args.Error(1)
}

func (m *MockReservationRepository) Commit(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.ReservationSummary), args.Error(1)
}

func (m *MockReservationRepository) TicketDetails(ctx context.Context, ticketID string) (*domain.TicketDetails, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketDetails), args.Error(1)
}

// scriptedChooser answers seat prompts from a fixed list and records what it was shown.
type scriptedChooser struct {
	*seating.SliceSource
	maps      []seating.Map
	conflicts []*domain.ConflictError
	beforeNth map[int]func()
	calls     int
}

func newChooser(inputs ...string) *scriptedChooser {
	return &scriptedChooser{SliceSource: seating.NewSliceSource(inputs...)}
}

func (c *scriptedChooser) Next(ctx context.Context, passenger int) (string, error) {
	c.calls++
	if hook, ok := c.beforeNth[c.calls]; ok {
		hook()
	}
	return c.SliceSource.Next(ctx, passenger)
}

func (c *scriptedChooser) ShowSeatMap(m seating.Map) {
	c.maps = append(c.maps, m)
}

func (c *scriptedChooser) ShowConflict(err *domain.ConflictError) {
	c.conflicts = append(c.conflicts, err)
}

var departure = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleOffer() domain.Offer {
	return domain.Offer{
		FlightNumber:    "6E-2021",
		AirlineName:     "IndiGo",
		OriginCode:      "HYD",
		OriginCity:      "Hyderabad",
		DestinationCode: "DEL",
		DestinationCity: "Delhi",
		DepartureDate:   departure,
		DepartureTime:   "06:10",
		ArrivalTime:     "08:25",
		Capacity:        12,
		FareCents:       450000,
	}
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newMemoryService(store *repository.MemoryStore, opts ...BookingServiceOption) *BookingService {
	opts = append([]BookingServiceOption{WithLogger(quietLogger())}, opts...)
	return NewBookingService(store, store, store, nil, nil, "", opts...)
}

func seedUser(t *testing.T, store *repository.MemoryStore) *domain.User {
	t.Helper()
	u := &domain.User{Username: "asha", FirstName: "Asha", LastName: "Rao", Role: domain.RolePassenger}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// ============================ BookFlight ============================

func TestBookingService_BookFlight_EndToEndTicket(t *testing.T) {
	store := repository.NewMemoryStore()
	user := seedUser(t, store)
	service := newMemoryService(store)
	ctx := context.Background()

	offer := sampleOffer()
	offer.Capacity = 180
	chooser := newChooser("5a", "5B")
	result, err := service.BookFlight(ctx, BookFlightInput{
		UserID:    user.ID,
		Offer:     offer,
		PartySize: 2,
		Chooser:   chooser,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TKT-[0-9A-F]{8}$`, result.TicketID)
	assert.Equal(t, []string{"5A", "5B"}, result.Reservation.Seats)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 178, result.Flight.AvailableSeats)
	require.Len(t, chooser.maps, 1)
	assert.Equal(t, 180, chooser.maps[0].Free)

	details, err := service.Ticket(ctx, strings.ToLower(result.TicketID))
	require.NoError(t, err)
	text := ticket.Render(*details)
	assert.Contains(t, text, result.TicketID)
	assert.Contains(t, text, "6E-2021")
	assert.Contains(t, text, "2025-03-01")
	assert.Contains(t, text, "Asha Rao")
	assert.Contains(t, text, "5A, 5B")
	assert.Contains(t, text, "Total Fare: Rs 9000.00")

	summaries, err := service.MyReservations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Delhi", summaries[0].DestinationCity)
}

func TestBookingService_BookFlight_Validation(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	testCases := []struct {
		name  string
		input BookFlightInput
	}{
		{"zero party", BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 0, Chooser: newChooser()}},
		{"no chooser", BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1}},
		{"more than capacity", BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 13, Chooser: newChooser()}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.BookFlight(ctx, tc.input)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, store.Reservations())
}

func TestBookingService_BookFlight_SelectorRepromptsUntilValid(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	_, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1A")})
	require.NoError(t, err)

	chooser := newChooser("1A", "zz", "3G", "9A", "2B", "2B", "2C")
	result, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 2, Chooser: chooser})
	require.NoError(t, err)
	assert.Equal(t, []string{"2B", "2C"}, result.Reservation.Seats)

	var verdicts []seating.Verdict
	for _, a := range chooser.Attempts {
		verdicts = append(verdicts, a.Verdict)
	}
	assert.Equal(t, []seating.Verdict{
		seating.VerdictTaken,
		seating.VerdictMalformed,
		seating.VerdictMalformed,
		seating.VerdictNoSuchSeat,
		seating.VerdictAccepted,
		seating.VerdictDuplicate,
		seating.VerdictAccepted,
	}, verdicts)
}

func TestBookingService_BookFlight_SourceExhaustedWritesNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)

	_, err := service.BookFlight(context.Background(), BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 2, Chooser: newChooser("1A")})
	assert.ErrorIs(t, err, seating.ErrNoMoreCandidates)
	assert.Empty(t, store.Reservations())
}

func TestBookingService_BookFlight_RetriesAfterConcurrentConflict(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	flight, err := service.ResolveFlight(ctx, sampleOffer())
	require.NoError(t, err)

	chooser := newChooser("1A", "1B")
	chooser.beforeNth = map[int]func(){
		// Another passenger takes 1A after the map was shown but before commit.
		1: func() {
			require.NoError(t, store.Commit(ctx, &domain.Reservation{
				TicketID: "TKT-RIVAL001", UserID: 99, FlightID: flight.ID, PartySize: 1, Seats: []string{"1A"},
			}))
		},
	}

	result, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: chooser})
	require.NoError(t, err)

	assert.Equal(t, []string{"1B"}, result.Reservation.Seats)
	assert.Equal(t, 2, result.Attempts)
	require.Len(t, chooser.conflicts, 1)
	assert.Equal(t, []string{"1A"}, chooser.conflicts[0].Seats)
	require.Len(t, chooser.maps, 2)
	assert.Equal(t, seating.CellTaken, chooser.maps[1].Rows[0].Cells[0].State)
}

func TestBookingService_BookFlight_ConflictWithoutRetryInput(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	flight, err := service.ResolveFlight(ctx, sampleOffer())
	require.NoError(t, err)

	chooser := newChooser("1A")
	chooser.beforeNth = map[int]func(){
		1: func() {
			require.NoError(t, store.Commit(ctx, &domain.Reservation{
				TicketID: "TKT-RIVAL001", UserID: 99, FlightID: flight.ID, PartySize: 1, Seats: []string{"1A"},
			}))
		},
	}

	_, err = service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: chooser})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, store.Reservations(), 1)
}

func TestBookingService_BookFlight_ConcurrentSameSeat(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	_, err := service.ResolveFlight(ctx, sampleOffer())
	require.NoError(t, err)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := service.BookFlight(ctx, BookFlightInput{UserID: user, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1A")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrConflict), errors.Is(err, seating.ErrNoMoreCandidates):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, store.Reservations(), 1)
}

func TestBookingService_BookFlight_SeatUniquenessAndCount(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			seats := []string{fmt.Sprintf("%dA", row), fmt.Sprintf("%dB", row), "1C"}
			_, _ = service.BookFlight(ctx, BookFlightInput{UserID: int64(row), Offer: sampleOffer(), PartySize: 2, Chooser: newChooser(seats...)})
		}(i%2 + 1)
	}
	wg.Wait()

	seen := map[string]string{}
	for _, r := range store.Reservations() {
		assert.Len(t, r.Seats, r.PartySize)
		for _, seat := range r.Seats {
			if other, dup := seen[seat]; dup {
				t.Fatalf("seat %s held by %s and %s", seat, other, r.TicketID)
			}
			seen[seat] = r.TicketID
		}
	}

	flight, err := store.FindByNumberAndDate(ctx, "6E-2021", departure)
	require.NoError(t, err)
	assert.Equal(t, flight.Capacity-len(seen), flight.AvailableSeats)

	report, err := service.CheckInventory(ctx, flight.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Len(t, report.Indexed, len(seen))
}

func TestBookingService_BookFlight_LocksAndPublishes(t *testing.T) {
	store := repository.NewMemoryStore()
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	service := NewBookingService(store, store, store, mockCache, mockProducer, "booking_topic",
		WithNotificationsTopic("notifications_topic"),
		WithLockTTL(time.Second),
		WithTicketIDGenerator(func() string { return "TKT-00000001" }),
		WithLogger(quietLogger()),
	)
	ctx := context.Background()

	mockCache.On("AcquireFlightLock", ctx, mock.AnythingOfType("int64"), time.Second).Return("token-1", true, nil).Once()
	mockCache.On("ReleaseFlightLock", mock.Anything, mock.AnythingOfType("int64"), "token-1").Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()
	isEvent := mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCreated && e.TicketID == "TKT-00000001" && e.PartySize == 1
	})
	mockProducer.On("Publish", ctx, "booking_topic", "TKT-00000001", isEvent).Return(nil).Once()
	mockProducer.On("Publish", ctx, "notifications_topic", "TKT-00000001", isEvent).Return(nil).Once()

	result, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("2D")})
	require.NoError(t, err)
	assert.Equal(t, "TKT-00000001", result.TicketID)

	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_BookFlight_PublishFailureKeepsReservation(t *testing.T) {
	store := repository.NewMemoryStore()
	mockProducer := &MockProducer{}
	service := NewBookingService(store, store, store, nil, mockProducer, "booking_topic", WithLogger(quietLogger()))
	ctx := context.Background()

	mockProducer.On("Publish", ctx, "booking_topic", mock.Anything, mock.Anything).Return(errors.New("kafka down")).Once()

	_, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("2D")})
	require.NoError(t, err)
	assert.Len(t, store.Reservations(), 1)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_BookFlight_LockBusy(t *testing.T) {
	store := repository.NewMemoryStore()
	mockCache := &MockCache{}
	service := NewBookingService(store, store, store, mockCache, nil, "",
		WithLockTTL(20*time.Millisecond),
		WithLogger(quietLogger()),
	)
	service.lockPoll = 5 * time.Millisecond
	ctx := context.Background()

	mockCache.On("AcquireFlightLock", ctx, mock.AnythingOfType("int64"), 20*time.Millisecond).Return("", false, nil)

	_, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("2D")})
	var commitErr *domain.ReservationCommitError
	require.ErrorAs(t, err, &commitErr)
	assert.ErrorIs(t, err, errLockBusy)
	assert.Empty(t, store.Reservations())
	mockCache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}

func TestBookingService_BookFlight_LockErrorFallsBackToRowLock(t *testing.T) {
	store := repository.NewMemoryStore()
	mockCache := &MockCache{}
	service := NewBookingService(store, store, store, mockCache, nil, "", WithLogger(quietLogger()))
	ctx := context.Background()

	mockCache.On("AcquireFlightLock", ctx, mock.AnythingOfType("int64"), 10*time.Second).Return("", false, errors.New("redis down")).Once()
	mockCache.On("InvalidateFlights", ctx).Return(errors.New("redis down")).Once()

	_, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("2D")})
	require.NoError(t, err)
	assert.Len(t, store.Reservations(), 1)
	mockCache.AssertExpectations(t)
}

func TestBookingService_BookFlight_CommitError(t *testing.T) {
	store := repository.NewMemoryStore()
	mockRes := &MockReservationRepository{}
	service := NewBookingService(mockRes, store, store, nil, nil, "", WithLogger(quietLogger()))
	ctx := context.Background()

	mockRes.On("OccupiedSeats", ctx, mock.AnythingOfType("int64")).Return(seating.NewSet(), nil).Once()
	mockRes.On("Commit", ctx, mock.AnythingOfType("*domain.Reservation")).Return(errors.New("connection reset")).Once()

	_, err := service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1A")})

	var commitErr *domain.ReservationCommitError
	require.ErrorAs(t, err, &commitErr)
	assert.Regexp(t, `^TKT-`, commitErr.TicketID)
	assert.Contains(t, err.Error(), "connection reset")
	mockRes.AssertExpectations(t)
}

func TestBookingService_BookFlight_DuplicateTicketIDRegenerated(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	first := newMemoryService(store, WithTicketIDGenerator(func() string { return "TKT-AAAAAAAA" }))
	_, err := first.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1A")})
	require.NoError(t, err)

	ids := []string{"TKT-AAAAAAAA", "TKT-BBBBBBBB"}
	var mu sync.Mutex
	calls := 0
	gen := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[calls%len(ids)]
		calls++
		return id
	}
	second := newMemoryService(store, WithTicketIDGenerator(gen))

	result, err := second.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1B")})
	require.NoError(t, err)
	assert.Equal(t, "TKT-BBBBBBBB", result.TicketID)
	assert.Equal(t, []string{"1B"}, result.Reservation.Seats)
	assert.Equal(t, 2, calls)

	reservations := store.Reservations()
	require.Len(t, reservations, 2)
	assert.Equal(t, "TKT-AAAAAAAA", reservations[0].TicketID)
	assert.Equal(t, "TKT-BBBBBBBB", reservations[1].TicketID)
}

func TestBookingService_BookFlight_ClosedFlight(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	flight, err := service.ResolveFlight(ctx, sampleOffer())
	require.NoError(t, err)
	require.NoError(t, store.SetAvailability(ctx, flight.ID, false))

	_, err = service.BookFlight(ctx, BookFlightInput{UserID: 1, Offer: sampleOffer(), PartySize: 1, Chooser: newChooser("1A")})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ============================ ResolveFlight ============================

func TestBookingService_ResolveFlight_Idempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := service.ResolveFlight(ctx, sampleOffer())
			if assert.NoError(t, err) {
				ids[i] = f.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	airlines, airports := store.Counts()
	assert.Equal(t, 1, airlines)
	assert.Equal(t, 2, airports)

	flights, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "6E", flights[0].AirlineCode)
	assert.Equal(t, 12, flights[0].Capacity)
}

func TestBookingService_ResolveFlight_DefaultCapacity(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store, WithDefaultCapacity(60))

	offer := sampleOffer()
	offer.Capacity = 0
	offer.FlightNumber = "ai-101"
	f, err := service.ResolveFlight(context.Background(), offer)
	require.NoError(t, err)
	assert.Equal(t, "AI-101", f.FlightNumber)
	assert.Equal(t, "AI", f.AirlineCode)
	assert.Equal(t, 60, f.Capacity)
}

func TestBookingService_ResolveFlight_Errors(t *testing.T) {
	store := repository.NewMemoryStore()
	service := newMemoryService(store)

	offer := sampleOffer()
	offer.DepartureDate = time.Time{}
	_, err := service.ResolveFlight(context.Background(), offer)

	var resErr *domain.FlightResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "6E-2021", resErr.FlightNumber)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// blockingFlights holds FindByNumberAndDate open until released or the
// caller's ctx ends.
type blockingFlights struct {
	*repository.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (b *blockingFlights) FindByNumberAndDate(ctx context.Context, number string, date time.Time) (*domain.Flight, error) {
	b.entered <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return b.MemoryStore.FindByNumberAndDate(ctx, number, date)
	}
}

func TestBookingService_ResolveFlight_SharedLookupSurvivesCancelledCaller(t *testing.T) {
	store := repository.NewMemoryStore()
	flights := &blockingFlights{MemoryStore: store, entered: make(chan struct{}, 2), release: make(chan struct{})}
	service := NewBookingService(store, flights, store, nil, nil, "", WithLogger(quietLogger()))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := service.ResolveFlight(ctxA, sampleOffer())
		errA <- err
	}()
	<-flights.entered

	type outcome struct {
		flight *domain.Flight
		err    error
	}
	resB := make(chan outcome, 1)
	go func() {
		f, err := service.ResolveFlight(context.Background(), sampleOffer())
		resB <- outcome{f, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		var resErr *domain.FlightResolutionError
		require.ErrorAs(t, err, &resErr)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(flights.release)
	select {
	case got := <-resB:
		require.NoError(t, got.err)
		assert.Equal(t, "6E-2021", got.flight.FlightNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// ============================ CheckInventory ============================

func TestBookingService_CheckInventory_DetectsDrift(t *testing.T) {
	mockRes := &MockReservationRepository{}
	service := NewBookingService(mockRes, nil, nil, nil, nil, "", WithLogger(quietLogger()))
	ctx := context.Background()

	mockRes.On("OccupiedSeats", ctx, int64(7)).Return(seating.NewSet(seating.MustParseSeat("1A"), seating.MustParseSeat("2B")), nil).Once()
	mockRes.On("LedgerSeats", ctx, int64(7)).Return(seating.NewSet(seating.MustParseSeat("1A"), seating.MustParseSeat("3C")), nil).Once()

	report, err := service.CheckInventory(ctx, 7)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, []string{"3C"}, report.Missing)
	assert.Equal(t, []string{"2B"}, report.Orphaned)
}

func TestBookingService_Ticket(t *testing.T) {
	mockRes := &MockReservationRepository{}
	service := NewBookingService(mockRes, nil, nil, nil, nil, "", WithLogger(quietLogger()))
	ctx := context.Background()

	_, err := service.Ticket(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	mockRes.On("TicketDetails", ctx, "TKT-MISSING1").Return(nil, domain.ErrTicketNotFound).Once()
	_, err = service.Ticket(ctx, "tkt-missing1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockRes.AssertExpectations(t)
}

func TestNewTicketID(t *testing.T) {
	a, b := NewTicketID(), NewTicketID()
	assert.Regexp(t, `^TKT-[0-9A-F]{8}$`, a)
	assert.NotEqual(t, a, b)
}
