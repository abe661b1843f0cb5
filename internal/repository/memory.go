package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
)

// MemoryStore keeps every table in process memory behind one mutex. It backs
// the offline console and the tests, and honours the same uniqueness rules as
// the Postgres schema.
type MemoryStore struct {
	mu sync.Mutex

	nextID       int64
	airlines     map[string]domain.Airline
	airports     map[string]domain.Airport
	flights      map[int64]domain.Flight
	users        map[string]domain.User
	reservations []domain.Reservation
	seatIndex    map[int64]map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		airlines:  make(map[string]domain.Airline),
		airports:  make(map[string]domain.Airport),
		flights:   make(map[int64]domain.Flight),
		users:     make(map[string]domain.User),
		seatIndex: make(map[int64]map[string]int64),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

// References

func (m *MemoryStore) EnsureAirline(_ context.Context, code, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.airlines[code]; ok {
		return a.ID, nil
	}
	a := domain.Airline{ID: m.id(), Name: name, Code: code}
	m.airlines[code] = a
	return a.ID, nil
}

func (m *MemoryStore) EnsureAirport(_ context.Context, code, name, city string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.airports[code]; ok {
		return a.ID, nil
	}
	a := domain.Airport{ID: m.id(), Name: name, City: city, Code: code}
	m.airports[code] = a
	return a.ID, nil
}

func (m *MemoryStore) AirlineByCode(_ context.Context, code string) (*domain.Airline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airlines[code]
	if !ok {
		return nil, fmt.Errorf("airline %s: %w", code, domain.ErrNotFound)
	}
	return &a, nil
}

func (m *MemoryStore) AirportByCode(_ context.Context, code string) (*domain.Airport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.airports[code]
	if !ok {
		return nil, fmt.Errorf("airport %s: %w", code, domain.ErrNotFound)
	}
	return &a, nil
}

// Counts returns the number of airline and airport rows.
func (m *MemoryStore) Counts() (airlines, airports int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.airlines), len(m.airports)
}

// Flights

func (m *MemoryStore) decorate(f domain.Flight) domain.Flight {
	for _, a := range m.airlines {
		if a.ID == f.AirlineID {
			f.AirlineName, f.AirlineCode = a.Name, a.Code
		}
	}
	for _, a := range m.airports {
		if a.ID == f.OriginID {
			f.OriginCode, f.OriginCity = a.Code, a.City
		}
		if a.ID == f.DestinationID {
			f.DestinationCode, f.DestinationCity = a.Code, a.City
		}
	}
	f.AvailableSeats = f.Capacity - len(m.seatIndex[f.ID])
	return f
}

func (m *MemoryStore) sortedFlights(keep func(domain.Flight) bool) []domain.Flight {
	out := make([]domain.Flight, 0, len(m.flights))
	for _, f := range m.flights {
		if keep(f) {
			out = append(out, m.decorate(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) List(_ context.Context) ([]domain.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sortedFlights(func(f domain.Flight) bool { return f.Available })
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureDate.Before(out[j].DepartureDate) })
	return out, nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]domain.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedFlights(func(domain.Flight) bool { return true }), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f = m.decorate(f)
	return &f, nil
}

func (m *MemoryStore) findFlight(number string, date time.Time) (domain.Flight, bool) {
	for _, f := range m.flights {
		if f.FlightNumber == number && sameDay(f.DepartureDate, date) {
			return f, true
		}
	}
	return domain.Flight{}, false
}

func (m *MemoryStore) FindByNumberAndDate(_ context.Context, number string, date time.Time) (*domain.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.findFlight(number, date)
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	f = m.decorate(f)
	return &f, nil
}

func (m *MemoryStore) insertFlight(flight *domain.Flight) {
	now := time.Now()
	flight.ID = m.id()
	flight.CreatedAt, flight.UpdatedAt = now, now
	m.flights[flight.ID] = *flight
	flight.AvailableSeats = flight.Capacity
}

func (m *MemoryStore) Create(_ context.Context, flight *domain.Flight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findFlight(flight.FlightNumber, flight.DepartureDate); ok {
		return fmt.Errorf("flight %s on %s already exists: %w", flight.FlightNumber, flight.DepartureDate.Format(domain.DateLayout), domain.ErrConflict)
	}
	m.insertFlight(flight)
	return nil
}

func (m *MemoryStore) Ensure(_ context.Context, flight *domain.Flight) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.findFlight(flight.FlightNumber, flight.DepartureDate); ok {
		flight.ID, flight.CreatedAt, flight.UpdatedAt = existing.ID, existing.CreatedAt, existing.UpdatedAt
		return false, nil
	}
	m.insertFlight(flight)
	return true, nil
}

func (m *MemoryStore) UpdateFare(_ context.Context, id int64, fareCents int64) error {
	return m.updateFlight(id, func(f *domain.Flight) { f.FareCents = fareCents })
}

func (m *MemoryStore) SetAvailability(_ context.Context, id int64, available bool) error {
	return m.updateFlight(id, func(f *domain.Flight) { f.Available = available })
}

func (m *MemoryStore) updateFlight(id int64, apply func(*domain.Flight)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flights[id]
	if !ok {
		return domain.ErrFlightNotFound
	}
	apply(&f)
	f.UpdatedAt = time.Now()
	m.flights[id] = f
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flights[id]; !ok {
		return domain.ErrFlightNotFound
	}
	delete(m.flights, id)
	delete(m.seatIndex, id)
	kept := m.reservations[:0]
	for _, r := range m.reservations {
		if r.FlightID != id {
			kept = append(kept, r)
		}
	}
	m.reservations = kept
	return nil
}

// Reservations

func (m *MemoryStore) OccupiedSeats(_ context.Context, flightID int64) (seating.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seats := make([]string, 0, len(m.seatIndex[flightID]))
	for seat := range m.seatIndex[flightID] {
		seats = append(seats, seat)
	}
	set, _ := seating.ParseSet(seats)
	return set, nil
}

func (m *MemoryStore) LedgerSeats(_ context.Context, flightID int64) (seating.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var seats []string
	for _, r := range m.reservations {
		if r.FlightID == flightID {
			seats = append(seats, r.Seats...)
		}
	}
	set, _ := seating.ParseSet(seats)
	return set, nil
}

func (m *MemoryStore) Commit(_ context.Context, res *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.flights[res.FlightID]; !ok {
		return domain.ErrFlightNotFound
	}
	for _, r := range m.reservations {
		if r.TicketID == res.TicketID {
			return fmt.Errorf("%s: %w", res.TicketID, domain.ErrDuplicateTicket)
		}
	}

	index := m.seatIndex[res.FlightID]
	var taken []string
	for _, seat := range res.Seats {
		if _, ok := index[seat]; ok {
			taken = append(taken, seat)
		}
	}
	if len(taken) > 0 {
		sort.Strings(taken)
		return &domain.ConflictError{FlightID: res.FlightID, Seats: taken}
	}

	res.ID = m.id()
	res.CreatedAt = time.Now()
	stored := *res
	stored.Seats = append([]string(nil), res.Seats...)
	m.reservations = append(m.reservations, stored)
	if index == nil {
		index = make(map[string]int64)
		m.seatIndex[res.FlightID] = index
	}
	for _, seat := range res.Seats {
		index[seat] = res.ID
	}
	return nil
}

// Reservations returns a copy of every stored reservation.
func (m *MemoryStore) Reservations() []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Reservation, len(m.reservations))
	copy(out, m.reservations)
	return out
}

func (m *MemoryStore) ListByUser(_ context.Context, userID int64) ([]domain.ReservationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReservationSummary, 0)
	for _, r := range m.reservations {
		if r.UserID != userID {
			continue
		}
		f := m.decorate(m.flights[r.FlightID])
		out = append(out, domain.ReservationSummary{
			TicketID:        r.TicketID,
			FlightNumber:    f.FlightNumber,
			AirlineName:     f.AirlineName,
			DepartureDate:   f.DepartureDate,
			OriginCity:      f.OriginCity,
			DestinationCity: f.DestinationCity,
			Seats:           append([]string(nil), r.Seats...),
		})
	}
	return out, nil
}

func (m *MemoryStore) TicketDetails(_ context.Context, ticketID string) (*domain.TicketDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.TicketID != ticketID {
			continue
		}
		f := m.decorate(m.flights[r.FlightID])
		t := &domain.TicketDetails{
			TicketID:        r.TicketID,
			UserID:          r.UserID,
			FlightNumber:    f.FlightNumber,
			AirlineName:     f.AirlineName,
			DepartureDate:   f.DepartureDate,
			DepartureTime:   f.DepartureTime,
			ArrivalTime:     f.ArrivalTime,
			OriginName:      m.airports[f.OriginCode].Name,
			OriginCity:      f.OriginCity,
			DestinationName: m.airports[f.DestinationCode].Name,
			DestinationCity: f.DestinationCity,
			Seats:           append([]string(nil), r.Seats...),
			PartySize:       r.PartySize,
			FareCents:       f.FareCents,
		}
		for _, u := range m.users {
			if u.ID == r.UserID {
				t.PassengerName = u.FullName()
			}
		}
		return t, nil
	}
	return nil, fmt.Errorf("%s: %w", ticketID, domain.ErrTicketNotFound)
}

// Users

func (m *MemoryStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return domain.ErrUserAlreadyExists
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.users[u.Username] = *u
	return nil
}

func (m *MemoryStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateRole(_ context.Context, username string, from, to domain.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok || u.Role != from {
		return false, nil
	}
	u.Role = to
	m.users[username] = u
	return true, nil
}

// Users adapts the store to UserRepository; Create and List clash with the
// flight methods of the same name.
func (m *MemoryStore) Users() UserRepository {
	return memoryUsers{m}
}

type memoryUsers struct {
	*MemoryStore
}

func (u memoryUsers) Create(ctx context.Context, user *domain.User) error {
	return u.CreateUser(ctx, user)
}

func (u memoryUsers) List(ctx context.Context) ([]domain.User, error) {
	return u.ListUsers(ctx)
}

func sameDay(a, b time.Time) bool {
	return a.Format(domain.DateLayout) == b.Format(domain.DateLayout)
}

var (
	_ FlightRepository      = (*MemoryStore)(nil)
	_ ReferenceRepository   = (*MemoryStore)(nil)
	_ ReservationRepository = (*MemoryStore)(nil)
	_ UserRepository        = memoryUsers{}
)
