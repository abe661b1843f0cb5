package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// ReservationRepository is the reservation ledger and the seat inventory
// derived from it.
type ReservationRepository interface {
	// OccupiedSeats returns every seat held by a reservation on the flight.
	OccupiedSeats(ctx context.Context, flightID int64) (seating.Set, error)
	// LedgerSeats recomputes the occupied seats from the reservation rows
	// themselves instead of the seat index.
	LedgerSeats(ctx context.Context, flightID int64) (seating.Set, error)
	// Commit stores the reservation and claims its seats in one transaction.
	// If any seat is claimed meanwhile it returns *domain.ConflictError and
	// writes nothing.
	Commit(ctx context.Context, reservation *domain.Reservation) error
	ListByUser(ctx context.Context, userID int64) ([]domain.ReservationSummary, error)
	TicketDetails(ctx context.Context, ticketID string) (*domain.TicketDetails, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

func (r *PGReservationRepository) OccupiedSeats(ctx context.Context, flightID int64) (seating.Set, error) {
	rows, err := r.db.Query(ctx, `SELECT seat FROM reservation_seats WHERE flight_id=$1`, flightID)
	if err != nil {
		return nil, err
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	set, bad := seating.ParseSet(seats)
	if len(bad) > 0 {
		logrus.WithFields(logrus.Fields{"flight_id": flightID, "seats": bad}).Warn("unparseable seats in seat index")
	}
	return set, nil
}

func (r *PGReservationRepository) LedgerSeats(ctx context.Context, flightID int64) (seating.Set, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_numbers FROM reservations WHERE flight_id=$1`, flightID)
	if err != nil {
		return nil, err
	}
	stored, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	var all []string
	for _, s := range stored {
		all = append(all, seating.Split(s)...)
	}
	set, _ := seating.ParseSet(all)
	return set, nil
}

func (r *PGReservationRepository) Commit(ctx context.Context, res *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var capacity int
	if err := tx.QueryRow(ctx, `SELECT capacity FROM flights WHERE id=$1 FOR UPDATE`, res.FlightID).Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrFlightNotFound
		}
		return err
	}

	rows, err := tx.Query(ctx, `SELECT seat FROM reservation_seats WHERE flight_id=$1 AND seat = ANY($2) ORDER BY seat`, res.FlightID, res.Seats)
	if err != nil {
		return err
	}
	taken, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return &domain.ConflictError{FlightID: res.FlightID, Seats: taken}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO reservations (ticket_id, user_id, flight_id, number_of_seats, seat_numbers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		res.TicketID, res.UserID, res.FlightID, res.PartySize, seating.Join(res.Seats)).
		Scan(&res.ID, &res.CreatedAt); err != nil {
		if uniqueViolationOn(err, ticketIDConstraint) {
			return fmt.Errorf("%s: %w", res.TicketID, domain.ErrDuplicateTicket)
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO reservation_seats (flight_id, seat, reservation_id)
		SELECT $1, unnest($2::text[]), $3`, res.FlightID, res.Seats, res.ID); err != nil {
		if uniqueViolationOn(err, "reservation_seats_pkey") {
			return &domain.ConflictError{FlightID: res.FlightID, Seats: res.Seats}
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.ReservationSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.ticket_id, f.flight_number, a.name, f.departure_date, o.city, d.city, r.seat_numbers
		FROM reservations r
		JOIN flights f ON r.flight_id = f.id
		JOIN airlines a ON f.airline_id = a.id
		JOIN airports o ON f.origin_airport_id = o.id
		JOIN airports d ON f.destination_airport_id = d.id
		WHERE r.user_id = $1
		ORDER BY r.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ReservationSummary, 0)
	for rows.Next() {
		var s domain.ReservationSummary
		var seats string
		if err := rows.Scan(&s.TicketID, &s.FlightNumber, &s.AirlineName, &s.DepartureDate, &s.OriginCity, &s.DestinationCity, &seats); err != nil {
			return nil, err
		}
		s.Seats = seating.Split(seats)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGReservationRepository) TicketDetails(ctx context.Context, ticketID string) (*domain.TicketDetails, error) {
	var t domain.TicketDetails
	var first, last, seats string
	err := r.db.QueryRow(ctx, `
		SELECT r.ticket_id, r.user_id, r.number_of_seats, r.seat_numbers,
			u.first_name, u.last_name,
			f.flight_number, f.departure_date, f.departure_time, f.arrival_time, f.fare_cents,
			a.name, o.name, o.city, d.name, d.city
		FROM reservations r
		JOIN users u ON r.user_id = u.id
		JOIN flights f ON r.flight_id = f.id
		JOIN airlines a ON f.airline_id = a.id
		JOIN airports o ON f.origin_airport_id = o.id
		JOIN airports d ON f.destination_airport_id = d.id
		WHERE r.ticket_id = $1`, ticketID).
		Scan(&t.TicketID, &t.UserID, &t.PartySize, &seats, &first, &last,
			&t.FlightNumber, &t.DepartureDate, &t.DepartureTime, &t.ArrivalTime, &t.FareCents,
			&t.AirlineName, &t.OriginName, &t.OriginCity, &t.DestinationName, &t.DestinationCity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", ticketID, domain.ErrTicketNotFound)
		}
		return nil, err
	}
	t.PassengerName = domain.User{FirstName: first, LastName: last}.FullName()
	t.Seats = seating.Split(seats)
	return &t, nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
