package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	// List returns bookable flights ordered by departure.
	List(ctx context.Context) ([]domain.Flight, error)
	ListAll(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	FindByNumberAndDate(ctx context.Context, number string, date time.Time) (*domain.Flight, error)
	// Create inserts a new flight and fails with domain.ErrConflict when the
	// flight number is already scheduled on that date.
	Create(ctx context.Context, flight *domain.Flight) error
	// Ensure inserts the flight or, if its number and date already exist,
	// loads the stored id into flight. It reports whether a row was inserted.
	Ensure(ctx context.Context, flight *domain.Flight) (bool, error)
	UpdateFare(ctx context.Context, id int64, fareCents int64) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	// Delete removes the flight together with its reservations.
	Delete(ctx context.Context, id int64) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `
	f.id, f.flight_number, f.airline_id, a.name, a.iata_code,
	f.origin_airport_id, o.iata_code, o.city,
	f.destination_airport_id, d.iata_code, d.city,
	f.departure_date, f.departure_time, f.arrival_time, f.capacity,
	f.capacity - (SELECT COUNT(*) FROM reservation_seats s WHERE s.flight_id = f.id),
	f.fare_cents, f.available, f.created_at, f.updated_at
	FROM flights f
	JOIN airlines a ON a.id = f.airline_id
	JOIN airports o ON o.id = f.origin_airport_id
	JOIN airports d ON d.id = f.destination_airport_id`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.FlightNumber, &f.AirlineID, &f.AirlineName, &f.AirlineCode,
		&f.OriginID, &f.OriginCode, &f.OriginCity,
		&f.DestinationID, &f.DestinationCode, &f.DestinationCity,
		&f.DepartureDate, &f.DepartureTime, &f.ArrivalTime, &f.Capacity,
		&f.AvailableSeats, &f.FareCents, &f.Available, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.list(ctx, `SELECT `+flightColumns+` WHERE f.available ORDER BY f.departure_date, f.departure_time`)
}

func (r *PGFlightRepository) ListAll(ctx context.Context) ([]domain.Flight, error) {
	return r.list(ctx, `SELECT `+flightColumns+` ORDER BY f.id`)
}

func (r *PGFlightRepository) list(ctx context.Context, query string) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` WHERE f.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *PGFlightRepository) FindByNumberAndDate(ctx context.Context, number string, date time.Time) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` WHERE f.flight_number=$1 AND f.departure_date=$2`, number, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO flights (flight_number, airline_id, origin_airport_id, destination_airport_id,
			departure_date, departure_time, arrival_time, capacity, fare_cents, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		flight.FlightNumber, flight.AirlineID, flight.OriginID, flight.DestinationID,
		flight.DepartureDate, flight.DepartureTime, flight.ArrivalTime, flight.Capacity, flight.FareCents, flight.Available).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
	if err != nil {
		if uniqueViolationOn(err, "flights_number_date_key") {
			return fmt.Errorf("flight %s on %s already exists: %w", flight.FlightNumber, flight.DepartureDate.Format(domain.DateLayout), domain.ErrConflict)
		}
		return err
	}
	flight.AvailableSeats = flight.Capacity
	return nil
}

func (r *PGFlightRepository) Ensure(ctx context.Context, flight *domain.Flight) (bool, error) {
	var inserted bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO flights (flight_number, airline_id, origin_airport_id, destination_airport_id,
			departure_date, departure_time, arrival_time, capacity, fare_cents, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT flights_number_date_key
		DO UPDATE SET flight_number = EXCLUDED.flight_number
		RETURNING id, created_at, updated_at, (xmax = 0)`,
		flight.FlightNumber, flight.AirlineID, flight.OriginID, flight.DestinationID,
		flight.DepartureDate, flight.DepartureTime, flight.ArrivalTime, flight.Capacity, flight.FareCents, flight.Available).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *PGFlightRepository) UpdateFare(ctx context.Context, id int64, fareCents int64) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET fare_cents=$1, updated_at=now() WHERE id=$2`, fareCents, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	res, err := r.db.Exec(ctx, `UPDATE flights SET available=$1, updated_at=now() WHERE id=$2`, available, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
