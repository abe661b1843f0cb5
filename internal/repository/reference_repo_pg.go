package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository stores airlines and airports keyed by IATA code.
type ReferenceRepository interface {
	// EnsureAirline returns the id of the airline with code, inserting it first
	// when missing. Concurrent callers get the same id.
	EnsureAirline(ctx context.Context, code, name string) (int64, error)
	EnsureAirport(ctx context.Context, code, name, city string) (int64, error)
	AirlineByCode(ctx context.Context, code string) (*domain.Airline, error)
	AirportByCode(ctx context.Context, code string) (*domain.Airport, error)
}

type PGReferenceRepository struct {
	db *pgxpool.Pool
}

func NewReferenceRepository(db *pgxpool.Pool) ReferenceRepository {
	return &PGReferenceRepository{db: db}
}

func (r *PGReferenceRepository) EnsureAirline(ctx context.Context, code, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO airlines (name, iata_code) VALUES ($1, $2)
		ON CONFLICT (iata_code) DO UPDATE SET iata_code = EXCLUDED.iata_code
		RETURNING id`, name, code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure airline %s: %w", code, err)
	}
	return id, nil
}

func (r *PGReferenceRepository) EnsureAirport(ctx context.Context, code, name, city string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO airports (name, city, iata_code) VALUES ($1, $2, $3)
		ON CONFLICT (iata_code) DO UPDATE SET iata_code = EXCLUDED.iata_code
		RETURNING id`, name, city, code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensure airport %s: %w", code, err)
	}
	return id, nil
}

func (r *PGReferenceRepository) AirlineByCode(ctx context.Context, code string) (*domain.Airline, error) {
	var a domain.Airline
	err := r.db.QueryRow(ctx, `SELECT id, name, iata_code FROM airlines WHERE iata_code=$1`, code).
		Scan(&a.ID, &a.Name, &a.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("airline %s: %w", code, domain.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGReferenceRepository) AirportByCode(ctx context.Context, code string) (*domain.Airport, error) {
	var a domain.Airport
	err := r.db.QueryRow(ctx, `SELECT id, name, city, iata_code FROM airports WHERE iata_code=$1`, code).
		Scan(&a.ID, &a.Name, &a.City, &a.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("airport %s: %w", code, domain.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

var _ ReferenceRepository = (*PGReferenceRepository)(nil)
