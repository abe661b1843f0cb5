package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS airlines (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		iata_code TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS airports (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		city      TEXT NOT NULL,
		iata_code TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS flights (
		id                     BIGSERIAL PRIMARY KEY,
		flight_number          TEXT NOT NULL,
		airline_id             BIGINT NOT NULL REFERENCES airlines(id),
		origin_airport_id      BIGINT NOT NULL REFERENCES airports(id),
		destination_airport_id BIGINT NOT NULL REFERENCES airports(id),
		departure_date         DATE NOT NULL,
		departure_time         TEXT NOT NULL,
		arrival_time           TEXT NOT NULL,
		capacity               INT NOT NULL CHECK (capacity > 0),
		fare_cents             BIGINT NOT NULL CHECK (fare_cents >= 0),
		available              BOOLEAN NOT NULL DEFAULT TRUE,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT flights_number_date_key UNIQUE (flight_number, departure_date)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		phone_no      TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL CHECK (role IN ('passenger', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_username_key UNIQUE (username)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id              BIGSERIAL PRIMARY KEY,
		ticket_id       TEXT NOT NULL CONSTRAINT reservations_ticket_id_key UNIQUE,
		user_id         BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		flight_id       BIGINT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
		number_of_seats INT NOT NULL CHECK (number_of_seats >= 1),
		seat_numbers    TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_seats (
		flight_id      BIGINT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
		seat           TEXT NOT NULL,
		reservation_id BIGINT NOT NULL REFERENCES reservations(id) ON DELETE CASCADE,
		CONSTRAINT reservation_seats_pkey PRIMARY KEY (flight_id, seat)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_user_idx ON reservations (user_id)`,
	`CREATE INDEX IF NOT EXISTS reservations_flight_idx ON reservations (flight_id)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
