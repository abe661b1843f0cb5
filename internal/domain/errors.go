package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden operation")

	ErrUserAlreadyExists = fmt.Errorf("username is already taken: %w", ErrConflict)
	ErrFlightNotFound    = fmt.Errorf("flight %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrTicketNotFound    = fmt.Errorf("ticket %w", ErrNotFound)
	ErrDuplicateTicket   = fmt.Errorf("ticket id already issued: %w", ErrConflict)
)

// ConflictError reports seats that another reservation already holds.
type ConflictError struct {
	FlightID int64
	Seats    []string
	Reason   string
}

func (e *ConflictError) Error() string {
	if len(e.Seats) > 0 {
		return fmt.Sprintf("seats %s on flight %d are already taken", strings.Join(e.Seats, ", "), e.FlightID)
	}
	if e.Reason != "" {
		return e.Reason
	}
	return "booking conflict"
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// FlightResolutionError means an offer could not be turned into a stored flight.
type FlightResolutionError struct {
	FlightNumber string
	Err          error
}

func (e *FlightResolutionError) Error() string {
	return fmt.Sprintf("resolve flight %s: %v", e.FlightNumber, e.Err)
}

func (e *FlightResolutionError) Unwrap() error {
	return e.Err
}

// ReservationCommitError means the reservation could not be persisted. No seat
// of the attempted reservation is held when this is returned.
type ReservationCommitError struct {
	TicketID string
	Err      error
}

func (e *ReservationCommitError) Error() string {
	return fmt.Sprintf("commit reservation %s: %v", e.TicketID, e.Err)
}

func (e *ReservationCommitError) Unwrap() error {
	return e.Err
}
