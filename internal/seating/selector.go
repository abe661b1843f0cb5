package seating

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/skypass/internal/domain"
)

// ErrNoMoreCandidates is returned by a Source that has nothing left to offer.
var ErrNoMoreCandidates = fmt.Errorf("%w: not enough valid seats chosen", domain.ErrValidation)

type Verdict int

const (
	VerdictAccepted Verdict = iota
	VerdictMalformed
	VerdictNoSuchSeat
	VerdictTaken
	VerdictDuplicate
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccepted:
		return "accepted"
	case VerdictMalformed:
		return "malformed"
	case VerdictNoSuchSeat:
		return "no_such_seat"
	case VerdictTaken:
		return "taken"
	case VerdictDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Attempt is the outcome of one candidate seat.
type Attempt struct {
	Passenger int
	Input     string
	Seat      SeatID
	Verdict   Verdict
}

func (a Attempt) Accepted() bool {
	return a.Verdict == VerdictAccepted
}

func (a Attempt) Message() string {
	switch a.Verdict {
	case VerdictAccepted:
		return fmt.Sprintf("Seat %s selected.", a.Seat)
	case VerdictMalformed:
		return "Invalid seat format. Please use format like '1A', '2B', etc."
	case VerdictNoSuchSeat:
		return fmt.Sprintf("Seat %s does not exist on this flight.", a.Seat)
	case VerdictTaken:
		return fmt.Sprintf("Sorry, seat %s is already taken. Please choose another.", a.Seat)
	case VerdictDuplicate:
		return fmt.Sprintf("You have already selected seat %s.", a.Seat)
	default:
		return ""
	}
}

// Source supplies candidate seats one at a time and receives the verdict for
// each. Passenger numbers start at 1.
type Source interface {
	Next(ctx context.Context, passenger int) (string, error)
	Report(a Attempt)
}

type Selector struct {
	layout   Layout
	capacity int
}

func NewSelector(capacity int) *Selector {
	return &Selector{layout: DefaultLayout, capacity: capacity}
}

// Select collects exactly required distinct free seats from src, in the order
// they were accepted. It returns either all of them or an error.
func (s *Selector) Select(ctx context.Context, required int, occupied Set, src Source) ([]SeatID, error) {
	if required < 1 {
		return nil, fmt.Errorf("%w: party size must be at least 1", domain.ErrValidation)
	}

	chosen := make([]SeatID, 0, required)
	picked := NewSet()
	for len(chosen) < required {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		input, err := src.Next(ctx, len(chosen)+1)
		if err != nil {
			if errors.Is(err, ErrNoMoreCandidates) {
				return nil, err
			}
			return nil, fmt.Errorf("read seat for passenger %d: %w", len(chosen)+1, err)
		}

		attempt := s.Evaluate(input, occupied, picked)
		attempt.Passenger = len(chosen) + 1
		src.Report(attempt)
		if attempt.Accepted() {
			chosen = append(chosen, attempt.Seat)
			picked.Add(attempt.Seat)
		}
	}
	return chosen, nil
}

// Evaluate judges one candidate: malformed, then no such seat, then taken,
// then already picked in this session.
func (s *Selector) Evaluate(input string, occupied, picked Set) Attempt {
	a := Attempt{Input: input}
	seat, err := ParseSeat(input)
	if err != nil {
		a.Verdict = VerdictMalformed
		return a
	}
	a.Seat = seat
	switch {
	case !s.layout.Seatable(seat, s.capacity):
		a.Verdict = VerdictNoSuchSeat
	case occupied.Has(seat):
		a.Verdict = VerdictTaken
	case picked.Has(seat):
		a.Verdict = VerdictDuplicate
	default:
		a.Verdict = VerdictAccepted
	}
	return a
}

// SliceSource feeds a fixed list of candidates, e.g. from an API request.
type SliceSource struct {
	inputs   []string
	pos      int
	Attempts []Attempt
}

func NewSliceSource(inputs ...string) *SliceSource {
	return &SliceSource{inputs: inputs}
}

func (s *SliceSource) Next(_ context.Context, _ int) (string, error) {
	if s.pos >= len(s.inputs) {
		return "", ErrNoMoreCandidates
	}
	v := s.inputs[s.pos]
	s.pos++
	return v, nil
}

func (s *SliceSource) Report(a Attempt) {
	s.Attempts = append(s.Attempts, a)
}

// Rejected lists the attempts that did not yield a seat.
func (s *SliceSource) Rejected() []Attempt {
	var out []Attempt
	for _, a := range s.Attempts {
		if !a.Accepted() {
			out = append(out, a)
		}
	}
	return out
}
