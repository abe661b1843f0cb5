package seating

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Domenick1991/skypass/internal/domain"
)

var seatPattern = regexp.MustCompile(`^(\d+)([A-F])$`)

// SeatID identifies one seat, e.g. row 12 column F is "12F".
type SeatID struct {
	Row    int
	Column byte
}

func (s SeatID) String() string {
	return fmt.Sprintf("%d%c", s.Row, s.Column)
}

// ParseSeat accepts any letter case and surrounding blanks and returns the
// canonical seat. Row 0 is malformed.
func ParseSeat(input string) (SeatID, error) {
	candidate := strings.ToUpper(strings.TrimSpace(input))
	m := seatPattern.FindStringSubmatch(candidate)
	if m == nil {
		return SeatID{}, fmt.Errorf("%w: malformed seat %q", domain.ErrValidation, input)
	}
	row, err := strconv.Atoi(m[1])
	if err != nil || row <= 0 {
		return SeatID{}, fmt.Errorf("%w: malformed seat %q", domain.ErrValidation, input)
	}
	return SeatID{Row: row, Column: m[2][0]}, nil
}

func MustParseSeat(input string) SeatID {
	s, err := ParseSeat(input)
	if err != nil {
		panic(err)
	}
	return s
}

// Set is an unordered collection of seats.
type Set map[SeatID]struct{}

func NewSet(seats ...SeatID) Set {
	s := make(Set, len(seats))
	for _, seat := range seats {
		s[seat] = struct{}{}
	}
	return s
}

// ParseSet builds a set from stored seat strings. Values that do not parse are
// returned separately so callers can decide how loud to be about them.
func ParseSet(values []string) (Set, []string) {
	s := make(Set, len(values))
	var bad []string
	for _, v := range values {
		seat, err := ParseSeat(v)
		if err != nil {
			bad = append(bad, v)
			continue
		}
		s[seat] = struct{}{}
	}
	return s, bad
}

func (s Set) Has(seat SeatID) bool {
	_, ok := s[seat]
	return ok
}

func (s Set) Add(seats ...SeatID) {
	for _, seat := range seats {
		s[seat] = struct{}{}
	}
}

// Sorted returns the seats ordered by row, then column.
func (s Set) Sorted() []SeatID {
	out := make([]SeatID, 0, len(s))
	for seat := range s {
		out = append(out, seat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Column < out[j].Column
	})
	return out
}

func (s Set) Strings() []string {
	return Strings(s.Sorted())
}

func Strings(seats []SeatID) []string {
	out := make([]string, len(seats))
	for i, seat := range seats {
		out[i] = seat.String()
	}
	return out
}

// Join renders seats the way they are stored on a reservation: "1A, 1B".
func Join(seats []string) string {
	return strings.Join(seats, ", ")
}

// Split is the inverse of Join and tolerates missing blanks.
func Split(stored string) []string {
	if strings.TrimSpace(stored) == "" {
		return nil
	}
	parts := strings.Split(stored, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.ToUpper(strings.TrimSpace(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
