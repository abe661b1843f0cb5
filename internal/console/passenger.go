package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/ticket"
)

// errCancelled is returned by the seat prompt when the passenger gives up.
var errCancelled = errors.New("seat selection cancelled")

func (a *App) passengerMenu(ctx context.Context, user *domain.User) (Outcome, error) {
	last := success("welcome, %s", user.FullName())
	for {
		a.title("Passenger Portal")
		a.printf("Logged in as: %s (%s)\n\n", user.FullName(), user.Username)
		a.show(last)
		a.printf("  1. Search and book a flight\n  2. View my reservations\n  3. View a ticket\n  4. Logout\n")

		choice, err := a.choice()
		if err != nil {
			return Outcome{}, err
		}
		switch choice {
		case 1:
			last, err = a.searchAndBook(ctx, user)
		case 2:
			last, err = a.myReservations(ctx, user)
		case 3:
			last, err = a.viewTicket(ctx, user)
		case 4:
			return success("logged out"), nil
		default:
			last = failure("please enter a valid option")
		}
		if err != nil {
			return Outcome{}, err
		}
	}
}

func (a *App) searchAndBook(ctx context.Context, user *domain.User) (Outcome, error) {
	origin, err := a.prompt("Origin airport code (e.g. HYD): ")
	if err != nil {
		return Outcome{}, err
	}
	destination, err := a.prompt("Destination airport code (e.g. DEL): ")
	if err != nil {
		return Outcome{}, err
	}
	rawDate, err := a.prompt("Departure date (YYYY-MM-DD): ")
	if err != nil {
		return Outcome{}, err
	}
	date, parseErr := time.Parse(domain.DateLayout, rawDate)
	if parseErr != nil {
		return failure("date must look like 2025-03-01"), nil
	}

	offers, err := a.svc.Flights.Search(ctx, origin, destination, date)
	if err != nil {
		return a.explain(err), nil
	}
	if len(offers) == 0 {
		return failure("no flights found for %s to %s on %s", strings.ToUpper(origin), strings.ToUpper(destination), rawDate), nil
	}
	a.printOffers(offers)

	pick, ok, err := a.promptInt("\nFlight to book (0 to return): ")
	if err != nil {
		return Outcome{}, err
	}
	if !ok || pick < 0 || pick > int64(len(offers)) {
		return failure("please enter a number between 0 and %d", len(offers)), nil
	}
	if pick == 0 {
		return Outcome{}, nil
	}
	party, ok, err := a.promptInt("Number of seats to book: ")
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return failure("please enter a number"), nil
	}

	chooser := &terminalChooser{app: a}
	res, err := a.svc.Bookings.BookFlight(ctx, booking.BookFlightInput{
		UserID:    user.ID,
		Offer:     offers[pick-1],
		PartySize: int(party),
		Chooser:   chooser,
	})
	switch {
	case chooser.closed:
		return Outcome{}, errExit
	case errors.Is(err, errCancelled):
		return info("booking cancelled"), nil
	case err != nil:
		var commitErr *domain.ReservationCommitError
		if errors.As(err, &commitErr) {
			a.log.WithError(err).Error("reservation commit failed")
			return failure("booking failed, please try again"), nil
		}
		return a.explain(err), nil
	}

	details, err := a.svc.Bookings.Ticket(ctx, res.TicketID)
	if err != nil {
		return a.explain(err), nil
	}
	a.printf("\n%s\n", ticket.Render(*details))
	if err := a.pause(); err != nil {
		return Outcome{}, err
	}
	return success("booking successful, your ticket id is %s", res.TicketID), nil
}

func (a *App) printOffers(offers []domain.Offer) {
	a.printf("\n--- Flights found ---\n")
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tFlight\tAirline\tFrom\tTo\tDepart\tArrive\tDuration\tAircraft\tFare")
	for i, o := range offers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, o.FlightNumber, o.AirlineName, o.OriginCity, o.DestinationCity,
			o.DepartureTime, o.ArrivalTime, o.Duration, o.Aircraft, ticket.FormatFare(o.FareCents))
	}
	_ = w.Flush()
}

func (a *App) myReservations(ctx context.Context, user *domain.User) (Outcome, error) {
	list, err := a.svc.Bookings.MyReservations(ctx, user.ID)
	if err != nil {
		return a.explain(err), nil
	}
	if len(list) == 0 {
		return info("you have no reservations yet"), nil
	}
	a.printf("\n--- My reservations ---\n")
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ticket\tFlight\tAirline\tDate\tFrom\tTo\tSeats")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TicketID, r.FlightNumber, r.AirlineName, r.DepartureDate.Format(domain.DateLayout),
			r.OriginCity, r.DestinationCity, seating.Join(r.Seats))
	}
	_ = w.Flush()
	if err := a.pause(); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

func (a *App) viewTicket(ctx context.Context, user *domain.User) (Outcome, error) {
	id, err := a.prompt("Ticket id: ")
	if err != nil {
		return Outcome{}, err
	}
	details, err := a.svc.Bookings.Ticket(ctx, id)
	if err != nil {
		return a.explain(err), nil
	}
	if details.UserID != user.ID {
		return failure("ticket %s not found", strings.ToUpper(id)), nil
	}
	a.printf("\n%s\n", ticket.Render(*details))
	if err := a.pause(); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

// terminalChooser asks the passenger for seats on the terminal.
type terminalChooser struct {
	app    *App
	closed bool
}

func (c *terminalChooser) ShowSeatMap(m seating.Map) {
	c.app.printf("\n%s\n%d seats available. Type 'cancel' to stop.\n", m, m.Free)
}

func (c *terminalChooser) ShowConflict(err *domain.ConflictError) {
	c.app.printf("\nSorry, seats %s were just booked by someone else. Please choose again.\n", seating.Join(err.Seats))
}

func (c *terminalChooser) Next(_ context.Context, passenger int) (string, error) {
	v, err := c.app.prompt(fmt.Sprintf("Seat for passenger %d (e.g. 5A): ", passenger))
	if err != nil {
		if errors.Is(err, errExit) {
			c.closed = true
			return "", seating.ErrNoMoreCandidates
		}
		return "", err
	}
	if strings.EqualFold(v, "cancel") {
		return "", errCancelled
	}
	return v, nil
}

func (c *terminalChooser) Report(at seating.Attempt) {
	c.app.printf("%s\n", at.Message())
}
