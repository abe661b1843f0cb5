package console

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/ticket"
)

func (a *App) adminMenu(ctx context.Context, admin *domain.User) (Outcome, error) {
	last := success("welcome, %s", admin.FullName())
	for {
		a.title("Admin Console")
		a.printf("Logged in as: %s (%s)\n\n", admin.FullName(), admin.Username)
		a.show(last)
		a.printf("  1. Add flight\n  2. Edit flight fare\n  3. Open or close a flight\n  4. Remove flight\n" +
			"  5. List flights\n  6. List users\n  7. Promote user to admin\n  8. Demote admin\n  9. Logout\n")

		choice, err := a.choice()
		if err != nil {
			return Outcome{}, err
		}
		switch choice {
		case 1:
			last, err = a.addFlight(ctx)
		case 2:
			last, err = a.editFare(ctx)
		case 3:
			last, err = a.toggleFlight(ctx)
		case 4:
			last, err = a.removeFlight(ctx)
		case 5:
			last, err = a.listFlights(ctx)
		case 6:
			last, err = a.listUsers(ctx)
		case 7:
			last, err = a.changeRole(ctx, admin, true)
		case 8:
			last, err = a.changeRole(ctx, admin, false)
		case 9:
			return success("logged out"), nil
		default:
			last = failure("please enter a valid option")
		}
		if err != nil {
			return Outcome{}, err
		}
	}
}

func (a *App) addFlight(ctx context.Context) (Outcome, error) {
	var in flights.CreateFlightInput
	var rawDate, rawCapacity, rawFare string
	fields := []struct {
		label string
		dst   *string
	}{
		{"Flight number (e.g. 6E-2021): ", &in.FlightNumber},
		{"Airline code (e.g. 6E): ", &in.AirlineCode},
		{"Origin airport code: ", &in.OriginCode},
		{"Destination airport code: ", &in.DestinationCode},
		{"Departure date (YYYY-MM-DD): ", &rawDate},
		{"Departure time (HH:MM): ", &in.DepartureTime},
		{"Arrival time (HH:MM): ", &in.ArrivalTime},
		{"Capacity: ", &rawCapacity},
		{"Fare in Rs: ", &rawFare},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return Outcome{}, err
		}
		*f.dst = v
	}

	date, err := time.Parse(domain.DateLayout, rawDate)
	if err != nil {
		return failure("date must look like 2025-03-01"), nil
	}
	in.DepartureDate = date
	if in.Capacity, err = strconv.Atoi(rawCapacity); err != nil {
		return failure("capacity must be a number"), nil
	}
	if in.FareCents, err = parseFare(rawFare); err != nil {
		return failure("%s", err.Error()), nil
	}

	flight, err := a.svc.Flights.Create(ctx, in)
	if err != nil {
		return a.explain(err), nil
	}
	return success("flight %s added with id %d", flight.FlightNumber, flight.ID), nil
}

func (a *App) editFare(ctx context.Context) (Outcome, error) {
	id, ok, err := a.promptInt("Flight id: ")
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return failure("please enter a number"), nil
	}
	raw, err := a.prompt("New fare in Rs: ")
	if err != nil {
		return Outcome{}, err
	}
	fare, err := parseFare(raw)
	if err != nil {
		return failure("%s", err.Error()), nil
	}
	if err := a.svc.Flights.UpdateFare(ctx, id, fare); err != nil {
		return a.explain(err), nil
	}
	return success("fare of flight %d set to %s", id, ticket.FormatFare(fare)), nil
}

func (a *App) toggleFlight(ctx context.Context) (Outcome, error) {
	id, ok, err := a.promptInt("Flight id: ")
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return failure("please enter a number"), nil
	}
	flight, err := a.svc.Flights.GetByID(ctx, id)
	if err != nil {
		return a.explain(err), nil
	}
	if err := a.svc.Flights.SetAvailability(ctx, id, !flight.Available); err != nil {
		return a.explain(err), nil
	}
	if flight.Available {
		return success("flight %s closed for booking", flight.FlightNumber), nil
	}
	return success("flight %s open for booking", flight.FlightNumber), nil
}

func (a *App) removeFlight(ctx context.Context) (Outcome, error) {
	id, ok, err := a.promptInt("Flight id: ")
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return failure("please enter a number"), nil
	}
	if err := a.svc.Flights.Delete(ctx, id); err != nil {
		return a.explain(err), nil
	}
	return success("flight %d removed", id), nil
}

func (a *App) listFlights(ctx context.Context) (Outcome, error) {
	list, err := a.svc.Flights.ListAll(ctx)
	if err != nil {
		return a.explain(err), nil
	}
	if len(list) == 0 {
		return info("no flights stored yet"), nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFlight\tAirline\tRoute\tDate\tDepart\tArrive\tSeats\tFare\tOpen")
	for _, f := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s-%s\t%s\t%s\t%s\t%d/%d\t%s\t%t\n",
			f.ID, f.FlightNumber, f.AirlineName, f.OriginCode, f.DestinationCode,
			f.DepartureDate.Format(domain.DateLayout), f.DepartureTime, f.ArrivalTime,
			f.AvailableSeats, f.Capacity, ticket.FormatFare(f.FareCents), f.Available)
	}
	_ = w.Flush()
	if err := a.pause(); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

func (a *App) listUsers(ctx context.Context) (Outcome, error) {
	list, err := a.svc.Users.List(ctx)
	if err != nil {
		return a.explain(err), nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUsername\tName\tPhone\tRole")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.FullName(), u.PhoneNo, u.Role)
	}
	_ = w.Flush()
	if err := a.pause(); err != nil {
		return Outcome{}, err
	}
	return Outcome{}, nil
}

func (a *App) changeRole(ctx context.Context, admin *domain.User, promote bool) (Outcome, error) {
	username, err := a.prompt("Username: ")
	if err != nil {
		return Outcome{}, err
	}
	if promote {
		err = a.svc.Users.Promote(ctx, username)
	} else {
		err = a.svc.Users.Demote(ctx, admin.Username, username)
	}
	if err != nil {
		return a.explain(err), nil
	}
	if promote {
		return success("%s is now an admin", username), nil
	}
	return success("%s is now a passenger", username), nil
}

// parseFare reads a rupee amount such as "4500" or "4500.50" into paise.
func parseFare(raw string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("fare must be a non-negative amount like 4500.00")
	}
	return int64(math.Round(v * 100)), nil
}
