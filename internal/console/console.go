// Package console is the interactive terminal front end. Every menu action
// returns an Outcome that the loop prints before showing the menu again.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/service/users"
)

// errExit ends the session when input runs out.
var errExit = errors.New("input closed")

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Users    users.UserUseCase
}

type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeInfo
	OutcomeSuccess
	OutcomeError
)

// Outcome is the message an action leaves for the next screen.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

func info(format string, args ...interface{}) Outcome {
	return Outcome{Kind: OutcomeInfo, Text: fmt.Sprintf(format, args...)}
}

func success(format string, args ...interface{}) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...interface{}) Outcome {
	return Outcome{Kind: OutcomeError, Text: fmt.Sprintf(format, args...)}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "OK: " + o.Text
	case OutcomeError:
		return "ERROR: " + o.Text
	default:
		return o.Text
	}
}

type App struct {
	in  *bufio.Scanner
	out io.Writer
	svc Services
	log logrus.FieldLogger
}

func New(in io.Reader, out io.Writer, svc Services, log logrus.FieldLogger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &App{in: bufio.NewScanner(in), out: out, svc: svc, log: log}
}

// Run shows the start menu until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	var last Outcome
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.title("Airlines Reservation System")
		a.show(last)
		a.printf("  1. Admin login\n  2. Passenger login\n  3. Register\n  4. Exit\n")

		choice, err := a.choice()
		if err != nil {
			return a.done(err)
		}
		switch choice {
		case 1:
			last, err = a.login(ctx, domain.RoleAdmin)
		case 2:
			last, err = a.login(ctx, domain.RolePassenger)
		case 3:
			last, err = a.register(ctx)
		case 4:
			a.printf("Thank you for using SkyPass. Goodbye!\n")
			return nil
		default:
			last = failure("please enter a valid option")
		}
		if err != nil {
			return a.done(err)
		}
	}
}

func (a *App) done(err error) error {
	if errors.Is(err, errExit) {
		return nil
	}
	return err
}

func (a *App) login(ctx context.Context, role domain.Role) (Outcome, error) {
	username, err := a.prompt("Username: ")
	if err != nil {
		return Outcome{}, err
	}
	password, err := a.prompt("Password: ")
	if err != nil {
		return Outcome{}, err
	}
	user, err := a.svc.Users.Authenticate(ctx, username, password, role)
	if err != nil {
		return a.explain(err), nil
	}
	a.log.WithFields(logrus.Fields{"user": user.Username, "role": user.Role}).Info("login")
	if role == domain.RoleAdmin {
		return a.adminMenu(ctx, user)
	}
	return a.passengerMenu(ctx, user)
}

func (a *App) register(ctx context.Context) (Outcome, error) {
	var input users.RegisterInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"Username: ", &input.Username},
		{"Password (min 8 characters): ", &input.Password},
		{"First name: ", &input.FirstName},
		{"Last name: ", &input.LastName},
		{"Phone number: ", &input.PhoneNo},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return Outcome{}, err
		}
		*f.dst = v
	}
	input.Role = domain.RolePassenger

	user, err := a.svc.Users.Register(ctx, input)
	if err != nil {
		return a.explain(err), nil
	}
	return success("user %s registered, please log in", user.Username), nil
}

// explain turns a service error into a message for the user. Unexpected
// errors are logged and reported generically.
func (a *App) explain(err error) Outcome {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden):
		return failure("%s", err.Error())
	default:
		a.log.WithError(err).Error("console action failed")
		return failure("something went wrong, please try again")
	}
}

func (a *App) title(name string) {
	a.printf("\n==================== SkyPass: %s ====================\n", name)
}

func (a *App) show(o Outcome) {
	if o.Kind != OutcomeNone {
		a.printf("%s\n\n", o)
	}
}

func (a *App) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// prompt prints label and returns the next trimmed line.
func (a *App) prompt(label string) (string, error) {
	a.printf("%s", label)
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", errExit
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *App) choice() (int, error) {
	v, err := a.prompt("Enter your choice: ")
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil {
		return -1, nil
	}
	return n, nil
}

// promptInt reads an integer; ok is false when the line is not a number.
func (a *App) promptInt(label string) (n int64, ok bool, err error) {
	v, err := a.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, convErr := strconv.ParseInt(v, 10, 64)
	if convErr != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (a *App) pause() error {
	_, err := a.prompt("\nPress enter to continue...")
	return err
}
