// Package worker turns committed-booking events into archived e-tickets and
// confirmation emails.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/service/booking"
)

type Bookings interface {
	Ticket(ctx context.Context, ticketID string) (*domain.TicketDetails, error)
	CheckInventory(ctx context.Context, flightID int64) (*booking.InventoryReport, error)
}

type Archiver interface {
	Save(t domain.TicketDetails) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, t domain.TicketDetails, attachment string) error
}

type Notifier struct {
	bookings Bookings
	archive  Archiver
	mailer   Mailer
	log      logrus.FieldLogger
}

func NewNotifier(bookings Bookings, archive Archiver, mailer Mailer, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{bookings: bookings, archive: archive, mailer: mailer, log: log}
}

// Handle processes one booking event. Events of other types and tickets that
// no longer exist are skipped; storage and mail failures are returned so the
// consumer stops before committing the offset.
func (n *Notifier) Handle(ctx context.Context, event kafka.BookingEvent) error {
	log := n.log.WithFields(logrus.Fields{"ticket_id": event.TicketID, "event_id": event.EventID})
	if event.Type != kafka.EventBookingCreated {
		log.WithField("type", event.Type).Debug("ignoring event")
		return nil
	}

	details, err := n.bookings.Ticket(ctx, event.TicketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			log.WithError(err).Warn("ticket not found, skipping")
			return nil
		}
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}

	path, err := n.archive.Save(*details)
	if err != nil {
		return fmt.Errorf("archive ticket %s: %w", event.TicketID, err)
	}
	if err := n.mailer.Send(ctx, *details, path); err != nil {
		return fmt.Errorf("send confirmation %s: %w", event.TicketID, err)
	}

	report, err := n.bookings.CheckInventory(ctx, event.FlightID)
	if err != nil {
		log.WithError(err).Warn("inventory check failed")
		return nil
	}
	if !report.Consistent {
		log.WithFields(logrus.Fields{
			"flight_id": report.FlightID,
			"missing":   report.Missing,
			"orphaned":  report.Orphaned,
		}).Error("seat index disagrees with reservation ledger")
	}
	return nil
}
