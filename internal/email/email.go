// Package email delivers booking confirmations to passengers. Delivery is a
// structured log line until an SMTP relay is configured.
package email

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/Domenick1991/skypass/internal/ticket"
)

type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sender{log: log}
}

// Subject is the confirmation mail subject for t.
func Subject(t domain.TicketDetails) string {
	return fmt.Sprintf("Your e-ticket %s for flight %s on %s",
		t.TicketID, t.FlightNumber, t.DepartureDate.Format(domain.DateLayout))
}

// Send notifies the passenger that ticket t is ready at attachment.
func (s *Sender) Send(ctx context.Context, t domain.TicketDetails, attachment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":    t.UserID,
		"passenger":  t.PassengerName,
		"ticket_id":  t.TicketID,
		"flight":     t.FlightNumber,
		"seats":      seating.Join(t.Seats),
		"total_fare": ticket.FormatFare(t.TotalFareCents()),
		"attachment": attachment,
		"subject":    Subject(t),
	}).Info("booking confirmation sent")
	return nil
}
