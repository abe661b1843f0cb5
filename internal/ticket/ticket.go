// Package ticket renders and archives plain-text e-tickets.
package ticket

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
)

const width = 66

// FormatFare prints minor units as rupees, e.g. 900000 -> "Rs 9000.00".
func FormatFare(cents int64) string {
	return fmt.Sprintf("Rs %d.%02d", cents/100, cents%100)
}

// Render draws the fixed-width e-ticket for t.
func Render(t domain.TicketDetails) string {
	lines := []string{
		fmt.Sprintf("Passenger: %-25s   Ticket ID: %s", t.PassengerName, t.TicketID),
		fmt.Sprintf("Flight: %-28s   Date: %s", t.FlightNumber+" ("+t.AirlineName+")", t.DepartureDate.Format(domain.DateLayout)),
		"",
		fmt.Sprintf("From: %-30s   (%s)", t.OriginName, t.OriginCity),
		fmt.Sprintf("To:   %-30s   (%s)", t.DestinationName, t.DestinationCity),
		fmt.Sprintf("Departure: %-25s   Arrival: %s", t.DepartureTime, t.ArrivalTime),
		"",
		fmt.Sprintf("Seats Booked: %-22s   Total Fare: %s", seating.Join(t.Seats), FormatFare(t.TotalFareCents())),
	}

	border := "+" + strings.Repeat("-", width+2) + "+\n"
	var b strings.Builder
	b.WriteString(border)
	b.WriteString(boxLine(center("SKYPASS E-TICKET")))
	b.WriteString(border)
	for _, l := range lines {
		b.WriteString(boxLine(l))
	}
	b.WriteString(border)
	b.WriteString(boxLine(center("Thank you for flying with us! Safe travels.")))
	b.WriteString(border)
	return b.String()
}

func boxLine(s string) string {
	return fmt.Sprintf("| %-*s |\n", width, s)
}

func center(s string) string {
	pad := (width - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}
