package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/seating"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/ticket"
)

type BookingHandler struct {
	service booking.BookingUseCase
	flights flights.FlightUseCase
}

// createBookingRequest books either a stored flight (flight_id) or a search
// offer. Seats are tried in order until party_size of them are accepted.
type createBookingRequest struct {
	FlightID  int64         `json:"flight_id"`
	Offer     *offerRequest `json:"offer"`
	PartySize int           `json:"party_size" binding:"required,gt=0"`
	Seats     []string      `json:"seats" binding:"required,min=1"`
}

// offerRequest is a search offer as clients post it. departure_date may be a
// plain date or a full RFC 3339 timestamp.
type offerRequest struct {
	FlightNumber    string `json:"flight_number"`
	AirlineName     string `json:"airline_name"`
	AirlineCode     string `json:"airline_code"`
	OriginCode      string `json:"origin_code"`
	OriginCity      string `json:"origin_city"`
	DestinationCode string `json:"destination_code"`
	DestinationCity string `json:"destination_city"`
	DepartureDate   string `json:"departure_date"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	Duration        string `json:"duration"`
	Aircraft        string `json:"aircraft"`
	Capacity        int    `json:"capacity"`
	FareCents       int64  `json:"fare_cents"`
}

var errDepartureDate = errors.New("departure_date must be YYYY-MM-DD or RFC 3339")

func (o offerRequest) toOffer() (domain.Offer, error) {
	offer := domain.Offer{
		FlightNumber:    o.FlightNumber,
		AirlineName:     o.AirlineName,
		AirlineCode:     o.AirlineCode,
		OriginCode:      o.OriginCode,
		OriginCity:      o.OriginCity,
		DestinationCode: o.DestinationCode,
		DestinationCity: o.DestinationCity,
		DepartureTime:   o.DepartureTime,
		ArrivalTime:     o.ArrivalTime,
		Duration:        o.Duration,
		Aircraft:        o.Aircraft,
		Capacity:        o.Capacity,
		FareCents:       o.FareCents,
	}
	// Empty is left zero; the booking service rejects it.
	if o.DepartureDate == "" {
		return offer, nil
	}
	date, err := time.Parse(domain.DateLayout, o.DepartureDate)
	if err != nil {
		date, err = time.Parse(time.RFC3339, o.DepartureDate)
		if err != nil {
			return offer, errDepartureDate
		}
	}
	offer.DepartureDate = date
	return offer, nil
}

type attemptResponse struct {
	Input   string `json:"input"`
	Verdict string `json:"verdict"`
	Message string `json:"message"`
}

type bookingResponse struct {
	TicketID     string            `json:"ticket_id"`
	FlightID     int64             `json:"flight_id"`
	FlightNumber string            `json:"flight_number"`
	Seats        []string          `json:"seats"`
	Attempts     int               `json:"attempts"`
	Rejected     []attemptResponse `json:"rejected,omitempty"`
}

// requestChooser feeds the seats listed in a request to the selector.
type requestChooser struct {
	*seating.SliceSource
	conflicts []*domain.ConflictError
}

func (r *requestChooser) ShowSeatMap(seating.Map) {}

func (r *requestChooser) ShowConflict(err *domain.ConflictError) {
	r.conflicts = append(r.conflicts, err)
}

func NewBookingHandler(service booking.BookingUseCase, flights flights.FlightUseCase) *BookingHandler {
	return &BookingHandler{service: service, flights: flights}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.mine)
}

func (h *BookingHandler) create(c *gin.Context) {
	user := currentUser(c)
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var offer domain.Offer
	switch {
	case req.Offer != nil:
		var err error
		if offer, err = req.Offer.toOffer(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	case req.FlightID > 0:
		flight, err := h.flights.GetByID(c.Request.Context(), req.FlightID)
		if err != nil {
			writeError(c, err)
			return
		}
		offer = offerFromFlight(flight)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "flight_id or offer is required"})
		return
	}

	chooser := &requestChooser{SliceSource: seating.NewSliceSource(req.Seats...)}
	result, err := h.service.BookFlight(c.Request.Context(), booking.BookFlightInput{
		UserID:    user.ID,
		Offer:     offer,
		PartySize: req.PartySize,
		Chooser:   chooser,
	})
	if err != nil {
		if errors.Is(err, seating.ErrNoMoreCandidates) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "not enough valid seats in request",
				"rejected": rejected(chooser.Rejected()),
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{
		TicketID:     result.TicketID,
		FlightID:     result.Flight.ID,
		FlightNumber: result.Flight.FlightNumber,
		Seats:        result.Reservation.Seats,
		Attempts:     result.Attempts,
		Rejected:     rejected(chooser.Rejected()),
	})
}

func (h *BookingHandler) mine(c *gin.Context) {
	user := currentUser(c)
	reservations, err := h.service.MyReservations(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// ticket returns the e-ticket as JSON, or as the printable box with ?format=text.
// Passengers only see their own tickets.
func (h *BookingHandler) ticket(c *gin.Context) {
	user := currentUser(c)
	details, err := h.service.Ticket(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if user.Role != domain.RoleAdmin && details.UserID != user.ID {
		writeError(c, domain.ErrTicketNotFound)
		return
	}
	if strings.EqualFold(c.Query("format"), "text") {
		c.String(http.StatusOK, ticket.Render(*details))
		return
	}
	c.JSON(http.StatusOK, details)
}

func offerFromFlight(f *domain.Flight) domain.Offer {
	return domain.Offer{
		FlightNumber:    f.FlightNumber,
		AirlineName:     f.AirlineName,
		AirlineCode:     f.AirlineCode,
		OriginCode:      f.OriginCode,
		OriginCity:      f.OriginCity,
		DestinationCode: f.DestinationCode,
		DestinationCity: f.DestinationCity,
		DepartureDate:   f.DepartureDate,
		DepartureTime:   f.DepartureTime,
		ArrivalTime:     f.ArrivalTime,
		Capacity:        f.Capacity,
		FareCents:       f.FareCents,
	}
}

func rejected(attempts []seating.Attempt) []attemptResponse {
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResponse{Input: a.Input, Verdict: a.Verdict.String(), Message: a.Message()})
	}
	return out
}
