package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type createFlightRequest struct {
	FlightNumber    string `json:"flight_number" binding:"required"`
	AirlineCode     string `json:"airline_code" binding:"required"`
	OriginCode      string `json:"origin_code" binding:"required"`
	DestinationCode string `json:"destination_code" binding:"required"`
	DepartureDate   string `json:"departure_date" binding:"required"`
	DepartureTime   string `json:"departure_time" binding:"required"`
	ArrivalTime     string `json:"arrival_time" binding:"required"`
	Capacity        int    `json:"capacity" binding:"required,gt=0"`
	FareCents       int64  `json:"fare_cents" binding:"gte=0"`
}

type fareRequest struct {
	FareCents *int64 `json:"fare_cents" binding:"required"`
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

type seatMapResponse struct {
	FlightID int64      `json:"flight_id"`
	Capacity int        `json:"capacity"`
	Free     int        `json:"free"`
	Rows     [][]string `json:"rows"`
	Text     string     `json:"text"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seatmap", h.seatMap)
}

func (h *FlightHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("", h.listAll)
	router.POST("", h.create)
	router.PATCH("/:id/fare", h.updateFare)
	router.PATCH("/:id/availability", h.setAvailability)
	router.DELETE("/:id", h.delete)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) listAll(c *gin.Context) {
	flights, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) seatMap(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	m, err := h.service.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := seatMapResponse{FlightID: id, Capacity: m.Capacity, Free: m.Free, Text: m.String()}
	for _, row := range m.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, cell.Label())
		}
		resp.Rows = append(resp.Rows, cells)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) search(c *gin.Context) {
	date, err := time.Parse(domain.DateLayout, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	offers, err := h.service.Search(c.Request.Context(), c.Query("origin"), c.Query("destination"), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(domain.DateLayout, req.DepartureDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_date must be YYYY-MM-DD"})
		return
	}

	flight, err := h.service.Create(c.Request.Context(), flights.CreateFlightInput{
		FlightNumber:    req.FlightNumber,
		AirlineCode:     req.AirlineCode,
		OriginCode:      req.OriginCode,
		DestinationCode: req.DestinationCode,
		DepartureDate:   date,
		DepartureTime:   req.DepartureTime,
		ArrivalTime:     req.ArrivalTime,
		Capacity:        req.Capacity,
		FareCents:       req.FareCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) updateFare(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req fareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateFare(c.Request.Context(), id, *req.FareCents); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) setAvailability(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetAvailability(c.Request.Context(), id, *req.Available); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func flightID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
