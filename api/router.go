package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/service/users"
)

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Users    users.UserUseCase
}

// NewRouter mounts the REST API under /api/v1.
func NewRouter(svc Services, log logrus.FieldLogger, timeout time.Duration) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Logger(log))
	if timeout > 0 {
		router.Use(Timeout(timeout))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	flightHandler := NewFlightHandler(svc.Flights)
	bookingHandler := NewBookingHandler(svc.Bookings, svc.Flights)
	userHandler := NewUserHandler(svc.Users)

	v1 := router.Group("/api/v1")
	flightHandler.Register(v1.Group("/flights"))
	v1.GET("/offers", flightHandler.search)
	v1.POST("/users/register", userHandler.register)

	passenger := v1.Group("", BasicAuth(svc.Users, domain.RolePassenger))
	bookingHandler.Register(passenger.Group("/bookings"))

	anyone := v1.Group("", BasicAuth(svc.Users, ""))
	anyone.GET("/tickets/:ticket_id", bookingHandler.ticket)

	admin := v1.Group("/admin", BasicAuth(svc.Users, domain.RoleAdmin))
	flightHandler.RegisterAdmin(admin.Group("/flights"))
	userHandler.RegisterAdmin(admin.Group("/users"))

	return router
}
