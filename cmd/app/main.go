package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/skypass/api"
	"github.com/Domenick1991/skypass/config"
	"github.com/Domenick1991/skypass/internal/bootstrap"
	"github.com/Domenick1991/skypass/internal/cache"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/logging"
	"github.com/Domenick1991/skypass/internal/provider"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/service/users"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logging.Setup(config.LogConfig{}).WithError(err).Fatal("load config")
	}
	log := logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()
	if err := repository.Migrate(ctx, pool); err != nil {
		log.WithError(err).Fatal("migrate schema")
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka is unreachable, booking events will be dropped")
	}

	search, err := provider.New(cfg.Provider)
	if err != nil {
		log.WithError(err).Fatal("configure flight provider")
	}

	flightRepo := repository.NewFlightRepository(pool)
	refRepo := repository.NewReferenceRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	services := api.Services{
		Flights: flights.NewFlightService(flightRepo, refRepo, reservationRepo, redisCache, search, log),
		Bookings: booking.NewBookingService(
			reservationRepo,
			flightRepo,
			refRepo,
			redisCache,
			producer,
			cfg.Kafka.BookingTopic,
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
			booking.WithLockTTL(time.Duration(cfg.Booking.LockTTL)*time.Second),
			booking.WithMaxAttempts(cfg.Booking.MaxAttempts),
			booking.WithDefaultCapacity(cfg.Booking.DefaultCapacity),
			booking.WithLogger(log),
		),
		Users: users.NewUserService(userRepo, users.WithLogger(log)),
	}

	router := api.NewRouter(services, log, 15*time.Second)
	if err := bootstrap.Run(ctx, cfg, router, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
