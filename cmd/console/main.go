package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/config"
	"github.com/Domenick1991/skypass/internal/cache"
	"github.com/Domenick1991/skypass/internal/console"
	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/logging"
	"github.com/Domenick1991/skypass/internal/provider"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/service/flights"
	"github.com/Domenick1991/skypass/internal/service/users"
)

func main() {
	memory := flag.Bool("memory", false, "keep all data in memory instead of Postgres")
	adminUser := flag.String("admin-user", "admin", "admin created at start in memory mode")
	adminPassword := flag.String("admin-password", "", "password of the memory-mode admin; empty skips it")
	verbose := flag.Bool("v", false, "log at info level")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "info"
	}
	log := logging.New(config.LogConfig{Level: level, Format: "text"}, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		svc     console.Services
		cleanup func()
		err     error
	)
	if *memory {
		svc, err = memoryServices(ctx, *adminUser, *adminPassword, log)
		cleanup = func() {}
	} else {
		svc, cleanup, err = postgresServices(ctx, log)
	}
	if err != nil {
		log.WithError(err).Fatal("start console")
	}
	defer cleanup()

	if err := console.New(os.Stdin, os.Stdout, svc, log).Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("console stopped")
	}
}

func memoryServices(ctx context.Context, adminUser, adminPassword string, log *logrus.Logger) (console.Services, error) {
	store := repository.NewMemoryStore()
	userSvc := users.NewUserService(store.Users(), users.WithLogger(log))
	if adminPassword != "" {
		_, err := userSvc.Register(ctx, users.RegisterInput{
			Username: adminUser, Password: adminPassword, FirstName: "Admin", Role: domain.RoleAdmin,
		})
		if err != nil {
			return console.Services{}, err
		}
	}
	return console.Services{
		Flights:  flights.NewFlightService(store, store, store, nil, provider.NewSimulated(), log),
		Bookings: booking.NewBookingService(store, store, store, nil, nil, "", booking.WithLogger(log)),
		Users:    userSvc,
	}, nil
}

func postgresServices(ctx context.Context, log *logrus.Logger) (console.Services, func(), error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return console.Services{}, nil, err
	}

	pool, err := repository.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return console.Services{}, nil, err
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return console.Services{}, nil, err
	}
	search, err := provider.New(cfg.Provider)
	if err != nil {
		pool.Close()
		return console.Services{}, nil, err
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	cleanup := func() {
		_ = producer.Close()
		_ = redisCache.Close()
		pool.Close()
	}

	flightRepo := repository.NewFlightRepository(pool)
	refRepo := repository.NewReferenceRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	return console.Services{
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
		Users: users.NewUserService(repository.NewUserRepository(pool), users.WithLogger(log)),
	}, cleanup, nil
}
