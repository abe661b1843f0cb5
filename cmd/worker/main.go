package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/skypass/config"
	"github.com/Domenick1991/skypass/internal/email"
	"github.com/Domenick1991/skypass/internal/kafka"
	"github.com/Domenick1991/skypass/internal/logging"
	"github.com/Domenick1991/skypass/internal/repository"
	"github.com/Domenick1991/skypass/internal/service/booking"
	"github.com/Domenick1991/skypass/internal/ticket"
	"github.com/Domenick1991/skypass/internal/worker"
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

	bookingService := booking.NewBookingService(
		repository.NewReservationRepository(pool),
		repository.NewFlightRepository(pool),
		repository.NewReferenceRepository(pool),
		nil,
		nil,
		"",
		booking.WithLogger(log),
	)
	notifier := worker.NewNotifier(
		bookingService,
		ticket.NewArchive(cfg.Worker.TicketDir),
		email.NewSender(log),
		log,
	)

	log.WithField("topic", cfg.Kafka.NotificationsTopic).Info("worker started")
	for {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		err := consumer.Consume(ctx, kafka.BookingHandler(notifier.Handle))
		_ = consumer.Close()
		if ctx.Err() != nil {
			log.Info("worker stopped")
			return
		}
		log.WithError(err).Error("consumer stopped, reopening")
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}
