package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/doctor-smile-ledger/internal/config"
	"github.com/doctor-smile-ledger/internal/data/mongo"
	"github.com/doctor-smile-ledger/internal/data/postgres"
	"github.com/doctor-smile-ledger/internal/ledger_relay/consumer"
	"github.com/doctor-smile-ledger/internal/ledger_relay/outbox_poller"
	"github.com/doctor-smile-ledger/internal/ledger_relay/service"
	"github.com/doctor-smile-ledger/internal/logger"
	"github.com/doctor-smile-ledger/internal/platform/messaging/consumers"
	"github.com/doctor-smile-ledger/internal/platform/messaging/producers"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig("clinic")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Relay",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	if err := run(cfg, log); err != nil {
		log.Error("Ledger relay shutdown completed with errors", "error", err)
		os.Exit(1)
	}
	log.Info("Ledger relay shutdown completed successfully")
}

// run wires the relay and blocks until a signal arrives or a loop fails
func run(cfg *config.Config, log *slog.Logger) error {
	// Cancelled on SIGINT, SIGTERM or SIGQUIT
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres, persistence.LimitsFromConfig(cfg.Ledger))
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer postgresDB.Close()

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := mongoDB.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}()

	journalRepo := mongo.NewJournalRepository(log, mongoDB.Collection(mongo.JournalCollectionName))
	if err := journalRepo.EnsureIndexes(appCtx); err != nil {
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	if err := producers.EnsureTopics(appCtx, log, &cfg.Kafka, cfg.Kafka.LedgerTopic, cfg.Kafka.DLQTopic); err != nil {
		return fmt.Errorf("failed to ensure Kafka topics: %w", err)
	}

	ledgerProducer, err := producers.NewLedgerEventProducer(log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger event producer: %w", err)
	}
	dlqProducer := producers.NewDLQProducer(log, &cfg.Kafka)

	projection, err := service.NewWorkerPoolProjectionService(
		service.NewJournalProjectionService(journalRepo, log),
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize projection worker pool: %w", err)
	}

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewEventPublisher(outboxRepo, ledgerProducer, log),
		log,
	)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	handler := consumer.NewJournalEventHandler(log, projection, dlqProducer)

	g, ctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		if err := poller.Start(ctx); err != nil {
			return fmt.Errorf("outbox poller: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.LedgerTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Run(ctx, handler.HandleMessage); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		return nil
	})

	runErr := g.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	log.Info("Starting graceful shutdown...", "running_workers", projection.Running())
	projection.Shutdown()

	closeErr := multierr.Combine(
		kafkaConsumer.Close(),
		ledgerProducer.Close(),
		dlqProducer.Close(),
	)

	return multierr.Append(runErr, closeErr)
}
