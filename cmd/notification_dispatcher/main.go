package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/data/mongo"
	"github.com/wallet-ledger-engine/internal/data/postgres"
	"github.com/wallet-ledger-engine/internal/data/redis"
	"github.com/wallet-ledger-engine/internal/logger"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/components"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/consumer"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/outbox_poller"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/service"
	"github.com/wallet-ledger-engine/internal/platform/messaging/consumers"
	"github.com/wallet-ledger-engine/internal/platform/messaging/producers"
	"github.com/wallet-ledger-engine/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	configName, err := config.ParseFlags("notification_dispatcher", os.Args[1:])
	if err != nil {
		fmt.Printf("Failed to parse flags: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Notification Dispatcher",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
	if err := auditRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure audit indexes", "error", err)
		os.Exit(1)
	}
	dedupeStore := redis.NewDedupeStore(redisClient, cfg.Notification.DedupeTTL, log)

	// Initialize Kafka producers
	eventProducer, err := producers.NewNotificationEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize notification Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// A nil *DLQProducer must not reach the consumer as a non-nil interface
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	// Initialize delivery service, bounded by the worker pool when configured
	deliveryService, err := components.CreateDeliveryService(
		dedupeStore,
		components.NewLoggerSender(log.With("component", "logger_sender")),
		log,
		cfg,
	)
	if err != nil {
		log.Error("Failed to initialize delivery service", "error", err)
		os.Exit(1)
	}

	// Initialize notification event handler and Kafka consumer
	eventHandler := consumer.NewNotificationEventHandler(log, deliveryService)
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, deadLetters)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, auditRepo, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer, it consumes in the background until appCtx ends
	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.NotificationTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, eventHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Release the worker pool when deliveries run on one
	if wpService, ok := deliveryService.(*service.WorkerPoolDeliveryService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka consumer before the producers it parks messages with
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing notification Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Notification Dispatcher shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Notification Dispatcher shutdown completed with errors")
	} else {
		log.Info("Notification Dispatcher shutdown completed successfully")
	}
}
