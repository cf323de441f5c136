package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configs "coursework_service/config"
	"coursework_service/internal/app"
	"coursework_service/internal/metrics"
	"coursework_service/internal/repository"
	"coursework_service/internal/service"
	"coursework_service/pkg/db"
	"coursework_service/pkg/kafka"
	"coursework_service/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pg, err := db.NewPostgres(db.Config{DSN: cfg.GetDBConnectionString()})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	groupRepo := repository.NewGroupRepository(pg.DB())
	assignmentRepo := repository.NewAssignmentRepository(pg.DB())
	personalRepo := repository.NewPersonalRepository(pg.DB())
	graderLinkRepo := repository.NewGraderLinkRepository(pg.DB())
	txManager := repository.NewTxManager(pg.DB())

	catalogClient := app.NewCatalogClient(cfg.Services.Catalog.Address, cfg.Services.Catalog.Timeout)
	profileClient := app.NewProfileClient(cfg.Services.Profile.Address, cfg.Services.Profile.Timeout)

	producer, err := kafka.NewProducer(kafka.Config{Brokers: cfg.Kafka.Brokers})
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer producer.Close()

	core := service.NewCore(
		groupRepo,
		assignmentRepo,
		personalRepo,
		graderLinkRepo,
		catalogClient,
		profileClient,
		producer,
		txManager,
		log,
	)

	consumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ActivityTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewActivityWorker(consumer, core.Activity, log, cfg.Kafka.WorkerPoolSize)
	workerDone := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(workerDone)
	}()
	log.Infof("Activity worker consuming %s", cfg.Kafka.ActivityTopic)

	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("Serving metrics on %s", cfg.Metrics.Address)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve metrics: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()
	<-workerDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	log.Info("Server stopped")
}
