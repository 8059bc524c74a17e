package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/orgchart/internal/orgchart/config"
	"github.com/gartstein/orgchart/internal/orgchart/controller"
	"github.com/gartstein/orgchart/internal/orgchart/db"
	"github.com/gartstein/orgchart/internal/orgchart/events"
	"github.com/gartstein/orgchart/internal/orgchart/handlers"
	"github.com/gartstein/orgchart/internal/orgchart/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	repo, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	departmentSvc := controller.NewDepartmentService(repo, producer, logger)
	coordinator := controller.NewAssignmentCoordinator(repo, departmentSvc, producer, logger)
	employeeSvc := controller.NewEmployeeService(repo, coordinator, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpHandler := handlers.NewHTTPHandler(departmentSvc, coordinator, employeeSvc, repo, handlers.NewMetrics(registry), logger)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPHandler(httpHandler, cfg.JWTSecret); err != nil {
		logger.Fatal("failed to register HTTP handler", zap.Error(err))
	}

	probeCtx, stopProbe := context.WithCancel(context.Background())
	defer stopProbe()
	go handlers.NewHealthProbe(repo, server.Health(), cfg.HealthInterval, logger).Run(probeCtx)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// connectDatabase retries the initial connection until DB_CONNECT_RETRY
// elapses, since postgres may still be starting next to the service.
func connectDatabase(cfg *config.Config, logger *zap.Logger) (*db.Repository, error) {
	dbConf := &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
	gormLogger := logging.NewGormLogger(logger, cfg.Log.GormLevel)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.DBConnectRetry

	var repo *db.Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = db.NewRepository(dbConf, gormLogger)
		return err
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	return repo, err
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
