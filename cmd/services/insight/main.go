package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/soltixdb/insight/internal/analytics/anomaly"
	"github.com/soltixdb/insight/internal/analytics/forecast"
	"github.com/soltixdb/insight/internal/config"
	"github.com/soltixdb/insight/internal/grpcserver"
	"github.com/soltixdb/insight/internal/handlers"
	"github.com/soltixdb/insight/internal/jobs"
	"github.com/soltixdb/insight/internal/logging"
	"github.com/soltixdb/insight/internal/models"
	"github.com/soltixdb/insight/internal/queue"
	"github.com/soltixdb/insight/internal/registry"
	"github.com/soltixdb/insight/internal/router"
	"github.com/soltixdb/insight/internal/services"
	"github.com/soltixdb/insight/internal/subscriber"
	"github.com/soltixdb/insight/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Insight service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Analytics
	forecaster := forecast.New(forecastConfig(cfg.Forecast), forecast.WithLogger(logger))
	detector, err := anomaly.New(anomalyConfig(cfg.Anomaly))
	if err != nil {
		logger.Fatal("Failed to build anomaly detector", "error", err)
	}
	logger.Info("Analytics initialized",
		"timeframe", forecaster.Config().Timeframe,
		"methods", detector.Methods())

	predictions := services.NewPredictionService(logger, forecaster)
	anomalies := services.NewAnomalyService(logger, detector)
	insights := services.NewInsightsService(detector.Methods(), forecaster.Config())

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	h := handlers.New(logger, predictions, anomalies, insights)
	app := router.New(logger, h, *cfg)

	// Context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// gRPC health server
	var grpcServer *grpcserver.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		grpcServer = grpcserver.New(addr, logger)
		go func() {
			if err := grpcServer.Start(ctx); err != nil {
				logger.Error("gRPC server failed", "error", err)
			}
		}()
	}

	// Queued analysis jobs
	var (
		runner    *jobs.Runner
		publisher queue.Publisher
		sub       subscriber.Subscriber
	)
	if cfg.Jobs.Enabled {
		runner, publisher, sub = startJobs(ctx, cfg, predictions, anomalies, logger)
	}

	// Instance registration
	var (
		etcdClient   *clientv3.Client
		registration *registry.InstanceRegistration
	)
	if cfg.Registry.Enabled {
		logger.Info("Connecting to etcd", "endpoints", cfg.Etcd.Endpoints)
		etcdClient, err = registry.NewClient(cfg.Etcd)
		if err != nil {
			logger.Fatal("Failed to connect to etcd", "error", err)
		}
		registration = registry.NewInstanceRegistration(etcdClient, cfg.Registry, instanceInfo(cfg), logger)
		if err := registration.Register(ctx); err != nil {
			logger.Fatal("Failed to register instance", "error", err)
		}
	}

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	// Stop advertising before refusing work
	if registration != nil {
		if err := registration.SetStatus(shutdownCtx, models.InstanceStatusDraining); err != nil {
			logger.Warn("Failed to mark instance draining", "error", err)
		}
	}
	if grpcServer != nil {
		grpcServer.Drain()
	}

	if runner != nil {
		if err := runner.Stop(); err != nil {
			logger.Warn("Failed to stop job runner", "error", err)
		}
		stats := runner.Stats()
		logger.Info("Job runner summary", "processed", stats.Processed, "failed", stats.Failed)
	}

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if grpcServer != nil {
		grpcServer.Stop()
	}
	if sub != nil {
		_ = sub.Close()
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	if registration != nil {
		if err := registration.Deregister(shutdownCtx); err != nil {
			logger.Warn("Failed to deregister instance", "error", err)
		}
	}
	if etcdClient != nil {
		_ = etcdClient.Close()
	}

	logger.Info("Server exited")
}

// startJobs connects to the queue and starts consuming analysis jobs
func startJobs(
	ctx context.Context,
	cfg *config.Config,
	predictions *services.PredictionService,
	anomalies *services.AnomalyService,
	logger *logging.Logger,
) (*jobs.Runner, queue.Publisher, subscriber.Subscriber) {
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)

	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}

	sub, err := subscriber.NewSubscriber(cfg.Queue, subscriber.Config{
		InstanceID:    cfg.Registry.GetInstanceID(),
		ConsumerGroup: cfg.Jobs.ConsumerGroup,
		MaxRetries:    cfg.Jobs.MaxRetries,
		BatchSize:     utils.DefaultBatchSize,
		Logger:        logger,
	})
	if err != nil {
		_ = publisher.Close()
		logger.Fatal("Failed to create subscriber", "error", err)
	}

	codec, err := jobs.NewCodec(cfg.Jobs.Compression)
	if err != nil {
		logger.Fatal("Invalid job compression", "error", err)
	}

	runner, err := jobs.NewRunner(jobs.RunnerConfig{
		RequestSubject: cfg.Jobs.RequestSubject,
		ResultSubject:  cfg.Jobs.ResultSubject,
		InstanceID:     cfg.Registry.GetInstanceID(),
	}, sub, publisher, codec, predictions, anomalies, logger)
	if err != nil {
		logger.Fatal("Failed to create job runner", "error", err)
	}

	if err := runner.Start(ctx); err != nil {
		logger.Fatal("Failed to start job runner", "error", err)
	}
	logger.Info("Queue connection established")

	return runner, publisher, sub
}
