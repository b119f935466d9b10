package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"feedsync/internal/cache"
	"feedsync/internal/config"
	"feedsync/internal/feed"
	"feedsync/internal/publisher"
	"feedsync/internal/scheduler"
	"feedsync/internal/server"
	"feedsync/internal/service"
	"feedsync/internal/storage/corpusfile"
	"feedsync/internal/storage/postgres"
	"feedsync/internal/translate"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Article event publisher is optional; no URL means no queue.
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	// Initialize stores
	vendorStore := postgres.NewVendorStore(db)
	corpusStore := corpusfile.New(cfg.Ingest.CorpusPath)

	var translator service.Translator = translate.Noop{}
	if cfg.Translate.Enabled && cfg.Translate.APIKey != "" {
		translator = translate.NewOpenAI(translate.Config{
			APIKey:         cfg.Translate.APIKey,
			Model:          cfg.Translate.Model,
			TargetLanguage: cfg.Translate.TargetLanguage,
		}, logger)
	}

	fetcher := feed.New(feed.Config{
		Timeout: cfg.Ingest.FeedTimeout,
	}, logger)

	articleCache := cache.New(fetcher, cache.Config{
		TTL:           cfg.Ingest.CacheTTL,
		SummaryLength: cfg.Ingest.SummaryLength,
	}, logger)

	svc := service.NewService(
		vendorStore,
		articleCache,
		corpusStore,
		fetcher,
		pub,
		translator,
		logger,
		cfg.Ingest,
	)

	sched := scheduler.NewScheduler(svc, cfg.Ingest.RefreshInterval, logger)
	httpServer := server.New(cfg.HTTP.Addr, svc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	go func() {
		if err := httpServer.Run(ctx); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting feed syncer",
		"interval", cfg.Ingest.RefreshInterval,
		"cache_ttl", cfg.Ingest.CacheTTL,
		"retention_cap", cfg.Ingest.RetentionCap,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
