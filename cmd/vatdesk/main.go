package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vatdesk/vatdesk/internal/app"
	"github.com/vatdesk/vatdesk/internal/company"
	"github.com/vatdesk/vatdesk/internal/declaration"
	"github.com/vatdesk/vatdesk/internal/export"
	"github.com/vatdesk/vatdesk/internal/journal"
	"github.com/vatdesk/vatdesk/internal/observability"
	"github.com/vatdesk/vatdesk/internal/vies"
	"github.com/vatdesk/vatdesk/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	vatRate, err := decimal.NewFromString(cfg.StandardVATRate)
	if err != nil {
		logger.Error("parse vat rate", slog.String("value", cfg.StandardVATRate), slog.Any("error", err))
		os.Exit(1)
	}

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	viesCache := vies.NewCache(redisClient, cfg.VIESCacheTTL)
	viesClient := vies.NewClient(vies.Config{
		Endpoint:     cfg.VIESEndpoint,
		Timeout:      cfg.VIESTimeout,
		RequesterVAT: cfg.VIESRequesterVAT,
	}, viesCache, logger)

	companyRepo := company.NewRepository(dbpool)
	companyService := company.NewService(companyRepo, logger)
	companyHandler := company.NewHandler(logger, companyService)

	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(journalRepo, viesClient, vatRate, logger)
	journalHandler := journal.NewHandler(logger, journalService)

	declarationRepo := declaration.NewRepository(dbpool)
	declarationService := declaration.NewService(declarationRepo, journalService, logger)
	declarationHandler := declaration.NewHandler(logger, declarationService)

	exportHandler := export.NewHandler(logger, companyService, declarationService, journalService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)
	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		CompanyHandler:     companyHandler,
		JournalHandler:     journalHandler,
		DeclarationHandler: declarationHandler,
		ExportHandler:      exportHandler,
		JobsHandler:        jobsHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
