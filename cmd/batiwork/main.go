package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/batiwork/batiwork/internal/app"
	"github.com/batiwork/batiwork/internal/bookings"
	"github.com/batiwork/batiwork/internal/invoices"
	"github.com/batiwork/batiwork/internal/payments"
	"github.com/batiwork/batiwork/internal/platform/cache"
	"github.com/batiwork/batiwork/internal/platform/db"
	"github.com/batiwork/batiwork/internal/projects"
	"github.com/batiwork/batiwork/internal/quotes"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	projectsService := projects.NewService(projects.NewRepository(pool))
	quotesService := quotes.NewService(quotes.NewRepository(pool))
	bookingsService := bookings.NewService(bookings.NewRepository(pool))
	invoicesService := invoices.NewService(invoices.NewRepository(pool))

	idemStore := payments.NewIdempotencyStore(redisClient, cfg.PaymentIdempotencyTTL)
	paymentsService := payments.NewService(
		payments.NewRepository(pool, cfg.PaymentLockTimeout),
		idemStore,
		logger,
	)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		QuotesHandler:   quotes.NewHandler(logger, quotesService),
		BookingsHandler: bookings.NewHandler(logger, bookingsService),
		InvoicesHandler: invoices.NewHandler(logger, invoicesService),
		PaymentsHandler: payments.NewHandler(logger, paymentsService),
		ProjectsHandler: projects.NewHandler(logger, projectsService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
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
		logger.Error("http server shutdown", slog.Any("error", err))
	}
}
