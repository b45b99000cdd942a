package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ems/internal/cache"
	"ems/internal/cli"
	"ems/internal/config"
	"ems/internal/core"
	apphttp "ems/internal/http"
	"ems/internal/log"
	"ems/internal/services"
)

const (
	globalCategoryTTL    = 10 * time.Minute
	cacheCleanupInterval = 5 * time.Minute
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the JSON API under /api/v1.

Pending migrations are applied on startup. Record events are published to
RabbitMQ when AMQP_URL is set.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.LoadConfig((*config.Config).ValidateServer)
	if err != nil {
		return err
	}
	logger, err := cli.SetupLogger(logLevel(cmd, cfg.LogLevel), log.ComponentApp)
	if err != nil {
		return err
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	}()

	publisher, closePublisher, err := cli.NewPublisher(logger, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	globals := cache.NewLRUCache[[]core.Category](1, globalCategoryTTL)
	caches := cache.NewManager()
	caches.Register(globals)

	paging := services.Paging{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}
	categories := services.NewCategoryService(repo, globals)
	budgets := services.NewBudgetService(repo, categories)
	alerts := services.NewAlertService(services.NewAggregationService(repo), budgets)

	srv, err := apphttp.NewServer(apphttp.Services{
		Categories: categories,
		Expenses:   services.NewExpenseService(repo, categories, alerts, publisher, paging),
		Incomes:    services.NewIncomeService(repo, categories, publisher, paging),
		Budgets:    budgets,
		Reports:    services.NewReportService(repo),
	}, apphttp.Options{
		Addr:               ":" + cfg.Port,
		JWTSecret:          cfg.JWTSecret,
		JWTIssuer:          cfg.JWTIssuer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Health:             repo.Ping,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		return fmt.Errorf("initialize HTTP server: %w", err)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		caches.Run(gctx, cacheCleanupInterval)
		return nil
	})
	g.Go(func() error {
		logger.Info("Starting ems server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		requests, limits := srv.Metrics()
		cached := globals.Stats()
		logger.Info("Server stopped gracefully",
			"requests", requests.TotalRequests,
			"server_errors", requests.ServerErrors,
			"rate_limited", limits.TotalHits,
			"category_cache_hits", cached.Hits,
			"category_cache_misses", cached.Misses)
		return nil
	})

	return g.Wait()
}
