package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"grocer-go/application"
	"grocer-go/application/automation"
	"grocer-go/core/eventbus"
	"grocer-go/domain/platform"
	"grocer-go/domain/session"
	"grocer-go/infrastructure/browser"
	"grocer-go/infrastructure/config"
	"grocer-go/infrastructure/logging"
	"grocer-go/infrastructure/ratelimit"
	"grocer-go/infrastructure/repository"
	"grocer-go/presentation/httpapi"
	"grocer-go/resources"
)

const limiterPruneInterval = 10 * time.Minute

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP automation service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closeLog, err := logging.Setup(cfg.LoggingConfig())
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer closeLog()

	logger.Info("Starting grocer", "addr", cfg.HTTP.Addr, "store", cfg.Store, "engine", cfg.Browser.Engine)

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	registry, err := loadPlatforms()
	if err != nil {
		return err
	}
	logger.Info("Platforms loaded", "count", registry.Count())

	bus := eventbus.New(eventbus.Config{BufferSize: 100, Logger: logger})
	defer bus.Close()

	driverConfig := cfg.DriverConfig()
	automators := automation.New(&automation.Options{
		Platforms:         registry,
		NewDriver:         func() browser.Driver { return browser.New(driverConfig) },
		Settler:           automation.NewFixedSettler(settleDurations(cfg.Settle)),
		StepTimeout:       cfg.Browser.StepTimeout,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            logger,
	})

	coordinator := application.NewCoordinator(&application.CoordinatorConfig{
		Sessions:              session.NewService(repo, cfg.Session.TTL),
		Platforms:             registry,
		Login:                 automators.Login,
		Otp:                   automators.Otp,
		Cart:                  automators.Cart,
		EventBus:              bus,
		Logger:                logger,
		MaxConcurrentBrowsers: cfg.Browser.MaxConcurrent,
		LockTimeout:           cfg.Session.LockTimeout,
	})
	defer coordinator.Stop()

	limiter := ratelimit.NewLimiter(cfg.HTTP.RateLimit.RequestsPerMinute, cfg.HTTP.RateLimit.Burst)
	go pruneLimiter(ctx, limiter)

	handler := httpapi.NewHandler(&httpapi.HandlerConfig{
		Service:    coordinator,
		Limiter:    limiter,
		TrustProxy: cfg.HTTP.TrustProxy,
		BasePath:   cfg.HTTP.BasePath,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.SetupRoutes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "base_path", cfg.HTTP.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Shutdown complete")
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Repository, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory session store; sessions are lost on restart")
		return repository.NewMemorySessionRepository(), func() {}, nil
	}

	db, err := repository.NewMongoDB(ctx, cfg.MongoDBConfig(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		db.Close(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("Failed to close MongoDB", "error", err)
		}
	}
	return repository.NewMongoSessionRepository(db, logger), closeFn, nil
}

func loadPlatforms() (*platform.Registry, error) {
	registry := platform.NewRegistry()
	if err := platform.NewLoader(registry).LoadFromFS(resources.PlatformFiles); err != nil {
		return nil, fmt.Errorf("load platforms: %w", err)
	}
	return registry, nil
}

func settleDurations(s config.SettleConfig) map[automation.SettleKind]time.Duration {
	durations := map[automation.SettleKind]time.Duration{}
	set := func(kind automation.SettleKind, d time.Duration) {
		if d > 0 {
			durations[kind] = d
		}
	}
	set(automation.SettleAfterOtp, s.AfterOtp)
	set(automation.SettleVariantOpen, s.VariantOpen)
	set(automation.SettleVariantSelect, s.VariantSelect)
	set(automation.SettleAfterAddToCart, s.AfterAddToCart)
	return durations
}

func pruneLimiter(ctx context.Context, limiter *ratelimit.Limiter) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Prune(limiterPruneInterval); n > 0 {
				logging.L().Debug("Pruned idle rate limiters", "count", n)
			}
		}
	}
}
