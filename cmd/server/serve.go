package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/api"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/auth"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/cache"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/events"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/jobs"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/service"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if cfg.Storage.Backend == "file" && cfg.Env == "development" {
		seeded, err := storage.SeedUsersFile(cfg.Storage.UsersFile, []internal.User{
			{ID: "u1", Token: "MOCK-TOKEN", Name: "Demo User", Role: internal.RoleUser},
			{ID: "admin", Token: "MOCK-ADMIN-TOKEN", Name: "Demo Admin", Role: internal.RoleAdmin},
		})
		if err != nil {
			return err
		}
		if seeded {
			logger.Infof("created demo users in %s", cfg.Storage.UsersFile)
		}
	}

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("failed to init storage: %v", err)
		return err
	}
	defer store.Close()
	logger.Infof("storage backend: %s", cfg.Storage.Backend)

	opts := []service.Option{
		service.WithLocation(loc),
		service.WithStoreTimeout(cfg.Storage.Timeout),
	}
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rc.Ping(ctx); err != nil {
			logger.Warnf("redis unavailable, stats will not be cached: %v", err)
		}
		defer rc.Close()
		opts = append(opts, service.WithCache(rc, cfg.Redis.StatsTTL))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer pub.Close()
		opts = append(opts, service.WithPublisher(pub))
	}
	tracker := service.NewTracker(store, store, logger, opts...)

	provider, err := auth.NewProvider(cfg.Auth, store, logger)
	if err != nil {
		return err
	}

	var limiter *api.RateLimiter
	var cleaner jobs.Cleaner
	if cfg.Limits.RequestsPerSecond > 0 {
		limiter = api.NewRateLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst, logger)
		cleaner = limiter
	}

	if cfg.Metrics.RefreshSpec != "" {
		sched := jobs.NewScheduler(cfg.Metrics.RefreshSpec, tracker, cleaner, logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewApplication(logger, tracker, provider, limiter))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		logger.Errorf("failed to start server: %v", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
