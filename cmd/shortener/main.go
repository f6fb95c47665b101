package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mmeshcher/shortlink/internal/auth"
	"github.com/mmeshcher/shortlink/internal/config"
	"github.com/mmeshcher/shortlink/internal/handler"
	"github.com/mmeshcher/shortlink/internal/logger"
	"github.com/mmeshcher/shortlink/internal/models"
	"github.com/mmeshcher/shortlink/internal/repository"
	"github.com/mmeshcher/shortlink/internal/service"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Service stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar := log.Sugar()
	sugar.Infow("Starting URL shortener service",
		"server_address", cfg.ServerAddress,
		"base_url", cfg.BaseURL,
		"storage", storageKind(cfg.DatabaseDSN),
		"redis", cfg.RedisAddr != "",
	)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	store, err := repository.Open(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, revocations, closeSessions, err := sessionBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSessions()

	provider, err := auth.NewProvider(store, auth.Config{
		Secret:     cfg.JWTSecret,
		SessionTTL: cfg.SessionTTL,
	}, notifier, revocations, log)
	if err != nil {
		return err
	}

	unsubscribe := provider.Subscribe(func(e models.AuthEvent) {
		log.Debug("Auth state changed", zap.String("event", string(e.Type)), zap.String("userID", e.UserID))
	})
	defer unsubscribe()

	shortenerService := service.NewShortenerService(store, service.Options{
		BaseURL:           cfg.BaseURL,
		ClickWorkers:      cfg.ClickWorkers,
		ClickQueueSize:    cfg.ClickQueueSize,
		ClickWriteTimeout: cfg.ClickWriteTimeout,
	}, log)
	defer shortenerService.Close()

	h := handler.NewHandler(shortenerService, provider, log, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("Server starting", "address", cfg.ServerAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Graceful shutdown failed", zap.Error(err))
		}
		err = <-errCh
	case err = <-errCh:
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// sessionBackends shares auth events and revocations through Redis when it
// is configured and keeps them in process otherwise.
func sessionBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (auth.Notifier, auth.RevocationList, func(), error) {
	if cfg.RedisAddr == "" {
		notifier := auth.NewLocalNotifier()
		return notifier, auth.NewMemoryRevocations(), func() { _ = notifier.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	notifier, err := auth.NewRedisNotifier(ctx, client, log)
	if err != nil {
		_ = client.Close()
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := notifier.Close(); err != nil {
			log.Warn("Failed to close auth notifier", zap.Error(err))
		}
		_ = client.Close()
	}

	return notifier, auth.NewRedisRevocations(client), closeFn, nil
}

func storageKind(dsn string) string {
	if dsn == "" {
		return "memory"
	}
	return "database"
}
