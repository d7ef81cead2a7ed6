// @title Group Events API
// @version 1.0
// @description Groups, invitations, memberships and event registrations.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"groupevents/config"
	_ "groupevents/docs"
	"groupevents/internal/adapters/auth"
	"groupevents/internal/adapters/email"
	"groupevents/internal/adapters/lock"
	delivery "groupevents/internal/delivery/http"
	"groupevents/internal/domain"
	"groupevents/internal/metrics"
	"groupevents/internal/repository/badgerdb"
	"groupevents/internal/repository/memory"
	"groupevents/internal/repository/postgres"
	"groupevents/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "groupevents: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	locker, closeLocker, err := openLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	membership := services.NewCoordinator(store, auth.NewBcryptHasher(cfg.BcryptCost), logger, services.CoordinatorOptions{
		Locker:     locker,
		Email:      services.NewEmailService(mailer, email.NewTemplateRenderer(), logger),
		Metrics:    metrics.New(reg),
		AppBaseURL: cfg.AppBaseURL,
		Timeout:    cfg.StoreTimeout,
	})
	query := services.NewQueryService(store, logger, cfg.StoreTimeout)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: delivery.NewRouter(delivery.RouterConfig{
			Logger:         logger,
			Membership:     membership,
			Query:          query,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Gatherer:       reg,
			HTTPMetrics:    metrics.NewHTTP(reg),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "store", cfg.StoreBackend, "lock", cfg.LockBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Store, func() error, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			return domain.Store{}, nil, fmt.Errorf("open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return domain.Store{}, nil, fmt.Errorf("ping postgres: %w", err)
		}
		if err := postgres.EnsureSchema(pingCtx, db); err != nil {
			_ = db.Close()
			return domain.Store{}, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return postgres.NewStore(db), db.Close, nil
	case config.StoreBadger:
		db, err := badgerdb.Open(cfg.BadgerPath, logger)
		if err != nil {
			return domain.Store{}, nil, fmt.Errorf("open badger: %w", err)
		}
		return db.Store(), db.Close, nil
	default:
		return memory.NewStore(), func() error { return nil }, nil
	}
}

func openLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Locker, func(), error) {
	switch cfg.LockBackend {
	case config.LockLocal:
		return lock.NewLocal(), func() {}, nil
	case config.LockRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return lock.NewRedis(client, cfg.LockTTL, logger), func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
