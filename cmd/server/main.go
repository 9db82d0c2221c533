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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/association-platform/internal/clock"
	"github.com/iliyamo/association-platform/internal/config"
	"github.com/iliyamo/association-platform/internal/database"
	"github.com/iliyamo/association-platform/internal/logger"
	"github.com/iliyamo/association-platform/internal/metrics"
	"github.com/iliyamo/association-platform/internal/payment"
	"github.com/iliyamo/association-platform/internal/queue"
	"github.com/iliyamo/association-platform/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, cfg.DBDriver, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("running without redis; rate limiting and caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	qcfg := config.LoadQueueConfig()
	var publisher queue.Publisher = queue.NopPublisher{}
	if qcfg.Enabled {
		amqpPub := queue.NewAMQPPublisher(qcfg.URL, log)
		defer amqpPub.Close()
		publisher = amqpPub
	}
	if qcfg.Enabled && qcfg.ConsumerEnabled {
		consumer := &queue.Consumer{
			URL:      qcfg.URL,
			Notifier: &queue.FileNotifier{Path: qcfg.NotificationLog},
			Log:      log.Named("consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", zap.Error(err))
			}
		}()
	}

	e := server.New(server.Options{
		Config:        cfg,
		DB:            db,
		Redis:         rdb,
		Publisher:     publisher,
		Payments:      payment.NewMockProcessor(cfg.PaymentDeclineAboveCents),
		Metrics:       metrics.New(),
		Clock:         clock.NewSystem(),
		Log:           log,
		RateLimit:     config.LoadRateLimitConfig(),
		AuthRateLimit: config.LoadAuthRateLimitConfig(),
		Cache:         config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
