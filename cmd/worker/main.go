package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-checkout/internal/cache"
	"github.com/noah-isme/backend-checkout/internal/config"
	"github.com/noah-isme/backend-checkout/internal/lock"
	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/resilience"
	"github.com/noah-isme/backend-checkout/internal/tax"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := os.Getenv("OBS_LOG_FORMAT")
	logLevel := os.Getenv("OBS_LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics("checkout", nil)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	taxClient := &resilience.HTTPClient{
		Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		MaxAttempts: 3,
		BaseBackoff: 500 * time.Millisecond,
		Jitter:      0.2,
		Timeout:     cfg.OutboundTimeout,
		Breaker:     resilience.NewBreaker(10, 0.5, time.Minute).WithTarget("tax-table").WithLogger(logger),
		Target:      "tax-table",
		Logger:      &logger,
	}
	resolver := &tax.Resolver{
		Sources: cfg.TaxTableURLs,
		HTTP:    taxClient,
		Cache:   cache.NewJSON(redisClient, cfg.TaxCacheTTL),
		Logger:  logger,
	}

	asynqOpts := asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Username: redisOpts.Username,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}

	srv := asynq.NewServer(asynqOpts, asynq.Config{
		Concurrency: 2,
		Logger:      asynqLogger{logger: logger},
	})
	mux := asynq.NewServeMux()
	mux.Handle(tax.TaskRefresh, tax.RefreshHandler{
		Resolver: resolver,
		Locker:   lock.Locker{R: redisClient},
		LockTTL:  5 * time.Minute,
	})

	scheduler := asynq.NewScheduler(asynqOpts, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger: logger},
	})
	interval := cfg.TaxRefreshInterval
	if interval < time.Minute {
		interval = time.Minute
	}
	if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), asynq.NewTask(tax.TaskRefresh, nil)); err != nil {
		logger.Fatal().Err(err).Msg("register refresh schedule")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal().Err(err).Msg("scheduler run")
		}
	}()
	go func() {
		logger.Info().Dur("interval", interval).Msg("tax refresh worker starting")
		if err := srv.Run(mux); err != nil {
			logger.Fatal().Err(err).Msg("worker run")
		}
	}()

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
}

// asynqLogger bridges asynq's logging interface onto zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
