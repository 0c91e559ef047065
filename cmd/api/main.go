package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-checkout/internal/cache"
	"github.com/noah-isme/backend-checkout/internal/checkout"
	"github.com/noah-isme/backend-checkout/internal/config"
	"github.com/noah-isme/backend-checkout/internal/currency"
	"github.com/noah-isme/backend-checkout/internal/exchange"
	"github.com/noah-isme/backend-checkout/internal/geo"
	"github.com/noah-isme/backend-checkout/internal/health"
	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/pricing"
	"github.com/noah-isme/backend-checkout/internal/resilience"
	"github.com/noah-isme/backend-checkout/internal/security"
	"github.com/noah-isme/backend-checkout/internal/tax"
	"github.com/noah-isme/backend-checkout/internal/transaction"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "checkout")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "checkout-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	baseHTTP := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

	rateClient := &resilience.HTTPClient{
		Client: baseHTTP,
		// The rate service is called once per quote with a synchronous
		// fallback cascade behind it, so no retries.
		MaxAttempts: 1,
		Timeout:     cfg.OutboundTimeout,
		Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("exchange-rate").WithLogger(logger),
		Target:      "exchange-rate",
		Logger:      &logger,
	}
	taxClient := &resilience.HTTPClient{
		Client:      baseHTTP,
		MaxAttempts: 2,
		BaseBackoff: 200 * time.Millisecond,
		Timeout:     cfg.OutboundTimeout,
		Breaker:     resilience.NewBreaker(10, 0.5, time.Minute).WithTarget("tax-table").WithLogger(logger),
		Target:      "tax-table",
		Logger:      &logger,
	}
	geoClient := &resilience.HTTPClient{
		Client:      baseHTTP,
		MaxAttempts: 1,
		Timeout:     cfg.OutboundTimeout,
		Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("geoip").WithLogger(logger),
		Target:      "geoip",
		Logger:      &logger,
	}
	txClient := &resilience.HTTPClient{
		Client:      baseHTTP,
		MaxAttempts: 3,
		BaseBackoff: 250 * time.Millisecond,
		Jitter:      0.2,
		Timeout:     cfg.OutboundTimeout,
		Breaker:     resilience.NewBreaker(10, 0.5, time.Minute).WithTarget("transaction-ledger").WithLogger(logger),
		Target:      "transaction-ledger",
		Logger:      &logger,
	}

	registry := currency.NewRegistry()
	rates := &exchange.Resolver{
		Source:   &exchange.APIClient{BaseURL: cfg.RateServiceURL, HTTP: rateClient},
		Fallback: exchange.DefaultFallbackTable(),
		Pivot:    cfg.PivotCurrency,
		Logger:   logger,
	}
	taxes := &tax.Resolver{
		Sources: cfg.TaxTableURLs,
		HTTP:    taxClient,
		Cache:   cache.NewJSON(redisClient, cfg.TaxCacheTTL),
		Logger:  logger,
	}
	locator := &geo.Locator{
		BaseURL:        cfg.GeoServiceURL,
		HTTP:           geoClient,
		DefaultCountry: cfg.DefaultCountry,
		Logger:         logger,
	}
	engine := &pricing.Engine{Taxes: taxes, Rates: rates, MaxQuantity: cfg.QuoteMaxQuantity}
	svc := &checkout.Service{
		Registry: registry,
		Engine:   engine,
		Geo:      locator,
		Submit:   &transaction.HTTPSubmitter{URL: cfg.TransactionServiceURL, HTTP: txClient},
		Rates:    rates,
	}
	handler := &checkout.Handler{Svc: svc, Taxes: taxes, Validate: validator.New()}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "checkout:rl"})
	if err != nil {
		logger.Fatal().Err(err).Msg("create limiter store")
	}
	quoteLimiter := limiterstdlib.NewMiddleware(limiter.New(limiterStore, limiter.Rate{
		Period: cfg.QuoteRateWindow,
		Limit:  cfg.QuoteRateLimit,
	}))

	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(os.Getenv("OBS_METRICS_BUCKETS_MS")), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)

	healthHandler := health.Handler{Checker: redisChecker{client: redisClient}}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	if metricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(quoteLimiter.Handler)
		r.Post("/quotes", handler.Quote)
		r.Post("/transactions", handler.CreateTransaction)
		r.Get("/currencies", handler.Currencies)
		r.Get("/currencies/{country}", handler.CurrencyForCountry)
		r.Get("/tax-rates/{country}", handler.TaxRate)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("checkout api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

type redisChecker struct {
	client *redis.Client
}

func (c redisChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.client.Ping(pingCtx).Err()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
