package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/foodorder/internal/config"
	"github.com/dejobratic/foodorder/internal/database"
	idempostgres "github.com/dejobratic/foodorder/internal/idempotency/postgres"
	"github.com/dejobratic/foodorder/internal/kafka"
	ordersadapters "github.com/dejobratic/foodorder/internal/orders/adapters"
	httpadapter "github.com/dejobratic/foodorder/internal/orders/adapters/http"
	"github.com/dejobratic/foodorder/internal/orders/adapters/memory"
	"github.com/dejobratic/foodorder/internal/orders/adapters/paystack"
	orderspostgres "github.com/dejobratic/foodorder/internal/orders/adapters/postgres"
	ordersredis "github.com/dejobratic/foodorder/internal/orders/adapters/redis"
	ordersapp "github.com/dejobratic/foodorder/internal/orders/app"
	"github.com/dejobratic/foodorder/internal/orders/app/pricing"
	ordersmetrics "github.com/dejobratic/foodorder/internal/orders/metrics"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/dejobratic/foodorder/internal/telemetry"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(os.Stdout, telemetry.ParseLevel(cfg.Telemetry.LogLevel), cfg.Service.Name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		Insecure:       cfg.Telemetry.OTelInsecure,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(cfg.Service.Name)
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	orderMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return err
		}
		logger.Info("migrations completed successfully")
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := orderspostgres.NewRepository(pool)

	carts, redisClient, err := newCartStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	notifier, closeNotifier := newNotifier(cfg.Kafka, kafkaMetrics, logger)
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Error("closing notification publisher failed", "error", err)
		}
	}()

	gateway, err := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, paystack.NewHTTPClient(cfg.Paystack.Timeout))
	if err != nil {
		return fmt.Errorf("create paystack client: %w", err)
	}

	callbackURL := cfg.Paystack.CallbackURL
	if callbackURL == "" {
		callbackURL = cfg.Checkout.PublicBaseURL + "/v1/payments/paystack/callback"
	}

	service := ordersapp.NewService(ordersapp.Dependencies{
		Orders:      ordersadapters.NewObservableRepository(repo, dbMetrics),
		Catalog:     repo,
		Coupons:     repo,
		Stats:       ordersadapters.NewObservableStatsRepository(repo, dbMetrics),
		Carts:       carts,
		Gateway:     gateway,
		Webhooks:    paystack.NewDecoder(cfg.Paystack.SecretKey),
		Notifier:    notifier,
		Idempotency: idempostgres.NewStore(pool, cfg.Idempotency.TTL),
		Pricing: pricing.Config{
			TaxRate:            cfg.Checkout.TaxRate,
			DefaultDeliveryFee: cfg.Checkout.DefaultDeliveryFee,
		},
		CallbackURL: callbackURL,
		Logger:      logger,
		Metrics:     orderMetrics,
	})

	router := chi.NewRouter()
	router.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	router.Use(func(next http.Handler) http.Handler {
		return httpadapter.WithMetrics(next, httpMetrics)
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := checkReady(r.Context(), pool, redisClient); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	httpadapter.NewHandler(service, httpadapter.Options{
		PublicBaseURL:  cfg.Checkout.PublicBaseURL,
		PreviewLimiter: httpadapter.NewUserLimiter(cfg.Checkout.PreviewRPS, cfg.Checkout.PreviewBurst),
		Logger:         logger,
	}).Register(router)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Idempotency-Key", "X-User-ID", "X-User-Email", "X-User-Role"},
		ExposedHeaders:   []string{"Idempotent-Replayed", "Retry-After"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(handler, cfg.Service.Name),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
	return nil
}

// newCartStore uses Redis when an address is configured and falls back to a
// process-local store otherwise.
func newCartStore(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (ports.CartStore, *goredis.Client, error) {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not set, carts are kept in memory")
		return memory.NewCartStore(), nil, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	return ordersredis.NewCartStore(client, cfg.CartTTL), client, nil
}

func newNotifier(cfg config.KafkaConfig, metrics *kafka.Metrics, logger *slog.Logger) (ports.Notifier, func() error) {
	if len(cfg.Brokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, notifications are only logged")
		return kafka.NewNoopNotifier(logger), func() error { return nil }
	}

	publisher := kafka.NewNotificationPublisher(kafka.NewWriter(cfg.Brokers, cfg.NotificationsTopic))
	return ordersadapters.NewObservableNotifier(publisher, metrics), publisher.Close
}

func checkReady(ctx context.Context, pool *pgxpool.Pool, redisClient *goredis.Client) error {
	if err := database.CheckHealth(ctx, pool); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if redisClient != nil {
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
