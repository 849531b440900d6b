package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Paystack    PaystackConfig
	Checkout    CheckoutConfig
	Idempotency IdempotencyConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
	CORSOrigins   []string
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

// RedisConfig selects the cart store. An empty Addr keeps carts in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// KafkaConfig selects the notification publisher. Without brokers
// notifications are only logged.
type KafkaConfig struct {
	Brokers            []string
	NotificationsTopic string
}

type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration
}

type CheckoutConfig struct {
	TaxRate            decimal.Decimal
	DefaultDeliveryFee decimal.Decimal
	PublicBaseURL      string
	PreviewRPS         float64
	PreviewBurst       int
}

type IdempotencyConfig struct {
	TTL time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	OTelInsecure  bool
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort           = 8080
	defaultShutdownGrace      = 15
	defaultMigrationsPath     = "migrations"
	defaultAutoMigrate        = true
	defaultCartTTLHours       = 7 * 24
	defaultNotificationsTopic = "orders.notifications"
	defaultPaystackBaseURL    = "https://api.paystack.co"
	defaultPaystackTimeout    = 10
	defaultTaxRate            = "0.075"
	defaultDeliveryFee        = "500"
	defaultPublicBaseURL      = "http://localhost:8080"
	defaultPreviewRPS         = 2.0
	defaultPreviewBurst       = 5
	defaultIdempotencyTTL     = 24
	defaultServiceName        = "foodorder-api"
	defaultServiceVersion     = "0.1.0"
	defaultEnvironment        = "development"
	defaultLogLevel           = "info"
	defaultOTelSampleRate     = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	paystackCfg, err := loadPaystackConfig()
	if err != nil {
		return nil, fmt.Errorf("loading paystack config: %w", err)
	}

	checkoutCfg, err := loadCheckoutConfig()
	if err != nil {
		return nil, fmt.Errorf("loading checkout config: %w", err)
	}

	idemCfg, err := loadIdempotencyConfig()
	if err != nil {
		return nil, fmt.Errorf("loading idempotency config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:        httpCfg,
		Database:    loadDatabaseConfig(),
		Redis:       redisCfg,
		Kafka:       loadKafkaConfig(),
		Paystack:    paystackCfg,
		Checkout:    checkoutCfg,
		Idempotency: idemCfg,
		Telemetry:   telCfg,
		Service:     loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
		CORSOrigins:   getListEnv("API_CORS_ORIGINS"),
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadRedisConfig() (RedisConfig, error) {
	db, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	ttlHours, err := getIntEnv("CART_TTL_HOURS", defaultCartTTLHours)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		CartTTL:  time.Duration(ttlHours) * time.Hour,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:            getListEnv("KAFKA_BROKERS"),
		NotificationsTopic: getEnvOrDefault("KAFKA_NOTIFICATIONS_TOPIC", defaultNotificationsTopic),
	}
}

func loadPaystackConfig() (PaystackConfig, error) {
	timeout, err := getIntEnv("PAYSTACK_TIMEOUT_SECONDS", defaultPaystackTimeout)
	if err != nil {
		return PaystackConfig{}, err
	}

	return PaystackConfig{
		SecretKey:   os.Getenv("PAYSTACK_SECRET_KEY"),
		BaseURL:     getEnvOrDefault("PAYSTACK_BASE_URL", defaultPaystackBaseURL),
		CallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
		Timeout:     time.Duration(timeout) * time.Second,
	}, nil
}

func loadCheckoutConfig() (CheckoutConfig, error) {
	taxRate, err := decimal.NewFromString(getEnvOrDefault("CHECKOUT_TAX_RATE", defaultTaxRate))
	if err != nil {
		return CheckoutConfig{}, fmt.Errorf("invalid CHECKOUT_TAX_RATE: %w", err)
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return CheckoutConfig{}, fmt.Errorf("invalid CHECKOUT_TAX_RATE: %s is not a fraction", taxRate)
	}

	fee, err := decimal.NewFromString(getEnvOrDefault("CHECKOUT_DEFAULT_DELIVERY_FEE", defaultDeliveryFee))
	if err != nil {
		return CheckoutConfig{}, fmt.Errorf("invalid CHECKOUT_DEFAULT_DELIVERY_FEE: %w", err)
	}
	if fee.IsNegative() {
		return CheckoutConfig{}, fmt.Errorf("invalid CHECKOUT_DEFAULT_DELIVERY_FEE: %s is negative", fee)
	}

	rps := defaultPreviewRPS
	if value, ok := os.LookupEnv("COUPON_PREVIEW_RPS"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return CheckoutConfig{}, fmt.Errorf("invalid COUPON_PREVIEW_RPS: %w", err)
		}
		rps = parsed
	}

	burst, err := getIntEnv("COUPON_PREVIEW_BURST", defaultPreviewBurst)
	if err != nil {
		return CheckoutConfig{}, err
	}

	return CheckoutConfig{
		TaxRate:            taxRate,
		DefaultDeliveryFee: fee,
		PublicBaseURL:      getEnvOrDefault("PUBLIC_BASE_URL", defaultPublicBaseURL),
		PreviewRPS:         rps,
		PreviewBurst:       burst,
	}, nil
}

func loadIdempotencyConfig() (IdempotencyConfig, error) {
	hours, err := getIntEnv("IDEMPOTENCY_TTL_HOURS", defaultIdempotencyTTL)
	if err != nil {
		return IdempotencyConfig{}, err
	}
	return IdempotencyConfig{TTL: time.Duration(hours) * time.Hour}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelInsecure:  getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", true),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "foodorder")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getListEnv(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
