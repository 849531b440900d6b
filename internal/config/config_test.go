package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_ADDR", "KAFKA_BROKERS", "CHECKOUT_TAX_RATE", "API_HTTP_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTP.Port != defaultHTTPPort {
		t.Errorf("expected port %d, got %d", defaultHTTPPort, cfg.HTTP.Port)
	}
	if !cfg.Checkout.TaxRate.Equal(decimal.RequireFromString("0.075")) {
		t.Errorf("expected 7.5%% tax, got %s", cfg.Checkout.TaxRate)
	}
	if !cfg.Checkout.DefaultDeliveryFee.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected default fee 500, got %s", cfg.Checkout.DefaultDeliveryFee)
	}
	if cfg.Redis.CartTTL != 7*24*time.Hour {
		t.Errorf("expected seven day cart ttl, got %s", cfg.Redis.CartTTL)
	}
	if cfg.Kafka.Brokers != nil {
		t.Errorf("expected no brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.NotificationsTopic != "orders.notifications" {
		t.Errorf("unexpected topic %q", cfg.Kafka.NotificationsTopic)
	}
	if cfg.Paystack.Timeout != 10*time.Second {
		t.Errorf("expected 10s gateway timeout, got %s", cfg.Paystack.Timeout)
	}
	if !strings.HasPrefix(cfg.Database.URL, "postgres://") {
		t.Errorf("expected built database url, got %q", cfg.Database.URL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_HTTP_PORT", "9090")
	t.Setenv("API_CORS_ORIGINS", "https://food.example.com, https://admin.example.com")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CHECKOUT_TAX_RATE", "0.05")
	t.Setenv("CART_TTL_HOURS", "48")
	t.Setenv("COUPON_PREVIEW_RPS", "0.5")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/foodorder")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if len(cfg.HTTP.CORSOrigins) != 2 || cfg.HTTP.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("unexpected origins %v", cfg.HTTP.CORSOrigins)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if !cfg.Checkout.TaxRate.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("unexpected tax rate %s", cfg.Checkout.TaxRate)
	}
	if cfg.Redis.CartTTL != 48*time.Hour {
		t.Errorf("unexpected cart ttl %s", cfg.Redis.CartTTL)
	}
	if cfg.Checkout.PreviewRPS != 0.5 {
		t.Errorf("unexpected preview rate %v", cfg.Checkout.PreviewRPS)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/foodorder" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"API_HTTP_PORT":                 "eighty",
		"CHECKOUT_TAX_RATE":             "1.5",
		"CHECKOUT_DEFAULT_DELIVERY_FEE": "-1",
		"OTEL_SAMPLE_RATE":              "most",
		"REDIS_DB":                      "zero",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("expected error naming %s, got %v", key, err)
			}
		})
	}
}
