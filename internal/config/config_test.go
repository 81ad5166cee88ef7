package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "robinhoot")
	t.Setenv("DB_NAME", "robinhoot")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port: got %s", cfg.Port)
	}
	if cfg.Pricing.StockFloor.String() != "0.5" || cfg.Pricing.FinalFloor.String() != "0.5" {
		t.Errorf("floors: got %s / %s", cfg.Pricing.StockFloor, cfg.Pricing.FinalFloor)
	}
	if cfg.Worker.RepriceInterval != 5*time.Minute {
		t.Errorf("reprice interval: got %s", cfg.Worker.RepriceInterval)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("kafka brokers should default to empty, got %v", cfg.Kafka.Brokers)
	}
	if cfg.AWS.Enabled() {
		t.Error("AWS should be disabled without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PRICING_STOCK_FLOOR", "0.1")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REPRICE_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pricing.StockFloor.String() != "0.1" {
		t.Errorf("stock floor: got %s", cfg.Pricing.StockFloor)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers: got %v", cfg.Kafka.Brokers)
	}
	if cfg.Worker.RepriceInterval != 30*time.Second {
		t.Errorf("reprice interval: got %s", cfg.Worker.RepriceInterval)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://shop.example.com" {
		t.Errorf("cors origins: got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "floor above one", key: "PRICING_FINAL_FLOOR", val: "1.2"},
		{name: "floor not a number", key: "PRICING_STOCK_FLOOR", val: "half"},
		{name: "bad duration", key: "PRICE_CACHE_TTL", val: "soon"},
		{name: "missing jwt secret", key: "JWT_SECRET", val: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
