package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	DB         DatabaseConfig
	Redis      RedisConfig
	Pricing    PricingConfig
	Cart       CartConfig
	Kafka      KafkaConfig
	Worker     WorkerConfig
	AWS        AWSConfig
	Moderation ModerationConfig
	CORS       CORSConfig
}

// CORSConfig lists the browser origins allowed to call the API with
// credentials. An entry may use a subdomain wildcard: https://*.robinhoot.com
type CORSConfig struct {
	AllowedOrigins []string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationsDir string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PricingConfig contains the pricing floors and quote cache TTL.
type PricingConfig struct {
	StockFloor decimal.Decimal
	FinalFloor decimal.Decimal
	QuoteTTL   time.Duration
}

// CartConfig contains cart storage parameters.
type CartConfig struct {
	TTL time.Duration
}

// KafkaConfig contains the order event consumer settings. An empty broker
// list disables the consumer.
type KafkaConfig struct {
	Brokers    []string
	OrderTopic string
	GroupID    string
}

// WorkerConfig contains schedule configuration for background workers.
type WorkerConfig struct {
	RepriceInterval time.Duration
	DealExpiryCron  string
}

// AWSConfig contains credentials used for banner moderation.
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// ModerationConfig contains banner image moderation settings.
type ModerationConfig struct {
	Bucket        string
	MinConfidence float64
}

// Enabled reports whether AWS credentials are configured.
func (a AWSConfig) Enabled() bool {
	return a.AccessKeyID != "" && a.SecretAccessKey != ""
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Missing .env is fine: production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:          getEnv("DB_HOST", ""),
		Port:          getEnv("DB_PORT", "5432"),
		User:          getEnv("DB_USER", ""),
		Password:      getEnv("DB_PASSWORD", ""),
		Name:          getEnv("DB_NAME", ""),
		SSLMode:       getEnv("DB_SSLMODE", "disable"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Kafka
	cfg.Kafka = KafkaConfig{
		Brokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		OrderTopic: getEnv("ORDER_TOPIC", "order-topic"),
		GroupID:    getEnv("KAFKA_GROUP_ID", "robinhoot-pricing"),
	}

	// AWS (banner moderation)
	cfg.AWS = AWSConfig{
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Region:          getEnv("AWS_REGION", "ap-southeast-1"),
	}
	cfg.Moderation = ModerationConfig{
		Bucket:        getEnv("ASSET_BUCKET", "robinhoot-assets"),
		MinConfidence: getEnvFloat("MODERATION_MIN_CONFIDENCE", 80),
	}

	cfg.Worker.DealExpiryCron = getEnv("DEAL_EXPIRY_CRON", "0 0 * * *")

	cfg.CORS.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS",
		"http://localhost:3000,http://127.0.0.1:3000,https://robinhoot.com,https://*.robinhoot.com"))

	// Durations
	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Pricing.QuoteTTL, err = parseDurationEnv("PRICE_CACHE_TTL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid PRICE_CACHE_TTL: %w", err)
	}
	if cfg.Cart.TTL, err = parseDurationEnv("CART_TTL", "168h"); err != nil {
		return nil, fmt.Errorf("invalid CART_TTL: %w", err)
	}
	if cfg.Worker.RepriceInterval, err = parseDurationEnv("REPRICE_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid REPRICE_INTERVAL: %w", err)
	}

	// Pricing floors
	if cfg.Pricing.StockFloor, err = parseFractionEnv("PRICING_STOCK_FLOOR", "0.5"); err != nil {
		return nil, fmt.Errorf("invalid PRICING_STOCK_FLOOR: %w", err)
	}
	if cfg.Pricing.FinalFloor, err = parseFractionEnv("PRICING_FINAL_FLOOR", "0.5"); err != nil {
		return nil, fmt.Errorf("invalid PRICING_FINAL_FLOOR: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

// parseFractionEnv reads a decimal in [0, 1].
func parseFractionEnv(key, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, def))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("fraction must be between 0 and 1")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
