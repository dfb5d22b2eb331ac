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
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	Payment struct {
		Gateway              string        `yaml:"gateway"` // stripe or mock
		StripeSecretKey      string        `yaml:"stripe_secret_key"`
		StripePublishableKey string        `yaml:"stripe_publishable_key"`
		Currency             string        `yaml:"currency"`
		BreakerFailures      uint32        `yaml:"breaker_failures"`
		BreakerTimeout       time.Duration `yaml:"breaker_timeout"`
	} `yaml:"payment"`

	Checkout struct {
		TaxRate string `yaml:"tax_rate"`
	} `yaml:"checkout"`

	Receipt struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"receipt"`

	Cache struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Idempotency struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"idempotency"`
}

func Default() *Config {
	c := &Config{}
	c.Server.Port = "5000"
	c.Server.RequestTimeout = 5 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Log.Level = "info"
	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.Database = "qless"
	c.Redis.Addr = "localhost:6379"
	c.Kafka.Topic = "transaction-events"
	c.Payment.Gateway = "stripe"
	c.Payment.Currency = "usd"
	c.Payment.BreakerFailures = 5
	c.Payment.BreakerTimeout = 30 * time.Second
	c.Checkout.TaxRate = "0"
	c.Receipt.TTL = 7 * 24 * time.Hour
	c.Cache.TTL = 5 * time.Minute
	c.Idempotency.TTL = 24 * time.Hour
	return c
}

// Load layers configuration: defaults, then the YAML file at path, then the
// env file, then process environment. Empty paths are skipped.
func Load(path, envFile string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// optional
		_ = godotenv.Load()
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.JWT.Secret = getEnv("JWT_SECRET", c.JWT.Secret)
	c.Payment.Gateway = getEnv("PAYMENT_GATEWAY", c.Payment.Gateway)
	c.Payment.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", c.Payment.StripeSecretKey)
	c.Payment.StripePublishableKey = getEnv("STRIPE_PUBLISHABLE_KEY", c.Payment.StripePublishableKey)
	c.Payment.Currency = getEnv("CURRENCY", c.Payment.Currency)
	c.Checkout.TaxRate = getEnv("TAX_RATE", c.Checkout.TaxRate)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	var errs []error
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid REDIS_DB: %w", err))
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("BREAKER_FAILURES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid BREAKER_FAILURES: %w", err))
		}
		c.Payment.BreakerFailures = uint32(n)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", &c.Server.RequestTimeout},
		{"SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout},
		{"BREAKER_TIMEOUT", &c.Payment.BreakerTimeout},
		{"RECEIPT_TTL", &c.Receipt.TTL},
		{"CACHE_TTL", &c.Cache.TTL},
		{"IDEMPOTENCY_TTL", &c.Idempotency.TTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", d.key, err))
			continue
		}
		*d.dst = parsed
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	rate, err := c.TaxRate()
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate must be in [0, 1), got %s", rate)
	}
	switch c.Payment.Gateway {
	case "stripe":
		if c.Payment.StripeSecretKey == "" {
			return errors.New("STRIPE_SECRET_KEY is required when PAYMENT_GATEWAY=stripe")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown payment gateway %q", c.Payment.Gateway)
	}
	if c.Receipt.TTL <= 0 {
		return errors.New("receipt ttl must be positive")
	}
	return nil
}

func (c *Config) TaxRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.Checkout.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", c.Checkout.TaxRate, err)
	}
	return rate, nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
