package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Culqi    CulqiConfig    `mapstructure:"culqi"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Queue         string        `mapstructure:"queue"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	MaxInFlight   int           `mapstructure:"max_in_flight"` // concurrent requests per responder
}

// StorageConfig selects the backend for configuration records and the
// indexed audit log: "dynamodb" or "postgres".
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AWSConfig struct {
	Region           string `mapstructure:"region"`
	S3Bucket         string `mapstructure:"s3_bucket"`
	ConfigTable      string `mapstructure:"config_table"`
	AuditTable       string `mapstructure:"audit_table"`
	EndpointOverride string `mapstructure:"endpoint_override"` // localstack / dynamodb-local
}

type CryptoConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type AuditConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryStep      time.Duration `mapstructure:"retry_step"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	QueueSize      int           `mapstructure:"queue_size"`
	Workers        int           `mapstructure:"workers"`
}

type StripeConfig struct {
	SuccessURL string `mapstructure:"success_url"`
	CancelURL  string `mapstructure:"cancel_url"`
	// EventTTL bounds how long a processed webhook event id is remembered.
	EventTTL time.Duration `mapstructure:"event_ttl"`
}

type CulqiConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DefaultEmail string        `mapstructure:"default_email"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: PB_ (Payment Broker).
// Nested keys use underscore: PB_CRYPTO_KEY, PB_AWS_S3_BUCKET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3003)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.queue", "payments-ms")
	v.SetDefault("nats.reconnect_wait", "3s")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.max_in_flight", 64)
	v.SetDefault("storage.driver", "dynamodb")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "payments")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3_bucket", "payment-audit-logs")
	v.SetDefault("aws.config_table", "payment_configs")
	v.SetDefault("aws.audit_table", "payment_audit_logs")
	v.SetDefault("aws.endpoint_override", "")
	v.SetDefault("crypto.key", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("audit.max_attempts", 3)
	v.SetDefault("audit.retry_step", "1s")
	v.SetDefault("audit.attempt_timeout", "5s")
	v.SetDefault("audit.queue_size", 256)
	v.SetDefault("audit.workers", 4)
	v.SetDefault("stripe.success_url", "")
	v.SetDefault("stripe.cancel_url", "")
	v.SetDefault("stripe.event_ttl", "72h")
	v.SetDefault("culqi.base_url", "https://api.culqi.com/v2")
	v.SetDefault("culqi.timeout", "8s")
	v.SetDefault("culqi.default_email", "guest@qehay.app")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: PB_AWS_S3_BUCKET -> aws.s3_bucket
	v.SetEnvPrefix("PB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "dynamodb", "postgres":
	default:
		return fmt.Errorf("storage.driver must be dynamodb or postgres, got %q", c.Storage.Driver)
	}
	if c.Audit.MaxAttempts < 1 {
		return fmt.Errorf("audit.max_attempts must be at least 1")
	}
	if c.Audit.Workers < 1 {
		return fmt.Errorf("audit.workers must be at least 1")
	}
	return nil
}
