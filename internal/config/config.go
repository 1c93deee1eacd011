package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/config"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/database"
)

// minSigningKeyBytes is the smallest acceptable decoded JWT secret. Anything
// shorter is trivially brute-forceable for HS256.
const minSigningKeyBytes = 32

// Config holds all service configuration, loaded from environment variables.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"authapp"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`

	// JWTSecret is the base64-encoded HS256 signing key. Required outside
	// development; the decoded key must be at least 32 bytes.
	JWTSecret   string `env:"JWT_SECRET"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"authapp"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authapp-clients"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	HashIterations  int           `env:"HASH_ITERATIONS" envDefault:"210000"`

	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:4200"`

	// signingKey is the decoded JWT secret, populated by Load.
	signingKey []byte
}

// Load reads configuration from the environment and validates it. A missing
// or undersized signing key outside development is a fatal startup error.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("JWT_SECRET is required in %s", cfg.Environment)
		}
		// Fixed development-only key so local restarts keep sessions valid.
		cfg.JWTSecret = base64.StdEncoding.EncodeToString(
			[]byte("authapp-development-signing-key!"))
	}

	key, err := base64.StdEncoding.DecodeString(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is not valid base64: %w", err)
	}
	if len(key) < minSigningKeyBytes {
		return nil, fmt.Errorf("JWT_SECRET decodes to %d bytes, need at least %d", len(key), minSigningKeyBytes)
	}
	cfg.signingKey = key

	return cfg, nil
}

// SigningKey returns the decoded JWT signing key.
func (c *Config) SigningKey() []byte {
	return c.signingKey
}

// Postgres returns the connection pool configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
