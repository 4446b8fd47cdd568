package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
	SMTP  SMTPConfig
}

// AuthConfig holds the security tunables of the credential manager. Defaults
// mirror the documented policy; JWT_SECRET intentionally has no default.
type AuthConfig struct {
	TokenTTL         time.Duration `env:"TOKEN_TTL,         default=15m"`
	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD, default=5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION,  default=15m"`
	OTPLength        int           `env:"OTP_LENGTH,        default=6"`
	OTPTTL           time.Duration `env:"OTP_TTL,           default=5m"`
	OTPMaxAttempts   int           `env:"OTP_MAX_ATTEMPTS,  default=5"`
	BcryptCost       int           `env:"BCRYPT_COST,       default=12"`
	DeliveryTimeout  time.Duration `env:"DELIVERY_TIMEOUT,  default=10s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=kickoff_store"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	return &cfg, nil
}
