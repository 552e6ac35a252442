package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Recovery_Tracker/pkg/middleware"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	// Development mode must be asked for with APP_ENV=development.
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Empty MONGO_URI selects the in-memory store; only allowed in development.
	MongoURI string `envconfig:"MONGO_URI"`
	MongoDB  string `envconfig:"MONGO_DB" default:"recovery_tracker"`

	JWTSecret   string        `envconfig:"JWT_SECRET"`
	TokenExpiry time.Duration `envconfig:"TOKEN_EXPIRY" default:"72h"`

	// The sentinel bearer token accepted as DevUserID in development only.
	DevAuthToken string `envconfig:"DEV_AUTH_TOKEN" default:"dev-token"`
	DevUserID    string `envconfig:"DEV_USER_ID" default:"dev-user"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8081"`

	MilestoneSweepSpec string `envconfig:"MILESTONE_SWEEP_SPEC" default:"@every 1h"`

	AuthRatePerMin float64 `envconfig:"AUTH_RATE_PER_MIN" default:"20"`
	AuthRateBurst  int     `envconfig:"AUTH_RATE_BURST" default:"5"`

	// Addresses or CIDR ranges of reverse proxies whose forwarding headers
	// are believed when keying the rate limiter. Empty trusts none.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPSender   string `envconfig:"SMTP_SENDER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment alone.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	if c.AppEnv == "" {
		c.AppEnv = EnvProduction
	}
	if _, err := middleware.ParseProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if c.IsDevelopment() {
		if c.JWTSecret == "" {
			c.JWTSecret = "dev-secret"
		}
		return nil
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside development")
	}
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required outside development")
	}
	return nil
}
