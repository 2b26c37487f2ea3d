package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saree-crm/saree-crm/internal/platform/db"
)

// DefaultSecretKey is only acceptable outside production.
const DefaultSecretKey = "change-this-secret"

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":5000"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	DBDriver string `envconfig:"SAREE_DB_DRIVER" default:"sqlite3"`
	DBDSN    string `envconfig:"SAREE_DB" default:"saree.db"`

	LogFile   string `envconfig:"SAREE_LOG" default:"crm.log"`
	Debug     bool   `envconfig:"SAREE_DEBUG" default:"false"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	SecretKey  string        `envconfig:"SECRET_KEY" default:"change-this-secret"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	FollowUpScanCron   string        `envconfig:"FOLLOWUP_SCAN_CRON" default:"*/30 * * * *"`
	FollowUpLookahead  time.Duration `envconfig:"FOLLOWUP_LOOKAHEAD" default:"24h"`
}

// LoadConfig reads configuration from a .env file, if any, and the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if _, err := db.ParseDialect(c.DBDriver); err != nil {
		return err
	}
	if c.DBDSN == "" {
		return errors.New("store location must be provided")
	}
	if c.SecretKey == "" {
		return errors.New("secret key must be provided")
	}
	if c.IsProduction() && c.SecretKey == DefaultSecretKey {
		return errors.New("secret key must be changed in production")
	}
	if c.FollowUpLookahead < 0 {
		return errors.New("follow-up lookahead cannot be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
