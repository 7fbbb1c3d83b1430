package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	HookSecret  string `envconfig:"HOOK_SECRET"` // empty disables the hook secret check
	AppBaseURL  string `envconfig:"APP_BASE_URL" default:"/"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `envconfig:"VAPID_SUBJECT"`
	PushTTLSeconds  int    `envconfig:"PUSH_TTL_SECONDS" default:"86400"`

	CronSpecMainReminder string `envconfig:"CRON_SPEC_MAIN_REMINDER" default:"* * * * *"`
	CronSpecFollowUp     string `envconfig:"CRON_SPEC_FOLLOW_UP" default:"* * * * *"`

	RedisAddr     string `envconfig:"REDIS_ADDR"` // empty keeps cancellations in Postgres
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	TelegramToken   string `envconfig:"TELEGRAM_TOKEN"` // empty disables the operator bot
	AdminTelegramID int64  `envconfig:"ADMIN_TELEGRAM_ID"`
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Environment = strings.ToLower(cfg.Environment)

	if cfg.PushTTLSeconds < 0 {
		return nil, fmt.Errorf("PUSH_TTL_SECONDS must not be negative, got %d", cfg.PushTTLSeconds)
	}
	if cfg.TelegramToken != "" && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

func (c *AppConfig) PushTTL() time.Duration {
	return time.Duration(c.PushTTLSeconds) * time.Second
}

func (c *AppConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}
