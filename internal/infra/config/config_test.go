package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reminders")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Environment != "development" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected ambient defaults: %+v", cfg)
	}
	if cfg.CronSpecMainReminder != "* * * * *" || cfg.CronSpecFollowUp != "* * * * *" {
		t.Fatalf("unexpected cron defaults: %q %q", cfg.CronSpecMainReminder, cfg.CronSpecFollowUp)
	}
	if cfg.PushTTL() != 24*time.Hour || cfg.AppBaseURL != "/" {
		t.Fatalf("unexpected push defaults: ttl %s url %q", cfg.PushTTL(), cfg.AppBaseURL)
	}
	if cfg.BotEnabled() || cfg.RedisAddr != "" {
		t.Fatal("bot and redis must be off by default")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"bad ttl", map[string]string{"PUSH_TTL_SECONDS": "-1"}, "PUSH_TTL_SECONDS"},
		{"bot without admin", map[string]string{"TELEGRAM_TOKEN": "123:abc"}, "ADMIN_TELEGRAM_ID"},
		{"non-numeric admin", map[string]string{"ADMIN_TELEGRAM_ID": "me"}, "ADMIN_TELEGRAM_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/reminders")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("want error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
