package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("COINGECKO_POLL_SECS", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("BOT_SCAN_SECS", "")

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.CoinGeckoPollSecs != 60 {
		t.Fatalf("expected default poll secs 60, got %d", cfg.CoinGeckoPollSecs)
	}
	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %s", cfg.OpenAIModel)
	}
	if cfg.BotScanSecs != 2 || cfg.BotAutoExecSecs != 3 || cfg.BotLogBuffer != 100 {
		t.Fatalf("unexpected bot defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("COINGECKO_POLL_SECS", "120")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("BOT_SCAN_SECS", "5")

	cfg := Load()
	if cfg.TelegramBotToken != "token" || cfg.DatabaseURL != "postgres://example" || cfg.RedisURL != "redis:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.CoinGeckoPollSecs != 120 || cfg.HTTPPort != 9000 || cfg.BotScanSecs != 5 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("COINGECKO_POLL_SECS", "bad")
	t.Setenv("HTTP_PORT", "-1")
	cfg = Load()
	if cfg.CoinGeckoPollSecs != 60 || cfg.HTTPPort != 8080 {
		t.Fatalf("invalid values should fall back to defaults, got %+v", cfg)
	}
}
