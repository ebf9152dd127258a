package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "dbhost")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("TELEGRAM_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Host != "dbhost" {
		t.Fatalf("host = %q", cfg.Database.Host)
	}
	if cfg.Database.MaxConns != 4 {
		t.Fatalf("max conns = %d", cfg.Database.MaxConns)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session ttl = %s", cfg.SessionTTL)
	}
	if err := cfg.RequireToken(); err != nil {
		t.Fatalf("token should be present: %v", err)
	}
}

func TestRequireToken(t *testing.T) {
	var a App
	if err := a.RequireToken(); err == nil {
		t.Fatal("missing token should be rejected in bot mode")
	}
	a.BotToken = "tok"
	if err := a.RequireToken(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
