package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LLM_PROVIDER", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected default llm provider, got %s", cfg.LLMProvider)
	}
	if cfg.IdleTimeout != 5*time.Minute {
		t.Fatalf("expected default idle timeout, got %s", cfg.IdleTimeout)
	}
	if cfg.HistoryDepth != 5 {
		t.Fatalf("expected default history depth, got %d", cfg.HistoryDepth)
	}
	if cfg.ClassifierTimeout != 10*time.Second {
		t.Fatalf("expected default classifier timeout, got %s", cfg.ClassifierTimeout)
	}
	if !cfg.ClassifierCache {
		t.Fatalf("expected classifier cache enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SOURCE_DATABASE_URL", "postgres://user@host/prcau")
	t.Setenv("LOCAL_DATABASE_URL", "postgres://user@host/decsaexc")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("DIALOG_IDLE_TIMEOUT", "2m")
	t.Setenv("HISTORY_DEPTH", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.SourceDatabaseURL != "postgres://user@host/prcau" {
		t.Fatalf("expected source db override, got %s", cfg.SourceDatabaseURL)
	}
	if cfg.LocalDatabaseURL != "postgres://user@host/decsaexc" {
		t.Fatalf("expected local db override, got %s", cfg.LocalDatabaseURL)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected provider lowered, got %s", cfg.LLMProvider)
	}
	if cfg.IdleTimeout != 2*time.Minute {
		t.Fatalf("expected idle timeout override, got %s", cfg.IdleTimeout)
	}
	if cfg.HistoryDepth != 8 {
		t.Fatalf("expected history depth override, got %d", cfg.HistoryDepth)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected cors origins parsed, got %v", cfg.CORSAllowedOrigins)
	}
}
