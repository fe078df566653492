package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SATUSEHAT_TOKEN_CACHE_TTL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.TokenCacheTTL != 50*time.Minute {
		t.Fatalf("expected default token cache TTL, got %s", cfg.TokenCacheTTL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected default request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.RedisTLS {
		t.Fatal("expected redis TLS disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/klinika")
	t.Setenv("SATUSEHAT_AUTH_URL", "https://api-satusehat.kemkes.go.id/oauth2/v1")
	t.Setenv("SATUSEHAT_BASE_URL", "https://api-satusehat.kemkes.go.id/fhir-r4/v1")
	t.Setenv("SATUSEHAT_ORG_ID", "org-100012345")
	t.Setenv("SATUSEHAT_TOKEN_CACHE_TTL", "45m")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/klinika" {
		t.Fatalf("unexpected database url %s", cfg.DatabaseURL)
	}
	if cfg.SatuSehatOrgID != "org-100012345" {
		t.Fatalf("unexpected org id %s", cfg.SatuSehatOrgID)
	}
	if cfg.TokenCacheTTL != 45*time.Minute {
		t.Fatalf("expected TTL override, got %s", cfg.TokenCacheTTL)
	}
	if !cfg.RedisTLS {
		t.Fatal("expected redis TLS enabled")
	}
}
