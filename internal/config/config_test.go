package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "KAFKA_BROKERS", "RATE_LIMIT_RPS", "ADMIN_CHECK_TIMEOUT", "CACHE_TTL", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("expected no brokers, got %v", cfg.KafkaBrokers)
	}
	if cfg.RateLimitRPS != 20 {
		t.Errorf("expected 20 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.AdminTimeout != 6*time.Second {
		t.Errorf("expected 6s admin timeout, got %v", cfg.AdminTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("CACHE_TTL", "1m")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 40 {
		t.Errorf("expected fallback burst 40, got %d", cfg.RateLimitBurst)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("expected 1m ttl, got %v", cfg.CacheTTL)
	}
}
