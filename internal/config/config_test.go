package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/negotiations")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected development default")
	}
	if cfg.DefaultMaxCycles != 3 {
		t.Errorf("expected default max cycles 3, got %d", cfg.DefaultMaxCycles)
	}
	if cfg.DirectorThreshold != 50000 {
		t.Errorf("expected default director threshold 50000, got %f", cfg.DirectorThreshold)
	}
	if cfg.ExpirySweepEvery != time.Hour {
		t.Errorf("expected default sweep interval 1h, got %s", cfg.ExpirySweepEvery)
	}
}

func TestValidate_ProductionNeedsAuth(t *testing.T) {
	cfg := &Config{Env: "production", DefaultMaxCycles: 3, ExpirySweepEvery: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without auth configuration")
	}

	cfg.AuthIssuer = "https://auth.example.com/realms/negotiations"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsDevSecretInProduction(t *testing.T) {
	cfg := &Config{
		Env:              "production",
		AuthIssuer:       "https://auth.example.com",
		DevJWTSecret:     "shhh",
		DefaultMaxCycles: 3,
		ExpirySweepEvery: time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for dev secret in production")
	}
}

func TestValidate_PolicyBounds(t *testing.T) {
	cfg := &Config{Env: "development", DefaultMaxCycles: 0, ExpirySweepEvery: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero max cycles")
	}
	cfg = &Config{Env: "development", DefaultMaxCycles: 3, DirectorThreshold: -1, ExpirySweepEvery: time.Hour}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative threshold")
	}
}
