package config

import (
	"strings"
	"testing"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg Visitor
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DataDir != "./data" || cfg.Profile != "default" || cfg.Page != "/" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Addr != "" || cfg.Endpoint != "" {
		t.Fatalf("expected empty optional settings, got %+v", cfg)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("CELERIX_STORE_ADDR", "127.0.0.1:7001")
	t.Setenv("CELERIX_AB_PROFILE", "tab-2")
	t.Setenv("CELERIX_AB_ENDPOINT", "https://example.com/exec")

	var cfg Visitor
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7001" || cfg.Profile != "tab-2" || cfg.Endpoint != "https://example.com/exec" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseEnvDaemon(t *testing.T) {
	t.Setenv("CELERIX_HTTP_PORT", "9000")

	var cfg Daemon
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != "7001" || cfg.HTTPPort != "9000" || cfg.LogJSON {
		t.Fatalf("unexpected daemon config %+v", cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("CELERIX_LOG_JSON", "not-a-bool")

	var cfg Daemon
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
