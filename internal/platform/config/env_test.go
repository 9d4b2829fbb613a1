package config

import "testing"

type testConfig struct {
	Token    string `env:"RITUAL_WAR_TEST_TOKEN"`
	Database string `env:"RITUAL_WAR_TEST_DB" envDefault:"ritual_war.db"`
}

func TestParseEnv(t *testing.T) {
	t.Setenv("RITUAL_WAR_TEST_TOKEN", "abc123")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Token != "abc123" {
		t.Fatalf("expected token abc123, got %q", cfg.Token)
	}
	if cfg.Database != "ritual_war.db" {
		t.Fatalf("expected default database path, got %q", cfg.Database)
	}
}

func TestParseEnvOverridesDefault(t *testing.T) {
	t.Setenv("RITUAL_WAR_TEST_DB", "/tmp/other.db")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Database != "/tmp/other.db" {
		t.Fatalf("expected overridden database path, got %q", cfg.Database)
	}
}
