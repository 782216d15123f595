package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settler.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "server"
log_level = "debug"

[postgres]
dsn = "postgres://settler:pw@db:5432/settler"

[scanner]
interval = "90s"

[fees]
platform_fee_rate = 0.2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mode != "server" || cfg.LogLevel != "debug" {
		t.Errorf("mode/log_level = %q/%q, want server/debug", cfg.Mode, cfg.LogLevel)
	}
	if cfg.Postgres.DSN != "postgres://settler:pw@db:5432/settler" {
		t.Errorf("dsn = %q", cfg.Postgres.DSN)
	}
	if cfg.Scanner.Interval.Duration != 90*time.Second {
		t.Errorf("scanner interval = %v, want 90s", cfg.Scanner.Interval.Duration)
	}
	if cfg.Fees.PlatformFeeRate != 0.2 {
		t.Errorf("platform fee = %v, want 0.2", cfg.Fees.PlatformFeeRate)
	}
	// Untouched defaults survive.
	if cfg.Server.Port != 8000 {
		t.Errorf("server port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[postgres]
dsn = "postgres://file/dsn"
`)

	t.Setenv("SETTLER_POSTGRES_DSN", "postgres://env/dsn")
	t.Setenv("SETTLER_SERVER_PORT", "9001")
	t.Setenv("SETTLER_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SETTLER_SCANNER_INTERVAL", "5m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://env/dsn" {
		t.Errorf("dsn = %q, env must win over file", cfg.Postgres.DSN)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Scanner.Interval.Duration != 5*time.Minute {
		t.Errorf("scanner interval = %v, want 5m", cfg.Scanner.Interval.Duration)
	}
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "bogus"
	cfg.Server.Port = 0
	cfg.Fees.TreasuryShare = 0.5 // split no longer sums to 1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate must fail")
	}
	for _, want := range []string{"unknown mode", "invalid port", "fan-out fractions"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "hunter2"
	cfg.Server.APIKey = "sekrit"
	cfg.Notify.TelegramToken = "tok"

	red := RedactedConfig(&cfg)
	if red.Postgres.Password != "***" || red.Server.APIKey != "***" || red.Notify.TelegramToken != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Error("original config mutated")
	}
}
