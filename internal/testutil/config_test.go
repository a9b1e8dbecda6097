package testutil

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to local test database port 55432", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "")
		t.Setenv("TEST_DB_PORT", "")
		t.Setenv("TEST_DB_USER", "")
		t.Setenv("TEST_DB_PASSWORD", "")
		t.Setenv("TEST_DB_NAME", "")

		cfg := DefaultTestDBConfig()
		if cfg.Host != "localhost" || cfg.Port != "55432" {
			t.Errorf("unexpected host/port: %s:%s", cfg.Host, cfg.Port)
		}
		if cfg.User != "portal" || cfg.Password != "portal" || cfg.DBName != "portal" {
			t.Errorf("unexpected credentials: %+v", cfg)
		}
	})

	t.Run("respects TEST_DB_PORT environment variable", func(t *testing.T) {
		t.Setenv("TEST_DB_PORT", "5432")
		if cfg := DefaultTestDBConfig(); cfg.Port != "5432" {
			t.Errorf("expected port 5432, got %s", cfg.Port)
		}
	})
}

func TestBuildBaseDSN(t *testing.T) {
	t.Setenv("DB_SSL_MODE", "")
	dsn := buildBaseDSN(TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n"})
	if dsn != "postgres://u:p@db:5432/n?sslmode=disable" {
		t.Errorf("unexpected dsn %q", dsn)
	}
}

func TestGenerateSchemaName(t *testing.T) {
	a, b := generateSchemaName(), generateSchemaName()
	if !strings.HasPrefix(a, "t_") || a == b {
		t.Errorf("expected unique prefixed schema names, got %q and %q", a, b)
	}
}

func TestFixedTimeFunc(t *testing.T) {
	ts := TestTime()
	fn := FixedTimeFunc(ts)
	if !fn().Equal(ts) || !fn().Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected fixed time %v", fn())
	}
}
