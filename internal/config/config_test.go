package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"APP_ENV", "APP_PORT", "LOOKUP_TABLES_PATH", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err)
		}
	}
}

func validConfig(env string) Config {
	return Config{
		App:    AppConfig{Env: env, Port: 8080},
		Lookup: LookupConfig{TablesPath: "tables.yaml"},
		Auth:   AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_DBAndRedisOptional(t *testing.T) {
	c := validConfig("local")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DBEnabled() || c.RedisEnabled() {
		t.Fatalf("db and redis must be disabled without hosts")
	}
	if c.Reconcile.MaxConcurrentPerClient != 2 || c.Reconcile.CacheTTL != 15*time.Minute {
		t.Fatalf("unexpected reconcile defaults: %+v", c.Reconcile)
	}
	if c.App.MaxUploadBytes != 32<<20 {
		t.Fatalf("unexpected upload limit %d", c.App.MaxUploadBytes)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig("production")
	c.Auth.JWTIssuer, c.Auth.JWTAudience = "iss", "aud"
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "cdr"}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected error for production without DB_SSLMODE, got %v", err)
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig("local")
	c.DB = DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "cdr"}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("LOOKUP_TABLES_PATH", "/etc/cdr/tables.yaml")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("RECONCILE_CACHE_TTL", "1h")
	t.Setenv("DB_HOST", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.HTTPAddr() != ":9090" || c.RedisAddr() != "cache:6379" || c.Reconcile.CacheTTL != time.Hour {
		t.Fatalf("unexpected config %+v", c)
	}
}

func TestLoad_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("LOOKUP_TABLES_PATH", "/etc/cdr/tables.yaml")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("RECONCILE_CACHE_TTL", "15")
	t.Setenv("DB_HOST", "")
	t.Setenv("REDIS_HOST", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"APP_PORT", "RECONCILE_CACHE_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got %v", key, err)
		}
	}
}

func TestLoad_SlotTTLDefault(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("LOOKUP_TABLES_PATH", "/etc/cdr/tables.yaml")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("RECONCILE_SLOT_TTL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("REDIS_HOST", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Reconcile.SlotTTL != 10*time.Minute {
		t.Fatalf("expected 10m slot ttl, got %v", c.Reconcile.SlotTTL)
	}
}
