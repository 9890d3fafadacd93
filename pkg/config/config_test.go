package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SERIALGUARD_APP_ENV", "dev")
	t.Setenv("SERIALGUARD_APP_PORT", "8080")
	t.Setenv("SERIALGUARD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SERIALGUARD_JWT_SECRET", "secret")
	t.Setenv("SERIALGUARD_JWT_ISSUER", "serialguard")
	t.Setenv("SERIALGUARD_JWT_EXPIRATION_MINUTES", "15")
}

func TestLoadWithDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERIALGUARD_DB_DSN", "postgres://app:pw@localhost:5432/serialguard?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.DB.DSN == "" {
		t.Fatal("DSN not retained")
	}
	if cfg.Registry.SellerCooldownDays != 3 {
		t.Fatalf("cooldown default = %d", cfg.Registry.SellerCooldownDays)
	}
	if cfg.Registry.UserProductQuota != 3 || cfg.Registry.ShopkeeperProductQuota != 25 {
		t.Fatalf("quota defaults = %d/%d", cfg.Registry.UserProductQuota, cfg.Registry.ShopkeeperProductQuota)
	}
}

func TestLoadBuildsDSNFromLegacyVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERIALGUARD_DB_HOST", "db.internal")
	t.Setenv("SERIALGUARD_DB_USER", "app")
	t.Setenv("SERIALGUARD_DB_PASSWORD", "pw")
	t.Setenv("SERIALGUARD_DB_NAME", "serialguard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dsn := cfg.DB.DSN
	for _, want := range []string{"postgres://", "app:pw@", "db.internal:5432", "/serialguard", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestLoadSQLiteFlagSelectsDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERIALGUARD_USE_SQLITE", "true")
	t.Setenv("SERIALGUARD_DB_DSN", "file:serialguard.db?cache=shared")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != DBDriverSQLite {
		t.Fatalf("driver = %q, want %q", cfg.DB.Driver, DBDriverSQLite)
	}
}

func TestLoadSQLiteFlagRequiresDSN(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERIALGUARD_USE_SQLITE", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when sqlite is enabled without a DSN")
	}
}

func TestLoadFailsWithoutAnyDBConfig(t *testing.T) {
	setRequiredEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected error when neither DSN nor legacy vars are set")
	}
}

func TestRefreshTokenTTL(t *testing.T) {
	cfg := JWTConfig{RefreshTokenTTLMinutes: 60}
	if cfg.RefreshTokenTTL().Minutes() != 60 {
		t.Fatalf("ttl = %v", cfg.RefreshTokenTTL())
	}
	if (JWTConfig{}).RefreshTokenTTL() != 0 {
		t.Fatal("zero config should yield zero ttl")
	}
}
