package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViper(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		defaults(v)

		cfg, err := fromViper(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.DBDriver != DriverPostgres {
			t.Errorf("expected postgres driver, got %s", cfg.DBDriver)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected 24h expiry, got %s", cfg.JWTExpirationDur)
		}
	})

	t.Run("overrides_and_sqlite", func(t *testing.T) {
		v := viper.New()
		defaults(v)
		v.Set("DB_DRIVER", "SQLite")
		v.Set("DB_PATH", "/tmp/ledger.db")
		v.Set("JWT_EXPIRES_IN", "90m")
		v.Set("MAINTENANCE_API_KEY", "cron-key")

		cfg, err := fromViper(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DBDriver != DriverSQLite {
			t.Errorf("expected sqlite driver, got %s", cfg.DBDriver)
		}
		if cfg.DBPath != "/tmp/ledger.db" {
			t.Errorf("unexpected db path %s", cfg.DBPath)
		}
		if cfg.JWTExpirationDur != 90*time.Minute {
			t.Errorf("expected 90m expiry, got %s", cfg.JWTExpirationDur)
		}
		if cfg.MaintenanceAPIKey != "cron-key" {
			t.Errorf("unexpected maintenance key %q", cfg.MaintenanceAPIKey)
		}
	})

	t.Run("invalid_expiry_falls_back", func(t *testing.T) {
		v := viper.New()
		defaults(v)
		v.Set("JWT_EXPIRES_IN", "soon")

		cfg, err := fromViper(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.JWTExpirationDur != 24*time.Hour {
			t.Errorf("expected 24h fallback, got %s", cfg.JWTExpirationDur)
		}
	})

	t.Run("unknown_driver", func(t *testing.T) {
		v := viper.New()
		defaults(v)
		v.Set("DB_DRIVER", "mysql")

		if _, err := fromViper(v); err == nil {
			t.Fatal("expected error for unsupported driver")
		}
	})
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}

	if got := cfg.PostgresURL(); got != "postgres://u:p@h:5432/d?sslmode=disable" {
		t.Errorf("unexpected url %s", got)
	}
	if got := cfg.PostgresDSN(); got != "host=h port=5432 user=u password=p dbname=d sslmode=disable" {
		t.Errorf("unexpected dsn %s", got)
	}
}

func TestReconcilerFromViper(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v := viper.New()
		reconcilerDefaults(v)
		v.Set("MAINTENANCE_API_KEY", "cron-key")

		cfg, err := reconcilerFromViper(v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIURL != "http://localhost:8080" {
			t.Errorf("unexpected api url %s", cfg.APIURL)
		}
		if cfg.RequestTimeout != 5*time.Minute {
			t.Errorf("expected 5m timeout, got %s", cfg.RequestTimeout)
		}
	})

	t.Run("missing_key", func(t *testing.T) {
		v := viper.New()
		reconcilerDefaults(v)

		if _, err := reconcilerFromViper(v); err == nil {
			t.Fatal("expected error for missing key")
		}
	})

	t.Run("bad_timeout", func(t *testing.T) {
		for _, raw := range []string{"later", "-1s"} {
			v := viper.New()
			reconcilerDefaults(v)
			v.Set("MAINTENANCE_API_KEY", "cron-key")
			v.Set("REQUEST_TIMEOUT", raw)

			if _, err := reconcilerFromViper(v); err == nil {
				t.Errorf("expected error for timeout %q", raw)
			}
		}
	})
}
