package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ReconcilerConfig holds settings for the scheduled reconciliation job.
type ReconcilerConfig struct {
	APIURL         string
	APIKey         string
	Env            string
	RequestTimeout time.Duration
}

func reconcilerDefaults(v *viper.Viper) {
	v.SetDefault("DOMPET_API_URL", "http://localhost:8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("REQUEST_TIMEOUT", "5m")
}

// LoadReconciler reads the reconciliation job settings from the environment.
func LoadReconciler() (*ReconcilerConfig, error) {
	v := viper.New()
	reconcilerDefaults(v)
	v.AutomaticEnv()
	return reconcilerFromViper(v)
}

func reconcilerFromViper(v *viper.Viper) (*ReconcilerConfig, error) {
	cfg := &ReconcilerConfig{
		APIURL: strings.TrimSpace(v.GetString("DOMPET_API_URL")),
		APIKey: v.GetString("MAINTENANCE_API_KEY"),
		Env:    v.GetString("ENV"),
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("DOMPET_API_URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("MAINTENANCE_API_KEY is required")
	}

	raw := v.GetString("REQUEST_TIMEOUT")
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", raw, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", timeout)
	}
	cfg.RequestTimeout = timeout

	return cfg, nil
}
