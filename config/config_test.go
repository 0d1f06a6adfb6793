package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HostMinDelay != 2*time.Second {
		t.Fatalf("host delay=%v want=2s", cfg.HostMinDelay)
	}
	if cfg.MaxRetries != 2 {
		t.Fatalf("max retries=%d want=2", cfg.MaxRetries)
	}
	if cfg.Parallelism != 4 {
		t.Fatalf("parallelism=%d want=4", cfg.Parallelism)
	}
	if cfg.Currency != "USD" || cfg.Precision != 2 {
		t.Fatalf("currency=%s precision=%d", cfg.Currency, cfg.Precision)
	}
	if cfg.DatabasePath == "" || cfg.UserAgent == "" {
		t.Fatal("empty defaults for database path or user agent")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRICEWATCH_HOST_DELAY", "500ms")
	t.Setenv("PRICEWATCH_FETCH_TIMEOUT", "10s")
	t.Setenv("PRICEWATCH_MAX_RETRIES", "5")
	t.Setenv("PRICEWATCH_PARALLELISM", "8")
	t.Setenv("PRICEWATCH_CURRENCY", "BRL")
	t.Setenv("ALERT_RECIPIENTS", "a@example.com, b@example.com,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HostMinDelay != 500*time.Millisecond {
		t.Fatalf("host delay=%v", cfg.HostMinDelay)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Fatalf("timeout=%v", cfg.FetchTimeout)
	}
	if cfg.MaxRetries != 5 || cfg.Parallelism != 8 {
		t.Fatalf("retries=%d parallelism=%d", cfg.MaxRetries, cfg.Parallelism)
	}
	if cfg.Currency != "BRL" {
		t.Fatalf("currency=%s", cfg.Currency)
	}
	if len(cfg.Recipients) != 2 || cfg.Recipients[1] != "b@example.com" {
		t.Fatalf("recipients=%v", cfg.Recipients)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PRICEWATCH_MAX_RETRIES":   "-1",
		"PRICEWATCH_PARALLELISM":   "0",
		"PRICEWATCH_HOST_DELAY":    "-2s",
		"PRICEWATCH_FETCH_TIMEOUT": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%q accepted", key, value)
			}
		})
	}
}
