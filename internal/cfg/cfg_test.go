package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		RedisURL:              "redis://localhost:6379/0",
		WorkerConcurrency:     4,
		StatsIntervalSeconds:  600,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", c.DatabaseURL)
	}
	if c.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q, want %q", c.RedisURL, "redis://localhost:6379/0")
	}
	if c.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", c.WorkerConcurrency)
	}
	if c.StatsIntervalSeconds != 600 {
		t.Errorf("StatsIntervalSeconds = %d, want 600", c.StatsIntervalSeconds)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-database-url", "postgres://localhost/incidents",
		"-redis-url", "redis://cache:6379/1",
		"-worker-concurrency", "8",
		"-stats-interval-seconds", "60",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.DatabaseURL != "postgres://localhost/incidents" {
		t.Errorf("DatabaseURL = %q, want %q", c.DatabaseURL, "postgres://localhost/incidents")
	}
	if c.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q, want %q", c.RedisURL, "redis://cache:6379/1")
	}
	if c.WorkerConcurrency != 8 {
		t.Errorf("WorkerConcurrency = %d, want 8", c.WorkerConcurrency)
	}
	if c.StatsIntervalSeconds != 60 {
		t.Errorf("StatsIntervalSeconds = %d, want 60", c.StatsIntervalSeconds)
	}
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"zero drain", func(c *Config) { c.DrainSeconds = 0 }, "DRAIN_SECONDS"},
		{"drain too large", func(c *Config) { c.DrainSeconds = 301 }, "DRAIN_SECONDS"},
		{"zero shutdown budget", func(c *Config) { c.ShutdownBudgetSeconds = 0 }, "SHUTDOWN_BUDGET_SECONDS"},
		{"shutdown budget too large", func(c *Config) { c.ShutdownBudgetSeconds = 301 }, "SHUTDOWN_BUDGET_SECONDS"},
		{"budget not above drain", func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds }, "must be greater than"},
		{"zero port", func(c *Config) { c.APIPort = 0 }, "HTTP_PORT"},
		{"port too large", func(c *Config) { c.APIPort = 70000 }, "HTTP_PORT"},
		{"negative port", func(c *Config) { c.APIPort = -1 }, "HTTP_PORT"},
		{"empty redis url", func(c *Config) { c.RedisURL = "" }, "REDIS_URL"},
		{"zero concurrency", func(c *Config) { c.WorkerConcurrency = 0 }, "WORKER_CONCURRENCY"},
		{"concurrency too large", func(c *Config) { c.WorkerConcurrency = 129 }, "WORKER_CONCURRENCY"},
		{"zero stats interval", func(c *Config) { c.StatsIntervalSeconds = 0 }, "STATS_INTERVAL_SECONDS"},
		{"stats interval too large", func(c *Config) { c.StatsIntervalSeconds = 86401 }, "STATS_INTERVAL_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			tt.mutate(&c)
			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() = %q, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	t.Parallel()

	c := validBase()
	c.APIPort = 0
	c.RedisURL = ""

	err := c.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, sub := range []string{"HTTP_PORT", "REDIS_URL"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("Validate() = %q, missing %q", err, sub)
		}
	}
}
