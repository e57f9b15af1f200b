package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/warehousekit/bindivider/internal/export"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAX_COLUMN_WIDTH", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if len(cfg.SeedBins) != 0 {
		t.Fatalf("expected empty seed bins, got %v", cfg.SeedBins)
	}
	if cfg.MaxColumnWidth != export.DefaultMaxColumnWidth {
		t.Fatalf("unexpected max column width: %v", cfg.MaxColumnWidth)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != defaultRateLimitRPS || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_COLUMN_WIDTH", "25.5")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("RATE_LIMIT_BURST", "10")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.MaxColumnWidth != 25.5 {
		t.Fatalf("expected overridden width, got %v", cfg.MaxColumnWidth)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Fatalf("unexpected rate limits: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("PORT", "")

	data := `
port: "8181"
max_column_width: 30
shutdown_grace_period: 5s
enable_request_logging: true
rate_limit:
  rps: 2
  burst: 4
seed_bins:
  - name: Small Tote
    depth_mm: 300
    height_mm: 200
    width_mm: 400
    has_lip: true
    shelves_per_bay: 4
    bins_per_shelf: 6
    ut: 0.85
  - name: Large Tote
    depth_mm: 600
    height_mm: 400
    width_mm: 400
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8181" {
		t.Fatalf("expected YAML port, got %s", cfg.Port)
	}
	if cfg.MaxColumnWidth != 30 {
		t.Fatalf("expected YAML width, got %v", cfg.MaxColumnWidth)
	}
	if cfg.ShutdownGracePeriod != 5*time.Second {
		t.Fatalf("unexpected grace period: %s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimitRPS != 2 || cfg.RateLimitBurst != 4 {
		t.Fatalf("unexpected rate limits: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if len(cfg.SeedBins) != 2 {
		t.Fatalf("expected 2 seed bins, got %d", len(cfg.SeedBins))
	}
	if cfg.SeedBins[0].Name != "Small Tote" || !cfg.SeedBins[0].HasLip || cfg.SeedBins[0].UT != 0.85 {
		t.Fatalf("unexpected first seed bin: %+v", cfg.SeedBins[0])
	}
	if cfg.SeedBins[1].ShelvesPerBay != 0 {
		t.Fatalf("expected omitted counts to stay zero for the store to clamp, got %+v", cfg.SeedBins[1])
	}
}

func TestLoadMissingYAMLFileFails(t *testing.T) {
	if _, err := Load(&CLIOverrides{ConfigFile: "/does/not/exist.yaml"}); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestCLIOverridesWinOverEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_COLUMN_WIDTH", "20")

	port := "7777"
	width := 33.0
	cfg, err := Load(&CLIOverrides{Port: &port, MaxColumnWidth: &width})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7777" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.MaxColumnWidth != 33 {
		t.Fatalf("expected CLI width to win, got %v", cfg.MaxColumnWidth)
	}
}
