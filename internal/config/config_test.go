package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if cfg.APIBaseURL != "https://pokeapi.co/api/v2" {
		t.Errorf("unexpected api_base_url %q", cfg.APIBaseURL)
	}
	if !strings.Contains(cfg.ArtworkURL, "{id}") {
		t.Errorf("expected artwork template with {id}, got %q", cfg.ArtworkURL)
	}
	if cfg.PageSize != 30 || cfg.Concurrency != 20 || cfg.RetryCount != 2 {
		t.Errorf("unexpected defaults: page_size=%d concurrency=%d retry_count=%d",
			cfg.PageSize, cfg.Concurrency, cfg.RetryCount)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("embedded defaults do not validate: %v", err)
	}
}

func TestDefaultDurations(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"timeout", cfg.Timeout(), 15 * time.Second},
		{"list", cfg.ListStale(), 24 * time.Hour},
		{"index", cfg.IndexStale(), time.Hour},
		{"detail", cfg.DetailStale(), 5 * time.Minute},
		{"default", cfg.DefaultStale(), time.Minute},
		{"gc", cfg.GCDuration(), time.Hour},
		{"retention", cfg.RetentionDuration(), 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRetentionDuration(t *testing.T) {
	tests := []struct {
		input    string
		wantDays int
	}{
		{"90d", 90},
		{"7d", 7},
		{"720h", 30},
		{"", 30},        // default
		{"invalid", 30}, // fallback to default
		{"-2h", 30},
	}
	for _, tt := range tests {
		cfg := &Config{Retention: tt.input}
		got := cfg.RetentionDuration()
		wantHours := float64(tt.wantDays * 24)
		if got.Hours() != wantHours {
			t.Errorf("RetentionDuration(%q) = %v, want %dd", tt.input, got, tt.wantDays)
		}
	}
}

func TestTimeoutFallback(t *testing.T) {
	for _, in := range []string{"", "soon", "0s"} {
		cfg := &Config{RequestTimeout: in}
		if got := cfg.Timeout(); got != 15*time.Second {
			t.Errorf("Timeout(%q) = %v, want 15s", in, got)
		}
	}
	cfg := &Config{RequestTimeout: "3s"}
	if got := cfg.Timeout(); got != 3*time.Second {
		t.Errorf("expected 3s, got %v", got)
	}
}

func TestGetters(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetPageSize(); got != 30 {
		t.Errorf("expected default page size 30, got %d", got)
	}
	if got := cfg.GetConcurrency(); got != 20 {
		t.Errorf("expected default concurrency 20, got %d", got)
	}
	if got := cfg.GetRateBurst(); got != 1 {
		t.Errorf("expected default burst 1, got %d", got)
	}

	cfg = &Config{PageSize: 12, Concurrency: 4, RateBurst: 5}
	if cfg.GetPageSize() != 12 || cfg.GetConcurrency() != 4 || cfg.GetRateBurst() != 5 {
		t.Errorf("custom values not returned: %+v", cfg)
	}
}

func TestLogSettings(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: LogConfig{Level: tt.level}}
		if got := cfg.LogLevel(); got != tt.want {
			t.Errorf("LogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
	if !(&Config{Log: LogConfig{Format: "JSON"}}).LogJSON() {
		t.Error("expected json format to be recognised")
	}
	if (&Config{}).LogJSON() {
		t.Error("expected text format by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `page_size: 12
stale:
  detail: 10m
log:
  level: debug
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 12 {
		t.Errorf("expected page_size 12, got %d", cfg.PageSize)
	}
	if cfg.DetailStale() != 10*time.Minute {
		t.Errorf("expected detail stale 10m, got %v", cfg.DetailStale())
	}
	// Keys absent from the file keep their defaults
	if cfg.ListStale() != 24*time.Hour {
		t.Errorf("expected default list stale, got %v", cfg.ListStale())
	}
	if cfg.Concurrency != 20 {
		t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
	}
	if cfg.APIBaseURL == "" {
		t.Error("expected default api_base_url")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected default log format, got %q", cfg.Log.Format)
	}
}

func TestLoadExplicitZeroRetries(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("retry_count: 0\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RetryCount != 0 {
		t.Errorf("expected retry_count 0, got %d", cfg.RetryCount)
	}
}

func TestLoadNonexistentWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 30 {
		t.Errorf("expected defaults when config doesn't exist, got page_size %d", cfg.PageSize)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults written to %s: %v", cfgPath, err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, nil, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Concurrency != 20 {
		t.Errorf("expected defaults for empty file, got concurrency %d", cfg.Concurrency)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "page_size: [\n"},
		{"ftp base url", "api_base_url: ftp://example.com\n"},
		{"artwork without id", "artwork_url: https://example.com/art.png\n"},
		{"negative concurrency", "concurrency: -1\n"},
		{"negative retries", "retry_count: -3\n"},
		{"negative rate", "rate_limit: -1\n"},
		{"unknown log format", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(cfgPath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing config: %v", err)
			}
			if _, err := Load(cfgPath); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPaths(t *testing.T) {
	if !strings.HasSuffix(CachePath(), filepath.Join("pokedex", "pokedex.db")) {
		t.Errorf("unexpected cache path %s", CachePath())
	}
	if !strings.HasSuffix(LogPath(), filepath.Join("pokedex", "pokedex.log")) {
		t.Errorf("unexpected log path %s", LogPath())
	}
	if !strings.HasSuffix(DefaultConfigPath(), filepath.Join("pokedex", "config.yaml")) {
		t.Errorf("unexpected config path %s", DefaultConfigPath())
	}
}
