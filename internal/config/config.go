package config

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const (
	defaultPageSize    = 30
	defaultConcurrency = 20
	defaultTimeout     = 15 * time.Second
)

// StaleConfig holds stale times per resource class.
type StaleConfig struct {
	List    string `yaml:"list"`
	Index   string `yaml:"index"`
	Detail  string `yaml:"detail"`
	Default string `yaml:"default"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

type Config struct {
	APIBaseURL     string      `yaml:"api_base_url"`
	ArtworkURL     string      `yaml:"artwork_url"`
	PageSize       int         `yaml:"page_size"`
	Concurrency    int         `yaml:"concurrency"`
	RequestTimeout string      `yaml:"request_timeout"`
	RateLimit      float64     `yaml:"rate_limit"`
	RateBurst      int         `yaml:"rate_burst,omitempty"`
	RetryCount     int         `yaml:"retry_count"`
	Stale          StaleConfig `yaml:"stale"`
	GCTime         string      `yaml:"gc_time"`
	Retention      string      `yaml:"retention"`
	Log            LogConfig   `yaml:"log"`
}

// ParseDuration accepts time.ParseDuration syntax plus "Nd" for days.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil && days >= 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func (c *Config) Timeout() time.Duration {
	d := durationOr(c.RequestTimeout, defaultTimeout)
	if d == 0 {
		return defaultTimeout
	}
	return d
}

func (c *Config) ListStale() time.Duration    { return durationOr(c.Stale.List, 24*time.Hour) }
func (c *Config) IndexStale() time.Duration   { return durationOr(c.Stale.Index, time.Hour) }
func (c *Config) DetailStale() time.Duration  { return durationOr(c.Stale.Detail, 5*time.Minute) }
func (c *Config) DefaultStale() time.Duration { return durationOr(c.Stale.Default, time.Minute) }

func (c *Config) GCDuration() time.Duration {
	return durationOr(c.GCTime, time.Hour)
}

func (c *Config) RetentionDuration() time.Duration {
	return durationOr(c.Retention, 30*24*time.Hour)
}

// GetPageSize returns the page size, defaulting to 30.
func (c *Config) GetPageSize() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}

func (c *Config) GetConcurrency() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

func (c *Config) GetRateBurst() int {
	if c.RateBurst <= 0 {
		return 1
	}
	return c.RateBurst
}

// LogLevel maps log.level to a slog level; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *Config) LogJSON() bool {
	return strings.EqualFold(c.Log.Format, "json")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "pokedex", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "pokedex", "pokedex.db")
}

// LogPath is where the TUI writes its log, since it owns the terminal.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "pokedex", "pokedex.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads path over the embedded defaults, so a user file only needs the
// keys it changes. A missing file is created from the defaults.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: the embedded defaults still apply
			_ = writeDefaults(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return fmt.Errorf("api_base_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_base_url: url scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.ArtworkURL != "" {
		if !strings.Contains(cfg.ArtworkURL, "{id}") {
			return fmt.Errorf("artwork_url: template must contain {id}")
		}
		a, err := url.Parse(strings.ReplaceAll(cfg.ArtworkURL, "{id}", "1"))
		if err != nil || (a.Scheme != "http" && a.Scheme != "https") {
			return fmt.Errorf("artwork_url: must be an http or https url")
		}
	}
	if cfg.PageSize < 0 {
		return fmt.Errorf("page_size must be positive, got %d", cfg.PageSize)
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.RetryCount < 0 {
		return fmt.Errorf("retry_count must not be negative, got %d", cfg.RetryCount)
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", cfg.RateLimit)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (valid: text, json)", cfg.Log.Format)
	}
	return nil
}
