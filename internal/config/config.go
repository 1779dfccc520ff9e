package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/stac-search-settings/internal/search"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	requestLoggingEnv = "ENABLE_REQUEST_LOGGING"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	SearchHosts          []string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	Search               yamlSearch    `yaml:"search"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

type yamlSearch struct {
	Hosts []string `yaml:"hosts"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// envConfig is the raw environment snapshot. Everything is read as text so a
// malformed value is skipped instead of failing startup.
type envConfig struct {
	Port           string   `env:"PORT"`
	LogLevel       string   `env:"LOG_LEVEL"`
	SearchHosts    []string `env:"ES_HOSTS" envSeparator:","`
	RateLimit      string   `env:"STAC_FASTAPI_RATE_LIMIT"`
	RateLimitRPS   string   `env:"RATE_LIMIT_RPS"`
	RateLimitBurst string   `env:"RATE_LIMIT_BURST"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	SearchHosts    []string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so a YAML file can pin values for a deployment.
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		SearchHosts:          search.DefaultHosts(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if len(yamlCfg.Search.Hosts) > 0 {
		hosts, err := normalizeHosts(yamlCfg.Search.Hosts)
		if err != nil {
			return fmt.Errorf("search.hosts: %w", err)
		}
		cfg.SearchHosts = hosts
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if parsed, err := time.ParseDuration(d.raw); err == nil {
			*d.dst = parsed
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if rps := yamlCfg.RateLimit.RPS; rps != nil && *rps >= 0 {
		cfg.RateLimitRPS = *rps
	}

	if burst := yamlCfg.RateLimit.Burst; burst != nil && *burst >= 0 {
		cfg.RateLimitBurst = *burst
	}

	return nil
}

// applyEnvConfig applies environment variable configuration. Malformed
// server tuning values are skipped; an invalid ES_HOSTS is an error because
// falling back to the default cluster would send ES_API_KEY elsewhere.
func applyEnvConfig(cfg *Config) error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil
	}

	if port := strings.TrimSpace(raw.Port); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	if len(raw.SearchHosts) > 0 {
		hosts, err := normalizeHosts(raw.SearchHosts)
		if err != nil {
			return fmt.Errorf("ES_HOSTS: %w", err)
		}
		cfg.SearchHosts = hosts
	}

	cfg.EnableRequestLogging = BoolEnv(requestLoggingEnv, cfg.EnableRequestLogging)

	if limit := strings.TrimSpace(raw.RateLimit); limit != "" {
		if rps, burst, err := parseRateLimit(limit); err == nil {
			cfg.RateLimitRPS = rps
			cfg.RateLimitBurst = burst
		}
	}

	if rps := strings.TrimSpace(raw.RateLimitRPS); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(raw.RateLimitBurst); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if len(overrides.SearchHosts) > 0 {
		hosts, err := normalizeHosts(overrides.SearchHosts)
		if err != nil {
			return fmt.Errorf("parse search hosts: %w", err)
		}
		cfg.SearchHosts = hosts
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if len(cfg.SearchHosts) == 0 {
		return fmt.Errorf("search hosts cannot be empty")
	}
	return nil
}

// normalizeHosts trims and validates search endpoints. Only https URLs are
// accepted so the pinned TLS floor always applies.
func normalizeHosts(raw []string) ([]string, error) {
	hosts := make([]string, 0, len(raw))
	for _, host := range raw {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host %q: %w", host, err)
		}
		if u.Scheme != "https" || u.Host == "" {
			return nil, fmt.Errorf("host %q must be an https URL", host)
		}
		hosts = append(hosts, strings.TrimRight(host, "/"))
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no search hosts provided")
	}
	return hosts, nil
}

// parseRateLimit converts a limit such as "100/minute" or "5 per second" into
// a token bucket rate and burst.
func parseRateLimit(raw string) (float64, int, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	var count, unit string
	if before, after, ok := strings.Cut(normalized, "/"); ok {
		count, unit = before, after
	} else if before, after, ok := strings.Cut(normalized, " per "); ok {
		count, unit = before, after
	} else {
		return 0, 0, fmt.Errorf("invalid rate limit %q", raw)
	}

	n, err := strconv.Atoi(strings.TrimSpace(count))
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("invalid rate limit count %q", count)
	}

	var window time.Duration
	switch strings.TrimSuffix(strings.TrimSpace(unit), "s") {
	case "second", "sec":
		window = time.Second
	case "minute", "min":
		window = time.Minute
	case "hour":
		window = time.Hour
	case "day":
		window = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("invalid rate limit unit %q", unit)
	}

	return float64(n) / window.Seconds(), n, nil
}
