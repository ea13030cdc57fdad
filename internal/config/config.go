package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration loaded from YAML, .env, and env vars.
type Config struct {
	WeatherAPIKey     string
	CurrentURL        string
	ForecastURL       string
	WeatherAPITimeout time.Duration

	CacheTTL     time.Duration
	CacheBackend string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	// MetricsAddr enables the ops HTTP listener (/metrics, /health) when
	// non-empty, e.g. ":9090". Empty disables it.
	MetricsAddr string

	// WarmCities, when non-empty, are prefetched into the cache at startup.
	WarmCities   []string
	WarmInterval time.Duration

	TrackedCities []string
}

type fileConfig struct {
	WeatherAPI struct {
		CurrentURL  string `yaml:"current_url"`
		ForecastURL string `yaml:"forecast_url"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Metrics struct {
		Addr          string   `yaml:"addr"`
		TrackedCities []string `yaml:"tracked_cities"`
	} `yaml:"metrics"`

	Warming struct {
		Cities   []string `yaml:"cities"`
		Interval string   `yaml:"interval"`
	} `yaml:"warming"`
}

// Load reads configuration from .env (if present), config/{ENV_NAME}.yaml
// (default dev, optional), and environment variables, in increasing
// precedence. WEATHER_API_KEY is required: a missing credential fails the
// process before it accepts any requests.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// MCP servers are often launched outside the repo; defaults apply.
	} else if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY environment variable is required")
	}

	cfg.CurrentURL = firstNonEmpty(os.Getenv("WEATHER_API_CURRENT_URL"), fc.WeatherAPI.CurrentURL, "https://api.openweathermap.org/data/2.5/weather")
	cfg.ForecastURL = firstNonEmpty(os.Getenv("WEATHER_API_FORECAST_URL"), fc.WeatherAPI.ForecastURL, "https://api.openweathermap.org/data/2.5/forecast")
	cfg.WeatherAPITimeout = parseDuration(firstNonEmpty(os.Getenv("WEATHER_API_TIMEOUT"), fc.WeatherAPI.Timeout), 10*time.Second)

	cfg.CacheTTL = parseDuration(firstNonEmpty(os.Getenv("CACHE_TTL"), fc.Cache.TTL), 5*time.Minute)
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(os.Getenv("CACHE_BACKEND"), fc.Cache.Backend, "in_memory")))

	cfg.MemcachedAddrs = firstNonEmpty(strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")), strings.TrimSpace(fc.Cache.Memcached.Addrs), "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.MetricsAddr = firstNonEmpty(os.Getenv("METRICS_ADDR"), fc.Metrics.Addr)
	cfg.TrackedCities = fc.Metrics.TrackedCities

	cfg.WarmCities = fc.Warming.Cities
	if v := strings.TrimSpace(os.Getenv("WARM_CITIES")); v != "" {
		cfg.WarmCities = splitList(v)
	}
	cfg.WarmInterval = parseDurationOrZero(firstNonEmpty(os.Getenv("WARM_INTERVAL"), fc.Warming.Interval), 0)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty
// string or parse error. Zero or negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("WEATHER_API_TIMEOUT must be positive")
	}
	return nil
}
