package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"10s" validate:"ltfield=WriteTimeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Finnhub struct {
		// Empty is valid: every view degrades to its placeholder.
		APIKey     string        `yaml:"api_key"`
		BaseURL    string        `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
		Timeout    time.Duration `yaml:"timeout" default:"5s"`
		MaxRetries uint64        `yaml:"max_retries" default:"2" validate:"lte=5"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"200ms"`
	} `yaml:"finnhub"`
	Cache struct {
		Backend          string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		MemoryMaxSize    int           `yaml:"memory_max_size" default:"2000" validate:"gt=0"`
		MemoryCleanup    time.Duration `yaml:"memory_cleanup_interval" default:"1m"`
		MemoryDefaultTTL time.Duration `yaml:"memory_default_ttl" default:"30m"`
		Redis            struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix" default:"signalist"`
			PoolSize     int           `yaml:"pool_size" default:"10" validate:"gt=0"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2" validate:"gte=0"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"5s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"30" validate:"gte=0"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"5" validate:"gte=0"`
	} `yaml:"rate_limit"`
	News struct {
		// PopularSymbols overrides the list shown for an empty search.
		PopularSymbols []string `yaml:"popular_symbols"`
	} `yaml:"news"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(os.Getenv("FINNHUB_API_KEY")); v != "" {
		c.Finnhub.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("NEXT_PUBLIC_FINNHUB_API_KEY")); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return nil, fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Cache.Redis.Host, c.Cache.Redis.Port = host, p
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
