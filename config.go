package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by [LoadConfig].
// HTTPCLIENT_MAX_RETRIES maps to max_retries, HTTPCLIENT_BASE_URL to base_url.
const EnvPrefix = "HTTPCLIENT_"

// Config is the file/environment representation of the client settings.
type Config struct {
	BaseURL           string            `koanf:"base_url"`
	MaxRetries        int               `koanf:"max_retries"`
	Timeout           time.Duration     `koanf:"timeout"`
	RetryWaitTime     time.Duration     `koanf:"retry_wait_time"`
	RetryMaxWaitTime  time.Duration     `koanf:"retry_max_wait_time"`
	BackoffMultiplier float64           `koanf:"backoff_multiplier"`
	RequestIDHeader   string            `koanf:"request_id_header"`
	Headers           map[string]string `koanf:"headers"`
}

// LoadConfig loads configuration with priority:
// 1. Environment variables prefixed with HTTPCLIENT_ (highest priority)
// 2. The YAML file at path, if path is not empty
// 3. Default values (lowest priority)
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshalConfig(k)
}

// LoadConfigBytes parses YAML configuration from memory on top of the defaults.
func LoadConfigBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return unmarshalConfig(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"max_retries":         DefaultRetryCount,
		"timeout":             DefaultTimeout.String(),
		"retry_wait_time":     DefaultRetryWaitTime.String(),
		"retry_max_wait_time": DefaultRetryMaxWaitTime.String(),
		"backoff_multiplier":  DefaultBackoffMultiplier,
		"request_id_header":   DefaultRequestIDHeader,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

func unmarshalConfig(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first invalid field of c.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return errors.New("base_url is required")
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.RetryWaitTime <= 0:
		return fmt.Errorf("retry_wait_time must be positive, got %s", c.RetryWaitTime)
	case c.RetryMaxWaitTime <= 0:
		return fmt.Errorf("retry_max_wait_time must be positive, got %s", c.RetryMaxWaitTime)
	case c.BackoffMultiplier < 1:
		return fmt.Errorf("backoff_multiplier must be at least 1, got %v", c.BackoffMultiplier)
	}

	return nil
}

// Options converts c into client options. Options passed to [NewFromConfig]
// after these take precedence.
func (c *Config) Options() []Option {
	opts := []Option{
		WithRetryCount(c.MaxRetries),
		WithTimeout(c.Timeout),
		WithRetryWaitTime(c.RetryWaitTime),
		WithRetryMaxWaitTime(c.RetryMaxWaitTime),
		WithBackoffMultiplier(c.BackoffMultiplier),
		WithRequestIDHeader(c.RequestIDHeader),
	}

	for k, v := range c.Headers {
		opts = append(opts, WithRequestHeader(k, v))
	}

	return opts
}

// NewFromConfig creates a [Client] from a loaded [Config].
func NewFromConfig(cfg *Config, opts ...Option) *Client {
	return New(cfg.BaseURL, append(cfg.Options(), opts...)...)
}
