package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                        string `mapstructure:"PORT"`
	DatabaseURL                 string `mapstructure:"DATABASE_URL"`
	DatabaseName                string `mapstructure:"DATABASE_NAME"`
	LogLevel                    string `mapstructure:"LOG_LEVEL"`
	LogFormat                   string `mapstructure:"LOG_FORMAT"`
	RateLimiterEnabled          bool   `mapstructure:"RATE_LIMITER_ENABLED"`
	RateLimiterMaxRequests      int    `mapstructure:"RATE_LIMITER_MAX_REQUESTS"`
	RateLimiterTimeDelay        string `mapstructure:"RATE_LIMITER_TIME_DELAY"`
	RateLimiterTokenMaxRequests int    `mapstructure:"RATE_LIMITER_TOKEN_MAX_REQUESTS"`
	RateLimiterTokenTimeDelay   string `mapstructure:"RATE_LIMITER_TOKEN_TIME_DELAY"`
	RateLimiterCleanupInterval  string `mapstructure:"RATE_LIMITER_CLEANUP_INTERVAL"`
	RateLimiterTTL              string `mapstructure:"RATE_LIMITER_TTL"`
	RateLimiterBackend          string `mapstructure:"RATE_LIMITER_BACKEND"`
	RateLimiterRedisAddr        string `mapstructure:"RATE_LIMITER_REDIS_ADDR"`
	RateLimiterTrustProxy       bool   `mapstructure:"RATE_LIMITER_TRUST_PROXY"`
}

// RateLimiterSettings holds the limiter values with durations already parsed.
type RateLimiterSettings struct {
	Enabled         bool
	MaxRequests     int
	TimeDelay       time.Duration
	TokenMaxRequest int
	TokenTimeDelay  time.Duration
	CleanupInterval time.Duration
	TTL             time.Duration
	Backend         string
	RedisAddr       string
	TrustProxy      bool
}

var defaults = map[string]any{
	"PORT":                            "8000",
	"DATABASE_URL":                    "",
	"DATABASE_NAME":                   "",
	"LOG_LEVEL":                       "info",
	"LOG_FORMAT":                      "json",
	"RATE_LIMITER_ENABLED":            false,
	"RATE_LIMITER_MAX_REQUESTS":       100,
	"RATE_LIMITER_TIME_DELAY":         "1s",
	"RATE_LIMITER_TOKEN_MAX_REQUESTS": 200,
	"RATE_LIMITER_TOKEN_TIME_DELAY":   "1s",
	"RATE_LIMITER_CLEANUP_INTERVAL":   "30s",
	"RATE_LIMITER_TTL":                "1m",
	"RATE_LIMITER_BACKEND":            "memory",
	"RATE_LIMITER_REDIS_ADDR":         "localhost:6379",
	"RATE_LIMITER_TRUST_PROXY":        false,
}

// LoadConfig reads path/.env when it exists and lets the environment
// override every key.
func LoadConfig(path string) (*Config, error) {
	var config *Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := exportFileValues(v); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}

// exportFileValues copies keys found only in .env into the process
// environment, so code reading os.Getenv sees the same values as Config.
func exportFileValues(v *viper.Viper) error {
	for key := range defaults {
		if !v.InConfig(key) {
			continue
		}
		if value, ok := os.LookupEnv(key); ok && value != "" {
			continue
		}
		if err := os.Setenv(key, v.GetString(key)); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
	}
	return nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Addr is the listen address built from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) RateLimiter() (RateLimiterSettings, error) {
	s := RateLimiterSettings{
		Enabled:         c.RateLimiterEnabled,
		MaxRequests:     c.RateLimiterMaxRequests,
		TokenMaxRequest: c.RateLimiterTokenMaxRequests,
		Backend:         c.RateLimiterBackend,
		RedisAddr:       c.RateLimiterRedisAddr,
		TrustProxy:      c.RateLimiterTrustProxy,
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"RATE_LIMITER_TIME_DELAY", c.RateLimiterTimeDelay, &s.TimeDelay},
		{"RATE_LIMITER_TOKEN_TIME_DELAY", c.RateLimiterTokenTimeDelay, &s.TokenTimeDelay},
		{"RATE_LIMITER_CLEANUP_INTERVAL", c.RateLimiterCleanupInterval, &s.CleanupInterval},
		{"RATE_LIMITER_TTL", c.RateLimiterTTL, &s.TTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return s, fmt.Errorf("invalid duration for %s: %q (valid units are \"ns\", \"us\", \"ms\", \"s\", \"m\", \"h\")", d.key, d.value)
		}
		if parsed <= 0 {
			return s, fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
		*d.dst = parsed
	}

	return s, nil
}
