// Package config loads LyricDeck settings from defaults, an optional YAML
// file, environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/VantageDataChat/LyricDeck/enrich"
)

// EnvPrefix prefixes every environment variable, e.g. LYRICDECK_SERVER_ADDR.
const EnvPrefix = "LYRICDECK"

// Config holds every setting.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Enrich EnrichConfig `mapstructure:"enrich"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RequestsPerMinute and Burst bound each client; zero disables limiting.
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	Debug             bool          `mapstructure:"debug"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type EnrichConfig struct {
	// RemoteURL, when set, sends lines to another LyricDeck server instead
	// of calling Gemini directly.
	RemoteURL   string        `mapstructure:"remote_url"`
	BatchSize   int           `mapstructure:"batch_size"`
	RateLimit   int           `mapstructure:"rate_limit"`
	RateWindow  time.Duration `mapstructure:"rate_window"`
	CacheSize   int           `mapstructure:"cache_size"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.requests_per_minute", 60)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.max_body_bytes", int64(64<<20))
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.debug", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", enrich.DefaultGeminiModel)
	v.SetDefault("gemini.base_url", enrich.DefaultGeminiBaseURL)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("enrich.remote_url", "")
	v.SetDefault("enrich.batch_size", enrich.DefaultBatchSize)
	v.SetDefault("enrich.rate_limit", enrich.DefaultRateLimit)
	v.SetDefault("enrich.rate_window", enrich.DefaultRateWindow)
	v.SetDefault("enrich.cache_size", enrich.DefaultCacheSize)
	v.SetDefault("enrich.max_attempts", enrich.DefaultRetryPolicy().MaxAttempts)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The key is commonly exported without the prefix.
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")

	return v
}

// Load reads the config file (file, or lyricdeck.yaml in the working
// directory or $HOME/.config/lyricdeck when file is empty) into v and
// decodes the result. A missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lyricdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lyricdeck")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.RequestsPerMinute < 0 || c.Server.Burst < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}
	if c.Enrich.BatchSize < 1 || c.Enrich.BatchSize > enrich.DefaultBatchSize {
		errs = append(errs, fmt.Errorf("enrich.batch_size must be between 1 and %d", enrich.DefaultBatchSize))
	}
	if c.Enrich.RateLimit > 0 && c.Enrich.RateWindow <= 0 {
		errs = append(errs, errors.New("enrich.rate_window must be positive when enrich.rate_limit is set"))
	}
	if c.Enrich.MaxAttempts < 1 {
		errs = append(errs, errors.New("enrich.max_attempts must be at least 1"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// RetryPolicy returns the enrichment retry policy.
func (c EnrichConfig) RetryPolicy() enrich.RetryPolicy {
	p := enrich.DefaultRetryPolicy()
	p.MaxAttempts = c.MaxAttempts
	return p
}

// Completer returns the Gemini settings in the form the enrich package takes.
func (c GeminiConfig) Completer() enrich.GeminiConfig {
	return enrich.GeminiConfig{
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Temperature: c.Temperature,
		Timeout:     c.Timeout,
	}
}
