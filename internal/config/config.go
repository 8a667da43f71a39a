package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the gateway's environment-driven settings.
type Config struct {
	Port             string `mapstructure:"PORT"`
	Env              string `mapstructure:"ENV"`
	ConverterURL     string `mapstructure:"CONVERTER_URL"`
	ConverterTimeout string `mapstructure:"CONVERTER_TIMEOUT"`
	AuthSecret       string `mapstructure:"AUTH_SECRET"`
	BodyLimitBytes   int64  `mapstructure:"BODY_LIMIT_BYTES"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from the environment, falling back to a .env
// file when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("CONVERTER_URL", "")
	v.SetDefault("CONVERTER_TIMEOUT", "15s")
	v.SetDefault("BODY_LIMIT_BYTES", 1<<20)
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CONVERTER_URL")
	v.BindEnv("CONVERTER_TIMEOUT")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("BODY_LIMIT_BYTES")
	v.BindEnv("LOG_LEVEL")

	// Try reading .env, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ConverterTimeoutDuration parses CONVERTER_TIMEOUT, falling back to 15s
// when the value is absent or unparseable.
func (c *Config) ConverterTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ConverterTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Validate checks that the configuration is safe to run. Production refuses
// to start without an auth secret so the convert endpoint is never exposed
// unauthenticated by accident.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when ENV is \"production\"")
	}
	if c.BodyLimitBytes <= 0 {
		return fmt.Errorf("BODY_LIMIT_BYTES must be positive, got %d", c.BodyLimitBytes)
	}
	if c.ConverterTimeout != "" {
		if _, err := time.ParseDuration(c.ConverterTimeout); err != nil {
			return fmt.Errorf("CONVERTER_TIMEOUT is not a valid duration: %w", err)
		}
	}
	return nil
}
