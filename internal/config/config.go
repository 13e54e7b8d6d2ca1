// Package config loads runtime settings from a YAML file and METAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/delaneyj/metal/metal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the runtime settings.
type Config struct {
	TrackedProperties bool   `mapstructure:"tracked_properties"`
	ClobberSet        bool   `mapstructure:"clobber_set"`
	LogLevel          string `mapstructure:"log_level"`
}

// Load reads path when given, otherwise metal.yaml from the working
// directory if present. Environment variables such as
// METAL_TRACKED_PROPERTIES override the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("tracked_properties", false)
	v.SetDefault("clobber_set", true)
	v.SetDefault("log_level", "warn")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("metal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("METAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// Logger builds a production logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	lvl, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// Options converts the settings into runtime options.
func (c *Config) Options() []metal.Option {
	return []metal.Option{
		metal.WithTrackedProperties(c.TrackedProperties),
		metal.WithClobberSet(c.ClobberSet),
	}
}
