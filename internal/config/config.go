package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"granthx/internal/api"
	"granthx/internal/integration"
	"granthx/internal/logger"
)

// Config is the client configuration, read from .env, an optional config
// file and GRANTHX_* environment variables.
type Config struct {
	APIBase             string        `mapstructure:"api_base"`
	ClerkPublishableKey string        `mapstructure:"clerk_publishable_key"`
	SessionToken        string        `mapstructure:"session_token"`
	IntegrationEndpoint string        `mapstructure:"integration_endpoint"`
	LogFile             string        `mapstructure:"log_file"`
	LogLevel            string        `mapstructure:"log_level"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	PersistSession      bool          `mapstructure:"persist_session"`
	SessionFile         string        `mapstructure:"session_file"`
}

// Load reads configuration. path may name a config file explicitly;
// otherwise granthx.{yaml,json,toml} is looked up in the working directory
// and the user config dir, and its absence is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRANTHX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base", "")
	v.SetDefault("clerk_publishable_key", "")
	v.SetDefault("session_token", "")
	v.SetDefault("integration_endpoint", integration.DefaultEndpoint)
	v.SetDefault("log_file", logger.DefaultFile())
	v.SetDefault("log_level", "info")
	v.SetDefault("request_timeout", time.Duration(0)) // no client-side timeout
	v.SetDefault("persist_session", true)
	v.SetDefault("session_file", "")

	// names the web dashboard used, kept so one .env serves both
	_ = v.BindEnv("api_base", "GRANTHX_API_BASE", "REACT_APP_API_BASE")
	_ = v.BindEnv("clerk_publishable_key", "GRANTHX_CLERK_PUBLISHABLE_KEY", "CLERK_PUBLISHABLE_KEY", "REACT_APP_CLERK_PUBLISHABLE_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	} else {
		v.SetConfigName("granthx")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "granthx"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file error: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode error: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		c.APIBase = api.DefaultBaseURL
	}
	c.ClerkPublishableKey = strings.TrimSpace(c.ClerkPublishableKey)
	if strings.TrimSpace(c.IntegrationEndpoint) == "" {
		c.IntegrationEndpoint = integration.DefaultEndpoint
	}
	if c.RequestTimeout < 0 {
		c.RequestTimeout = 0
	}
}
