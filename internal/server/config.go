package server

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/studeo/auth-service/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

func LoadConfig() (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath("./config/server")

	v.SetDefault("auth.access_token_duration", 720*time.Hour)
	v.SetDefault("auth.refresh_token_duration", 4320*time.Hour)
	v.SetDefault("otp.code_ttl", 2*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg config.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Load environment-specific configurations
	if envSettings := v.GetStringMap(fmt.Sprintf("server.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("server.%s", env), &cfg.Server); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateConfig rejects configurations the service cannot safely run with.
// Both signing secrets are mandatory and must differ so a leaked refresh
// secret cannot forge access tokens.
func validateConfig(cfg *config.AppConfig) error {
	if cfg.Auth.AccessTokenSecret == "" {
		return errors.New("auth.access_token_secret is required")
	}
	if cfg.Auth.RefreshTokenSecret == "" {
		return errors.New("auth.refresh_token_secret is required")
	}
	if cfg.Auth.AccessTokenSecret == cfg.Auth.RefreshTokenSecret {
		return errors.New("auth.access_token_secret and auth.refresh_token_secret must be distinct")
	}
	return nil
}
