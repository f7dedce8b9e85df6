package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr string
	FeedAddr   string
	Database   DatabaseConfig
	Auth       AuthConfig
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

// Load reads configuration from an optional watchplan.yaml plus
// WATCHPLAN_* environment overrides.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("watchplan")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.watchplan")

	v.SetEnvPrefix("WATCHPLAN")
	v.AutomaticEnv()

	v.SetDefault("server_addr", ":8080")
	v.SetDefault("feed_addr", ":7070")
	v.SetDefault("db_path", "watchplan.db")
	// dev default (change for demo / production)
	v.SetDefault("jwt_secret", "dev-secret-change-me")
	v.SetDefault("jwt_issuer", "watchplan")
	v.SetDefault("jwt_ttl_hours", 24)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	ttl := v.GetInt("jwt_ttl_hours")
	if ttl <= 0 {
		ttl = 24
	}

	return Config{
		ServerAddr: v.GetString("server_addr"),
		FeedAddr:   v.GetString("feed_addr"),
		Database: DatabaseConfig{
			Path: v.GetString("db_path"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("jwt_secret"),
			JWTIssuer:   v.GetString("jwt_issuer"),
			JWTDuration: time.Duration(ttl) * time.Hour,
		},
	}, nil
}
