package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// Provider selects which push-delivery backend the relay forwards through.
type Provider string

const (
	ProviderFCM  Provider = "fcm"
	ProviderExpo Provider = "expo"
)

const (
	DefaultListenAddr      = ":3000"
	DefaultProviderTimeout = 10 * time.Second
	DefaultExpoURL         = "https://exp.host/--/api/v2/push/send"
)

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type ExpoConfig struct {
	URL         string
	AccessToken string
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID       string
	ListenAddr      string
	Provider        Provider
	CredentialsFile string
	ProviderTimeout time.Duration

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	Expo       ExpoConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PROJECT_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "PROJECT_ID", "source", "env")
		cfg.ProjectID = val
	}
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("PROVIDER"); val != "" {
		logger.Debug("Overriding config value", "key", "PROVIDER", "source", "env")
		cfg.Provider = Provider(val)
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" {
		logger.Debug("Overriding config value", "key", "GOOGLE_APPLICATION_CREDENTIALS", "source", "env")
		cfg.CredentialsFile = val
	}
	if val := os.Getenv("PROVIDER_TIMEOUT_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil && seconds > 0 {
			logger.Debug("Overriding config value", "key", "PROVIDER_TIMEOUT_SECONDS", "source", "env")
			cfg.ProviderTimeout = time.Duration(seconds) * time.Second
		}
	}

	// Expo Overrides
	if val := os.Getenv("EXPO_PUSH_URL"); val != "" {
		cfg.Expo.URL = val
	}
	if val := os.Getenv("EXPO_ACCESS_TOKEN"); val != "" {
		cfg.Expo.AccessToken = val
	}

	// Redis Overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Defaults & Final Validation
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderFCM
	}
	if cfg.Provider != ProviderFCM && cfg.Provider != ProviderExpo {
		return nil, fmt.Errorf("provider must be %q or %q, got %q", ProviderFCM, ProviderExpo, cfg.Provider)
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Expo.URL == "" {
		cfg.Expo.URL = DefaultExpoURL
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
