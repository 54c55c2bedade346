package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Vault     VaultConfig
	Scheduler SchedulerConfig
	OAuth     OAuthConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// VaultConfig holds credential encryption settings.
// EncryptionKey is a base64-encoded 32-byte key; the process refuses to
// start without it so credentials can never be written in the clear.
type VaultConfig struct {
	EncryptionKey string
}

// SchedulerConfig holds job scheduler settings
type SchedulerConfig struct {
	TickInterval      time.Duration
	MaxInstances      int
	InvocationTimeout time.Duration
}

// OAuthConfig holds OAuth provider settings
type OAuthConfig struct {
	RedirectURL      string
	GoogleAuthURI    string
	LinkedInAuthURI  string
	LinkedInTokenURI string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Env:          getEnv("SERVER_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "maestro"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Vault: VaultConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			TickInterval:      getDurationEnv("SCHEDULER_TICK_INTERVAL", time.Second),
			MaxInstances:      getIntEnv("SCHEDULER_MAX_INSTANCES", 3),
			InvocationTimeout: getDurationEnv("SCHEDULER_INVOCATION_TIMEOUT", 5*time.Minute),
		},
		OAuth: OAuthConfig{
			RedirectURL:      getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/v1/oauth/callback"),
			GoogleAuthURI:    getEnv("GOOGLE_AUTH_URI", "https://accounts.google.com/o/oauth2/auth"),
			LinkedInAuthURI:  getEnv("LINKEDIN_AUTH_URI", "https://www.linkedin.com/oauth/v2/authorization"),
			LinkedInTokenURI: getEnv("LINKEDIN_TOKEN_URI", "https://www.linkedin.com/oauth/v2/accessToken"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	// Vault validation - the service must never run without a key
	if c.Vault.EncryptionKey == "" {
		errs = append(errs, errors.New("ENCRYPTION_KEY is required"))
	} else if _, err := c.Vault.Key(); err != nil {
		errs = append(errs, fmt.Errorf("ENCRYPTION_KEY: %w", err))
	}

	// Scheduler validation
	if c.Scheduler.TickInterval <= 0 {
		errs = append(errs, errors.New("SCHEDULER_TICK_INTERVAL must be positive"))
	}
	if c.Scheduler.MaxInstances <= 0 {
		errs = append(errs, errors.New("SCHEDULER_MAX_INSTANCES must be positive"))
	}
	if c.Scheduler.InvocationTimeout <= 0 {
		errs = append(errs, errors.New("SCHEDULER_INVOCATION_TIMEOUT must be positive"))
	}

	// OAuth validation
	if c.OAuth.RedirectURL == "" {
		errs = append(errs, errors.New("OAUTH_REDIRECT_URL is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Key decodes the base64 encryption key and checks its length.
func (v VaultConfig) Key() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(v.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("must be base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
