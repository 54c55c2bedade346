// Package config manages application configuration for Maestro.
//
// The config package loads and validates configuration from environment variables.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is loaded from environment variables:
//
//	cfg := config.Load()
//
// # Configuration Groups
//
// Configuration is organized into logical groups:
//
//   - ServerConfig: HTTP server settings (port, timeouts)
//   - DatabaseConfig: SurrealDB connection settings
//   - VaultConfig: credential encryption key
//   - SchedulerConfig: job scan interval and concurrency caps
//   - OAuthConfig: provider endpoints and the registered callback URL
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT              - HTTP server port (default: 8080)
//	DB_HOST / DB_PORT        - SurrealDB host and port
//	DB_NAMESPACE / DB_DATABASE
//	DB_USER / DB_PASSWORD
//	ENCRYPTION_KEY           - base64 32-byte vault key (required)
//	SCHEDULER_TICK_INTERVAL  - job scan interval (default: 1s)
//	SCHEDULER_MAX_INSTANCES  - concurrent runs per job id (default: 3)
//	OAUTH_REDIRECT_URL       - registered OAuth callback URL
//
// # Default Values
//
// Sensible defaults are provided for development:
//
//	func getEnv(key, defaultValue string) string {
//	    if value := os.Getenv(key); value != "" {
//	        return value
//	    }
//	    return defaultValue
//	}
//
// ENCRYPTION_KEY deliberately has no default. Validate() fails without it
// and the process exits at startup.
package config
