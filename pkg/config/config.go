// Package config provides configuration management for the statement importer.
// It loads configuration from environment variables and .env files, and
// importer profiles from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultProfilesPath is where importer profiles are read from when
// IMPORT_PROFILES is not set.
const DefaultProfilesPath = "config/importers.yaml"

// Config represents the application configuration.
type Config struct {
	Ledger       LedgerConfig
	ProfilesPath string
	Debug        bool
}

// LedgerConfig represents ledger-related configuration.
type LedgerConfig struct {
	Root         string
	DBPath       string
	DocumentsDir string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Ledger: LedgerConfig{
			Root:         getEnvOrDefault("LEDGER_ROOT", "./ledger"),
			DBPath:       os.Getenv("LEDGER_DB_PATH"),
			DocumentsDir: os.Getenv("LEDGER_DOCUMENTS_DIR"),
		},
		ProfilesPath: getEnvOrDefault("IMPORT_PROFILES", DefaultProfilesPath),
		Debug:        debug,
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) == 0 {
			continue
		}

		var value string
		switch path[0] {
		case "ledger":
			if len(path) < 2 {
				continue
			}
			switch path[1] {
			case "root":
				value = c.Ledger.Root
			case "dbPath":
				value = c.Ledger.DBPath
			case "documentsDir":
				value = c.Ledger.DocumentsDir
			}
		case "profiles":
			value = c.ProfilesPath
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a bool from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}

	return parsed, nil
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	result := ""
	for i, p := range path {
		if i > 0 {
			result += "."
		}
		result += p
	}
	return result
}
