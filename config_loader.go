package bier

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadConfigFromEnvironment reads configuration from BIER_* environment
// variables. Unset variables take their defaults.
//
//   - BIER_DEFAULT_LENGTH_TYPE: length prefix kind (default: u32)
//   - BIER_DECODE_POLICY: strict, replace or raw (default: strict)
//   - BIER_MAX_LENGTH: cap on decoded lengths (default: 16 MiB)
//   - BIER_LOGGING: attach the logging hook (default: false)
func LoadConfigFromEnvironment() (Config, error) {
	return configFromLookup(os.LookupEnv)
}

// LoadConfigFromEnvFile reads the same variables from a .env file without
// touching the process environment.
func LoadConfigFromEnvFile(path string) (Config, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return configFromLookup(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	})
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		DefaultLengthType: getOrDefault(lookup, EnvDefaultLengthType, DefaultLengthTypeName),
		DecodePolicy:      getOrDefault(lookup, EnvDecodePolicy, DefaultDecodePolicy),
	}

	if raw, ok := lookup(EnvMaxLength); ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfiguration, EnvMaxLength, raw)
		}
		cfg.MaxLength = n
	}
	if raw, ok := lookup(EnvLogging); ok && raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s must be a boolean, got %q", ErrInvalidConfiguration, EnvLogging, raw)
		}
		cfg.Logging = enabled
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func getOrDefault(lookup func(string) (string, bool), key, defaultValue string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return defaultValue
}
