package bier

import (
	"fmt"
	"os"
	"strings"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"
)

// Config holds codec wide settings.
//
// Configuration can come from code, a YAML file (LoadConfig), the
// environment (LoadConfigFromEnvironment) or a .env file
// (LoadConfigFromEnvFile). Validate applies defaults for empty fields.
//
// Example usage:
//
//	cfg := bier.Config{
//	    DefaultLengthType: "u16",
//	    DecodePolicy:      "replace",
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := bier.NewFromConfig(cfg)
type Config struct {
	// DefaultLengthType is the integer kind prefixing strings, bytes and
	// lists that declare no length. Default: u32.
	DefaultLengthType string `yaml:"default_length_type"`

	// DecodePolicy is strict, replace or raw. Default: strict.
	DecodePolicy string `yaml:"decode_policy"`

	// MaxLength caps length prefixes read from a stream. Zero means the
	// default of 16 MiB; a negative value disables the cap.
	MaxLength int `yaml:"max_length"`

	// Logging attaches a LoggingObservabilityHook backed by the standard
	// logger.
	Logging bool `yaml:"logging"`

	// Settings are passed to every node through the Context.
	Settings map[string]any `yaml:"settings,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	return Config{
		DefaultLengthType: DefaultLengthTypeName,
		DecodePolicy:      DefaultDecodePolicy,
		MaxLength:         DefaultMaxLength,
	}
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.DefaultLengthType == "" {
		c.DefaultLengthType = DefaultLengthTypeName
	}
	if c.DecodePolicy == "" {
		c.DecodePolicy = DefaultDecodePolicy
	}
	if c.MaxLength == 0 {
		c.MaxLength = DefaultMaxLength
	}

	errs := errsx.Map{}
	if k, ok := ParseKind(strings.ToLower(c.DefaultLengthType)); !ok || !k.IsInteger() {
		errs.Set("default_length_type", fmt.Errorf("must be an integer kind such as u16, got %q", c.DefaultLengthType))
	}
	if _, err := ParseDecodePolicy(c.DecodePolicy); err != nil {
		errs.Set("decode_policy", fmt.Errorf("must be strict, replace or raw, got %q", c.DecodePolicy))
	}
	for key := range c.Settings {
		if key == "" {
			errs.Set("settings", fmt.Errorf("setting keys cannot be empty"))
		}
	}
	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, errs.AsError())
	}
	return nil
}

// Options converts a validated configuration into codec options.
func (c Config) Options() ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	k, _ := ParseKind(strings.ToLower(c.DefaultLengthType))
	policy, _ := ParseDecodePolicy(c.DecodePolicy)
	maxLength := c.MaxLength
	if maxLength < 0 {
		maxLength = 0
	}

	opts := []Option{
		WithLengthType(Primitive(k)),
		WithDecodePolicy(policy),
		WithMaxLength(maxLength),
	}
	for key, value := range c.Settings {
		opts = append(opts, WithSetting(key, value))
	}
	if c.Logging {
		opts = append(opts, WithLogger(nil))
	}
	return opts, nil
}

// NewFromConfig builds a Codec from cfg. Extra options are applied after the
// configured ones.
func NewFromConfig(cfg Config, extra ...Option) (*Codec, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	return New(append(opts, extra...)...)
}

// LoadConfig reads a YAML configuration file and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
