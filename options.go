package bier

import "fmt"

// Option configures a Codec.
type Option func(c *Codec) error

// WithRegistry shares a registry between codecs. Schema defaults such as
// WithLengthType must then be set on the registry itself.
func WithRegistry(registry *Registry) Option {
	return func(c *Codec) error {
		if registry == nil {
			return fmt.Errorf("%w: nil registry", ErrInvalidConfiguration)
		}
		c.registry = registry
		return nil
	}
}

// WithObservabilityHook adds a hook. Hooks accumulate.
func WithObservabilityHook(hook ObservabilityHook) Option {
	return func(c *Codec) error {
		if hook == nil {
			return fmt.Errorf("%w: nil observability hook", ErrInvalidConfiguration)
		}
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

// WithMetricsCollector reports operation counts and timings to collector.
func WithMetricsCollector(collector MetricsCollector) Option {
	return func(c *Codec) error {
		if collector == nil {
			return fmt.Errorf("%w: nil metrics collector", ErrInvalidConfiguration)
		}
		c.hooks = append(c.hooks, NewMetricsObservabilityHook(collector))
		return nil
	}
}

// WithLogger logs every operation through logger.
func WithLogger(logger Logger) Option {
	return func(c *Codec) error {
		c.hooks = append(c.hooks, NewLoggingObservabilityHook(logger))
		return nil
	}
}

// WithSetting adds a read-only setting visible to every node through the
// Context.
func WithSetting(key string, value any) Option {
	return func(c *Codec) error {
		if key == "" {
			return fmt.Errorf("%w: empty setting key", ErrInvalidConfiguration)
		}
		c.settings[key] = value
		return nil
	}
}

// WithMaxLength caps length prefixes read from streams. Zero disables the
// cap.
func WithMaxLength(n int) Option {
	return func(c *Codec) error {
		if n < 0 {
			return fmt.Errorf("%w: max length %d", ErrInvalidConfiguration, n)
		}
		c.settings[SettingMaxLength] = n
		return nil
	}
}

// WithLengthType sets the default size node of the codec's own registry.
func WithLengthType(node Node) Option {
	return func(c *Codec) error {
		if err := checkSizeNode(node); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		c.registryOpts = append(c.registryOpts, WithDefaultLengthType(node))
		return nil
	}
}

// WithDecodePolicy sets the default string decode policy of the codec's own
// registry.
func WithDecodePolicy(policy DecodePolicy) Option {
	return func(c *Codec) error {
		if policy > DecodeRaw {
			return fmt.Errorf("%w: decode policy %d", ErrInvalidConfiguration, policy)
		}
		c.registryOpts = append(c.registryOpts, WithDefaultDecodePolicy(policy))
		return nil
	}
}
