package bier

import (
	"fmt"
	"reflect"
	"time"

	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/monitoring"
)

// Codec reads and writes records through a Registry.
//
// A Codec is safe for concurrent use. Each call builds its own stream
// position and Context; only the registry cache is shared.
type Codec struct {
	registry     *Registry
	registryOpts []RegistryOption
	settings     map[string]any
	hooks        []ObservabilityHook
	hook         ObservabilityHook
}

// New creates a Codec with its own registry unless WithRegistry is given.
//
// Example:
//
//	codec, err := bier.New(
//	    bier.WithLengthType(bier.U16),
//	    bier.WithMaxLength(1<<20),
//	    bier.WithLogger(nil),
//	)
//	data, err := codec.Marshal(header, endian.BigEndian)
func New(opts ...Option) (*Codec, error) {
	c := &Codec{settings: map[string]any{SettingMaxLength: DefaultMaxLength}}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	switch len(c.hooks) {
	case 0:
		c.hook = &monitoring.NoOpObservabilityHook{}
	case 1:
		c.hook = c.hooks[0]
	default:
		c.hook = monitoring.NewCompositeObservabilityHook(c.hooks...)
	}

	if c.registry != nil {
		if len(c.registryOpts) > 0 {
			return nil, fmt.Errorf("%w: length type and decode policy must be set on the shared registry", ErrInvalidConfiguration)
		}
		return c, nil
	}
	registry, err := NewRegistry(append(c.registryOpts, WithRegistryHook(c.hook))...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	c.registry = registry
	return c, nil
}

var defaultCodec = &Codec{
	registry: DefaultRegistry,
	settings: map[string]any{SettingMaxLength: DefaultMaxLength},
	hook:     &monitoring.NoOpObservabilityHook{},
}

func (c *Codec) Registry() *Registry {
	return c.registry
}

func (c *Codec) newContext() *Context {
	return NewContext(c.settings)
}

// Schema returns the root node used for v's type.
func (c *Codec) Schema(v any) (Node, error) {
	rt, err := RecordTypeOf(v)
	if err != nil {
		return nil, err
	}
	return c.registry.Root(rt)
}

// Marshal encodes a struct value into a new byte slice.
func (c *Codec) Marshal(v any, order endian.Order) ([]byte, error) {
	rt, err := RecordTypeOf(v)
	if err != nil {
		return nil, err
	}
	return c.MarshalRecord(rt, v, order)
}

// MarshalRecord encodes v as rt. Nothing is returned on error, so callers
// never see a partial encoding.
func (c *Codec) MarshalRecord(rt RecordType, v any, order endian.Order) ([]byte, error) {
	s := endian.NewBytes(nil, order)
	if _, err := c.EncodeRecord(s, rt, v); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// Unmarshal decodes data into out, which must be a non-nil pointer to a
// struct. Bytes after the record are ignored.
func (c *Codec) Unmarshal(data []byte, order endian.Order, out any) error {
	return c.Decode(endian.NewBytes(data, order), out)
}

// UnmarshalRecord decodes one rt record from data.
func (c *Codec) UnmarshalRecord(rt RecordType, data []byte, order endian.Order) (any, error) {
	return c.DecodeRecord(endian.NewBytes(data, order), rt)
}

// Encode writes v to s and returns the number of bytes written.
func (c *Codec) Encode(s *endian.Stream, v any) (int, error) {
	rt, err := RecordTypeOf(v)
	if err != nil {
		return 0, err
	}
	return c.EncodeRecord(s, rt, v)
}

func (c *Codec) EncodeRecord(s *endian.Stream, rt RecordType, v any) (int, error) {
	return c.observe("encode", rt, func() (int, error) {
		return c.registry.Write(rt, v, s, c.newContext())
	})
}

// Decode reads one record from s into out.
func (c *Codec) Decode(s *endian.Stream, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrInvalidValue, out)
	}
	rt, err := RecordTypeOf(rv.Type().Elem())
	if err != nil {
		return err
	}
	v, err := c.DecodeRecord(s, rt)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), v)
}

func (c *Codec) DecodeRecord(s *endian.Stream, rt RecordType) (any, error) {
	var out any
	_, err := c.observe("decode", rt, func() (int, error) {
		start := s.Tell()
		v, err := c.registry.Read(rt, s, c.newContext())
		out = v
		return int(s.Tell() - start), err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) observe(operation string, rt RecordType, fn func() (int, error)) (int, error) {
	metadata := map[string]any{"record": rt.Name()}
	c.hook.OnProcessStart(operation, metadata)
	start := time.Now()

	n, err := fn()
	metadata["bytes"] = n
	if err != nil {
		c.hook.OnError(operation, err, metadata)
	}
	c.hook.OnProcessComplete(operation, time.Since(start), err, metadata)
	return n, err
}

// Marshal encodes v with the default registry.
func Marshal(v any, order endian.Order) ([]byte, error) {
	return defaultCodec.Marshal(v, order)
}

// Unmarshal decodes data into out with the default registry.
func Unmarshal(data []byte, order endian.Order, out any) error {
	return defaultCodec.Unmarshal(data, order, out)
}

// FromBytes decodes a T from data with the default registry.
func FromBytes[T any](data []byte, order endian.Order) (T, error) {
	var out T
	err := defaultCodec.Unmarshal(data, order, &out)
	return out, err
}

// SchemaOf returns the root node the default registry uses for T.
func SchemaOf[T any]() (Node, error) {
	rt, err := RecordTypeOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return DefaultRegistry.Root(rt)
}
