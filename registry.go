package bier

import (
	"sync"
	"time"

	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/monitoring"
)

type schemaEntry struct {
	class       *ClassNode
	root        Node
	fingerprint string
}

// Registry caches one schema tree per record type.
//
// Lookups take a read lock. A miss builds the tree without holding any
// lock, so record types that refer to each other can build concurrently;
// if two goroutines race on the same type the first stored tree wins and
// both get it.
type Registry struct {
	mu      sync.RWMutex
	entries map[any]*schemaEntry

	lengthType Node
	decode     DecodePolicy
	hook       monitoring.ObservabilityHook
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithDefaultLengthType sets the size node used by strings, bytes and lists
// that declare none. The default is U32.
func WithDefaultLengthType(node Node) RegistryOption {
	return func(r *Registry) error {
		if err := checkSizeNode(node); err != nil {
			return err
		}
		r.lengthType = node
		return nil
	}
}

// WithDefaultDecodePolicy sets the policy of string fields that declare
// none. The default is DecodeStrict.
func WithDefaultDecodePolicy(policy DecodePolicy) RegistryOption {
	return func(r *Registry) error {
		if policy > DecodeRaw {
			return NewInvalidSchemaError("unknown decode policy %d", policy)
		}
		r.decode = policy
		return nil
	}
}

// WithRegistryHook reports every schema build to hook.
func WithRegistryHook(hook ObservabilityHook) RegistryOption {
	return func(r *Registry) error {
		if hook == nil {
			hook = &monitoring.NoOpObservabilityHook{}
		}
		r.hook = hook
		return nil
	}
}

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := newRegistry()
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newRegistry() *Registry {
	return &Registry{
		entries:    make(map[any]*schemaEntry),
		lengthType: U32,
		decode:     DecodeStrict,
		hook:       &monitoring.NoOpObservabilityHook{},
	}
}

// DefaultRegistry backs the package level Marshal and Unmarshal.
var DefaultRegistry = newRegistry()

// Class returns the class node of rt, building it on first use.
func (r *Registry) Class(rt RecordType) (*ClassNode, error) {
	e, err := r.entry(rt, nil)
	if err != nil {
		return nil, err
	}
	return e.class, nil
}

// Root returns the top level node of rt: its class node, or whatever its
// CustomRoot directive produced.
func (r *Registry) Root(rt RecordType) (Node, error) {
	e, err := r.entry(rt, nil)
	if err != nil {
		return nil, err
	}
	return e.root, nil
}

// Fingerprint returns the hash of rt's root node description.
func (r *Registry) Fingerprint(rt RecordType) (string, error) {
	e, err := r.entry(rt, nil)
	if err != nil {
		return "", err
	}
	return e.fingerprint, nil
}

// Read decodes one rt record from s.
func (r *Registry) Read(rt RecordType, s *endian.Stream, ctx *Context) (any, error) {
	root, err := r.Root(rt)
	if err != nil {
		return nil, err
	}
	return root.ReadFrom(s, ctx)
}

// Write encodes record as rt to s.
func (r *Registry) Write(rt RecordType, record any, s *endian.Stream, ctx *Context) (int, error) {
	root, err := r.Root(rt)
	if err != nil {
		return 0, err
	}
	return root.WriteTo(record, s, ctx)
}

// Len returns the number of cached record types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear drops every cached tree.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.entries = make(map[any]*schemaEntry)
	r.mu.Unlock()
}

func (r *Registry) lookup(key any) (*schemaEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	return e, ok
}

func (r *Registry) entry(rt RecordType, building map[any]bool) (*schemaEntry, error) {
	if rt == nil {
		return nil, NewInvalidSchemaError("nil record type")
	}
	key := rt.Key()
	if e, ok := r.lookup(key); ok {
		return e, nil
	}

	start := time.Now()
	built, err := r.build(rt, building)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.entries[key]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.entries[key] = built
	r.mu.Unlock()

	r.hook.OnSchemaBuild(rt.Name(), built.fingerprint, time.Since(start))
	return built, nil
}
