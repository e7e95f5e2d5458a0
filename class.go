package bier

import (
	"encoding/hex"
	"fmt"
	"maps"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/hengadev/bier/endian"
)

// FieldNode binds a field name to its node and the free-form metadata
// declared for it. Metadata does not change how the field's bytes are shaped;
// custom roots such as TLVRoot read it.
type FieldNode struct {
	Name     string
	Node     Node
	Metadata map[string]any
}

// ConstructFunc builds a record value from decoded field values.
type ConstructFunc func(values map[string]any) (any, error)

// LookupFunc returns the value of one field of a record.
type LookupFunc func(record any, name string) (any, error)

// ClassNode is the default record encoding: every field in declaration
// order with no framing in between.
type ClassNode struct {
	name        string
	fields      []FieldNode
	index       map[string]int
	construct   ConstructFunc
	lookup      LookupFunc
	fingerprint string
}

// NewClassNode validates the field list and binds it to the record's
// construct and lookup functions.
func NewClassNode(name string, fields []FieldNode, construct ConstructFunc, lookup LookupFunc) (*ClassNode, error) {
	if construct == nil || lookup == nil {
		return nil, NewInvalidSchemaError("record %s needs construct and lookup functions", name)
	}
	c := &ClassNode{
		name:      name,
		fields:    make([]FieldNode, len(fields)),
		index:     make(map[string]int, len(fields)),
		construct: construct,
		lookup:    lookup,
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, NewInvalidSchemaError("record %s: field %d has no name", name, i)
		}
		if f.Node == nil {
			return nil, NewInvalidSchemaError("record %s: field %s has no node", name, f.Name)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, NewInvalidSchemaError("record %s: duplicate field %s", name, f.Name)
		}
		c.index[f.Name] = i
		c.fields[i] = FieldNode{Name: f.Name, Node: f.Node, Metadata: maps.Clone(f.Metadata)}
	}

	c.fingerprint = Fingerprint(c)
	return c, nil
}

func (c *ClassNode) Name() string {
	return c.name
}

// Fields returns a copy of the field list in wire order.
func (c *ClassNode) Fields() []FieldNode {
	out := make([]FieldNode, len(c.fields))
	for i, f := range c.fields {
		out[i] = FieldNode{Name: f.Name, Node: f.Node, Metadata: maps.Clone(f.Metadata)}
	}
	return out
}

func (c *ClassNode) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

func (c *ClassNode) Nodes() []Node {
	nodes := make([]Node, len(c.fields))
	for i, f := range c.fields {
		nodes[i] = f.Node
	}
	return nodes
}

func (c *ClassNode) Field(name string) (FieldNode, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldNode{}, false
	}
	return c.fields[i], true
}

// Construct builds a record from a name to value map. Missing names take the
// record's zero value.
func (c *ClassNode) Construct(values map[string]any) (any, error) {
	return c.construct(values)
}

func (c *ClassNode) Lookup(record any, name string) (any, error) {
	return c.lookup(record, name)
}

// Fingerprint is a short hash of the node description. Two class nodes with
// the same fingerprint share a wire format.
func (c *ClassNode) Fingerprint() string {
	return c.fingerprint
}

// Fingerprint hashes a node description with BLAKE2b and returns the first
// 16 bytes in hex.
func Fingerprint(n Node) string {
	sum := blake2b.Sum256([]byte(n.String()))
	return hex.EncodeToString(sum[:16])
}

func (c *ClassNode) String() string {
	var b strings.Builder
	b.WriteString("class ")
	b.WriteString(c.name)
	b.WriteByte('{')
	for i, f := range c.fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Node.String())
		writeMetadata(&b, f.Metadata)
	}
	b.WriteByte('}')
	return b.String()
}

func writeMetadata(b *strings.Builder, meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%s=%v", k, meta[k])
	}
	b.WriteByte(']')
}

func (c *ClassNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	child := ensureContext(ctx).Fork(nil)
	values := child.Values()
	for _, f := range c.fields {
		offset := s.Tell()
		v, err := f.Node.ReadFrom(s, child)
		if err != nil {
			return nil, c.fieldError(f.Name, offset, err)
		}
		values[f.Name] = v
	}
	return c.construct(values)
}

func (c *ClassNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: nil %s record", ErrInvalidValue, c.name)
	}
	child := ensureContext(ctx).Fork(v)
	total := 0
	for _, f := range c.fields {
		offset := s.Tell()
		fv, err := c.lookup(v, f.Name)
		if err != nil {
			return total, c.fieldError(f.Name, offset, err)
		}
		n, err := f.Node.WriteTo(fv, s, child)
		total += n
		if err != nil {
			return total, c.fieldError(f.Name, offset, err)
		}
	}
	return total, nil
}

func (c *ClassNode) fieldError(field string, offset int64, err error) error {
	return &FieldError{Record: c.name, Field: field, Offset: offset, Err: err}
}
