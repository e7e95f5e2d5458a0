package bier

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hengadev/errsx"

	"github.com/hengadev/bier/endian"
)

// recordKey is the errsx.Map key for problems that are not tied to a field.
const recordKey = "<record>"

type buildDefaults struct {
	length Node
	decode DecodePolicy
	order  endian.Order
}

// build derives the schema tree of rt. building holds the keys of records
// whose build is in progress further up the call stack; references to them
// become lazy struct nodes so recursive types terminate.
func (r *Registry) build(rt RecordType, building map[any]bool) (*schemaEntry, error) {
	if building == nil {
		building = make(map[any]bool)
	}
	key := rt.Key()
	building[key] = true
	defer delete(building, key)

	var errs errsx.Map

	recordOpts, err := EvaluateDirectives(rt.Options()...)
	if err != nil {
		errs.Set(recordKey, err)
	}
	defaults := buildDefaults{length: r.lengthType, decode: r.decode, order: recordOpts.Order}
	if recordOpts.Length != nil {
		defaults.length = recordOpts.Length
	}
	if recordOpts.HasDecode() {
		defaults.decode = recordOpts.Decode
	}

	fields, err := rt.Fields()
	if err != nil {
		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			return nil, fmt.Errorf("record %s: %w", rt.Name(), err)
		}
		for k, v := range schemaErr.Fields {
			errs.Set(k, v)
		}
	}

	nodes := make([]FieldNode, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			errs.Set(f.Name, NewInvalidSchemaError("duplicate field name %q", f.Name))
			continue
		}
		seen[f.Name] = true

		opts, err := EvaluateDirectives(append(append([]Directive(nil), f.Type.Directives...), f.Directives...)...)
		if err != nil {
			errs.Set(f.Name, err)
			continue
		}
		node, err := r.resolve(f.Name, f.Type, opts, defaults, building)
		if err == nil && !opts.Order.Valid() && defaults.order.Valid() {
			node, err = Ordered(defaults.order, node)
		}
		if err != nil {
			errs.Set(f.Name, err)
			continue
		}
		nodes = append(nodes, FieldNode{Name: f.Name, Node: node, Metadata: opts.Metadata})
	}

	if !errs.IsEmpty() {
		return nil, &SchemaError{Record: rt.Name(), Fields: errs}
	}

	class, err := NewClassNode(rt.Name(), nodes, rt.Construct, rt.Lookup)
	if err != nil {
		return nil, err
	}
	var root Node = class
	if recordOpts.Root != nil {
		if root, err = recordOpts.Root(class); err != nil {
			return nil, &SchemaError{Record: rt.Name(), Fields: errsx.Map{recordKey: err}}
		}
	}
	return &schemaEntry{class: class, root: root, fingerprint: Fingerprint(root)}, nil
}

// resolve maps one descriptor to a node. A length given in opts applies to
// this level only; nested elements fall back to the record defaults unless
// their own descriptor carries directives.
func (r *Registry) resolve(field string, d Descriptor, opts Options, defaults buildDefaults, building map[any]bool) (Node, error) {
	length := opts.Length
	if length == nil {
		length = defaults.length
	}
	decode := defaults.decode
	if opts.HasDecode() {
		decode = opts.Decode
	}

	var node Node
	var err error
	switch d.Kind {
	case KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64, KindF16, KindF32, KindF64:
		node = Primitive(d.Kind)
	case KindString:
		node, err = NewStringNode(length, decode)
	case KindCString:
		if opts.Length != nil {
			return nil, NewInvalidSchemaError("C string field %s cannot take a length", field)
		}
		node, err = NewStringNode(nil, decode)
	case KindBytes:
		node, err = NewBytesNode(length)
	case KindUUID:
		node = UUID
	case KindList:
		if d.Elem == nil {
			return nil, NewInvalidSchemaError("list field %s has no element type", field)
		}
		elem, elemErr := r.resolveNested(field, *d.Elem, defaults, building)
		if elemErr != nil {
			return nil, elemErr
		}
		node, err = NewListNode(elem, length)
	case KindTuple:
		elems := make([]Node, len(d.Elems))
		for i, e := range d.Elems {
			if elems[i], err = r.resolveNested(field, e, defaults, building); err != nil {
				return nil, err
			}
		}
		node, err = NewTupleNode(elems...)
	case KindRecord:
		if d.Record == nil {
			return nil, NewInvalidSchemaError("record field %s has no record type", field)
		}
		node, err = r.structNode(d.Record, building)
	default:
		return nil, fmt.Errorf("%w: field '%s' has descriptor kind %s", ErrUnsupportedType, field, d.Kind)
	}
	if err != nil {
		return nil, err
	}

	if opts.Order.Valid() {
		return Ordered(opts.Order, node)
	}
	return node, nil
}

func (r *Registry) resolveNested(field string, d Descriptor, defaults buildDefaults, building map[any]bool) (Node, error) {
	opts, err := EvaluateDirectives(d.Directives...)
	if err != nil {
		return nil, err
	}
	return r.resolve(field, d, opts, defaults, building)
}

func (r *Registry) structNode(rt RecordType, building map[any]bool) (Node, error) {
	if building[rt.Key()] {
		return &StructNode{record: rt, registry: r}, nil
	}
	e, err := r.entry(rt, building)
	if err != nil {
		return nil, err
	}
	return &StructNode{record: rt, registry: r, node: e.root}, nil
}

// StructNode refers to the root node of another record type. References to
// a record that is still being built resolve on first use.
type StructNode struct {
	record   RecordType
	registry *Registry

	once sync.Once
	node Node
	err  error
}

// NewStructNode returns a node that resolves rt through registry when first
// used. A nil registry means DefaultRegistry.
func NewStructNode(rt RecordType, registry *Registry) *StructNode {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &StructNode{record: rt, registry: registry}
}

func (n *StructNode) Record() RecordType {
	return n.record
}

func (n *StructNode) resolve() (Node, error) {
	n.once.Do(func() {
		if n.node != nil {
			return
		}
		n.node, n.err = n.registry.Root(n.record)
	})
	return n.node, n.err
}

func (n *StructNode) String() string {
	return "struct(" + n.record.Name() + ")"
}

func (n *StructNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	node, err := n.resolve()
	if err != nil {
		return nil, err
	}
	return node.ReadFrom(s, ctx)
}

func (n *StructNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	node, err := n.resolve()
	if err != nil {
		return 0, err
	}
	return node.WriteTo(v, s, ctx)
}
