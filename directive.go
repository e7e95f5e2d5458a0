package bier

import "github.com/hengadev/bier/endian"

// Directive is one encoding option attached to a record type or a field.
// The set is closed: use the constructors below.
type Directive interface {
	apply(o *Options) error
}

// Options is the evaluated form of a directive list. Later directives
// override earlier ones; metadata entries accumulate.
type Options struct {
	// Length is the size node for strings, bytes and lists. Nil when unset.
	Length   Node
	Decode   DecodePolicy
	Order    endian.Order
	Root     RootFactory
	Metadata map[string]any

	hasDecode bool
}

// HasDecode reports whether a decode policy was given explicitly.
func (o Options) HasDecode() bool {
	return o.hasDecode
}

// EvaluateDirectives folds directives into an Options value.
func EvaluateDirectives(directives ...Directive) (Options, error) {
	var o Options
	for _, d := range directives {
		if d == nil {
			continue
		}
		if err := d.apply(&o); err != nil {
			return Options{}, err
		}
	}
	return o, nil
}

type lengthDirective struct {
	node Node
}

func (d lengthDirective) apply(o *Options) error {
	if err := checkSizeNode(d.node); err != nil {
		return err
	}
	o.Length = d.node
	return nil
}

// LengthType selects the integer primitive that prefixes a string, byte
// sequence or list.
func LengthType(node Node) Directive {
	return lengthDirective{node: node}
}

// FixedLength declares a length known from the schema, occupying no bytes.
func FixedLength(n int) Directive {
	return lengthDirective{node: StaticLength(n)}
}

type metadataDirective struct {
	key   string
	value any
}

func (d metadataDirective) apply(o *Options) error {
	if d.key == "" {
		return NewInvalidSchemaError("metadata with empty key")
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]any)
	}
	o.Metadata[d.key] = d.value
	return nil
}

// Metadata attaches a free-form key and value to a field.
func Metadata(key string, value any) Directive {
	return metadataDirective{key: key, value: value}
}

type decodeDirective struct {
	policy DecodePolicy
}

func (d decodeDirective) apply(o *Options) error {
	if d.policy > DecodeRaw {
		return NewInvalidSchemaError("unknown decode policy %d", d.policy)
	}
	o.Decode = d.policy
	o.hasDecode = true
	return nil
}

// DecodeErrors sets what string fields do with invalid UTF-8.
func DecodeErrors(policy DecodePolicy) Directive {
	return decodeDirective{policy: policy}
}

type orderDirective struct {
	order endian.Order
}

func (d orderDirective) apply(o *Options) error {
	if !d.order.Valid() {
		return NewInvalidSchemaError("byte order %s", d.order)
	}
	o.Order = d.order
	return nil
}

// ByteOrder pins the byte order of a field independently of the stream.
func ByteOrder(order endian.Order) Directive {
	return orderDirective{order: order}
}

type rootDirective struct {
	factory RootFactory
}

func (d rootDirective) apply(o *Options) error {
	if d.factory == nil {
		return NewInvalidSchemaError("nil root factory")
	}
	o.Root = d.factory
	return nil
}

// CustomRoot selects the top level encoding of a record type. It only has
// an effect at record level.
func CustomRoot(factory RootFactory) Directive {
	return rootDirective{factory: factory}
}
