package bier

// Descriptor is the front end neutral description of a field type.
type Descriptor struct {
	Kind Kind
	// Elem is the element type of a list.
	Elem *Descriptor
	// Elems are the member types of a tuple.
	Elems []Descriptor
	// Record is the nested record type of a KindRecord descriptor.
	Record RecordType
	// Directives apply to this type only. Field level directives passed in
	// Field.Directives take precedence over them.
	Directives []Directive
}

// Field is one entry of a record's field list.
type Field struct {
	Name       string
	Type       Descriptor
	Directives []Directive
}

// RecordType is what the schema builder needs to know about a record.
type RecordType interface {
	// Key identifies the type in a Registry. It must be comparable.
	Key() any
	Name() string
	// Fields lists the fields in declaration order, which is also wire order.
	Fields() ([]Field, error)
	// Options are record level directives such as a default LengthType or
	// a CustomRoot.
	Options() []Directive
	Construct(values map[string]any) (any, error)
	Lookup(record any, name string) (any, error)
}

// Convenience descriptors.
var (
	DescU8   = Descriptor{Kind: KindU8}
	DescU16  = Descriptor{Kind: KindU16}
	DescU32  = Descriptor{Kind: KindU32}
	DescU64  = Descriptor{Kind: KindU64}
	DescI8   = Descriptor{Kind: KindI8}
	DescI16  = Descriptor{Kind: KindI16}
	DescI32  = Descriptor{Kind: KindI32}
	DescI64  = Descriptor{Kind: KindI64}
	DescF16  = Descriptor{Kind: KindF16}
	DescF32  = Descriptor{Kind: KindF32}
	DescF64  = Descriptor{Kind: KindF64}
	DescStr  = Descriptor{Kind: KindString}
	DescCStr = Descriptor{Kind: KindCString}
	DescByte = Descriptor{Kind: KindBytes}
)

// ListOf describes a list of elem.
func ListOf(elem Descriptor, directives ...Directive) Descriptor {
	return Descriptor{Kind: KindList, Elem: &elem, Directives: directives}
}

// TupleOf describes a fixed arity tuple.
func TupleOf(elems ...Descriptor) Descriptor {
	return Descriptor{Kind: KindTuple, Elems: elems}
}

// RecordOf describes a nested record.
func RecordOf(rt RecordType) Descriptor {
	return Descriptor{Kind: KindRecord, Record: rt}
}

// With returns a copy of d carrying extra directives.
func (d Descriptor) With(directives ...Directive) Descriptor {
	d.Directives = append(append([]Directive(nil), d.Directives...), directives...)
	return d
}
