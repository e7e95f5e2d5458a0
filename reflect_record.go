package bier

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/hengadev/errsx"

	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/tags"
)

// OptionsProvider lets a struct type declare record level directives:
//
//	func (Header) BinaryOptions() []bier.Directive {
//		return []bier.Directive{bier.LengthType(bier.U16)}
//	}
type OptionsProvider interface {
	BinaryOptions() []Directive
}

var uuidType = reflect.TypeOf(uuid.UUID{})

// structRecord exposes a Go struct type as a RecordType. Exported fields are
// encoded in declaration order; `bier:"-"` skips a field.
type structRecord struct {
	typ reflect.Type
}

type structField struct {
	name     string
	index    []int
	nullable bool
}

// RecordTypeOf returns the RecordType of a struct value, a pointer to one, or
// a reflect.Type naming a struct.
func RecordTypeOf(v any) (RecordType, error) {
	var t reflect.Type
	switch x := v.(type) {
	case reflect.Type:
		t = x
	case RecordType:
		return x, nil
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrUnsupportedType)
	default:
		t = reflect.TypeOf(v)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}
	return &structRecord{typ: t}, nil
}

func (r *structRecord) Key() any {
	return r.typ
}

func (r *structRecord) Name() string {
	if r.typ.Name() != "" {
		return r.typ.Name()
	}
	return r.typ.String()
}

func (r *structRecord) Options() []Directive {
	if p, ok := reflect.New(r.typ).Interface().(OptionsProvider); ok {
		return p.BinaryOptions()
	}
	return nil
}

func (r *structRecord) encodedFields() []structField {
	var out []structField
	for i := 0; i < r.typ.NumField(); i++ {
		sf := r.typ.Field(i)
		if !sf.IsExported() || sf.Tag.Get(tags.Name) == "-" {
			continue
		}
		out = append(out, structField{
			name:     sf.Name,
			index:    sf.Index,
			nullable: sf.Type.Kind() == reflect.Pointer,
		})
	}
	return out
}

func (r *structRecord) Fields() ([]Field, error) {
	var errs errsx.Map
	var fields []Field
	for _, ef := range r.encodedFields() {
		sf := r.typ.FieldByIndex(ef.index)
		spec, err := tags.Parse(sf.Tag.Get(tags.Name))
		if err != nil {
			errs.Set(sf.Name, NewInvalidSchemaError("tag on %s: %v", sf.Name, err))
			continue
		}
		desc, err := describeGoType(sf.Name, sf.Type, spec)
		if err != nil {
			errs.Set(sf.Name, err)
			continue
		}
		directives, err := fieldDirectives(spec)
		if err != nil {
			errs.Set(sf.Name, err)
			continue
		}
		fields = append(fields, Field{Name: sf.Name, Type: desc, Directives: directives})
	}
	if !errs.IsEmpty() {
		return fields, &SchemaError{Record: r.Name(), Fields: errs}
	}
	return fields, nil
}

func fieldDirectives(spec tags.Spec) ([]Directive, error) {
	var out []Directive
	if spec.Length != "" {
		k, _ := ParseKind(spec.Length)
		out = append(out, LengthType(Primitive(k)))
	}
	if spec.HasStatic {
		out = append(out, FixedLength(spec.Static))
	}
	if spec.Order != "" {
		order, err := endian.ParseOrder(spec.Order)
		if err != nil {
			return nil, NewInvalidSchemaError("%v", err)
		}
		out = append(out, ByteOrder(order))
	}
	if spec.Decode != "" {
		policy, err := ParseDecodePolicy(spec.Decode)
		if err != nil {
			return nil, err
		}
		out = append(out, DecodeErrors(policy))
	}
	for _, m := range spec.Meta {
		out = append(out, Metadata(m.Key, m.Value))
	}
	return out, nil
}

func elemDirectives(spec tags.Spec) []Directive {
	var out []Directive
	if spec.ElemLength != "" {
		k, _ := ParseKind(spec.ElemLength)
		out = append(out, LengthType(Primitive(k)))
	}
	if spec.HasElemStatic {
		out = append(out, FixedLength(spec.ElemStatic))
	}
	return out
}

// describeGoType maps a Go type to a descriptor, honouring an explicit kind
// from the tag.
func describeGoType(field string, t reflect.Type, spec tags.Spec) (Descriptor, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if spec.Kind != "" {
		d, err := describeExplicit(field, t, spec.Kind)
		if err != nil {
			return Descriptor{}, err
		}
		// a byte array keeps its static length unless the tag sets one
		if d.Kind == KindBytes && t.Kind() == reflect.Array && spec.Length == "" && !spec.HasStatic {
			d = d.With(FixedLength(t.Len()))
		}
		return d, nil
	}
	if t == uuidType {
		return Descriptor{Kind: KindUUID}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return DescU8, nil
	case reflect.Int8:
		return DescI8, nil
	case reflect.Int16:
		return DescI16, nil
	case reflect.Int32:
		return DescI32, nil
	case reflect.Int64:
		return DescI64, nil
	case reflect.Uint8:
		return DescU8, nil
	case reflect.Uint16:
		return DescU16, nil
	case reflect.Uint32:
		return DescU32, nil
	case reflect.Uint64:
		return DescU64, nil
	case reflect.Float32:
		return DescF32, nil
	case reflect.Float64:
		return DescF64, nil
	case reflect.String:
		return DescStr, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return DescByte, nil
		}
		elem, err := describeElem(field, t.Elem(), spec)
		if err != nil {
			return Descriptor{}, err
		}
		return ListOf(elem), nil
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			if spec.Length != "" || spec.HasStatic {
				return DescByte, nil
			}
			return DescByte.With(FixedLength(t.Len())), nil
		}
		elem, err := describeElem(field, t.Elem(), spec)
		if err != nil {
			return Descriptor{}, err
		}
		elems := make([]Descriptor, t.Len())
		for i := range elems {
			elems[i] = elem
		}
		return TupleOf(elems...), nil
	case reflect.Struct:
		return RecordOf(&structRecord{typ: t}), nil
	}
	return Descriptor{}, NewUnsupportedTypeError(field, t.String())
}

func describeElem(field string, t reflect.Type, spec tags.Spec) (Descriptor, error) {
	elemSpec := tags.Spec{Kind: spec.Elem}
	d, err := describeGoType(field, t, elemSpec)
	if err != nil {
		return Descriptor{}, err
	}
	return d.With(elemDirectives(spec)...), nil
}

func describeExplicit(field string, t reflect.Type, kindName string) (Descriptor, error) {
	k, ok := ParseKind(kindName)
	if !ok {
		return Descriptor{}, NewInvalidSchemaError("field %s: unknown kind %q", field, kindName)
	}
	switch {
	case k.IsPrimitive():
		switch t.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return Descriptor{Kind: k}, nil
		}
	case k == KindString || k == KindCString:
		if t.Kind() == reflect.String {
			return Descriptor{Kind: k}, nil
		}
	case k == KindBytes:
		if t.Kind() == reflect.String || ((t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8) {
			return Descriptor{Kind: k}, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: field '%s' of type %s cannot be encoded as %s", ErrUnsupportedType, field, t, k)
}

func (r *structRecord) Construct(values map[string]any) (any, error) {
	out := reflect.New(r.typ).Elem()
	for _, ef := range r.encodedFields() {
		raw, ok := values[ef.name]
		if !ok || raw == nil {
			continue
		}
		if err := assign(out.FieldByIndex(ef.index), raw); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", r.Name(), ef.name, err)
		}
	}
	return out.Interface(), nil
}

func (r *structRecord) Lookup(record any, name string) (any, error) {
	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %s", ErrInvalidValue, r.Name())
		}
		rv = rv.Elem()
	}
	if rv.Type() != r.typ {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidValue, r.typ, rv.Type())
	}
	sf, ok := r.typ.FieldByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %s", ErrInvalidValue, r.Name(), name)
	}
	fv := rv.FieldByIndex(sf.Index)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return nil, nil
		}
		fv = fv.Elem()
	}
	return fv.Interface(), nil
}

// assign stores a decoded value into dst, converting between the canonical
// decoded types and the Go field type.
func assign(dst reflect.Value, raw any) error {
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		if err := assign(p.Elem(), raw); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	src := reflect.ValueOf(raw)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		n, ok := integerOf(raw)
		if !ok {
			break
		}
		dst.SetBool(n.bits() != 0)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if _, numeric := floatOf(raw); numeric && src.Type().ConvertibleTo(dst.Type()) {
			dst.Set(src.Convert(dst.Type()))
			return nil
		}
	case reflect.String:
		switch x := raw.(type) {
		case string:
			dst.SetString(x)
			return nil
		case []byte:
			dst.SetString(string(x))
			return nil
		}
	case reflect.Slice:
		if src.Kind() != reflect.Slice && src.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assign(out.Index(i), src.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Array:
		if (src.Kind() != reflect.Slice && src.Kind() != reflect.Array) || src.Len() != dst.Len() {
			break
		}
		for i := 0; i < src.Len(); i++ {
			if err := assign(dst.Index(i), src.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: cannot store %T in %s", ErrInvalidValue, raw, dst.Type())
}
