package bier

import (
	"fmt"
	"reflect"

	"github.com/hengadev/bier/endian"
)

// RootFactory replaces the default class node of a record type with another
// top level encoding built from the same fields.
type RootFactory func(base *ClassNode) (Node, error)

// Metadata keys read by TLVRoot.
const (
	MetaID     = "id"
	MetaTypeID = "type_id"
)

const (
	TLVStart byte = 0x50
	TLVEnd   byte = 0xFF

	// TLVDefaultTypeID is the type id of fields that declare none.
	TLVDefaultTypeID uint8 = 0
)

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// PresenceNode prefixes every field with a one byte flag. A zero flag means
// the field is absent and its node is skipped.
type PresenceNode struct {
	base *ClassNode
}

// PresenceRoot is a RootFactory producing a PresenceNode.
func PresenceRoot(base *ClassNode) (Node, error) {
	if base == nil {
		return nil, NewInvalidSchemaError("presence root without base record")
	}
	return &PresenceNode{base: base}, nil
}

func (p *PresenceNode) Base() *ClassNode {
	return p.base
}

func (p *PresenceNode) String() string {
	return "presence(" + p.base.String() + ")"
}

func (p *PresenceNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	child := ensureContext(ctx).Fork(nil)
	values := child.Values()
	for _, f := range p.base.fields {
		offset := s.Tell()
		present, err := s.ReadBool()
		if err != nil {
			return nil, p.base.fieldError(f.Name, offset, err)
		}
		if !present {
			values[f.Name] = nil
			continue
		}
		v, err := f.Node.ReadFrom(s, child)
		if err != nil {
			return nil, p.base.fieldError(f.Name, offset, err)
		}
		values[f.Name] = v
	}
	return p.base.construct(values)
}

func (p *PresenceNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: nil %s record", ErrInvalidValue, p.base.name)
	}
	child := ensureContext(ctx).Fork(v)
	total := 0
	for _, f := range p.base.fields {
		offset := s.Tell()
		fv, err := p.base.lookup(v, f.Name)
		if err != nil {
			return total, p.base.fieldError(f.Name, offset, err)
		}
		present := !isAbsent(fv)
		n, err := s.WriteBool(present)
		total += n
		if err != nil {
			return total, p.base.fieldError(f.Name, offset, err)
		}
		if !present {
			continue
		}
		n, err = f.Node.WriteTo(fv, s, child)
		total += n
		if err != nil {
			return total, p.base.fieldError(f.Name, offset, err)
		}
	}
	return total, nil
}

type tlvField struct {
	FieldNode
	id     uint8
	typeID uint8
}

// TLVNode writes a start sentinel, then an (id, type id, payload) triple for
// each present field, then an end sentinel. Fields may appear in any order
// on the wire.
type TLVNode struct {
	base   *ClassNode
	fields []tlvField
	byID   map[uint8]int
}

// TLVRoot is a RootFactory producing a TLVNode. Every field needs an "id"
// metadata entry; "type_id" defaults to TLVDefaultTypeID.
func TLVRoot(base *ClassNode) (Node, error) {
	if base == nil {
		return nil, NewInvalidSchemaError("tlv root without base record")
	}
	t := &TLVNode{base: base, byID: make(map[uint8]int, len(base.fields))}
	for _, f := range base.fields {
		raw, ok := f.Metadata[MetaID]
		if !ok {
			return nil, NewInvalidSchemaError("record %s: field %s has no %q metadata", base.name, f.Name, MetaID)
		}
		id, err := metaByte(raw)
		if err != nil {
			return nil, NewInvalidSchemaError("record %s: field %s id: %v", base.name, f.Name, err)
		}
		if id == TLVEnd {
			return nil, NewInvalidSchemaError("record %s: field %s uses reserved id 0x%02x", base.name, f.Name, TLVEnd)
		}
		if other, dup := t.byID[id]; dup {
			return nil, NewInvalidSchemaError("record %s: fields %s and %s share id %d", base.name, t.fields[other].Name, f.Name, id)
		}

		typeID := TLVDefaultTypeID
		if raw, ok := f.Metadata[MetaTypeID]; ok {
			if typeID, err = metaByte(raw); err != nil {
				return nil, NewInvalidSchemaError("record %s: field %s type id: %v", base.name, f.Name, err)
			}
		}
		t.byID[id] = len(t.fields)
		t.fields = append(t.fields, tlvField{FieldNode: f, id: id, typeID: typeID})
	}
	return t, nil
}

func metaByte(v any) (uint8, error) {
	n, ok := integerOf(v)
	if !ok || !U8.fitsInteger(n) {
		return 0, fmt.Errorf("%v is not a byte", v)
	}
	return uint8(n.bits()), nil
}

func (t *TLVNode) Base() *ClassNode {
	return t.base
}

func (t *TLVNode) String() string {
	return "tlv(" + t.base.String() + ")"
}

func (t *TLVNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	child := ensureContext(ctx).Fork(nil)
	values := child.Values()

	start, err := s.ReadU8()
	if err != nil {
		return nil, err
	}
	if start != TLVStart {
		return nil, &endian.Error{Op: "read tlv start", Offset: s.Tell() - 1, Err: fmt.Errorf("%w: start byte 0x%02x", ErrMalformedRecord, start)}
	}

	for {
		offset := s.Tell()
		id, err := s.ReadU8()
		if err != nil {
			return nil, err
		}
		if id == TLVEnd {
			break
		}
		i, ok := t.byID[id]
		if !ok {
			return nil, &endian.Error{Op: "read tlv id", Offset: offset, Err: fmt.Errorf("%w: %s has no field with id %d", ErrMalformedRecord, t.base.name, id)}
		}
		f := t.fields[i]

		typeID, err := s.ReadU8()
		if err != nil {
			return nil, t.base.fieldError(f.Name, offset, err)
		}
		if typeID != f.typeID {
			return nil, t.base.fieldError(f.Name, offset, NewTypeMismatchError(f.Name, f.typeID, typeID))
		}
		v, err := f.Node.ReadFrom(s, child)
		if err != nil {
			return nil, t.base.fieldError(f.Name, offset, err)
		}
		values[f.Name] = v
	}
	return t.base.construct(values)
}

func (t *TLVNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: nil %s record", ErrInvalidValue, t.base.name)
	}
	child := ensureContext(ctx).Fork(v)
	total, err := s.WriteU8(TLVStart)
	if err != nil {
		return total, err
	}

	for _, f := range t.fields {
		offset := s.Tell()
		fv, err := t.base.lookup(v, f.Name)
		if err != nil {
			return total, t.base.fieldError(f.Name, offset, err)
		}
		if isAbsent(fv) {
			continue
		}
		for _, b := range [2]uint8{f.id, f.typeID} {
			n, err := s.WriteU8(b)
			total += n
			if err != nil {
				return total, t.base.fieldError(f.Name, offset, err)
			}
		}
		n, err := f.Node.WriteTo(fv, s, child)
		total += n
		if err != nil {
			return total, t.base.fieldError(f.Name, offset, err)
		}
	}

	n, err := s.WriteU8(TLVEnd)
	return total + n, err
}
