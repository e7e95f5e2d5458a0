package bier

import (
	"fmt"
	"math"
	"reflect"

	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/f16"
)

// PrimitiveNode encodes one fixed width number. There is exactly one
// instance per kind.
type PrimitiveNode struct {
	kind Kind
}

var (
	U8  = &PrimitiveNode{kind: KindU8}
	U16 = &PrimitiveNode{kind: KindU16}
	U32 = &PrimitiveNode{kind: KindU32}
	U64 = &PrimitiveNode{kind: KindU64}
	I8  = &PrimitiveNode{kind: KindI8}
	I16 = &PrimitiveNode{kind: KindI16}
	I32 = &PrimitiveNode{kind: KindI32}
	I64 = &PrimitiveNode{kind: KindI64}
	F16 = &PrimitiveNode{kind: KindF16}
	F32 = &PrimitiveNode{kind: KindF32}
	F64 = &PrimitiveNode{kind: KindF64}
)

var primitives = map[Kind]*PrimitiveNode{
	KindU8: U8, KindU16: U16, KindU32: U32, KindU64: U64,
	KindI8: I8, KindI16: I16, KindI32: I32, KindI64: I64,
	KindF16: F16, KindF32: F32, KindF64: F64,
}

// Primitive returns the shared node for k, or nil if k is not primitive.
func Primitive(k Kind) *PrimitiveNode {
	return primitives[k]
}

func (p *PrimitiveNode) Kind() Kind {
	return p.kind
}

func (p *PrimitiveNode) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.kind.String()
}

func (p *PrimitiveNode) ReadFrom(s *endian.Stream, _ *Context) (any, error) {
	switch p.kind {
	case KindU8:
		return s.ReadU8()
	case KindU16:
		return s.ReadU16()
	case KindU32:
		return s.ReadU32()
	case KindU64:
		return s.ReadU64()
	case KindI8:
		return s.ReadI8()
	case KindI16:
		return s.ReadI16()
	case KindI32:
		return s.ReadI32()
	case KindI64:
		return s.ReadI64()
	case KindF16:
		return s.ReadF16()
	case KindF32:
		return s.ReadF32()
	case KindF64:
		return s.ReadF64()
	}
	return nil, NewInvalidSchemaError("primitive of kind %s", p.kind)
}

func (p *PrimitiveNode) WriteTo(v any, s *endian.Stream, _ *Context) (int, error) {
	if p.kind.IsFloat() {
		return p.writeFloat(v, s)
	}

	n, ok := integerOf(v)
	if !ok || !p.fitsInteger(n) {
		return 0, NewInvalidValueError(p, v)
	}
	bits := n.bits()
	switch p.kind {
	case KindU8, KindI8:
		return s.WriteU8(uint8(bits))
	case KindU16, KindI16:
		return s.WriteU16(uint16(bits))
	case KindU32, KindI32:
		return s.WriteU32(uint32(bits))
	default:
		return s.WriteU64(bits)
	}
}

func (p *PrimitiveNode) writeFloat(v any, s *endian.Stream) (int, error) {
	if f, ok := v.(float32); ok {
		switch p.kind {
		case KindF16:
			return s.WriteF16(f)
		case KindF32:
			return s.WriteF32(f)
		}
		return s.WriteF64(float64(f))
	}

	f, ok := floatOf(v)
	if !ok {
		return 0, NewInvalidValueError(p, v)
	}
	switch p.kind {
	case KindF16:
		return s.WriteU16(f16.FromFloat64(f).Bits())
	case KindF32:
		return s.WriteF32(float32(f))
	}
	return s.WriteF64(f)
}

// fits reports whether the integer n can be written by p.
func (p *PrimitiveNode) fits(n int64) bool {
	return p.fitsInteger(integer{i: n})
}

func (p *PrimitiveNode) fitsInteger(n integer) bool {
	if n.unsigned {
		switch p.kind {
		case KindU8:
			return n.u <= math.MaxUint8
		case KindU16:
			return n.u <= math.MaxUint16
		case KindU32:
			return n.u <= math.MaxUint32
		case KindU64:
			return true
		case KindI8:
			return n.u <= math.MaxInt8
		case KindI16:
			return n.u <= math.MaxInt16
		case KindI32:
			return n.u <= math.MaxInt32
		case KindI64:
			return n.u <= math.MaxInt64
		}
		return false
	}

	switch p.kind {
	case KindU8:
		return n.i >= 0 && n.i <= math.MaxUint8
	case KindU16:
		return n.i >= 0 && n.i <= math.MaxUint16
	case KindU32:
		return n.i >= 0 && n.i <= math.MaxUint32
	case KindU64:
		return n.i >= 0
	case KindI8:
		return n.i >= math.MinInt8 && n.i <= math.MaxInt8
	case KindI16:
		return n.i >= math.MinInt16 && n.i <= math.MaxInt16
	case KindI32:
		return n.i >= math.MinInt32 && n.i <= math.MaxInt32
	case KindI64:
		return true
	}
	return false
}

// integer holds either a signed or an unsigned Go integer without loss.
type integer struct {
	i        int64
	u        uint64
	unsigned bool
}

func (n integer) bits() uint64 {
	if n.unsigned {
		return n.u
	}
	return uint64(n.i)
}

func integerOf(v any) (integer, bool) {
	switch x := v.(type) {
	case nil:
		return integer{}, false
	case bool:
		if x {
			return integer{i: 1}, true
		}
		return integer{}, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return integer{i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return integer{u: rv.Uint(), unsigned: true}, true
	case reflect.Bool:
		if rv.Bool() {
			return integer{i: 1}, true
		}
		return integer{}, true
	}
	return integer{}, false
}

func floatOf(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// toInt64 converts any Go integer to int64, failing on overflow.
func toInt64(v any) (int64, error) {
	n, ok := integerOf(v)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not an integer", ErrInvalidValue, v)
	}
	if n.unsigned {
		if n.u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, n.u)
		}
		return int64(n.u), nil
	}
	return n.i, nil
}
