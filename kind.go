package bier

import "fmt"

// Kind names a wire shape. The primitive kinds double as descriptor kinds
// for record fields.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF16
	KindF32
	KindF64
	KindString
	KindCString
	KindBytes
	KindList
	KindTuple
	KindRecord
	KindUUID
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindU8:      "u8",
	KindU16:     "u16",
	KindU32:     "u32",
	KindU64:     "u64",
	KindI8:      "i8",
	KindI16:     "i16",
	KindI32:     "i32",
	KindI64:     "i64",
	KindF16:     "f16",
	KindF32:     "f32",
	KindF64:     "f64",
	KindString:  "str",
	KindCString: "cstr",
	KindBytes:   "bytes",
	KindList:    "list",
	KindTuple:   "tuple",
	KindRecord:  "record",
	KindUUID:    "uuid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name such as "u16" or "cstr" back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// IsPrimitive reports whether k is one of the fixed width numeric kinds.
func (k Kind) IsPrimitive() bool {
	return k >= KindU8 && k <= KindF64
}

func (k Kind) IsInteger() bool {
	return k >= KindU8 && k <= KindI64
}

func (k Kind) IsSigned() bool {
	return k >= KindI8 && k <= KindI64
}

func (k Kind) IsFloat() bool {
	return k >= KindF16 && k <= KindF64
}

// Size returns the wire width of a primitive kind, 0 for everything else.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindI8:
		return 1
	case KindU16, KindI16, KindF16:
		return 2
	case KindU32, KindI32, KindF32:
		return 4
	case KindU64, KindI64, KindF64:
		return 8
	}
	return 0
}
