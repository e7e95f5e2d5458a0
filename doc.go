// Package bier is a declarative binary serialization engine.
//
// A record type's fields and their encoding directives are turned once into
// a schema tree of Nodes. The tree reads a record from an endian.Stream and
// writes it back, with explicit control over byte order, integer and float
// widths (including half precision), length prefixes and nesting.
//
// # Declaring records
//
// Go structs are described with `bier` struct tags:
//
//	type Header struct {
//	    Magic   uint32   `bier:"order=be"`
//	    Name    string   `bier:"len=u8"`
//	    Code    string   `bier:"static=4"`
//	    Path    string   `bier:"cstr"`
//	    Scale   float32  `bier:"f16"`
//	    Samples []int16  `bier:"len=u16"`
//	    ID      uuid.UUID
//	    Nested  []Header `bier:"len=u8"`
//	}
//
//	data, err := bier.Marshal(h, endian.LittleEndian)
//	h2, err := bier.FromBytes[Header](data, endian.LittleEndian)
//
// Fields are encoded in declaration order. Pointer fields are nullable and
// only make sense under a root that can mark absence, such as PresenceRoot. Strings, bytes and lists without
// a length directive use a u32 prefix unless the record overrides it through
// BinaryOptions or the registry default.
//
// Records can also be defined at runtime with DefineRecord or loaded from a
// YAML schema with LoadSchemaFile. Their values are map[string]any.
//
// # Custom roots
//
// A record may replace the positional class encoding with another top level
// strategy built from the same fields. PresenceRoot prefixes every field with
// a presence flag; TLVRoot writes (id, type id, payload) triples framed by
// 0x50 and 0xFF and reads them in any order.
//
//	func (Packet) BinaryOptions() []bier.Directive {
//	    return []bier.Directive{bier.CustomRoot(bier.TLVRoot)}
//	}
//
// # Errors
//
// Construction problems surface as ErrInvalidSchema or ErrUnsupportedType
// before any I/O, aggregated per field in a *SchemaError. Stream problems
// are ErrUnexpectedEndOfStream, ErrTypeMismatch and ErrMalformedRecord;
// value problems are ErrInvalidValue and ErrLengthConstraintViolation. Read
// and write failures are wrapped in a *FieldError carrying the record, field
// and byte offset.
package bier
