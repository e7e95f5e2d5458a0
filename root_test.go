package bier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/bier/endian"
)

type maybeOptional struct {
	A *uint8
	B *uint16
	C *string
}

func (maybeOptional) BinaryOptions() []Directive {
	return []Directive{CustomRoot(PresenceRoot)}
}

type tlvPacket struct {
	A *uint8  `bier:"meta=id:1,meta=type_id:7"`
	B *uint16 `bier:"meta=id:2,meta=type_id:8"`
	C *string `bier:"len=u8,meta=id:3,meta=type_id:9"`
}

func (tlvPacket) BinaryOptions() []Directive {
	return []Directive{CustomRoot(TLVRoot)}
}

func ptr[T any](v T) *T {
	return &v
}

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	codec, err := New(opts...)
	require.NoError(t, err)
	return codec
}

func TestPresenceRoot(t *testing.T) {
	codec := newTestCodec(t)

	data, err := codec.Marshal(maybeOptional{B: ptr[uint16](135)}, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x87, 0x00, 0x00}, data)

	var got maybeOptional
	require.NoError(t, codec.Unmarshal(data, endian.LittleEndian, &got))
	assert.Nil(t, got.A)
	require.NotNil(t, got.B)
	assert.Equal(t, uint16(135), *got.B)
	assert.Nil(t, got.C)
}

func TestPresenceRootAllPresent(t *testing.T) {
	codec := newTestCodec(t)
	in := maybeOptional{A: ptr[uint8](1), B: ptr[uint16](2), C: ptr("x")}

	data, err := codec.Marshal(in, endian.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 0, 2, 1, 0, 0, 0, 1, 'x'}, data)

	got, err := FromBytes[maybeOptional](data, endian.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestPresenceRootTolerantFlag(t *testing.T) {
	codec := newTestCodec(t)
	var got maybeOptional
	require.NoError(t, codec.Unmarshal([]byte{0x02, 0x05, 0x00, 0x00}, endian.LittleEndian, &got))
	require.NotNil(t, got.A)
	assert.Equal(t, uint8(5), *got.A)
}

func TestTLVRoot(t *testing.T) {
	codec := newTestCodec(t)
	in := tlvPacket{A: ptr[uint8](5), C: ptr("hi")}

	data, err := codec.Marshal(in, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 1, 7, 5, 3, 9, 2, 'h', 'i', 0xff}, data)

	var got tlvPacket
	require.NoError(t, codec.Unmarshal(data, endian.LittleEndian, &got))
	assert.Equal(t, in, got)
}

func TestTLVRootAnyFieldOrder(t *testing.T) {
	codec := newTestCodec(t)
	data := []byte{0x50, 3, 9, 2, 'h', 'i', 2, 8, 0x01, 0x00, 1, 7, 5, 0xff}

	var got tlvPacket
	require.NoError(t, codec.Unmarshal(data, endian.LittleEndian, &got))
	assert.Equal(t, tlvPacket{A: ptr[uint8](5), B: ptr[uint16](1), C: ptr("hi")}, got)
}

func TestTLVRootEmpty(t *testing.T) {
	codec := newTestCodec(t)
	data, err := codec.Marshal(tlvPacket{}, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 0xff}, data)
}

func TestTLVRootReadErrors(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"wrong type id", []byte{0x50, 1, 8, 5, 0xff}, ErrTypeMismatch},
		{"bad start byte", []byte{0x51, 0xff}, ErrMalformedRecord},
		{"unknown id", []byte{0x50, 9, 0, 0xff}, ErrMalformedRecord},
		{"missing end", []byte{0x50, 1, 7, 5}, ErrUnexpectedEndOfStream},
		{"truncated payload", []byte{0x50, 2, 8, 1}, ErrUnexpectedEndOfStream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got tlvPacket
			err := codec.Unmarshal(tt.data, endian.LittleEndian, &got)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsStreamError(err))
		})
	}
}

func TestTLVTypeMismatchNamesField(t *testing.T) {
	codec := newTestCodec(t)
	var got tlvPacket
	err := codec.Unmarshal([]byte{0x50, 1, 8, 5, 0xff}, endian.LittleEndian, &got)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "tlvPacket", fieldErr.Record)
	assert.Equal(t, "A", fieldErr.Field)
	assert.Equal(t, int64(1), fieldErr.Offset)
}

func TestTLVRootConstruction(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"missing id", []Field{{Name: "a", Type: DescU8}}},
		{"reserved id", []Field{{Name: "a", Type: DescU8, Directives: []Directive{Metadata(MetaID, 0xff)}}}},
		{"id too large", []Field{{Name: "a", Type: DescU8, Directives: []Directive{Metadata(MetaID, 300)}}}},
		{"non integer type id", []Field{{Name: "a", Type: DescU8, Directives: []Directive{Metadata(MetaID, 1), Metadata(MetaTypeID, "x")}}}},
		{"duplicate id", []Field{
			{Name: "a", Type: DescU8, Directives: []Directive{Metadata(MetaID, 1)}},
			{Name: "b", Type: DescU16, Directives: []Directive{Metadata(MetaID, 1)}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DefineRecord("Packet", tt.fields, CustomRoot(TLVRoot))
			require.NoError(t, err)
			registry, err := NewRegistry()
			require.NoError(t, err)

			_, err = registry.Root(rec)
			assert.ErrorIs(t, err, ErrInvalidSchema)
			var schemaErr *SchemaError
			assert.ErrorAs(t, err, &schemaErr)
			assert.Zero(t, registry.Len())
		})
	}
}

func TestTLVDefaultTypeID(t *testing.T) {
	rec, err := DefineRecord("Packet", []Field{
		{Name: "a", Type: DescU8, Directives: []Directive{Metadata(MetaID, 4)}},
	}, CustomRoot(TLVRoot))
	require.NoError(t, err)

	codec := newTestCodec(t)
	data, err := codec.MarshalRecord(rec, map[string]any{"a": 9}, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x50, 4, TLVDefaultTypeID, 9, 0xff}, data)

	v, err := codec.UnmarshalRecord(rec, data, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": uint8(9)}, v)
}

func TestRootFactoryRejectsNilBase(t *testing.T) {
	_, err := PresenceRoot(nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	_, err = TLVRoot(nil)
	assert.ErrorIs(t, err, ErrInvalidSchema)
}
