package bier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/bier/endian"
)

const packetSchema = `
records:
  - name: Packet
    root: tlv
    length_type: u16
    fields:
      - {name: id, type: uuid, meta: {id: 1, type_id: 3}}
      - {name: label, type: string, length: u8, meta: {id: 2}}
      - {name: at, type: record, record: Point, meta: {id: 3}}
      - {name: tags, type: list, elem: {type: cstr}, meta: {id: 4}}
  - name: Point
    fields:
      - {name: x, type: i32}
      - {name: y, type: i32, order: be}
`

func TestParseSchema(t *testing.T) {
	schema, err := ParseSchema([]byte(packetSchema))
	require.NoError(t, err)
	assert.Equal(t, []string{"Packet", "Point"}, schema.Names())

	packet, ok := schema.Record("Packet")
	require.True(t, ok)
	_, ok = schema.Record("Missing")
	assert.False(t, ok)

	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	in := map[string]any{
		"id":    id,
		"label": "hi",
		"at":    map[string]any{"x": 1, "y": 2},
		"tags":  []string{"a"},
	}

	codec := newTestCodec(t)
	data, err := codec.MarshalRecord(packet, in, endian.LittleEndian)
	require.NoError(t, err)

	want := []byte{0x50, 1, 3}
	want = append(want, id[:]...)
	want = append(want,
		2, 0, 2, 'h', 'i',
		3, 0, 1, 0, 0, 0, 0, 0, 0, 2,
		4, 0, 1, 0, 'a', 0,
		0xff,
	)
	assert.Equal(t, want, data)

	out, err := codec.UnmarshalRecord(packet, data, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":    id,
		"label": "hi",
		"at":    map[string]any{"x": int32(1), "y": int32(2)},
		"tags":  []any{"a"},
	}, out)
}

func TestParseSchemaRecursive(t *testing.T) {
	schema, err := ParseSchema([]byte(`
records:
  - name: Tree
    length_type: u8
    fields:
      - {name: value, type: u8}
      - {name: kids, type: list, elem: {type: record, record: Tree}}
`))
	require.NoError(t, err)
	tree, _ := schema.Record("Tree")

	in := map[string]any{"value": 1, "kids": []any{map[string]any{"value": 2, "kids": []any{}}}}
	codec := newTestCodec(t)
	data, err := codec.MarshalRecord(tree, in, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 2, 0}, data)

	out, err := codec.UnmarshalRecord(tree, data, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"value": uint8(1),
		"kids":  []any{map[string]any{"value": uint8(2), "kids": []any{}}},
	}, out)
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
		keys []string
	}{
		{
			name: "bad yaml",
			doc:  "records: [",
			want: ErrInvalidSchema,
		},
		{
			name: "duplicate record",
			doc:  "records: [{name: A, fields: []}, {name: A, fields: []}]",
			want: ErrInvalidSchema,
		},
		{
			name: "unknown types",
			doc: `
records:
  - name: A
    fields:
      - {name: a, type: decimal}
      - {name: b, type: record, record: Nope}
      - {name: c, type: str, length: f32}
      - {name: d, type: u8}
`,
			want: ErrUnsupportedType,
			keys: []string{"A.a", "A.b", "A.c"},
		},
		{
			name: "unknown root",
			doc:  "records: [{name: A, root: fancy, fields: []}]",
			want: ErrInvalidSchema,
			keys: []string{"A"},
		},
		{
			name: "list without elem",
			doc:  "records: [{name: A, fields: [{name: l, type: list}]}]",
			want: ErrInvalidSchema,
			keys: []string{"A.l"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
			if tt.keys == nil {
				return
			}
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Len(t, schemaErr.Fields, len(tt.keys))
			for _, k := range tt.keys {
				assert.Contains(t, schemaErr.Fields, k)
			}
		})
	}
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(packetSchema), 0o600))

	schema, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Len(t, schema.Names(), 2)

	_, err = LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
