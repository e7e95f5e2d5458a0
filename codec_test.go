package bier

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/bier/endian"
	"github.com/hengadev/bier/internal/monitoring"
)

type sample struct {
	ID     uint32
	Values []uint32 `bier:"len=u8"`
}

func TestMarshalListPrefix(t *testing.T) {
	data, err := Marshal(sample{ID: 7, Values: []uint32{1, 2, 3, 4, 5}}, endian.LittleEndian)
	require.NoError(t, err)
	assert.Len(t, data, 4+1+5*4)

	got, err := FromBytes[sample](data, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, sample{ID: 7, Values: []uint32{1, 2, 3, 4, 5}}, got)
}

func TestSchemaOf(t *testing.T) {
	node, err := SchemaOf[sample]()
	require.NoError(t, err)
	assert.Equal(t, "class sample{ID:u32,Values:list(u32,u8)}", node.String())

	_, err = SchemaOf[int]()
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMarshalReturnsNothingOnError(t *testing.T) {
	codec := newTestCodec(t)
	values := make([]uint32, 300)
	data, err := codec.Marshal(sample{ID: 1, Values: values}, endian.LittleEndian)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrLengthConstraintViolation)
	assert.True(t, IsValueError(err))

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Values", fieldErr.Field)
	assert.Equal(t, int64(4), fieldErr.Offset)
}

type blob struct {
	Data []byte
}

func TestMarshalRespectsMaxLength(t *testing.T) {
	codec := newTestCodec(t, WithMaxLength(8))

	data, err := codec.Marshal(blob{Data: make([]byte, 9)}, endian.LittleEndian)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrLengthConstraintViolation)

	data, err = codec.Marshal(blob{Data: make([]byte, 8)}, endian.LittleEndian)
	require.NoError(t, err)
	var out blob
	require.NoError(t, codec.Unmarshal(data, endian.LittleEndian, &out))
	assert.Len(t, out.Data, 8)
}

func TestDefaultCodecRejectsOversizedWrite(t *testing.T) {
	_, err := Marshal(blob{Data: make([]byte, DefaultMaxLength+1)}, endian.LittleEndian)
	assert.ErrorIs(t, err, ErrLengthConstraintViolation)
}

func TestUnmarshalTargetValidation(t *testing.T) {
	codec := newTestCodec(t)
	var s sample
	assert.ErrorIs(t, codec.Unmarshal(nil, endian.LittleEndian, s), ErrInvalidValue)
	assert.ErrorIs(t, codec.Unmarshal(nil, endian.LittleEndian, (*sample)(nil)), ErrInvalidValue)

	n := 3
	assert.ErrorIs(t, codec.Unmarshal(nil, endian.LittleEndian, &n), ErrUnsupportedType)
}

func TestUnmarshalShortInput(t *testing.T) {
	codec := newTestCodec(t)
	var s sample
	err := codec.Unmarshal([]byte{1, 0, 0, 0, 2, 9}, endian.LittleEndian, &s)
	assert.ErrorIs(t, err, ErrUnexpectedEndOfStream)

	var streamErr *endian.Error
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, int64(5), streamErr.Offset)
}

func TestStreamingEncodeDecode(t *testing.T) {
	codec := newTestCodec(t)
	var buf bytes.Buffer
	w := endian.NewWriter(&buf, endian.BigEndian)
	for i := uint32(0); i < 3; i++ {
		n, err := codec.Encode(w, sample{ID: i, Values: []uint32{i}})
		require.NoError(t, err)
		assert.Equal(t, 9, n)
	}
	assert.Equal(t, 27, buf.Len())

	r := endian.NewReader(&buf, endian.BigEndian)
	for i := uint32(0); i < 3; i++ {
		var s sample
		require.NoError(t, codec.Decode(r, &s))
		assert.Equal(t, sample{ID: i, Values: []uint32{i}}, s)
	}
	var s sample
	assert.ErrorIs(t, codec.Decode(r, &s), ErrUnexpectedEndOfStream)
}

func TestCodecMetrics(t *testing.T) {
	collector := NewInMemoryMetricsCollector()
	codec := newTestCodec(t, WithMetricsCollector(collector))

	data, err := codec.Marshal(sample{ID: 1, Values: []uint32{2}}, endian.LittleEndian)
	require.NoError(t, err)
	var s sample
	require.NoError(t, codec.Unmarshal(data, endian.LittleEndian, &s))
	assert.Error(t, codec.Unmarshal(data[:3], endian.LittleEndian, &s))

	encode := map[string]string{"operation": "encode", "record": "sample"}
	decode := map[string]string{"operation": "decode", "record": "sample"}
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricProcessStarted, encode))
	assert.Equal(t, int64(2), collector.GetCounter(monitoring.MetricProcessStarted, decode))
	assert.Equal(t, []float64{9}, collector.GetValues(monitoring.MetricProcessBytes, encode))
	assert.Equal(t, []float64{9}, collector.GetValues(monitoring.MetricProcessBytes, decode))
	assert.Equal(t, int64(1), collector.CounterTotal(monitoring.MetricProcessFailed))
	assert.Equal(t, int64(1), collector.CounterTotal(monitoring.MetricErrors))
	assert.Equal(t, int64(1), collector.GetCounter(monitoring.MetricSchemaBuilt, map[string]string{"record": "sample"}))
}

func TestCodecSlogLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	codec := newTestCodec(t, WithLogger(NewSlogLogger(logger, "bier")))

	_, err := codec.Marshal(sample{ID: 1}, endian.LittleEndian)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component=bier")
	assert.Contains(t, out, "Schema built: sample")
	assert.Contains(t, out, "Operation completed: encode")
}

func TestCodecOptionValidation(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		name string
		opts []Option
	}{
		{"nil registry", []Option{WithRegistry(nil)}},
		{"nil hook", []Option{WithObservabilityHook(nil)}},
		{"nil collector", []Option{WithMetricsCollector(nil)}},
		{"negative max length", []Option{WithMaxLength(-1)}},
		{"float length type", []Option{WithLengthType(F32)}},
		{"bad decode policy", []Option{WithDecodePolicy(DecodePolicy(7))}},
		{"empty setting key", []Option{WithSetting("", 1)}},
		{"shared registry with defaults", []Option{WithRegistry(registry), WithLengthType(U8)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestCodecsShareRegistry(t *testing.T) {
	registry, err := NewRegistry(WithDefaultLengthType(U8))
	require.NoError(t, err)
	a := newTestCodec(t, WithRegistry(registry))
	b := newTestCodec(t, WithRegistry(registry))

	type word struct{ W string }
	first, err := a.Schema(word{})
	require.NoError(t, err)
	second, err := b.Schema(word{})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, registry, a.Registry())
}

func TestCodecSettingsReachNodes(t *testing.T) {
	var seen any
	recorder := &settingRecorder{key: "tenant", seen: &seen}
	class, err := NewClassNode("Recorder", []FieldNode{{Name: "p", Node: recorder}},
		func(values map[string]any) (any, error) { return values, nil },
		func(record any, name string) (any, error) { return nil, nil },
	)
	require.NoError(t, err)

	codec := newTestCodec(t, WithSetting("tenant", "acme"))
	_, err = class.WriteTo(map[string]any{}, endian.NewBytes(nil, endian.LittleEndian), codec.newContext())
	require.NoError(t, err)
	assert.Equal(t, "acme", seen)
}

type settingRecorder struct {
	key  string
	seen *any
}

func (p *settingRecorder) String() string { return "recorder" }

func (p *settingRecorder) ReadFrom(_ *endian.Stream, ctx *Context) (any, error) {
	*p.seen, _ = ctx.Setting(p.key)
	return nil, nil
}

func (p *settingRecorder) WriteTo(_ any, _ *endian.Stream, ctx *Context) (int, error) {
	*p.seen, _ = ctx.Setting(p.key)
	return 0, nil
}
