package bier

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hengadev/bier/endian"
)

type benchRecord struct {
	ID      uint64
	Name    string `bier:"len=u8"`
	Samples []float32
	Flags   [4]uint8
}

func newBenchRecord() benchRecord {
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = float32(i) / 3
	}
	return benchRecord{ID: 42, Name: "bench", Samples: samples, Flags: [4]uint8{1, 2, 3, 4}}
}

func BenchmarkMarshal(b *testing.B) {
	codec, err := New()
	require.NoError(b, err)
	rec := newBenchRecord()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Marshal(rec, endian.LittleEndian); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	codec, err := New()
	require.NoError(b, err)
	data, err := codec.Marshal(newBenchRecord(), endian.LittleEndian)
	require.NoError(b, err)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out benchRecord
		if err := codec.Unmarshal(data, endian.LittleEndian, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSchemaLookupParallel(b *testing.B) {
	registry, err := NewRegistry()
	require.NoError(b, err)
	rt, err := RecordTypeOf(benchRecord{})
	require.NoError(b, err)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := registry.Root(rt); err != nil {
				b.Error(err)
			}
		}
	})
}

func TestBenchRecordRoundTrip(t *testing.T) {
	codec, err := New()
	require.NoError(t, err)
	in := newBenchRecord()
	data, err := codec.Marshal(in, endian.BigEndian)
	require.NoError(t, err)
	require.Len(t, data, 8+1+5+4+256*4+4)

	var out benchRecord
	require.NoError(t, codec.Unmarshal(data, endian.BigEndian, &out))
	require.Equal(t, in, out)
}
