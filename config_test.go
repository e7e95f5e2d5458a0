package bier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/bier/endian"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "u32", cfg.DefaultLengthType)
	assert.Equal(t, "strict", cfg.DecodePolicy)
	assert.Equal(t, 16<<20, cfg.MaxLength)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		var cfg Config
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("accepts upper case kinds", func(t *testing.T) {
		cfg := Config{DefaultLengthType: "U16"}
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"float length type", Config{DefaultLengthType: "f32"}},
		{"unknown length type", Config{DefaultLengthType: "u24"}},
		{"unknown policy", Config{DecodePolicy: "ignore"}},
		{"empty setting key", Config{Settings: map[string]any{"": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := Config{
		DefaultLengthType: "u8",
		DecodePolicy:      "replace",
		MaxLength:         2,
		Settings:          map[string]any{"app": "test"},
	}
	codec, err := NewFromConfig(cfg)
	require.NoError(t, err)

	type note struct{ Text string }
	data, err := codec.Marshal(note{Text: "ab"}, endian.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 'a', 'b'}, data)

	var got note
	require.NoError(t, codec.Unmarshal([]byte{2, 'a', 0xff}, endian.LittleEndian, &got))
	assert.Equal(t, "a�", got.Text)

	err = codec.Unmarshal([]byte{3, 'a', 'b', 'c'}, endian.LittleEndian, &got)
	assert.ErrorIs(t, err, ErrLengthConstraintViolation)

	_, err = NewFromConfig(Config{DecodePolicy: "nope"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestConfigNegativeMaxLengthDisablesCap(t *testing.T) {
	codec, err := NewFromConfig(Config{MaxLength: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, codec.newContext().MaxLength())
}

func TestLoadAndSaveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bier.yaml")

	cfg := Config{DefaultLengthType: "u16", DecodePolicy: "raw", MaxLength: 1024, Logging: true}
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	require.NoError(t, os.WriteFile(path, []byte("decode_policy: [oops"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("default_length_type: f64\n"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv(EnvDefaultLengthType, "u16")
	t.Setenv(EnvDecodePolicy, "replace")
	t.Setenv(EnvMaxLength, "4096")
	t.Setenv(EnvLogging, "true")

	cfg, err := LoadConfigFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, Config{DefaultLengthType: "u16", DecodePolicy: "replace", MaxLength: 4096, Logging: true}, cfg)
}

func TestLoadConfigFromEnvironmentDefaults(t *testing.T) {
	for _, key := range []string{EnvDefaultLengthType, EnvDecodePolicy, EnvMaxLength, EnvLogging} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfigFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnvironmentInvalid(t *testing.T) {
	t.Run("max length", func(t *testing.T) {
		t.Setenv(EnvMaxLength, "lots")
		_, err := LoadConfigFromEnvironment()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
	t.Run("logging", func(t *testing.T) {
		t.Setenv(EnvLogging, "maybe")
		_, err := LoadConfigFromEnvironment()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
	t.Run("policy", func(t *testing.T) {
		t.Setenv(EnvDecodePolicy, "loose")
		_, err := LoadConfigFromEnvironment()
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	t.Setenv(EnvDefaultLengthType, "")
	path := filepath.Join(t.TempDir(), ".env")
	content := "BIER_DEFAULT_LENGTH_TYPE=u8\n# comment\nBIER_MAX_LENGTH=-1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFromEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "u8", cfg.DefaultLengthType)
	assert.Equal(t, "strict", cfg.DecodePolicy)
	assert.Equal(t, -1, cfg.MaxLength)
	assert.Empty(t, os.Getenv(EnvDefaultLengthType), "env file values stay out of the process environment")

	_, err = LoadConfigFromEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
