package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointSchema = `
records:
  - name: Point
    fields:
      - {name: x, type: i32}
      - {name: y, type: i32}
  - name: Label
    length_type: u8
    fields:
      - {name: text, type: string}
`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: bier")

	code, _, stderr = runCLI(t, "", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")

	code, _, _ = runCLI(t, "", "encode", "-h")
	assert.Equal(t, 0, code)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "bier v")
}

func TestEncodeDecode(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", pointSchema)

	code, stdout, stderr := runCLI(t, "x: 1\ny: -1\n", "encode", "-schema", schema, "-record", "Point", "-order", "be", "-hex")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "00000001ffffffff\n", stdout)

	code, stdout, stderr = runCLI(t, stdout, "decode", "-schema", schema, "-record", "Point", "-order", "be", "-hex")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "x: 1\n")
	assert.Contains(t, stdout, ": -1\n")
}

func TestEncodeToFile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.yaml", pointSchema)
	value := writeFile(t, dir, "value.yaml", "text: hi\n")
	out := filepath.Join(dir, "label.bin")

	code, _, stderr := runCLI(t, "", "encode", "-schema", schema, "-record", "Label", "-o", out, value)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 'h', 'i'}, data)

	code, stdout, stderr := runCLI(t, "", "decode", "-schema", schema, "-record", "Label", out)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "text: hi\n", stdout)
}

func TestEncodeErrors(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", pointSchema)

	code, _, stderr := runCLI(t, "", "encode", "-record", "Point")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-schema is required")

	code, _, stderr = runCLI(t, "", "encode", "-schema", schema, "-record", "Nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "have Point, Label")

	code, _, stderr = runCLI(t, "x: 1\ny: 99999999999\n", "encode", "-schema", schema, "-record", "Point")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid value")

	code, _, _ = runCLI(t, "zz", "decode", "-schema", schema, "-record", "Point", "-hex")
	assert.Equal(t, 1, code)
}

func TestSchemaCommand(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "schema.yaml", pointSchema)
	code, stdout, stderr := runCLI(t, "", "schema", "-schema", schema)
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " Point"))
	assert.True(t, strings.HasSuffix(lines[1], " Label"))
	assert.Len(t, strings.Fields(lines[0])[0], 32)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.go", "package p\n\ntype Good struct {\n\tA uint16 `bier:\"u16\"`\n}\n")

	code, stdout, stderr := runCLI(t, "", "validate", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "1 files checked")

	writeFile(t, dir, "bad.go", "package p\n\ntype Bad struct {\n\tA uint16 `bier:\"u24\"`\n}\n")
	code, stdout, stderr = runCLI(t, "", "validate", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "bad.go")
	assert.Contains(t, stderr, "1 of 2 files")
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bier.yaml")

	code, stdout, stderr := runCLI(t, "", "init", "-o", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_length_type: u32")

	code, _, stderr = runCLI(t, "", "init", "-o", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = runCLI(t, "", "init", "-o", path, "-force")
	assert.Equal(t, 0, code)

	code, stdout, stderr = runCLI(t, "", "schema", "-config", path, "-schema", writeFile(t, t.TempDir(), "s.yaml", pointSchema))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Point")
}
