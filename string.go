package bier

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/hengadev/bier/endian"
)

// DecodePolicy controls what a string node does with bytes that are not
// valid UTF-8.
type DecodePolicy uint8

const (
	// DecodeStrict fails with ErrInvalidUTF8.
	DecodeStrict DecodePolicy = iota
	// DecodeReplace substitutes U+FFFD for each invalid sequence.
	DecodeReplace
	// DecodeRaw keeps the bytes as they are.
	DecodeRaw
)

func (p DecodePolicy) String() string {
	switch p {
	case DecodeStrict:
		return "strict"
	case DecodeReplace:
		return "replace"
	case DecodeRaw:
		return "raw"
	}
	return fmt.Sprintf("DecodePolicy(%d)", uint8(p))
}

// ParseDecodePolicy accepts "strict", "replace" and "raw". The empty string
// means strict.
func ParseDecodePolicy(name string) (DecodePolicy, error) {
	switch strings.ToLower(name) {
	case "", "strict":
		return DecodeStrict, nil
	case "replace":
		return DecodeReplace, nil
	case "raw":
		return DecodeRaw, nil
	}
	return 0, NewInvalidSchemaError("unknown decode policy %q", name)
}

// StringNode encodes UTF-8 text behind a size node, or zero terminated when
// it has none.
type StringNode struct {
	size   Node
	policy DecodePolicy
}

// NewStringNode builds a string node. A nil size makes it a C string.
func NewStringNode(size Node, policy DecodePolicy) (*StringNode, error) {
	if size != nil {
		if err := checkSizeNode(size); err != nil {
			return nil, err
		}
	}
	if policy > DecodeRaw {
		return nil, NewInvalidSchemaError("unknown decode policy %d", policy)
	}
	return &StringNode{size: size, policy: policy}, nil
}

// Size returns the size node, nil for C strings.
func (n *StringNode) Size() Node {
	return n.size
}

func (n *StringNode) Policy() DecodePolicy {
	return n.policy
}

func (n *StringNode) String() string {
	if n.size == nil {
		return fmt.Sprintf("cstr(%s)", n.policy)
	}
	return fmt.Sprintf("str(%s,%s)", n.size, n.policy)
}

func (n *StringNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	raw, err := readPayload(n.size, s, ctx)
	if err != nil {
		return nil, err
	}
	switch n.policy {
	case DecodeReplace:
		return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), nil
	case DecodeRaw:
		return string(raw), nil
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidUTF8, len(raw))
	}
	return string(raw), nil
}

func (n *StringNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	var text string
	switch x := v.(type) {
	case string:
		text = x
	case []byte:
		text = string(x)
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || rv.Kind() != reflect.String {
			return 0, NewInvalidValueError(n, v)
		}
		text = rv.String()
	}

	switch n.policy {
	case DecodeStrict:
		if !utf8.ValidString(text) {
			return 0, fmt.Errorf("%w: cannot encode %q", ErrInvalidUTF8, text)
		}
	case DecodeReplace:
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}
	return writePayload(n.size, []byte(text), s, ctx)
}

// BytesNode encodes a raw byte sequence behind a size node, or zero
// terminated when it has none.
type BytesNode struct {
	size Node
}

func NewBytesNode(size Node) (*BytesNode, error) {
	if size != nil {
		if err := checkSizeNode(size); err != nil {
			return nil, err
		}
	}
	return &BytesNode{size: size}, nil
}

func (n *BytesNode) Size() Node {
	return n.size
}

func (n *BytesNode) String() string {
	if n.size == nil {
		return "cbytes"
	}
	return fmt.Sprintf("bytes(%s)", n.size)
}

func (n *BytesNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	return readPayload(n.size, s, ctx)
}

func (n *BytesNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	payload, ok := bytesOf(v)
	if !ok {
		return 0, NewInvalidValueError(n, v)
	}
	return writePayload(n.size, payload, s, ctx)
}

func bytesOf(v any) ([]byte, bool) {
	switch x := v.(type) {
	case []byte:
		return x, true
	case string:
		return []byte(x), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice:
		return rv.Bytes(), true
	case reflect.Array:
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, true
	}
	return nil, false
}

func readPayload(size Node, s *endian.Stream, ctx *Context) ([]byte, error) {
	if size == nil {
		return s.ReadStringC()
	}
	n, err := readLength(size, s, ctx)
	if err != nil {
		return nil, err
	}
	return s.ReadBytes(n)
}

// writePayload emits the length prefix then the payload. The payload is
// fully encoded before anything is written so the prefix never needs
// patching.
func writePayload(size Node, payload []byte, s *endian.Stream, ctx *Context) (int, error) {
	if size == nil {
		return s.WriteStringC(payload)
	}
	n, err := writeLength(size, len(payload), s, ctx)
	if err != nil {
		return n, err
	}
	m, err := s.WriteBytes(payload)
	return n + m, err
}
