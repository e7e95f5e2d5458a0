// Package tags parses the `bier` struct tag grammar.
//
//	Field uint16 `bier:"u16"`
//	Name  string `bier:"str,len=u8"`
//	Code  string `bier:"static=4"`
//	Path  string `bier:"cstr,decode=replace"`
//	Vals  []int32 `bier:"len=u16,elem=i32"`
//	Port  uint16 `bier:"order=be,meta=id:3,meta=type_id:1"`
//	Cache []byte `bier:"-"`
//
// A bare leading token selects the wire kind. Everything else is a key=value
// option.
package tags

import (
	"fmt"
	"strconv"
	"strings"
)

// Name is the struct tag key.
const Name = "bier"

// Kinds accepted as a bare kind token or as elem=.
var Kinds = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"f16": true, "f32": true, "f64": true,
	"str": true, "cstr": true, "bytes": true,
}

// LengthKinds are the kinds allowed as a length prefix.
var LengthKinds = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
}

// Meta is one meta=key:value pair. Value is an int when the text parses as
// one, otherwise the raw string.
type Meta struct {
	Key   string
	Value any
}

// Spec is a parsed tag.
type Spec struct {
	Skip bool
	Kind string

	Length    string
	Static    int
	HasStatic bool

	Elem          string
	ElemLength    string
	ElemStatic    int
	HasElemStatic bool

	Order  string
	Decode string
	Meta   []Meta
}

// Parse parses the value of a `bier` tag. An empty tag yields a zero Spec.
func Parse(tag string) (Spec, error) {
	var spec Spec
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return spec, nil
	}
	if tag == "-" {
		spec.Skip = true
		return spec, nil
	}

	seen := make(map[string]bool)
	for i, raw := range strings.Split(tag, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Spec{}, fmt.Errorf("empty option at position %d", i)
		}

		key, value, hasValue := strings.Cut(part, "=")
		if !hasValue {
			if i != 0 {
				return Spec{}, fmt.Errorf("kind %q must be the first option", part)
			}
			if !Kinds[part] {
				return Spec{}, fmt.Errorf("unknown kind %q", part)
			}
			spec.Kind = part
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "meta" {
			if seen[key] {
				return Spec{}, fmt.Errorf("option %q given more than once", key)
			}
			seen[key] = true
		}

		var err error
		switch key {
		case "len":
			spec.Length, err = lengthKind(key, value)
		case "elemlen":
			spec.ElemLength, err = lengthKind(key, value)
		case "static":
			spec.Static, err = staticLength(key, value)
			spec.HasStatic = err == nil
		case "elemstatic":
			spec.ElemStatic, err = staticLength(key, value)
			spec.HasElemStatic = err == nil
		case "elem":
			if !Kinds[value] {
				err = fmt.Errorf("unknown element kind %q", value)
			}
			spec.Elem = value
		case "order":
			switch value {
			case "le", "little", "be", "big":
				spec.Order = value
			default:
				err = fmt.Errorf("unknown byte order %q", value)
			}
		case "decode":
			switch value {
			case "strict", "replace", "raw":
				spec.Decode = value
			default:
				err = fmt.Errorf("unknown decode policy %q", value)
			}
		case "meta":
			var m Meta
			m, err = parseMeta(value)
			spec.Meta = append(spec.Meta, m)
		default:
			err = fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return Spec{}, err
		}
	}

	if spec.Length != "" && spec.HasStatic {
		return Spec{}, fmt.Errorf("len and static are mutually exclusive")
	}
	if spec.ElemLength != "" && spec.HasElemStatic {
		return Spec{}, fmt.Errorf("elemlen and elemstatic are mutually exclusive")
	}
	if spec.Kind == "cstr" && (spec.Length != "" || spec.HasStatic) {
		return Spec{}, fmt.Errorf("cstr does not take a length")
	}
	return spec, nil
}

func lengthKind(key, value string) (string, error) {
	if !LengthKinds[value] {
		return "", fmt.Errorf("%s must be an integer kind, got %q", key, value)
	}
	return value, nil
}

func staticLength(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
	}
	return n, nil
}

func parseMeta(value string) (Meta, error) {
	k, v, ok := strings.Cut(value, ":")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return Meta{}, fmt.Errorf("meta must be key:value, got %q", value)
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return Meta{Key: k, Value: n}, nil
	}
	return Meta{Key: k, Value: v}, nil
}
