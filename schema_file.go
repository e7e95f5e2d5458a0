package bier

import (
	"fmt"
	"os"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"

	"github.com/hengadev/bier/endian"
)

// SchemaFile is the YAML document accepted by ParseSchema:
//
//	records:
//	  - name: Point
//	    fields:
//	      - {name: x, type: i32}
//	      - {name: y, type: i32}
//	  - name: Packet
//	    root: tlv
//	    length_type: u16
//	    fields:
//	      - {name: id, type: uuid, meta: {id: 1, type_id: 3}}
//	      - {name: label, type: string, length: u8, meta: {id: 2}}
//	      - {name: at, type: record, record: Point, meta: {id: 3}}
//	      - {name: tags, type: list, elem: {type: cstr}, meta: {id: 4}}
type SchemaFile struct {
	Records []RecordSpec `yaml:"records"`
}

type RecordSpec struct {
	Name string `yaml:"name"`
	// Root is class (default), presence or tlv.
	Root       string      `yaml:"root,omitempty"`
	LengthType string      `yaml:"length_type,omitempty"`
	Decode     string      `yaml:"decode,omitempty"`
	Order      string      `yaml:"order,omitempty"`
	Fields     []FieldSpec `yaml:"fields"`
}

type TypeSpec struct {
	Type   string     `yaml:"type"`
	Length string     `yaml:"length,omitempty"`
	Static *int       `yaml:"static,omitempty"`
	Order  string     `yaml:"order,omitempty"`
	Decode string     `yaml:"decode,omitempty"`
	Elem   *TypeSpec  `yaml:"elem,omitempty"`
	Elems  []TypeSpec `yaml:"elems,omitempty"`
	Record string     `yaml:"record,omitempty"`
}

type FieldSpec struct {
	Name     string `yaml:"name"`
	TypeSpec `yaml:",inline"`
	Meta     map[string]any `yaml:"meta,omitempty"`
}

// Schema is a set of dynamic record types loaded together. Records may
// refer to each other in any order, including recursively.
type Schema struct {
	records map[string]*DynamicRecord
	names   []string
}

func (s *Schema) Record(name string) (*DynamicRecord, bool) {
	r, ok := s.records[name]
	return r, ok
}

// Names lists the records in file order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// LoadSchemaFile reads and parses a YAML schema file.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(data)
}

func ParseSchema(data []byte) (*Schema, error) {
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse schema: %v", ErrInvalidSchema, err)
	}
	return file.Compile()
}

// Compile turns the parsed document into record types.
func (f *SchemaFile) Compile() (*Schema, error) {
	s := &Schema{records: make(map[string]*DynamicRecord, len(f.Records))}

	// declare first so fields can refer to records defined later
	for _, rs := range f.Records {
		if rs.Name == "" {
			return nil, NewInvalidSchemaError("record without a name")
		}
		if _, dup := s.records[rs.Name]; dup {
			return nil, NewInvalidSchemaError("record %s defined twice", rs.Name)
		}
		s.records[rs.Name] = &DynamicRecord{name: rs.Name}
		s.names = append(s.names, rs.Name)
	}

	var errs errsx.Map
	for _, rs := range f.Records {
		rec := s.records[rs.Name]
		directives, err := rs.directives()
		if err != nil {
			errs.Set(rs.Name, err)
			continue
		}
		fields := make([]Field, 0, len(rs.Fields))
		for _, fs := range rs.Fields {
			desc, err := s.describe(fs.TypeSpec)
			if err != nil {
				errs.Set(rs.Name+"."+fs.Name, err)
				continue
			}
			field := Field{Name: fs.Name, Type: desc}
			for k, v := range fs.Meta {
				field.Directives = append(field.Directives, Metadata(k, v))
			}
			fields = append(fields, field)
		}
		defined, err := DefineRecord(rs.Name, fields, directives...)
		if err != nil {
			errs.Set(rs.Name, err)
			continue
		}
		*rec = *defined
	}

	if !errs.IsEmpty() {
		return nil, &SchemaError{Record: "schema", Fields: errs}
	}
	return s, nil
}

func (rs RecordSpec) directives() ([]Directive, error) {
	var out []Directive
	switch rs.Root {
	case "", "class":
	case "presence":
		out = append(out, CustomRoot(PresenceRoot))
	case "tlv":
		out = append(out, CustomRoot(TLVRoot))
	default:
		return nil, NewInvalidSchemaError("unknown root %q", rs.Root)
	}
	common, err := commonDirectives(rs.LengthType, nil, rs.Order, rs.Decode)
	if err != nil {
		return nil, err
	}
	return append(out, common...), nil
}

func commonDirectives(length string, static *int, order, decode string) ([]Directive, error) {
	var out []Directive
	if length != "" {
		k, ok := ParseKind(length)
		if !ok || !k.IsInteger() {
			return nil, NewInvalidSchemaError("length type must be an integer kind, got %q", length)
		}
		out = append(out, LengthType(Primitive(k)))
	}
	if static != nil {
		if length != "" {
			return nil, NewInvalidSchemaError("length and static are mutually exclusive")
		}
		out = append(out, FixedLength(*static))
	}
	if order != "" {
		o, err := endian.ParseOrder(order)
		if err != nil {
			return nil, NewInvalidSchemaError("%v", err)
		}
		out = append(out, ByteOrder(o))
	}
	if decode != "" {
		p, err := ParseDecodePolicy(decode)
		if err != nil {
			return nil, err
		}
		out = append(out, DecodeErrors(p))
	}
	return out, nil
}

func (s *Schema) describe(ts TypeSpec) (Descriptor, error) {
	name := ts.Type
	if name == "string" {
		name = "str"
	}
	kind, ok := ParseKind(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: type %q", ErrUnsupportedType, ts.Type)
	}

	directives, err := commonDirectives(ts.Length, ts.Static, ts.Order, ts.Decode)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{Kind: kind, Directives: directives}

	switch kind {
	case KindList:
		if ts.Elem == nil {
			return Descriptor{}, NewInvalidSchemaError("list without elem")
		}
		elem, err := s.describe(*ts.Elem)
		if err != nil {
			return Descriptor{}, err
		}
		d.Elem = &elem
	case KindTuple:
		for _, e := range ts.Elems {
			elem, err := s.describe(e)
			if err != nil {
				return Descriptor{}, err
			}
			d.Elems = append(d.Elems, elem)
		}
	case KindRecord:
		rec, ok := s.records[ts.Record]
		if !ok {
			return Descriptor{}, NewInvalidSchemaError("unknown record %q", ts.Record)
		}
		d.Record = rec
	}
	return d, nil
}
