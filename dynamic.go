package bier

import "fmt"

// DynamicRecord is a record type defined at runtime. Its values are
// map[string]any keyed by field name; a nil or missing entry is absent.
type DynamicRecord struct {
	name       string
	fields     []Field
	directives []Directive
}

// DefineRecord declares a record type from an explicit field list. Field
// names must be unique and non-empty. Each call defines a distinct type.
func DefineRecord(name string, fields []Field, directives ...Directive) (*DynamicRecord, error) {
	if name == "" {
		return nil, NewInvalidSchemaError("record without a name")
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, NewInvalidSchemaError("record %s: field %d has no name", name, i)
		}
		if seen[f.Name] {
			return nil, NewInvalidSchemaError("record %s: duplicate field name %q", name, f.Name)
		}
		seen[f.Name] = true
	}
	return &DynamicRecord{
		name:       name,
		fields:     append([]Field(nil), fields...),
		directives: append([]Directive(nil), directives...),
	}, nil
}

func (r *DynamicRecord) Key() any {
	return r
}

func (r *DynamicRecord) Name() string {
	return r.name
}

func (r *DynamicRecord) Fields() ([]Field, error) {
	return append([]Field(nil), r.fields...), nil
}

func (r *DynamicRecord) Options() []Directive {
	return append([]Directive(nil), r.directives...)
}

// Construct returns a map holding exactly the record's fields.
func (r *DynamicRecord) Construct(values map[string]any) (any, error) {
	out := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		out[f.Name] = values[f.Name]
	}
	return out, nil
}

func (r *DynamicRecord) Lookup(record any, name string) (any, error) {
	m, ok := record.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s values are map[string]any, got %T", ErrInvalidValue, r.name, record)
	}
	return m[name], nil
}
