package tags

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
)

// Validator checks `bier` tags in Go source without compiling it.
type Validator struct {
	errors []string
}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSourceFile reports every malformed `bier` tag in filename.
func (v *Validator) ValidateSourceFile(filename string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", filename, err)
	}
	return v.validate(fset, file)
}

// ValidateSource is ValidateSourceFile for in-memory source.
func (v *Validator) ValidateSource(filename string, src []byte) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("failed to parse file %s: %w", filename, err)
	}
	return v.validate(fset, file)
}

// Errors returns the messages collected by the last validation.
func (v *Validator) Errors() []string {
	return v.errors
}

func (v *Validator) validate(fset *token.FileSet, file *ast.File) error {
	v.errors = nil
	ast.Inspect(file, func(n ast.Node) bool {
		if st, ok := n.(*ast.StructType); ok && st.Fields != nil {
			for _, field := range st.Fields.List {
				v.validateField(fset, field)
			}
		}
		return true
	})

	if len(v.errors) > 0 {
		return fmt.Errorf("struct tag validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) validateField(fset *token.FileSet, field *ast.Field) {
	if field.Tag == nil {
		return
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return
	}
	tag, ok := reflect.StructTag(raw).Lookup(Name)
	if !ok {
		return
	}

	name := "<embedded>"
	if len(field.Names) > 0 {
		name = field.Names[0].Name
	}
	pos := fset.Position(field.Pos())

	spec, err := Parse(tag)
	if err != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s: field %s: %v", pos, name, err))
		return
	}

	// untyped Go integers need an explicit wire width
	if ident, ok := field.Type.(*ast.Ident); ok && !spec.Skip && spec.Kind == "" {
		switch ident.Name {
		case "int", "uint", "uintptr":
			v.errors = append(v.errors, fmt.Sprintf("%s: field %s: type %s needs an explicit kind", pos, name, ident.Name))
		}
	}
}
