package bier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hengadev/errsx"

	"github.com/hengadev/bier/endian"
)

var (
	// Stream errors, shared with the endian package
	ErrUnexpectedEndOfStream     = endian.ErrUnexpectedEndOfStream
	ErrLengthConstraintViolation = endian.ErrLengthConstraintViolation
	ErrInvalidOrder              = endian.ErrInvalidOrder
	ErrNotSeekable               = endian.ErrNotSeekable

	// Construction errors
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrUnsupportedType = errors.New("unsupported type")

	// Decode errors
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidUTF8     = errors.New("invalid utf-8")

	// Encode errors
	ErrInvalidValue = errors.New("invalid value")

	ErrInvalidConfiguration = errors.New("invalid configuration")
)

func NewInvalidSchemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSchema, fmt.Sprintf(format, args...))
}

func NewUnsupportedTypeError(fieldName string, typeName string) error {
	return fmt.Errorf("%w: field '%s' has type %s which has no binary encoding", ErrUnsupportedType, fieldName, typeName)
}

func NewTypeMismatchError(fieldName string, expected, got uint8) error {
	return fmt.Errorf("%w: field '%s' expects type id %d, stream declares %d", ErrTypeMismatch, fieldName, expected, got)
}

func NewInvalidValueError(node Node, value any) error {
	return fmt.Errorf("%w: %T (%v) cannot be written as %s", ErrInvalidValue, value, value, node)
}

func NewLengthConstraintError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLengthConstraintViolation, fmt.Sprintf(format, args...))
}

// FieldError locates a read or write failure inside a record.
type FieldError struct {
	Record string
	Field  string
	Offset int64
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s at offset %d: %v", e.Record, e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// SchemaError collects every field of a record type that failed to build.
type SchemaError struct {
	Record string
	Fields errsx.Map
}

func (e *SchemaError) Error() string {
	keys := e.keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Fields[k]))
	}
	return fmt.Sprintf("schema for %s: %s", e.Record, strings.Join(parts, "; "))
}

// Unwrap exposes the per-field causes to errors.Is and errors.As.
func (e *SchemaError) Unwrap() []error {
	keys := e.keys()
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.Fields[k])
	}
	return errs
}

func (e *SchemaError) keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsSchemaError reports construction time failures.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrInvalidSchema) || errors.Is(err, ErrUnsupportedType)
}

// IsStreamError reports failures caused by the bytes being read.
func IsStreamError(err error) bool {
	return errors.Is(err, ErrUnexpectedEndOfStream) ||
		errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrInvalidUTF8)
}

// IsValueError reports failures caused by the value being written.
func IsValueError(err error) bool {
	return errors.Is(err, ErrInvalidValue) || errors.Is(err, ErrLengthConstraintViolation)
}
