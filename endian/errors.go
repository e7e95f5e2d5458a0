package endian

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEndOfStream is returned when fewer bytes remain than a
	// read requires.
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
	// ErrLengthConstraintViolation is returned when a payload does not fit
	// its declared length.
	ErrLengthConstraintViolation = errors.New("length constraint violation")
	ErrNotSeekable               = errors.New("stream is not seekable")
	ErrInvalidOrder              = errors.New("invalid byte order")
	ErrNotReadable               = errors.New("stream is not readable")
	ErrNotWritable               = errors.New("stream is not writable")
)

// Error records the failing operation and the stream offset it started at.
type Error struct {
	Op     string
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("endian: %s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
