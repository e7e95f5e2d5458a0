package endian

import "fmt"

// Fixed is the set of element types with a fixed wire width.
type Fixed interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

func width[T Fixed]() int {
	var zero T
	switch any(zero).(type) {
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	case uint32, int32, float32:
		return 4
	}
	return 8
}

// ReadArray reads n consecutive values of T in the stream's byte order.
// float32 elements are read as binary32; use ReadF16Array for half floats.
func ReadArray[T Fixed](s *Stream, n int) ([]T, error) {
	if err := s.checkArray(n, width[T]()); err != nil {
		return nil, err
	}
	out := make([]T, n)
	for i := range out {
		v, err := readFixed[T](s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteArray writes every element of values in order.
func WriteArray[T Fixed](s *Stream, values []T) (int, error) {
	total := 0
	for _, v := range values {
		n, err := writeFixed(s, v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ReadF16Array reads n half precision floats.
func (s *Stream) ReadF16Array(n int) ([]float32, error) {
	if err := s.checkArray(n, 2); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		v, err := s.ReadF16()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteF16Array narrows and writes every element of values.
func (s *Stream) WriteF16Array(values []float32) (int, error) {
	total := 0
	for _, v := range values {
		n, err := s.WriteF16(v)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Stream) checkArray(n, size int) error {
	if n < 0 {
		return &Error{Op: "read array", Offset: s.pos, Err: fmt.Errorf("%w: negative count %d", ErrLengthConstraintViolation, n)}
	}
	if rem, ok := s.Remaining(); ok && n*size > rem {
		return &Error{Op: "read array", Offset: s.pos, Err: fmt.Errorf("%w: need %d bytes, got %d", ErrUnexpectedEndOfStream, n*size, rem)}
	}
	return nil
}

func readFixed[T Fixed](s *Stream) (T, error) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		v, err := s.ReadU8()
		return T(v), err
	case uint16:
		v, err := s.ReadU16()
		return T(v), err
	case uint32:
		v, err := s.ReadU32()
		return T(v), err
	case uint64:
		v, err := s.ReadU64()
		return T(v), err
	case int8:
		v, err := s.ReadI8()
		return T(v), err
	case int16:
		v, err := s.ReadI16()
		return T(v), err
	case int32:
		v, err := s.ReadI32()
		return T(v), err
	case int64:
		v, err := s.ReadI64()
		return T(v), err
	case float32:
		v, err := s.ReadF32()
		return T(v), err
	default:
		v, err := s.ReadF64()
		return T(v), err
	}
}

func writeFixed[T Fixed](s *Stream, v T) (int, error) {
	switch x := any(v).(type) {
	case uint8:
		return s.WriteU8(x)
	case uint16:
		return s.WriteU16(x)
	case uint32:
		return s.WriteU32(x)
	case uint64:
		return s.WriteU64(x)
	case int8:
		return s.WriteI8(x)
	case int16:
		return s.WriteI16(x)
	case int32:
		return s.WriteI32(x)
	case int64:
		return s.WriteI64(x)
	case float32:
		return s.WriteF32(x)
	case float64:
		return s.WriteF64(x)
	}
	return 0, nil
}
