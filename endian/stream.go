// Package endian provides a byte stream whose multi-byte reads and writes
// follow a byte order that can be switched between operations.
package endian

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hengadev/bier/internal/f16"
)

// Stream is a cursor over an in-memory buffer or a streaming handle.
// A Stream is not safe for concurrent use.
type Stream struct {
	r     io.Reader
	w     io.Writer
	sk    io.Seeker
	buf   *Buffer
	order Order
	pos   int64
	tmp   [8]byte
}

// NewBytes returns a readable, writable and seekable stream over data.
func NewBytes(data []byte, order Order) *Stream {
	b := NewBuffer(data)
	return &Stream{r: b, w: b, sk: b, buf: b, order: order}
}

// NewReader returns a read-only stream. It is seekable when r implements
// io.Seeker.
func NewReader(r io.Reader, order Order) *Stream {
	s := &Stream{r: r, order: order}
	s.sk, _ = r.(io.Seeker)
	return s
}

// NewWriter returns a write-only stream. It is seekable when w implements
// io.Seeker.
func NewWriter(w io.Writer, order Order) *Stream {
	s := &Stream{w: w, order: order}
	s.sk, _ = w.(io.Seeker)
	return s
}

// NewReadWriter returns a stream that both reads from and writes to rw.
func NewReadWriter(rw io.ReadWriter, order Order) *Stream {
	s := &Stream{r: rw, w: rw, order: order}
	s.sk, _ = rw.(io.Seeker)
	return s
}

func (s *Stream) Order() Order {
	return s.order
}

// SetOrder changes the byte order used by subsequent operations.
func (s *Stream) SetOrder(order Order) {
	s.order = order
}

// Tell returns the current position. For non seekable handles it is the
// number of bytes consumed or produced since construction.
func (s *Stream) Tell() int64 {
	return s.pos
}

// Seek moves the cursor like io.Seeker.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.sk == nil {
		return s.pos, &Error{Op: "seek", Offset: s.pos, Err: ErrNotSeekable}
	}
	pos, err := s.sk.Seek(offset, whence)
	if err != nil {
		return s.pos, &Error{Op: "seek", Offset: s.pos, Err: err}
	}
	s.pos = pos
	return pos, nil
}

// Align advances the cursor to the next multiple of size and returns the new
// position. Seekable streams skip, and an in-memory stream fails rather than
// moving past its end. Read-only handles discard the padding and write-only
// handles emit zero bytes.
func (s *Stream) Align(size int) (int64, error) {
	if size <= 0 {
		return s.pos, &Error{Op: "align", Offset: s.pos, Err: fmt.Errorf("%w: alignment %d", ErrLengthConstraintViolation, size)}
	}
	pad := int64(size) - s.pos%int64(size)
	if pad == int64(size) {
		return s.pos, nil
	}

	switch {
	case s.sk != nil:
		if rem, ok := s.Remaining(); ok && pad > int64(rem) {
			return s.pos, &Error{Op: "align", Offset: s.pos, Err: fmt.Errorf("%w: need %d bytes, got %d", ErrUnexpectedEndOfStream, pad, rem)}
		}
		return s.Seek(pad, io.SeekCurrent)
	case s.r != nil:
		if _, err := s.ReadBytes(int(pad)); err != nil {
			return s.pos, err
		}
	default:
		if _, err := s.WriteBytes(make([]byte, pad)); err != nil {
			return s.pos, err
		}
	}
	return s.pos, nil
}

// Bytes returns the contents of an in-memory stream, or nil for streams
// built over external handles.
func (s *Stream) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.Bytes()
}

// Remaining reports the unread byte count of an in-memory stream. The second
// result is false for streams over external handles.
func (s *Stream) Remaining() (int, bool) {
	if s.buf == nil {
		return 0, false
	}
	return s.buf.Remaining(), true
}

func (s *Stream) readFull(op string, p []byte) error {
	start := s.pos
	if !s.order.Valid() {
		return &Error{Op: op, Offset: start, Err: ErrInvalidOrder}
	}
	if s.r == nil {
		return &Error{Op: op, Offset: start, Err: ErrNotReadable}
	}
	n, err := io.ReadFull(s.r, p)
	s.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: need %d bytes, got %d", ErrUnexpectedEndOfStream, len(p), n)
		}
		return &Error{Op: op, Offset: start, Err: err}
	}
	return nil
}

func (s *Stream) writeAll(op string, p []byte) (int, error) {
	start := s.pos
	if !s.order.Valid() {
		return 0, &Error{Op: op, Offset: start, Err: ErrInvalidOrder}
	}
	if s.w == nil {
		return 0, &Error{Op: op, Offset: start, Err: ErrNotWritable}
	}
	n, err := s.w.Write(p)
	s.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, &Error{Op: op, Offset: start, Err: err}
	}
	return n, nil
}

func (s *Stream) ReadU8() (uint8, error) {
	if err := s.readFull("read u8", s.tmp[:1]); err != nil {
		return 0, err
	}
	return s.tmp[0], nil
}

func (s *Stream) ReadU16() (uint16, error) {
	if err := s.readFull("read u16", s.tmp[:2]); err != nil {
		return 0, err
	}
	return s.order.byteOrder().Uint16(s.tmp[:2]), nil
}

func (s *Stream) ReadU32() (uint32, error) {
	if err := s.readFull("read u32", s.tmp[:4]); err != nil {
		return 0, err
	}
	return s.order.byteOrder().Uint32(s.tmp[:4]), nil
}

func (s *Stream) ReadU64() (uint64, error) {
	if err := s.readFull("read u64", s.tmp[:8]); err != nil {
		return 0, err
	}
	return s.order.byteOrder().Uint64(s.tmp[:8]), nil
}

func (s *Stream) ReadI8() (int8, error) {
	v, err := s.ReadU8()
	return int8(v), err
}

func (s *Stream) ReadI16() (int16, error) {
	v, err := s.ReadU16()
	return int16(v), err
}

func (s *Stream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *Stream) ReadI64() (int64, error) {
	v, err := s.ReadU64()
	return int64(v), err
}

// ReadF16 reads a half precision float and widens it to float32.
func (s *Stream) ReadF16() (float32, error) {
	v, err := s.ReadU16()
	if err != nil {
		return 0, err
	}
	return f16.Number(v).Float32(), nil
}

func (s *Stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	return math.Float32frombits(v), err
}

func (s *Stream) ReadF64() (float64, error) {
	v, err := s.ReadU64()
	return math.Float64frombits(v), err
}

// ReadBool reads one byte. Any non-zero value is true.
func (s *Stream) ReadBool() (bool, error) {
	v, err := s.ReadU8()
	return v != 0, err
}

func (s *Stream) WriteU8(v uint8) (int, error) {
	s.tmp[0] = v
	return s.writeAll("write u8", s.tmp[:1])
}

func (s *Stream) WriteU16(v uint16) (int, error) {
	s.order.byteOrder().PutUint16(s.tmp[:2], v)
	return s.writeAll("write u16", s.tmp[:2])
}

func (s *Stream) WriteU32(v uint32) (int, error) {
	s.order.byteOrder().PutUint32(s.tmp[:4], v)
	return s.writeAll("write u32", s.tmp[:4])
}

func (s *Stream) WriteU64(v uint64) (int, error) {
	s.order.byteOrder().PutUint64(s.tmp[:8], v)
	return s.writeAll("write u64", s.tmp[:8])
}

func (s *Stream) WriteI8(v int8) (int, error)   { return s.WriteU8(uint8(v)) }
func (s *Stream) WriteI16(v int16) (int, error) { return s.WriteU16(uint16(v)) }
func (s *Stream) WriteI32(v int32) (int, error) { return s.WriteU32(uint32(v)) }
func (s *Stream) WriteI64(v int64) (int, error) { return s.WriteU64(uint64(v)) }

// WriteF16 narrows v to half precision, rounding to nearest even.
func (s *Stream) WriteF16(v float32) (int, error) {
	return s.WriteU16(f16.From(v).Bits())
}

func (s *Stream) WriteF32(v float32) (int, error) {
	return s.WriteU32(math.Float32bits(v))
}

func (s *Stream) WriteF64(v float64) (int, error) {
	return s.WriteU64(math.Float64bits(v))
}

func (s *Stream) WriteBool(v bool) (int, error) {
	if v {
		return s.WriteU8(1)
	}
	return s.WriteU8(0)
}

// ReadBytes reads exactly n raw bytes.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, &Error{Op: "read bytes", Offset: s.pos, Err: fmt.Errorf("%w: negative length %d", ErrLengthConstraintViolation, n)}
	}
	if n == 0 {
		return []byte{}, nil
	}
	// avoid trusting huge lengths from the wire when the remaining size is known
	if rem, ok := s.Remaining(); ok && n > rem {
		return nil, &Error{Op: "read bytes", Offset: s.pos, Err: fmt.Errorf("%w: need %d bytes, got %d", ErrUnexpectedEndOfStream, n, rem)}
	}
	p := make([]byte, n)
	if err := s.readFull("read bytes", p); err != nil {
		return nil, err
	}
	return p, nil
}

// WriteBytes writes p unchanged.
func (s *Stream) WriteBytes(p []byte) (int, error) {
	if len(p) == 0 {
		if !s.order.Valid() {
			return 0, &Error{Op: "write bytes", Offset: s.pos, Err: ErrInvalidOrder}
		}
		return 0, nil
	}
	return s.writeAll("write bytes", p)
}

// ReadStringC reads bytes up to and including a zero terminator and returns
// them without the terminator.
func (s *Stream) ReadStringC() ([]byte, error) {
	var out []byte
	for {
		c, err := s.ReadU8()
		if err != nil {
			return nil, err
		}
		if c == 0 {
			if out == nil {
				out = []byte{}
			}
			return out, nil
		}
		out = append(out, c)
	}
}

// WriteStringC writes p followed by a single zero byte. A zero inside p
// cannot be represented and is rejected.
func (s *Stream) WriteStringC(p []byte) (int, error) {
	if i := bytes.IndexByte(p, 0); i >= 0 {
		return 0, &Error{Op: "write cstring", Offset: s.pos, Err: fmt.Errorf("%w: embedded zero byte at index %d", ErrLengthConstraintViolation, i)}
	}
	n, err := s.WriteBytes(p)
	if err != nil {
		return n, err
	}
	m, err := s.WriteU8(0)
	return n + m, err
}
