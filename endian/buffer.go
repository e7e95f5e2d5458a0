package endian

import (
	"errors"
	"io"
)

// Buffer is an in-memory byte store with a single cursor shared by reads and
// writes. Writes past the end grow the buffer; writes before the end
// overwrite in place.
type Buffer struct {
	data []byte
	pos  int
}

// NewBuffer returns a buffer positioned at the start of data. The buffer
// takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	b.ensureSpace(end)
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *Buffer) ensureSpace(end int) {
	if end <= len(b.data) {
		return
	}
	if end <= cap(b.data) {
		b.data = b.data[:end]
		return
	}
	grown := make([]byte, end, max(end, 2*cap(b.data)))
	copy(grown, b.data)
	b.data = grown
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return int64(b.pos), errors.New("endian: invalid whence")
	}
	target := base + offset
	if target < 0 {
		return int64(b.pos), errors.New("endian: negative position")
	}
	if target > int64(len(b.data)) {
		b.ensureSpace(int(target))
	}
	b.pos = int(target)
	return target, nil
}

// Bytes returns the full contents regardless of the cursor. The slice
// aliases the buffer until the next write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the total number of bytes held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Remaining returns the number of unread bytes after the cursor.
func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}
