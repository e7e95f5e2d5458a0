package bier

import (
	"github.com/google/uuid"

	"github.com/hengadev/bier/endian"
)

// UUIDNode encodes a UUID as its 16 raw bytes in RFC 4122 order. Byte order
// does not apply.
type UUIDNode struct{}

// UUID is the shared UUID node.
var UUID = &UUIDNode{}

func (n *UUIDNode) String() string {
	return "uuid"
}

func (n *UUIDNode) ReadFrom(s *endian.Stream, _ *Context) (any, error) {
	raw, err := s.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	return uuid.FromBytes(raw)
}

// WriteTo accepts a uuid.UUID, a [16]byte, a 16 byte slice or any string
// uuid.Parse understands.
func (n *UUIDNode) WriteTo(v any, s *endian.Stream, _ *Context) (int, error) {
	var id uuid.UUID
	switch x := v.(type) {
	case uuid.UUID:
		id = x
	case [16]byte:
		id = x
	case []byte:
		parsed, err := uuid.FromBytes(x)
		if err != nil {
			return 0, NewInvalidValueError(n, v)
		}
		id = parsed
	case string:
		parsed, err := uuid.Parse(x)
		if err != nil {
			return 0, NewInvalidValueError(n, v)
		}
		id = parsed
	default:
		return 0, NewInvalidValueError(n, v)
	}
	return s.WriteBytes(id[:])
}
