package endian

import (
	eb "encoding/binary"
	"fmt"
	"strings"
)

// Order selects the byte order of multi-byte values. The zero value is not a
// valid order; streams refuse to operate until one is set.
type Order uint8

const (
	LittleEndian Order = iota + 1
	BigEndian
)

// ParseOrder accepts the tokens "<", "little", "le" for little endian and
// ">", "big", "be" for big endian (case insensitive).
func ParseOrder(token string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "<", "little", "le":
		return LittleEndian, nil
	case ">", "big", "be":
		return BigEndian, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOrder, token)
}

// Valid reports whether o is one of the two supported orders.
func (o Order) Valid() bool {
	return o == LittleEndian || o == BigEndian
}

func (o Order) String() string {
	switch o {
	case LittleEndian:
		return "little"
	case BigEndian:
		return "big"
	}
	return fmt.Sprintf("Order(%d)", uint8(o))
}

func (o Order) byteOrder() eb.ByteOrder {
	if o == BigEndian {
		return eb.BigEndian
	}
	return eb.LittleEndian
}

// MarshalText implements encoding.TextMarshaler so orders read naturally in
// configuration files.
func (o Order) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, uint8(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(text []byte) error {
	parsed, err := ParseOrder(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
