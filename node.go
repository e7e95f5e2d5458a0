package bier

import (
	"fmt"
	"math"

	"github.com/hengadev/bier/endian"
)

// Node is one vertex of a schema tree. ReadFrom consumes exactly the bytes
// a matching WriteTo produced.
//
// Nodes are immutable once built and may be shared between goroutines; the
// stream and context passed to them belong to a single call.
type Node interface {
	ReadFrom(s *endian.Stream, ctx *Context) (any, error)
	WriteTo(v any, s *endian.Stream, ctx *Context) (int, error)
	// String describes the node. Nodes with equal descriptions encode
	// identically.
	String() string
}

// StaticLengthNode is a size node whose value is fixed by the schema and
// takes no space on the wire.
type StaticLengthNode struct {
	n int
}

// StaticLength returns a size node that always reads n and only accepts n on
// write.
func StaticLength(n int) *StaticLengthNode {
	return &StaticLengthNode{n: n}
}

func (s *StaticLengthNode) Len() int {
	return s.n
}

func (s *StaticLengthNode) ReadFrom(_ *endian.Stream, _ *Context) (any, error) {
	return s.n, nil
}

func (s *StaticLengthNode) WriteTo(v any, _ *endian.Stream, _ *Context) (int, error) {
	n, err := toInt64(v)
	if err != nil || n != int64(s.n) {
		return 0, NewLengthConstraintError("payload length %v, static length %d", v, s.n)
	}
	return 0, nil
}

func (s *StaticLengthNode) String() string {
	return fmt.Sprintf("static(%d)", s.n)
}

// checkSizeNode accepts integer primitives and static lengths.
func checkSizeNode(n Node) error {
	switch sn := n.(type) {
	case *StaticLengthNode:
		if sn == nil || sn.n < 0 {
			return NewInvalidSchemaError("static length must be non-negative")
		}
		return nil
	case *PrimitiveNode:
		if sn != nil && sn.kind.IsInteger() {
			return nil
		}
	case nil:
		return NewInvalidSchemaError("missing size node")
	}
	return NewInvalidSchemaError("size node must be an integer primitive or a static length, got %s", n)
}

// readLength reads a length through a size node and applies the context's
// max_length cap.
func readLength(size Node, s *endian.Stream, ctx *Context) (int, error) {
	if st, ok := size.(*StaticLengthNode); ok {
		return st.n, nil
	}
	raw, err := size.ReadFrom(s, ctx)
	if err != nil {
		return 0, err
	}
	n, err := toInt64(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, NewLengthConstraintError("negative length %d", n)
	}
	if limit := ctx.MaxLength(); limit > 0 && n > int64(limit) {
		return 0, NewLengthConstraintError("length %d exceeds max_length %d", n, limit)
	}
	if n > math.MaxInt32 {
		return 0, NewLengthConstraintError("length %d too large", n)
	}
	return int(n), nil
}

// writeLength writes n through a size node, rejecting values the prefix
// cannot represent and lengths the matching read would refuse.
func writeLength(size Node, n int, s *endian.Stream, ctx *Context) (int, error) {
	if p, ok := size.(*PrimitiveNode); ok {
		if !p.fits(int64(n)) {
			return 0, NewLengthConstraintError("length %d does not fit a %s prefix", n, p.kind)
		}
		if limit := ctx.MaxLength(); limit > 0 && n > limit {
			return 0, NewLengthConstraintError("length %d exceeds max_length %d", n, limit)
		}
	}
	return size.WriteTo(n, s, ctx)
}
