package bier

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hengadev/bier/endian"
)

// ListNode encodes a length prefix followed by that many elements.
type ListNode struct {
	elem Node
	size Node
}

func NewListNode(elem Node, size Node) (*ListNode, error) {
	if elem == nil {
		return nil, NewInvalidSchemaError("list without element node")
	}
	if err := checkSizeNode(size); err != nil {
		return nil, err
	}
	return &ListNode{elem: elem, size: size}, nil
}

func (n *ListNode) Elem() Node {
	return n.elem
}

func (n *ListNode) Size() Node {
	return n.size
}

func (n *ListNode) String() string {
	return fmt.Sprintf("list(%s,%s)", n.elem, n.size)
}

// ReadFrom returns a typed slice ([]uint16, []float64, ...) for primitive
// elements and []any for everything else.
func (n *ListNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	count, err := readLength(n.size, s, ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := n.elem.(*PrimitiveNode); ok {
		return readPrimitiveArray(p.kind, s, count)
	}

	out := make([]any, 0, min(count, 1024))
	for i := 0; i < count; i++ {
		v, err := n.elem.ReadFrom(s, ctx)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (n *ListNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, NewInvalidValueError(n, v)
	}

	total, err := writeLength(n.size, rv.Len(), s, ctx)
	if err != nil {
		return total, err
	}
	if p, ok := n.elem.(*PrimitiveNode); ok {
		if written, handled, err := writePrimitiveArray(p.kind, v, s); handled {
			return total + written, err
		}
	}
	written, err := writeElements([]Node{n.elem}, rv, s, ctx)
	return total + written, err
}

// TupleNode encodes a fixed number of heterogeneous values with no prefix.
type TupleNode struct {
	elems []Node
}

func NewTupleNode(elems ...Node) (*TupleNode, error) {
	for i, e := range elems {
		if e == nil {
			return nil, NewInvalidSchemaError("tuple element %d has no node", i)
		}
	}
	return &TupleNode{elems: append([]Node(nil), elems...)}, nil
}

func (n *TupleNode) Elems() []Node {
	return append([]Node(nil), n.elems...)
}

func (n *TupleNode) String() string {
	parts := make([]string, len(n.elems))
	for i, e := range n.elems {
		parts[i] = e.String()
	}
	return "tuple(" + strings.Join(parts, ",") + ")"
}

func (n *TupleNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	out := make([]any, len(n.elems))
	for i, e := range n.elems {
		v, err := e.ReadFrom(s, ctx)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (n *TupleNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != len(n.elems) {
		return 0, NewInvalidValueError(n, v)
	}
	return writeElements(n.elems, rv, s, ctx)
}

// writeElements writes rv[i] with nodes[i], or with nodes[0] for every
// element when a single node is given.
func writeElements(nodes []Node, rv reflect.Value, s *endian.Stream, ctx *Context) (int, error) {
	total := 0
	for i := 0; i < rv.Len(); i++ {
		node := nodes[0]
		if len(nodes) > 1 {
			node = nodes[i]
		}
		written, err := node.WriteTo(rv.Index(i).Interface(), s, ctx)
		total += written
		if err != nil {
			return total, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return total, nil
}

func readPrimitiveArray(k Kind, s *endian.Stream, count int) (any, error) {
	switch k {
	case KindU8:
		return endian.ReadArray[uint8](s, count)
	case KindU16:
		return endian.ReadArray[uint16](s, count)
	case KindU32:
		return endian.ReadArray[uint32](s, count)
	case KindU64:
		return endian.ReadArray[uint64](s, count)
	case KindI8:
		return endian.ReadArray[int8](s, count)
	case KindI16:
		return endian.ReadArray[int16](s, count)
	case KindI32:
		return endian.ReadArray[int32](s, count)
	case KindI64:
		return endian.ReadArray[int64](s, count)
	case KindF16:
		return s.ReadF16Array(count)
	case KindF32:
		return endian.ReadArray[float32](s, count)
	case KindF64:
		return endian.ReadArray[float64](s, count)
	}
	return nil, NewInvalidSchemaError("primitive of kind %s", k)
}

// writePrimitiveArray handles slices whose Go element type already matches
// the wire kind. handled is false when the generic path must be used.
func writePrimitiveArray(k Kind, v any, s *endian.Stream) (n int, handled bool, err error) {
	switch x := v.(type) {
	case []uint8:
		if k == KindU8 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []uint16:
		if k == KindU16 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []uint32:
		if k == KindU32 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []uint64:
		if k == KindU64 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []int8:
		if k == KindI8 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []int16:
		if k == KindI16 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []int32:
		if k == KindI32 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []int64:
		if k == KindI64 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []float32:
		switch k {
		case KindF16:
			n, err = s.WriteF16Array(x)
			return n, true, err
		case KindF32:
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	case []float64:
		if k == KindF64 {
			n, err = endian.WriteArray(s, x)
			return n, true, err
		}
	}
	return 0, false, nil
}

// OrderedNode pins the byte order of one subtree regardless of the order the
// stream was opened with.
type OrderedNode struct {
	order endian.Order
	node  Node
}

func Ordered(order endian.Order, node Node) (*OrderedNode, error) {
	if !order.Valid() {
		return nil, NewInvalidSchemaError("byte order %s", order)
	}
	if node == nil {
		return nil, NewInvalidSchemaError("ordered wrapper without node")
	}
	return &OrderedNode{order: order, node: node}, nil
}

func (n *OrderedNode) Node() Node {
	return n.node
}

func (n *OrderedNode) Order() endian.Order {
	return n.order
}

func (n *OrderedNode) String() string {
	return fmt.Sprintf("%s@%s", n.node, n.order)
}

func (n *OrderedNode) ReadFrom(s *endian.Stream, ctx *Context) (any, error) {
	prev := s.Order()
	s.SetOrder(n.order)
	defer s.SetOrder(prev)
	return n.node.ReadFrom(s, ctx)
}

func (n *OrderedNode) WriteTo(v any, s *endian.Stream, ctx *Context) (int, error) {
	prev := s.Order()
	s.SetOrder(n.order)
	defer s.SetOrder(prev)
	return n.node.WriteTo(v, s, ctx)
}
