package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/value"
)

// PortIndex pairs a number equality/range coder with an 8-bit proto coder.
// Comparisons against a port whose proto is unknown ignore the proto
// dimension entirely, matching any protocol (spec 4.C).
type PortIndex struct {
	Base
	number *coder.MultiDigit
	proto  *coder.EqualityCoder
}

func NewPortIndex() *PortIndex {
	return &PortIndex{
		Base:   NewBase(),
		number: coder.NewMultiDigit(coder.Uniform(2, 16)),
		proto:  coder.NewEqualityCoder(256),
	}
}

func (idx *PortIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *PortIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *PortIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagPort {
		return fmt.Errorf("index: type_clash: port index got %s", x.Tag())
	}
	p := x.Port()
	idx.number.Skip(pos - idx.number.Size())
	idx.number.Append(uint64(p.Number))
	idx.proto.Skip(pos - idx.proto.Size())
	idx.proto.Append(uint64(p.Proto))
	return nil
}

func (idx *PortIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	switch x.Tag() {
	case value.TagPort:
		// fall through
	case value.TagVector, value.TagSet:
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.number.Size(), op, x)
	default:
		return nil, fmt.Errorf("index: type_clash: port index got %s", x.Tag())
	}
	p := x.Port()
	var numResult *bitmap.Bitmap
	switch op {
	case value.Eq:
		numResult = idx.number.Equal(uint64(p.Number))
	case value.Ne:
		numResult = idx.number.Equal(uint64(p.Number)).Not()
	case value.Lt:
		numResult = idx.number.Less(uint64(p.Number))
	case value.Le:
		numResult = idx.number.LessEqual(uint64(p.Number))
	case value.Gt:
		numResult = idx.number.Greater(uint64(p.Number))
	case value.Ge:
		numResult = idx.number.GreaterEqual(uint64(p.Number))
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on port", op)
	}
	if p.Proto == value.ProtoUnknown {
		return numResult, nil
	}
	protoEq := idx.proto.Equal(uint64(p.Proto))
	if op == value.Ne {
		return bitmap.Or(numResult, protoEq.Not()), nil
	}
	return bitmap.And(numResult, protoEq), nil
}
