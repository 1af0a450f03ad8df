package index

import (
	"fmt"
	"math"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/value"
)

// DefaultBase is the radix used unless a field's "base" attribute overrides
// it: 8 base-256 digits, i.e. the order-preserving uint64 key decomposed
// byte-by-byte. Arithmetic keys span the full 64-bit range (order-preserved
// timestamps in particular run well past 2^32), so the default must have
// capacity 2^64 or every digit decomposition silently truncates high bits --
// the glossary's illustrative "ten base-8 digits" example only has capacity
// 2^30 and is not safe to use verbatim as the default for a full uint64 key.
func DefaultBase() coder.Base { return coder.Uniform(256, 8) }

// ArithmeticIndex indexes any totally-ordered scalar variant
// (int/count/real/duration/time/enumeration) via an order-preserving
// mapping to uint64 followed by a range-encoded coder.MultiDigit, giving
// all six relational operators without per-variant lookup code.
type ArithmeticIndex struct {
	Base
	kind  value.Tag
	coder *coder.MultiDigit
}

func NewArithmeticIndex(kind value.Tag, base coder.Base) *ArithmeticIndex {
	if base == nil {
		base = DefaultBase()
	}
	return &ArithmeticIndex{Base: NewBase(), kind: kind, coder: coder.NewMultiDigit(base)}
}

func (idx *ArithmeticIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *ArithmeticIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *ArithmeticIndex) appendImpl(x value.Value, pos uint64) error {
	key, err := idx.key(x)
	if err != nil {
		return err
	}
	idx.coder.Skip(pos - idx.coder.Size())
	idx.coder.Append(key)
	return nil
}

func (idx *ArithmeticIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	if x.Tag() == value.TagVector || x.Tag() == value.TagSet {
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.coder.Size(), op, x)
	}
	key, err := idx.key(x)
	if err != nil {
		return nil, err
	}
	switch op {
	case value.Eq:
		return idx.coder.Equal(key), nil
	case value.Ne:
		return idx.coder.Equal(key).Not(), nil
	case value.Lt:
		return idx.coder.Less(key), nil
	case value.Le:
		return idx.coder.LessEqual(key), nil
	case value.Gt:
		return idx.coder.Greater(key), nil
	case value.Ge:
		return idx.coder.GreaterEqual(key), nil
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on %s", op, idx.kind)
	}
}

func (idx *ArithmeticIndex) key(x value.Value) (uint64, error) {
	if x.Tag() != idx.kind {
		return 0, fmt.Errorf("index: type_clash: %s index got %s", idx.kind, x.Tag())
	}
	switch idx.kind {
	case value.TagInt:
		return orderPreservingInt64(x.Int()), nil
	case value.TagCount:
		return x.Count(), nil
	case value.TagReal:
		return orderPreservingFloat64(x.Real()), nil
	case value.TagDuration:
		return orderPreservingInt64(x.Duration()), nil
	case value.TagTime:
		return orderPreservingInt64(x.Time()), nil
	case value.TagEnum:
		return x.Enum(), nil
	default:
		return 0, fmt.Errorf("index: arithmetic index does not support %s", idx.kind)
	}
}

// orderPreservingInt64 maps int64 to uint64 while preserving order, so the
// unsigned radix decomposition used by coder.MultiDigit sorts correctly.
func orderPreservingInt64(i int64) uint64 { return uint64(i) ^ 0x8000000000000000 }

// orderPreservingFloat64 maps float64 to an order-preserving uint64: flip
// all bits for negatives, set the sign bit for non-negatives.
func orderPreservingFloat64(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&0x8000000000000000 != 0 {
		return ^bits
	}
	return bits | 0x8000000000000000
}
