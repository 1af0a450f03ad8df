package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/value"
)

// BoolIndex indexes a boolean column as a single equality bitmap: "true"
// positions and, implicitly, everything else in mask_ is false.
type BoolIndex struct {
	Base
	trueBits *bitmap.Bitmap
}

func NewBoolIndex() *BoolIndex {
	return &BoolIndex{Base: NewBase(), trueBits: bitmap.New()}
}

func (idx *BoolIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *BoolIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *BoolIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagBool {
		return fmt.Errorf("index: type_clash: bool index got %s", x.Tag())
	}
	idx.trueBits.AppendBits(false, pos-idx.trueBits.Size())
	idx.trueBits.AppendBit(x.Bool())
	return nil
}

func (idx *BoolIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	switch x.Tag() {
	case value.TagBool:
		switch op {
		case value.Eq:
			if x.Bool() {
				return idx.trueBits.Clone(), nil
			}
			return idx.trueBits.Not(), nil
		case value.Ne:
			if x.Bool() {
				return idx.trueBits.Not(), nil
			}
			return idx.trueBits.Clone(), nil
		default:
			return nil, fmt.Errorf("index: unsupported_operator: %s on bool", op)
		}
	case value.TagVector, value.TagSet:
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.trueBits.Size(), op, x)
	default:
		return nil, fmt.Errorf("index: type_clash: bool index got %s", x.Tag())
	}
}
