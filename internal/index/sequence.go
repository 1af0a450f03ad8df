package index

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/highwayhash"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/value"
)

// highwayKey is a fixed all-zero 256-bit key: the size digest below is a
// cheap bucketing aid, not a security boundary, so a static key is fine.
var highwayKey = make([]byte, 32)

// SequenceIndex indexes a vector or set column: up to maxSize inner element
// indices (elements[i] indexes every row's i'th element) plus a size index
// recording each row's actual length. Lookups for ni/!ni test "does any
// element equal the query" by OR-ing per-slot equality across the element
// slots that have been populated so far.
type SequenceIndex struct {
	Base
	maxSize    int
	size       *ArithmeticIndex
	sizeDigest *ArithmeticIndex
	elements   []Index
	newElement func() Index
}

// NewSequenceIndex builds a sequence index over an element type whose inner
// per-slot indices are produced by newElement (e.g. NewArithmeticIndex,
// NewStringIndex, bound by the factory per the element's schema type).
func NewSequenceIndex(maxSize int, newElement func() Index) *SequenceIndex {
	if maxSize <= 0 {
		maxSize = 32
	}
	return &SequenceIndex{
		Base:       NewBase(),
		maxSize:    maxSize,
		size:       NewArithmeticIndex(value.TagCount, nil),
		sizeDigest: NewArithmeticIndex(value.TagCount, nil),
		newElement: newElement,
	}
}

func (idx *SequenceIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *SequenceIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *SequenceIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagVector && x.Tag() != value.TagSet {
		return fmt.Errorf("index: type_clash: sequence index got %s", x.Tag())
	}
	xs := x.Elements()
	if err := idx.size.appendImpl(value.NewCount(uint64(len(xs))), pos); err != nil {
		return err
	}
	if err := idx.sizeDigest.appendImpl(value.NewCount(sizeDigest(len(xs))), pos); err != nil {
		return err
	}
	n := len(xs)
	if n > idx.maxSize {
		n = idx.maxSize
	}
	for len(idx.elements) < n {
		idx.elements = append(idx.elements, idx.newElement())
	}
	for i := 0; i < n; i++ {
		if err := idx.elements[i].Append(xs[i], pos); err != nil {
			return err
		}
	}
	return nil
}

func (idx *SequenceIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	switch op {
	case value.Ni, value.NotNi, value.In, value.NotIn:
		negate := op == value.NotNi || op == value.NotIn
		result := bitmap.New()
		result.AppendBits(false, idx.size.Offset())
		for _, elem := range idx.elements {
			bm, err := elem.Lookup(value.Eq, x)
			if err != nil {
				return nil, err
			}
			result = bitmap.Or(result, bm)
		}
		if negate {
			result = result.Not()
		}
		return result, nil
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on sequence", op)
	}
}

// sizeDigest hashes a length with HighwayHash to give the size index a cheap
// bucketed key distinct from the raw count, avoiding a full per-element
// index rebuild just to distinguish "same bucket, different exact size"
// rows during partition pruning.
func sizeDigest(n int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	h, err := highwayhash.New64(highwayKey)
	if err != nil {
		return uint64(n)
	}
	h.Write(buf[:])
	return h.Sum64()
}
