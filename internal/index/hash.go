package index

import (
	"fmt"

	farm "github.com/dgryski/go-farm"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/value"
)

// truncatedHashBits is the width of the stored digest: 5 bytes, matching the
// "id" attribute's hash_index (spec section 4.C).
const truncatedHashBits = 40

// HashIndex is selected for any field carrying the "id" attribute: rather
// than a per-character index, it stores a truncated FarmHash64 digest of the
// value's raw bytes (see digest) and only ever answers ==/!=. Collisions are accepted --
// an id column is a dedup/equality key, not a uniqueness guarantee.
type HashIndex struct {
	Base
	coder *coder.MultiDigit
}

func NewHashIndex() *HashIndex {
	return &HashIndex{Base: NewBase(), coder: coder.NewMultiDigit(coder.Uniform(2, truncatedHashBits))}
}

func (idx *HashIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *HashIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *HashIndex) appendImpl(x value.Value, pos uint64) error {
	idx.coder.Skip(pos - idx.coder.Size())
	idx.coder.Append(digest(x))
	return nil
}

func (idx *HashIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	if x.Tag() == value.TagVector || x.Tag() == value.TagSet {
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.coder.Size(), op, x)
	}
	h := digest(x)
	switch op {
	case value.Eq:
		return idx.coder.Equal(h), nil
	case value.Ne:
		return idx.coder.Equal(h).Not(), nil
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on hash index", op)
	}
}

// digest hashes x's byte representation with FarmHash64 and truncates to
// truncatedHashBits.
func digest(x value.Value) uint64 {
	var b []byte
	switch x.Tag() {
	case value.TagString:
		b = []byte(x.String())
	case value.TagInt:
		b = uint64Bytes(uint64(x.Int()))
	case value.TagCount:
		b = uint64Bytes(x.Count())
	case value.TagEnum:
		b = uint64Bytes(x.Enum())
	case value.TagAddress:
		addr := x.Address()
		b = append([]byte{}, addr.Bytes[:]...)
	default:
		b = []byte(fmt.Sprintf("%v", x.Raw()))
	}
	h := farm.Hash64(b)
	return h & ((uint64(1) << truncatedHashBits) - 1)
}

func uint64Bytes(u uint64) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(u >> (8 * i))
	}
	return out
}
