package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/value"
)

// StringIndex stores, per character position k in [0, maxSize), an 8-bit
// equality coder over byte k (chars[k]), plus a length index. Equality
// requires equal length and equal bytes; substring (ni/!ni) iterates
// candidate start positions.
//
// Faithful-reimplementation note (spec section 9): substring lookups cap
// their search window at len(chars) -- the number of character slots ever
// allocated, i.e. the length of the longest string inserted so far -- not
// at maxSize. A short-lived index that has only ever seen 3-byte strings
// will not match a 5-byte substring query even if maxSize is much larger.
// This mirrors the original's chars_.size() ceiling rather than "fixing"
// it to max_length.
type StringIndex struct {
	Base
	maxSize int
	length  *ArithmeticIndex
	chars   []*coder.EqualityCoder
}

func NewStringIndex(maxSize int) *StringIndex {
	if maxSize <= 0 {
		maxSize = 1 << 20
	}
	return &StringIndex{
		Base:    NewBase(),
		maxSize: maxSize,
		length:  NewArithmeticIndex(value.TagCount, nil),
	}
}

func (idx *StringIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *StringIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *StringIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagString {
		return fmt.Errorf("index: type_clash: string index got %s", x.Tag())
	}
	s := x.String()
	length := len(s)
	if length > idx.maxSize {
		length = idx.maxSize
	}
	for len(idx.chars) < length {
		idx.chars = append(idx.chars, coder.NewEqualityCoder(256))
	}
	for i := 0; i < length; i++ {
		idx.chars[i].Skip(pos - idx.chars[i].Size())
		idx.chars[i].Append(uint64(s[i]))
	}
	return idx.length.Append(value.NewCount(uint64(length)), pos)
}

func (idx *StringIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	switch x.Tag() {
	case value.TagVector, value.TagSet:
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.offset(), op, x)
	case value.TagString:
		// fall through below
	default:
		return nil, fmt.Errorf("index: type_clash: string index got %s", x.Tag())
	}
	s := x.String()
	strSize := len(s)
	if strSize > idx.maxSize {
		strSize = idx.maxSize
	}
	switch op {
	case value.Eq, value.Ne:
		return idx.lookupEqual(op, s, strSize)
	case value.Ni, value.NotNi:
		return idx.lookupSubstring(op, s, strSize)
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on string", op)
	}
}

func (idx *StringIndex) offset() uint64 { return idx.length.Offset() }

func (idx *StringIndex) lookupEqual(op value.Op, s string, strSize int) (*bitmap.Bitmap, error) {
	negate := op == value.Ne
	if strSize == 0 {
		result, err := idx.length.lookupImpl(value.Eq, value.NewCount(0))
		if err != nil {
			return nil, err
		}
		if negate {
			result = result.Not()
		}
		return result, nil
	}
	if strSize > len(idx.chars) {
		return sized(idx.offset(), negate), nil
	}
	result, err := idx.length.lookupImpl(value.Le, value.NewCount(uint64(strSize)))
	if err != nil {
		return nil, err
	}
	if result.All(false) {
		return sized(idx.offset(), negate), nil
	}
	for i := 0; i < strSize; i++ {
		b := idx.chars[i].Equal(uint64(s[i]))
		result = bitmap.And(result, b)
		if result.All(false) {
			return sized(idx.offset(), negate), nil
		}
	}
	if negate {
		result = result.Not()
	}
	return result, nil
}

func (idx *StringIndex) lookupSubstring(op value.Op, s string, strSize int) (*bitmap.Bitmap, error) {
	negate := op == value.NotNi
	if strSize == 0 {
		return sized(idx.offset(), !negate), nil
	}
	if strSize > len(idx.chars) {
		return sized(idx.offset(), negate), nil
	}
	result := bitmap.New()
	result.AppendBits(false, idx.offset())
	for i := 0; i+strSize <= len(idx.chars); i++ {
		substr := bitmap.New()
		substr.AppendBits(true, idx.offset())
		skip := false
		for j := 0; j < strSize; j++ {
			bm := idx.chars[i+j].Equal(uint64(s[j]))
			if bm.All(false) {
				skip = true
				break
			}
			substr = bitmap.And(substr, bm)
		}
		if !skip {
			result = bitmap.Or(result, substr)
		}
	}
	if negate {
		result = result.Not()
	}
	return result, nil
}

// sized returns a bitmap of length n with every bit equal to bit, used for
// the short-circuit "cannot possibly match" / "trivially matches" returns.
func sized(n uint64, bit bool) *bitmap.Bitmap {
	b := bitmap.New()
	b.AppendBits(bit, n)
	return b
}
