package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/value"
)

// AddressIndex stores 16 per-byte equality coders (one per octet of the
// 16-byte address representation) plus a 1-bit v4 index. Equality on an
// IPv4-mapped address restricts candidates to the v4 set first (cheaper,
// since the other 12 bytes are always the same IPv4-mapped prefix); equality
// on a native IPv6 address does not.
type AddressIndex struct {
	Base
	bytes [16]*coder.EqualityCoder
	v4    *bitmap.Bitmap
}

func NewAddressIndex() *AddressIndex {
	idx := &AddressIndex{Base: NewBase(), v4: bitmap.New()}
	for i := range idx.bytes {
		idx.bytes[i] = coder.NewEqualityCoder(256)
	}
	return idx
}

func (idx *AddressIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *AddressIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *AddressIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagAddress {
		return fmt.Errorf("index: type_clash: address index got %s", x.Tag())
	}
	addr := x.Address()
	for i, c := range idx.bytes {
		c.Skip(pos - c.Size())
		c.Append(uint64(addr.Bytes[i]))
	}
	idx.v4.AppendBits(false, pos-idx.v4.Size())
	idx.v4.AppendBit(addr.V4)
	return nil
}

func (idx *AddressIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	switch x.Tag() {
	case value.TagAddress:
		addr := x.Address()
		switch op {
		case value.Eq, value.Ne:
			result := idx.equalAddress(addr)
			if op == value.Ne {
				result = result.Not()
			}
			return result, nil
		default:
			return nil, fmt.Errorf("index: unsupported_operator: %s on address", op)
		}
	case value.TagSubnet:
		return idx.lookupSubnet(op, x.Subnet())
	case value.TagVector, value.TagSet:
		return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
			return idx.lookupImpl(value.Eq, e)
		}, idx.offset(), op, x)
	default:
		return nil, fmt.Errorf("index: type_clash: address index got %s", x.Tag())
	}
}

func (idx *AddressIndex) offset() uint64 { return idx.v4.Size() }

// equalAddress restricts to the v4 bucket first when the queried address is
// IPv4-mapped, then ANDs in per-byte equality for every octet (spec 4.C).
func (idx *AddressIndex) equalAddress(addr value.Address) *bitmap.Bitmap {
	var result *bitmap.Bitmap
	if addr.V4 {
		result = idx.v4.Clone()
	} else {
		result = full(idx.offset())
	}
	for i, c := range idx.bytes {
		result = bitmap.And(result, c.Equal(uint64(addr.Bytes[i])))
		if result.All(false) {
			return result
		}
	}
	return result
}

// lookupSubnet implements "address in/!in subnet": the address must agree
// with the network's prefix for length/8 whole bytes, plus a bit-level
// intersection on the remaining up to 7 bits of the final partial byte.
// Prefix bits count from byte 12 for an IPv4-mapped network (whose first 12
// bytes are always the same zero padding, per value.AddressFromIP) and from
// byte 0 for native IPv6, matching value.prefixEqual.
func (idx *AddressIndex) lookupSubnet(op value.Op, sub value.Subnet) (*bitmap.Bitmap, error) {
	if op != value.In && op != value.NotIn {
		return nil, fmt.Errorf("index: unsupported_operator: %s on address vs subnet", op)
	}
	off := 0
	width := 128
	if sub.Network.V4 {
		off = 12
		width = 32
	}
	length := int(sub.Length)
	if length > width {
		length = width
	}
	result := full(idx.offset())
	wholeBytes := length / 8
	remBits := length % 8
	for i := 0; i < wholeBytes; i++ {
		bi := off + i
		result = bitmap.And(result, idx.bytes[bi].Equal(uint64(sub.Network.Bytes[bi])))
		if result.All(false) {
			break
		}
	}
	if remBits > 0 && !result.All(false) {
		bi := off + wholeBytes
		mask := byte(0xFF << uint(8-remBits))
		want := sub.Network.Bytes[bi] & mask
		bitResult := emptyBitmap(idx.offset())
		for v := 0; v < 256; v++ {
			if byte(v)&mask == want {
				bitResult = bitmap.Or(bitResult, idx.bytes[bi].Equal(uint64(v)))
			}
		}
		result = bitmap.And(result, bitResult)
	}
	if op == value.NotIn {
		result = result.Not()
	}
	return result, nil
}

func full(n uint64) *bitmap.Bitmap {
	b := bitmap.New()
	b.AppendBits(true, n)
	return b
}

func emptyBitmap(n uint64) *bitmap.Bitmap {
	b := bitmap.New()
	b.AppendBits(false, n)
	return b
}
