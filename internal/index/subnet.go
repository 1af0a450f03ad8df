package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/value"
)

// SubnetIndex composes an AddressIndex over the network address with a
// length index over the prefix length (spec 4.C). "in" tests whether the
// indexed subnet is a subset of the queried one (same or more specific
// network, prefix length >= queried length); "ni" is the reverse, testing
// superset.
type SubnetIndex struct {
	Base
	network *AddressIndex
	length  *ArithmeticIndex
}

func NewSubnetIndex() *SubnetIndex {
	return &SubnetIndex{
		Base:    NewBase(),
		network: NewAddressIndex(),
		length:  NewArithmeticIndex(value.TagCount, nil),
	}
}

func (idx *SubnetIndex) Append(x value.Value, pos uint64) error {
	return idx.Base.Append(idx, x, pos)
}

func (idx *SubnetIndex) Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	return idx.Base.Lookup(idx, op, x)
}

func (idx *SubnetIndex) appendImpl(x value.Value, pos uint64) error {
	if x.Tag() != value.TagSubnet {
		return fmt.Errorf("index: type_clash: subnet index got %s", x.Tag())
	}
	sub := x.Subnet()
	if err := idx.network.Append(value.NewAddress(sub.Network), pos); err != nil {
		return err
	}
	return idx.length.Append(value.NewCount(uint64(sub.Length)), pos)
}

func (idx *SubnetIndex) lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	if x.Tag() == value.TagAddress {
		// evaluate(address, in, subnet) reverses to lookup(subnet_column, ni,
		// address): does the row's indexed subnet contain the queried
		// address? Spec section 8 scenario 2 exercises exactly this case.
		switch op {
		case value.Ni, value.NotNi:
			result, err := idx.containsPrefix(x.Address(), 128)
			if err != nil {
				return nil, err
			}
			if op == value.NotNi {
				result = result.Not()
			}
			return result, nil
		default:
			return nil, fmt.Errorf("index: unsupported_operator: %s on subnet vs address", op)
		}
	}
	if x.Tag() != value.TagSubnet {
		if x.Tag() == value.TagVector || x.Tag() == value.TagSet {
			return containerLookup(func(e value.Value) (*bitmap.Bitmap, error) {
				return idx.lookupImpl(value.Eq, e)
			}, idx.length.Offset(), op, x)
		}
		return nil, fmt.Errorf("index: type_clash: subnet index got %s", x.Tag())
	}
	sub := x.Subnet()
	switch op {
	case value.Eq, value.Ne:
		netEq, err := idx.network.lookupImpl(value.Eq, value.NewAddress(sub.Network))
		if err != nil {
			return nil, err
		}
		lenEq, err := idx.length.lookupImpl(value.Eq, value.NewCount(uint64(sub.Length)))
		if err != nil {
			return nil, err
		}
		result := bitmap.And(netEq, lenEq)
		if op == value.Ne {
			result = result.Not()
		}
		return result, nil
	case value.In:
		// The indexed subnet is contained in the queried one: its network
		// falls inside sub, and it is at least as specific (length >= sub.Length).
		inSub, err := idx.network.lookupSubnet(value.In, sub)
		if err != nil {
			return nil, err
		}
		lenGe, err := idx.length.lookupImpl(value.Ge, value.NewCount(uint64(sub.Length)))
		if err != nil {
			return nil, err
		}
		return bitmap.And(inSub, lenGe), nil
	case value.NotIn:
		result, err := idx.lookupImpl(value.In, x)
		if err != nil {
			return nil, err
		}
		return result.Not(), nil
	case value.Ni:
		// The indexed subnet contains the queried one: candidate length must
		// be <= sub.Length, and for its own (shorter or equal) length its
		// network must agree with sub.Network on that many bits.
		return idx.containsPrefix(sub.Network, int(sub.Length))
	case value.NotNi:
		result, err := idx.lookupImpl(value.Ni, x)
		if err != nil {
			return nil, err
		}
		return result.Not(), nil
	default:
		return nil, fmt.Errorf("index: unsupported_operator: %s on subnet", op)
	}
}

// containsPrefix returns the rows whose indexed subnet contains network (an
// address when maxLen is 128, or another subnet's network when maxLen is its
// queried length): for every candidate prefix length l in [0, maxLen], rows
// whose own length equals l AND whose network agrees with network on the
// first l bits. A row's prefix length is not fixed ahead of time, so this
// cannot collapse to a single per-digit bitmap formula; it unions over every
// candidate length instead, each one a cheap AND of two already-materialized
// bitmaps. maxLen is clamped to network's family width (32 for IPv4-mapped,
// 128 for IPv6) since a length beyond that is never meaningful for network.
func (idx *SubnetIndex) containsPrefix(network value.Address, maxLen int) (*bitmap.Bitmap, error) {
	width := 128
	if network.V4 {
		width = 32
	}
	if maxLen > width {
		maxLen = width
	}
	result := emptyBitmap(idx.length.Offset())
	for l := 0; l <= maxLen; l++ {
		lenEq, err := idx.length.lookupImpl(value.Eq, value.NewCount(uint64(l)))
		if err != nil {
			return nil, err
		}
		if lenEq.All(false) {
			continue
		}
		prefixMatch, err := idx.network.lookupSubnet(value.In, value.Subnet{Network: network, Length: uint8(l)})
		if err != nil {
			return nil, err
		}
		result = bitmap.Or(result, bitmap.And(lenEq, prefixMatch))
	}
	return result, nil
}
