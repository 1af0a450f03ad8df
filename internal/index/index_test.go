package index

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vastio/vast-core/internal/value"
)

func ids(b interface{ IDs() []uint64 }) []uint64 {
	got := b.IDs()
	if got == nil {
		return []uint64{}
	}
	return got
}

// TestAddressEquality is spec section 8 scenario 1.
func TestAddressEquality(t *testing.T) {
	idx := NewAddressIndex()
	rows := []string{"10.0.0.1", "192.168.1.2", "10.0.0.1"}
	for i, s := range rows {
		addr := value.AddressFromIP(net.ParseIP(s))
		assert.NoError(t, idx.Append(value.NewAddress(addr), uint64(i)))
	}

	eq, err := idx.Lookup(value.Eq, value.NewAddress(value.AddressFromIP(net.ParseIP("10.0.0.1"))))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(eq))

	ne, err := idx.Lookup(value.Ne, value.NewAddress(value.AddressFromIP(net.ParseIP("10.0.0.1"))))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids(ne))

	_, subnet, _ := net.ParseCIDR("10.0.0.0/24")
	sub := value.Subnet{Network: value.AddressFromIP(subnet.IP), Length: 24}
	in, err := idx.Lookup(value.In, value.NewSubnet(sub))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(in))
}

// TestSubnetSuperset is spec section 8 scenario 2.
func TestSubnetSuperset(t *testing.T) {
	idx := NewSubnetIndex()
	subnets := []value.Subnet{
		{Network: value.AddressFromIP(net.ParseIP("10.0.0.0")), Length: 24},
		{Network: value.AddressFromIP(net.ParseIP("10.0.0.0")), Length: 16},
		{Network: value.AddressFromIP(net.ParseIP("192.168.0.0")), Length: 16},
	}
	for i, s := range subnets {
		assert.NoError(t, idx.Append(value.NewSubnet(s), uint64(i)))
	}

	q1 := value.NewAddress(value.AddressFromIP(net.ParseIP("10.0.0.5")))
	got1, err := idx.Lookup(value.Ni, q1)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, ids(got1))

	q2 := value.NewAddress(value.AddressFromIP(net.ParseIP("192.168.1.1")))
	got2, err := idx.Lookup(value.Ni, q2)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(got2))
}

// TestStringSubstring is spec section 8 scenario 3.
func TestStringSubstring(t *testing.T) {
	idx := NewStringIndex(0)
	assert.NoError(t, idx.Append(value.NewString("alpha"), 0))
	assert.NoError(t, idx.Append(value.NewString("beta"), 1))
	assert.NoError(t, idx.Append(value.NewString("gamma"), 2))
	assert.NoError(t, idx.Append(value.Nil, 3))

	got, err := idx.Lookup(value.Ni, value.NewString("am"))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(got))

	eqEmpty, err := idx.Lookup(value.Eq, value.NewString(""))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{}, ids(eqEmpty))
}

// TestPortWithProto is spec section 8 scenario 4.
func TestPortWithProto(t *testing.T) {
	idx := NewPortIndex()
	ports := []value.Port{
		{Number: 80, Proto: value.ProtoTCP},
		{Number: 80, Proto: value.ProtoUDP},
		{Number: 80, Proto: value.ProtoUnknown},
	}
	for i, p := range ports {
		assert.NoError(t, idx.Append(value.NewPort(p), uint64(i)))
	}

	unknownQuery, err := idx.Lookup(value.Eq, value.NewPort(value.Port{Number: 80, Proto: value.ProtoUnknown}))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, ids(unknownQuery))

	tcpQuery, err := idx.Lookup(value.Eq, value.NewPort(value.Port{Number: 80, Proto: value.ProtoTCP}))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0}, ids(tcpQuery))
}

// TestArithmeticIndexRelationalOps exercises P3 against the default
// (post-fix) base, including values well past the old truncated capacity.
func TestArithmeticIndexRelationalOps(t *testing.T) {
	idx := NewArithmeticIndex(value.TagTime, nil)
	times := []int64{
		1_700_000_000_000_000_000, // a realistic unix-ns timestamp
		1_700_000_000_000_000_500,
		1_600_000_000_000_000_000,
	}
	for i, ns := range times {
		assert.NoError(t, idx.Append(value.NewTime(ns), uint64(i)))
	}

	eq, err := idx.Lookup(value.Eq, value.NewTime(times[0]))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0}, ids(eq))

	lt, err := idx.Lookup(value.Lt, value.NewTime(times[0]))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(lt))

	ge, err := idx.Lookup(value.Ge, value.NewTime(times[0]))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, ids(ge))
}

// TestArithmeticIndexNegativeInt exercises the order-preserving int64 map
// across the zero boundary.
func TestArithmeticIndexNegativeInt(t *testing.T) {
	idx := NewArithmeticIndex(value.TagInt, nil)
	vals := []int64{-5, 0, 5, -100}
	for i, v := range vals {
		assert.NoError(t, idx.Append(value.NewInt(v), uint64(i)))
	}
	lt, err := idx.Lookup(value.Lt, value.NewInt(0))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 3}, ids(lt))
	ge, err := idx.Lookup(value.Ge, value.NewInt(0))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(ge))
}

func TestBoolIndex(t *testing.T) {
	idx := NewBoolIndex()
	bs := []bool{true, false, true}
	for i, b := range bs {
		assert.NoError(t, idx.Append(value.NewBool(b), uint64(i)))
	}
	eq, err := idx.Lookup(value.Eq, value.NewBool(true))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(eq))
}

func TestIndexNilHandling(t *testing.T) {
	idx := NewArithmeticIndex(value.TagInt, nil)
	assert.NoError(t, idx.Append(value.NewInt(1), 0))
	assert.NoError(t, idx.Append(value.Nil, 1))
	assert.NoError(t, idx.Append(value.NewInt(3), 2))

	eqNil, err := idx.Lookup(value.Eq, value.Nil)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids(eqNil))

	neNil, err := idx.Lookup(value.Ne, value.Nil)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(neNil))
}

func TestIndexAppendRejectsGoingBackwards(t *testing.T) {
	idx := NewBoolIndex()
	assert.NoError(t, idx.Append(value.NewBool(true), 5))
	assert.Error(t, idx.Append(value.NewBool(true), 2))
}

func TestHashIndexEqualityOnly(t *testing.T) {
	idx := NewHashIndex()
	assert.NoError(t, idx.Append(value.NewString("a"), 0))
	assert.NoError(t, idx.Append(value.NewString("b"), 1))
	assert.NoError(t, idx.Append(value.NewString("a"), 2))

	eq, err := idx.Lookup(value.Eq, value.NewString("a"))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(eq))

	_, err = idx.Lookup(value.Lt, value.NewString("a"))
	assert.Error(t, err)
}

func TestSequenceIndexMembership(t *testing.T) {
	idx := NewSequenceIndex(4, func() Index { return NewArithmeticIndex(value.TagInt, nil) })
	assert.NoError(t, idx.Append(value.NewVector([]value.Value{value.NewInt(1), value.NewInt(2)}), 0))
	assert.NoError(t, idx.Append(value.NewVector([]value.Value{value.NewInt(3)}), 1))
	assert.NoError(t, idx.Append(value.NewVector([]value.Value{value.NewInt(2), value.NewInt(9)}), 2))

	got, err := idx.Lookup(value.Ni, value.NewInt(2))
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, ids(got))
}
