package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vastio/vast-core/internal/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	buf := Marshal(nil, v)
	got, n, err := Unmarshal(buf)
	assert.NoError(t, err)
	assert.Equal(t, len(buf), n)
	return got
}

func TestMarshalUnmarshalScalars(t *testing.T) {
	cases := []value.Value{
		value.Nil,
		value.NewBool(true),
		value.NewBool(false),
		value.NewInt(-42),
		value.NewInt(0),
		value.NewCount(7),
		value.NewReal(3.14159),
		value.NewDuration(-100),
		value.NewTime(1690000000),
		value.NewString("hello, world"),
		value.NewEnum(5),
	}
	for _, c := range cases {
		got := roundTrip(t, c)
		assert.True(t, value.Equal(c, got), "round trip mismatch for %v", c)
	}
}

func TestMarshalUnmarshalPattern(t *testing.T) {
	pat, err := value.NewPattern("^abc.*$")
	assert.NoError(t, err)
	got := roundTrip(t, pat)
	assert.Equal(t, pat.String(), got.String())
}

func TestMarshalUnmarshalAddress(t *testing.T) {
	addr := value.AddressFromIP(net.ParseIP("192.168.1.1"))
	got := roundTrip(t, value.NewAddress(addr))
	assert.True(t, value.Equal(value.NewAddress(addr), got))
}

func TestMarshalUnmarshalSubnet(t *testing.T) {
	subnet := value.Subnet{Network: value.AddressFromIP(net.ParseIP("10.0.0.0")), Length: 8}
	got := roundTrip(t, value.NewSubnet(subnet))
	assert.True(t, value.Equal(value.NewSubnet(subnet), got))
}

func TestMarshalUnmarshalPort(t *testing.T) {
	port := value.Port{Number: 8080, Proto: value.ProtoTCP}
	got := roundTrip(t, value.NewPort(port))
	assert.True(t, value.Equal(value.NewPort(port), got))
}

func TestMarshalUnmarshalVectorAndSet(t *testing.T) {
	vec := value.NewVector([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	gotVec := roundTrip(t, vec)
	assert.True(t, value.Equal(vec, gotVec))

	set := value.NewSet([]value.Value{value.NewString("a"), value.NewString("b")})
	gotSet := roundTrip(t, set)
	assert.True(t, value.Equal(set, gotSet))
}

func TestMarshalUnmarshalMap(t *testing.T) {
	m := value.NewMap([]value.MapEntry{
		{Key: value.NewString("k1"), Value: value.NewInt(1)},
		{Key: value.NewString("k2"), Value: value.NewInt(2)},
	})
	got := roundTrip(t, m)
	assert.True(t, value.Equal(m, got))
}

func TestUnmarshalSequentialConsumesOnlyOneValue(t *testing.T) {
	buf := Marshal(nil, value.NewInt(1))
	buf = Marshal(buf, value.NewInt(2))
	v1, n, err := Unmarshal(buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), v1.Int())
	v2, _, err := Unmarshal(buf[n:])
	assert.NoError(t, err)
	assert.Equal(t, int64(2), v2.Int())
}

func TestUnmarshalEmptyBufferErrors(t *testing.T) {
	_, _, err := Unmarshal(nil)
	assert.Error(t, err)
}

func TestUnmarshalTruncatedErrors(t *testing.T) {
	buf := Marshal(nil, value.NewReal(1.5))
	_, _, err := Unmarshal(buf[:len(buf)-1])
	assert.Error(t, err)
}
