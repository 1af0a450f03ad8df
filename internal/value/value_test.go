package value

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateScalar(t *testing.T) {
	tests := []struct {
		name string
		lhs  Value
		op   Op
		rhs  Value
		want bool
	}{
		{"int eq", NewInt(3), Eq, NewInt(3), true},
		{"int ne", NewInt(3), Ne, NewInt(4), true},
		{"int lt", NewInt(3), Lt, NewInt(4), true},
		{"string eq", NewString("a"), Eq, NewString("a"), true},
		{"string eq false", NewString("a"), Eq, NewString("b"), false},
		{"real ge", NewReal(2.5), Ge, NewReal(2.5), true},
		{"bool eq", NewBool(true), Eq, NewBool(true), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(tc.lhs, tc.op, tc.rhs))
		})
	}
}

func TestEvaluateStringIn(t *testing.T) {
	assert.True(t, Evaluate(NewString("oo"), In, NewString("foobar")))
	assert.False(t, Evaluate(NewString("zz"), In, NewString("foobar")))
	assert.True(t, Evaluate(NewString("foobar"), Ni, NewString("oo")))
}

func TestEvaluateAddressInSubnet(t *testing.T) {
	addr := AddressFromIP(net.ParseIP("10.0.0.5"))
	subnet := Subnet{Network: AddressFromIP(net.ParseIP("10.0.0.0")), Length: 24}
	assert.True(t, Evaluate(NewAddress(addr), In, NewSubnet(subnet)))

	outside := AddressFromIP(net.ParseIP("10.0.1.5"))
	assert.False(t, Evaluate(NewAddress(outside), In, NewSubnet(subnet)))
}

func TestEvaluateSubnetSubsetOfSubnet(t *testing.T) {
	outer := Subnet{Network: AddressFromIP(net.ParseIP("10.0.0.0")), Length: 16}
	inner := Subnet{Network: AddressFromIP(net.ParseIP("10.0.5.0")), Length: 24}
	assert.True(t, Evaluate(NewSubnet(inner), In, NewSubnet(outer)))
	assert.False(t, Evaluate(NewSubnet(outer), In, NewSubnet(inner)))
}

func TestEvaluatePortWithProto(t *testing.T) {
	a := NewPort(Port{Number: 443, Proto: ProtoTCP})
	b := NewPort(Port{Number: 443, Proto: ProtoTCP})
	c := NewPort(Port{Number: 443, Proto: ProtoUDP})
	assert.True(t, Evaluate(a, Eq, b))
	assert.False(t, Evaluate(a, Eq, c))
}

func TestEvaluateMatch(t *testing.T) {
	pat, err := NewPattern("^foo.*bar$")
	assert.NoError(t, err)
	assert.True(t, Evaluate(NewString("foobazbar"), Match, pat))
	assert.False(t, Evaluate(NewString("foobaz"), Match, pat))
}

func TestEvaluateInVectorAndSet(t *testing.T) {
	vec := NewVector([]Value{NewInt(1), NewInt(2), NewInt(3)})
	assert.True(t, Evaluate(NewInt(2), In, vec))
	assert.False(t, Evaluate(NewInt(9), In, vec))

	set := NewSet([]Value{NewInt(1), NewInt(1), NewInt(2)})
	assert.Equal(t, 2, len(set.Elements()))
}

func TestOpNegate(t *testing.T) {
	assert.Equal(t, Ne, Eq.Negate())
	assert.Equal(t, Eq, Ne.Negate())
	assert.Equal(t, Ge, Lt.Negate())
	assert.Equal(t, NotIn, In.Negate())
}

func TestValueAccessorsPanicOnWrongTag(t *testing.T) {
	assert.Panics(t, func() { NewInt(1).Bool() })
	assert.NotPanics(t, func() { NewInt(1).Int() })
}

func TestValueIsNil(t *testing.T) {
	assert.True(t, Nil.IsNil())
	assert.False(t, NewInt(0).IsNil())
}
