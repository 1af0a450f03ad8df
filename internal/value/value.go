// Package value implements the tagged sum type shared by storage, indexing,
// and predicate evaluation. A Value owns its data; a View (see view.go)
// aliases a Value without allocating, the way the teacher's
// biopb.Coord/CoordRange values are passed by-value through the PAM pipeline
// without a separate "borrowed" type -- here the distinction matters because
// indices ingest columns row-by-row and must not allocate per cell.
package value

import (
	"fmt"
	"net"
	"regexp"
)

// Tag identifies a Value variant. The sum type is closed: every Value always
// carries exactly one Tag, and switches over Tag are expected to be
// exhaustive.
type Tag uint8

const (
	TagNil Tag = iota
	TagBool
	TagInt
	TagCount
	TagReal
	TagDuration
	TagTime
	TagString
	TagPattern
	TagAddress
	TagSubnet
	TagPort
	TagEnum
	TagVector
	TagSet
	TagMap
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "nil"
	case TagBool:
		return "bool"
	case TagInt:
		return "integer"
	case TagCount:
		return "count"
	case TagReal:
		return "real"
	case TagDuration:
		return "duration"
	case TagTime:
		return "time"
	case TagString:
		return "string"
	case TagPattern:
		return "pattern"
	case TagAddress:
		return "address"
	case TagSubnet:
		return "subnet"
	case TagPort:
		return "port"
	case TagEnum:
		return "enumeration"
	case TagVector:
		return "vector"
	case TagSet:
		return "set"
	case TagMap:
		return "map"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Proto is the transport protocol tag carried by a Port value.
type Proto uint8

const (
	ProtoUnknown Proto = iota
	ProtoTCP
	ProtoUDP
	ProtoICMP
)

func (p Proto) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	case ProtoICMP:
		return "icmp"
	default:
		return "?"
	}
}

// Address is 16 raw bytes plus a flag distinguishing IPv4-mapped addresses
// from native IPv6 ones.
type Address struct {
	Bytes [16]byte
	V4    bool
}

// AddressFromIP converts a net.IP (4- or 16-byte form) into an Address.
func AddressFromIP(ip net.IP) Address {
	var a Address
	if v4 := ip.To4(); v4 != nil {
		a.V4 = true
		copy(a.Bytes[12:], v4)
		return a
	}
	copy(a.Bytes[:], ip.To16())
	return a
}

func (a Address) IP() net.IP {
	b := make([]byte, 16)
	copy(b, a.Bytes[:])
	return net.IP(b)
}

func (a Address) String() string { return a.IP().String() }

// Subnet is an address paired with a prefix length in [0, 128].
type Subnet struct {
	Network Address
	Length  uint8
}

func (s Subnet) String() string { return fmt.Sprintf("%s/%d", s.Network, s.Length) }

// Port is a 16-bit number with a protocol tag.
type Port struct {
	Number uint16
	Proto  Proto
}

func (p Port) String() string { return fmt.Sprintf("%d/%s", p.Number, p.Proto) }

// MapEntry is one key/value pair of a Map value. Map values are stored as an
// ordered slice of entries rather than a native Go map because Value is not
// hashable (it may itself contain vectors/sets/maps).
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is the closed tagged sum described in spec section 3. Exactly one
// field group is meaningful for a given Tag.
type Value struct {
	tag Tag

	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	addr Address
	sub  Subnet
	port Port
	re   *regexp.Regexp // compiled, anchored matcher for TagPattern
	vec  []Value        // TagVector, TagSet
	ents []MapEntry     // TagMap
}

// Tag reports the variant of v.
func (v Value) Tag() Tag { return v.tag }

// Nil is the absence-of-value singleton.
var Nil = Value{tag: TagNil}

func NewBool(b bool) Value       { return Value{tag: TagBool, b: b} }
func NewInt(i int64) Value       { return Value{tag: TagInt, i: i} }
func NewCount(u uint64) Value    { return Value{tag: TagCount, u: u} }
func NewReal(f float64) Value    { return Value{tag: TagReal, f: f} }
func NewDuration(ns int64) Value { return Value{tag: TagDuration, i: ns} }
func NewTime(unixNs int64) Value { return Value{tag: TagTime, i: unixNs} }
func NewString(s string) Value   { return Value{tag: TagString, s: s} }
func NewAddress(a Address) Value { return Value{tag: TagAddress, addr: a} }
func NewSubnet(s Subnet) Value   { return Value{tag: TagSubnet, sub: s} }
func NewPort(p Port) Value       { return Value{tag: TagPort, port: p} }
func NewEnum(sym uint64) Value   { return Value{tag: TagEnum, u: sym} }

// NewPattern compiles src as an anchored regular expression (match requires
// the whole string to match; in/ni search for it anywhere).
func NewPattern(src string) (Value, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return Value{}, err
	}
	return Value{tag: TagPattern, s: src, re: re}, nil
}

func NewVector(xs []Value) Value { return Value{tag: TagVector, vec: xs} }

// NewSet builds a set value, deduplicating its elements (sets are unordered
// unique collections; we keep first-seen order for determinism).
func NewSet(xs []Value) Value {
	out := make([]Value, 0, len(xs))
	for _, x := range xs {
		dup := false
		for _, y := range out {
			if Equal(x, y) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return Value{tag: TagSet, vec: out}
}

func NewMap(ents []MapEntry) Value { return Value{tag: TagMap, ents: ents} }

// Accessors. Each panics if called against the wrong tag, mirroring
// caf::get<T> semantics in the original; callers are expected to check Tag()
// or use the matching lookup in append_impl-style code first.

func (v Value) Bool() bool           { v.mustBe(TagBool); return v.b }
func (v Value) Int() int64           { v.mustBe(TagInt); return v.i }
func (v Value) Count() uint64        { v.mustBe(TagCount); return v.u }
func (v Value) Real() float64        { v.mustBe(TagReal); return v.f }
func (v Value) Duration() int64      { v.mustBe(TagDuration); return v.i }
func (v Value) Time() int64          { v.mustBe(TagTime); return v.i }
func (v Value) String() string {
	switch v.tag {
	case TagString, TagPattern:
		return v.s
	default:
		return fmt.Sprintf("%v", v.Raw())
	}
}
func (v Value) Pattern() *regexp.Regexp { v.mustBe(TagPattern); return v.re }
func (v Value) Address() Address        { v.mustBe(TagAddress); return v.addr }
func (v Value) Subnet() Subnet          { v.mustBe(TagSubnet); return v.sub }
func (v Value) Port() Port              { v.mustBe(TagPort); return v.port }
func (v Value) Enum() uint64            { v.mustBe(TagEnum); return v.u }
func (v Value) Elements() []Value {
	if v.tag != TagVector && v.tag != TagSet {
		panic(fmt.Sprintf("value: Elements() on %s", v.tag))
	}
	return v.vec
}
func (v Value) Entries() []MapEntry { v.mustBe(TagMap); return v.ents }

func (v Value) mustBe(t Tag) {
	if v.tag != t {
		panic(fmt.Sprintf("value: expected %s, got %s", t, v.tag))
	}
}

// IsNil reports whether v is the Nil variant.
func (v Value) IsNil() bool { return v.tag == TagNil }

// Raw returns the underlying Go value, mostly useful for %v formatting and
// tests; it is not used on any index hot path.
func (v Value) Raw() interface{} {
	switch v.tag {
	case TagNil:
		return nil
	case TagBool:
		return v.b
	case TagInt:
		return v.i
	case TagCount:
		return v.u
	case TagReal:
		return v.f
	case TagDuration, TagTime:
		return v.i
	case TagString, TagPattern:
		return v.s
	case TagAddress:
		return v.addr
	case TagSubnet:
		return v.sub
	case TagPort:
		return v.port
	case TagEnum:
		return v.u
	case TagVector, TagSet:
		return v.vec
	case TagMap:
		return v.ents
	default:
		return nil
	}
}
