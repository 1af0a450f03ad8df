package value

import "strings"

// Evaluate computes lhs op rhs for the twelve relational operators. It
// mirrors vast::evaluate(data_view, relational_operator, data_view): most
// operators reduce to Compare, while match/in/ni have variant-specific
// definitions.
func Evaluate(lhs Value, op Op, rhs Value) bool {
	switch op {
	case Eq:
		return Equal(lhs, rhs)
	case Ne:
		return !Equal(lhs, rhs)
	case Lt:
		return Compare(lhs, rhs) < 0
	case Le:
		return Compare(lhs, rhs) <= 0
	case Gt:
		return Compare(lhs, rhs) > 0
	case Ge:
		return Compare(lhs, rhs) >= 0
	case Match:
		return evalMatch(lhs, rhs)
	case NotMatch:
		return !evalMatch(lhs, rhs)
	case In:
		return evalIn(lhs, rhs)
	case NotIn:
		return !evalIn(lhs, rhs)
	case Ni:
		return evalIn(rhs, lhs)
	case NotNi:
		return !evalIn(rhs, lhs)
	default:
		return false
	}
}

// evalMatch implements "string matches pattern", anchored to the whole
// string.
func evalMatch(lhs, rhs Value) bool {
	if lhs.tag != TagString || rhs.tag != TagPattern {
		return false
	}
	loc := rhs.re.FindStringIndex(lhs.s)
	return loc != nil && loc[0] == 0 && loc[1] == len(lhs.s)
}

// evalIn implements "lhs in rhs" for every (lhs, rhs) combination the spec
// names: string-in-string (substring), string-in-pattern (unanchored
// search), address-in-subnet, subnet-subset-of-subnet, and x-in-{vector,set}.
func evalIn(lhs, rhs Value) bool {
	switch rhs.tag {
	case TagString:
		if lhs.tag != TagString {
			return false
		}
		return strings.Contains(rhs.s, lhs.s)
	case TagPattern:
		if lhs.tag != TagString {
			return false
		}
		return rhs.re.MatchString(lhs.s)
	case TagSubnet:
		switch lhs.tag {
		case TagAddress:
			return subnetContainsAddress(rhs.sub, lhs.addr)
		case TagSubnet:
			return subnetContainsSubnet(rhs.sub, lhs.sub)
		default:
			return false
		}
	case TagVector, TagSet:
		for _, e := range rhs.vec {
			if Equal(lhs, e) {
				return true
			}
		}
		return false
	case TagMap:
		for _, e := range rhs.ents {
			if Equal(lhs, e.Key) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func subnetContainsAddress(s Subnet, a Address) bool {
	return prefixEqual(s.Network.V4, s.Network.Bytes, a.Bytes, int(s.Length))
}

// subnetContainsSubnet reports whether inner is a subset of outer: inner's
// network lies inside outer AND inner's prefix is at least as specific
// (length >= outer.Length).
func subnetContainsSubnet(outer, inner Subnet) bool {
	if inner.Length < outer.Length {
		return false
	}
	return prefixEqual(outer.Network.V4, outer.Network.Bytes, inner.Network.Bytes, int(outer.Length))
}

// prefixOffset is the byte index within the 16-byte representation where a
// family's significant bits start. AddressFromIP zero-pads the first 12
// bytes of an IPv4-mapped address, so a v4 subnet's Length counts prefix
// bits from byte 12, not byte 0; a native IPv6 address counts from byte 0.
func prefixOffset(v4 bool) int {
	if v4 {
		return 12
	}
	return 0
}

func prefixEqual(v4 bool, a, b [16]byte, bits int) bool {
	off := prefixOffset(v4)
	width := 128 - off*8
	if bits < 0 {
		return false
	}
	if bits > width {
		bits = width
	}
	wholeBytes := bits / 8
	for i := 0; i < wholeBytes; i++ {
		if a[off+i] != b[off+i] {
			return false
		}
	}
	remBits := bits % 8
	if remBits == 0 {
		return true
	}
	mask := byte(0xFF << (8 - remBits))
	return a[off+wholeBytes]&mask == b[off+wholeBytes]&mask
}
