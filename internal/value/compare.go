package value

import "bytes"

// Compare defines a total order over Value: nil compares equal only to
// nil, ordering is lexicographic within a variant, and tag-indexed across
// variants so that any two values -- even of different types -- compare
// deterministically.
func Compare(a, b Value) int {
	if a.tag != b.tag {
		if a.tag < b.tag {
			return -1
		}
		return 1
	}
	switch a.tag {
	case TagNil:
		return 0
	case TagBool:
		return compareBool(a.b, b.b)
	case TagInt:
		return compareInt64(a.i, b.i)
	case TagCount:
		return compareUint64(a.u, b.u)
	case TagReal:
		return compareFloat64(a.f, b.f)
	case TagDuration, TagTime:
		return compareInt64(a.i, b.i)
	case TagString, TagPattern:
		switch {
		case a.s < b.s:
			return -1
		case a.s > b.s:
			return 1
		default:
			return 0
		}
	case TagAddress:
		return compareAddress(a.addr, b.addr)
	case TagSubnet:
		if c := compareAddress(a.sub.Network, b.sub.Network); c != 0 {
			return c
		}
		return compareInt64(int64(a.sub.Length), int64(b.sub.Length))
	case TagPort:
		if c := compareInt64(int64(a.port.Number), int64(b.port.Number)); c != 0 {
			return c
		}
		return compareInt64(int64(a.port.Proto), int64(b.port.Proto))
	case TagEnum:
		return compareUint64(a.u, b.u)
	case TagVector, TagSet:
		return compareSlice(a.vec, b.vec)
	case TagMap:
		n := len(a.ents)
		if len(b.ents) < n {
			n = len(b.ents)
		}
		for i := 0; i < n; i++ {
			if c := Compare(a.ents[i].Key, b.ents[i].Key); c != 0 {
				return c
			}
			if c := Compare(a.ents[i].Value, b.ents[i].Value); c != 0 {
				return c
			}
		}
		return compareInt64(int64(len(a.ents)), int64(len(b.ents)))
	default:
		return 0
	}
}

func compareSlice(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

func compareAddress(a, b Address) int { return bytes.Compare(a.Bytes[:], b.Bytes[:]) }

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b are the same value under Compare's order.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Less reports whether a sorts before b.
func Less(a, b Value) bool { return Compare(a, b) < 0 }
