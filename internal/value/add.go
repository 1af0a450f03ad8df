package value

import "math"

// Add merges rhs into lhs the way aggregation pipelines combine partial
// values. Numeric pairs widen to float64, add, and narrow back to lhs's
// specific tag; strings concatenate; ports accept an integer/count delta;
// containers append/insert/merge; nil is replaced outright. Any other
// combination is a no-op and returns lhs unchanged.
//
// Lift: when lhs is scalar and rhs is a container, lhs is first wrapped into
// a singleton container of rhs's kind.
func Add(lhs, rhs Value) Value {
	if lhs.tag == TagNil {
		return rhs
	}
	if isContainer(rhs.tag) && !isContainer(lhs.tag) {
		lhs = lift(lhs, rhs.tag)
	}
	switch {
	case isNumeric(lhs.tag) && isNumeric(rhs.tag):
		return addNumeric(lhs, rhs)
	case lhs.tag == TagString && rhs.tag == TagString:
		return NewString(lhs.s + rhs.s)
	case lhs.tag == TagPort && isNumeric(rhs.tag):
		return addPort(lhs, rhs)
	case lhs.tag == TagVector && rhs.tag == TagVector:
		return NewVector(append(append([]Value{}, lhs.vec...), rhs.vec...))
	case lhs.tag == TagVector:
		return NewVector(append(append([]Value{}, lhs.vec...), rhs))
	case lhs.tag == TagSet:
		return NewSet(append(append([]Value{}, lhs.vec...), rhs))
	case lhs.tag == TagMap && rhs.tag == TagMap:
		return mergeMaps(lhs, rhs)
	default:
		return lhs
	}
}

func isNumeric(t Tag) bool {
	switch t {
	case TagInt, TagCount, TagReal, TagDuration, TagTime:
		return true
	default:
		return false
	}
}

func isContainer(t Tag) bool { return t == TagVector || t == TagSet || t == TagMap }

func lift(v Value, containerTag Tag) Value {
	switch containerTag {
	case TagSet:
		return NewSet([]Value{v})
	default:
		return NewVector([]Value{v})
	}
}

func numericFloat(v Value) float64 {
	switch v.tag {
	case TagInt, TagDuration, TagTime:
		return float64(v.i)
	case TagCount:
		return float64(v.u)
	case TagReal:
		return v.f
	default:
		return 0
	}
}

// addNumeric widens both operands to float64, adds, and narrows the result
// back to lhs's tag. Values that would overflow the target integer type
// saturate at the type's bound rather than wrapping.
func addNumeric(lhs, rhs Value) Value {
	sum := numericFloat(lhs) + numericFloat(rhs)
	switch lhs.tag {
	case TagInt:
		return NewInt(saturateInt64(sum))
	case TagCount:
		if sum < 0 {
			sum = 0
		}
		return NewCount(uint64(math.Min(sum, float64(math.MaxUint64))))
	case TagReal:
		return NewReal(sum)
	case TagDuration:
		return NewDuration(saturateInt64(sum))
	case TagTime:
		return NewTime(saturateInt64(sum))
	default:
		return lhs
	}
}

func saturateInt64(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}

func addPort(lhs, rhs Value) Value {
	delta := int64(numericFloat(rhs))
	n := int64(lhs.port.Number) + delta
	if n < 0 {
		n = 0
	}
	if n > 0xFFFF {
		n = 0xFFFF
	}
	return NewPort(Port{Number: uint16(n), Proto: lhs.port.Proto})
}

// mergeMaps merges rhs into lhs; on key conflict rhs wins.
func mergeMaps(lhs, rhs Value) Value {
	out := append([]MapEntry{}, lhs.ents...)
	for _, re := range rhs.ents {
		replaced := false
		for i, le := range out {
			if Equal(le.Key, re.Key) {
				out[i].Value = re.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, re)
		}
	}
	return NewMap(out)
}
