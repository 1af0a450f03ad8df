// Package wire implements the stable on-disk/on-wire encoding of value.Value
// described in spec section 6. The format is hand-rolled rather than
// generated from a protobuf schema (a generated message would not produce
// this exact tag-byte layout), but length- and count-prefixes reuse
// gogo/protobuf's varint codec the same way the teacher's biopb messages are
// varint-framed internally.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogo/protobuf/proto"

	"github.com/vastio/vast-core/internal/value"
)

// Marshal appends the wire encoding of v to buf and returns the result.
func Marshal(buf []byte, v value.Value) []byte {
	buf = append(buf, byte(v.Tag()))
	switch v.Tag() {
	case value.TagNil:
		// tag byte only
	case value.TagBool:
		if v.Bool() {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case value.TagInt:
		buf = appendVarint(buf, zigzag(v.Int()))
	case value.TagCount:
		buf = appendVarint(buf, v.Count())
	case value.TagReal:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Real()))
		buf = append(buf, b[:]...)
	case value.TagDuration:
		buf = appendVarint(buf, zigzag(v.Duration()))
	case value.TagTime:
		buf = appendVarint(buf, zigzag(v.Time()))
	case value.TagString:
		buf = appendString(buf, v.String())
	case value.TagPattern:
		buf = appendString(buf, v.String())
	case value.TagAddress:
		a := v.Address()
		buf = append(buf, a.Bytes[:]...)
		buf = append(buf, boolByte(a.V4))
	case value.TagSubnet:
		s := v.Subnet()
		buf = append(buf, s.Network.Bytes[:]...)
		buf = append(buf, boolByte(s.Network.V4))
		buf = append(buf, s.Length)
	case value.TagPort:
		p := v.Port()
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], p.Number)
		buf = append(buf, b[:]...)
		buf = append(buf, byte(p.Proto))
	case value.TagEnum:
		buf = appendVarint(buf, v.Enum())
	case value.TagVector, value.TagSet:
		xs := v.Elements()
		buf = appendVarint(buf, uint64(len(xs)))
		for _, x := range xs {
			buf = Marshal(buf, x)
		}
	case value.TagMap:
		ents := v.Entries()
		buf = appendVarint(buf, uint64(len(ents)))
		for _, e := range ents {
			buf = Marshal(buf, e.Key)
			buf = Marshal(buf, e.Value)
		}
	}
	return buf
}

// Unmarshal decodes a single value.Value from the front of buf, returning
// the value and the number of bytes consumed.
func Unmarshal(buf []byte) (value.Value, int, error) {
	if len(buf) == 0 {
		return value.Value{}, 0, fmt.Errorf("wire: empty buffer")
	}
	tag := value.Tag(buf[0])
	rest := buf[1:]
	consumed := 1
	switch tag {
	case value.TagNil:
		return value.Nil, consumed, nil
	case value.TagBool:
		if len(rest) < 1 {
			return value.Value{}, 0, fmt.Errorf("wire: truncated bool")
		}
		return value.NewBool(rest[0] != 0), consumed + 1, nil
	case value.TagInt:
		u, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewInt(unzigzag(u)), consumed + n, nil
	case value.TagCount:
		u, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewCount(u), consumed + n, nil
	case value.TagReal:
		if len(rest) < 8 {
			return value.Value{}, 0, fmt.Errorf("wire: truncated real")
		}
		bits := binary.LittleEndian.Uint64(rest[:8])
		return value.NewReal(math.Float64frombits(bits)), consumed + 8, nil
	case value.TagDuration:
		u, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewDuration(unzigzag(u)), consumed + n, nil
	case value.TagTime:
		u, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewTime(unzigzag(u)), consumed + n, nil
	case value.TagString:
		s, n, err := readString(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewString(s), consumed + n, nil
	case value.TagPattern:
		s, n, err := readString(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		pv, err := value.NewPattern(s)
		if err != nil {
			return value.Value{}, 0, err
		}
		return pv, consumed + n, nil
	case value.TagAddress:
		a, n, err := readAddress(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewAddress(a), consumed + n, nil
	case value.TagSubnet:
		a, n, err := readAddress(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		if len(rest) < n+1 {
			return value.Value{}, 0, fmt.Errorf("wire: truncated subnet")
		}
		length := rest[n]
		return value.NewSubnet(value.Subnet{Network: a, Length: length}), consumed + n + 1, nil
	case value.TagPort:
		if len(rest) < 3 {
			return value.Value{}, 0, fmt.Errorf("wire: truncated port")
		}
		num := binary.LittleEndian.Uint16(rest[:2])
		return value.NewPort(value.Port{Number: num, Proto: value.Proto(rest[2])}), consumed + 3, nil
	case value.TagEnum:
		u, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		return value.NewEnum(u), consumed + n, nil
	case value.TagVector, value.TagSet:
		count, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		off := n
		xs := make([]value.Value, 0, count)
		for i := uint64(0); i < count; i++ {
			x, m, err := Unmarshal(rest[off:])
			if err != nil {
				return value.Value{}, 0, err
			}
			xs = append(xs, x)
			off += m
		}
		if tag == value.TagSet {
			return value.NewSet(xs), consumed + off, nil
		}
		return value.NewVector(xs), consumed + off, nil
	case value.TagMap:
		count, n, err := readVarint(rest)
		if err != nil {
			return value.Value{}, 0, err
		}
		off := n
		ents := make([]value.MapEntry, 0, count)
		for i := uint64(0); i < count; i++ {
			k, m, err := Unmarshal(rest[off:])
			if err != nil {
				return value.Value{}, 0, err
			}
			off += m
			v, m2, err := Unmarshal(rest[off:])
			if err != nil {
				return value.Value{}, 0, err
			}
			off += m2
			ents = append(ents, value.MapEntry{Key: k, Value: v})
		}
		return value.NewMap(ents), consumed + off, nil
	default:
		return value.Value{}, 0, fmt.Errorf("wire: unknown tag %d", tag)
	}
}

func readAddress(buf []byte) (value.Address, int, error) {
	if len(buf) < 17 {
		return value.Address{}, 0, fmt.Errorf("wire: truncated address")
	}
	var a value.Address
	copy(a.Bytes[:], buf[:16])
	a.V4 = buf[16] != 0
	return a, 17, nil
}

func appendString(buf []byte, s string) []byte {
	buf = appendVarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(buf []byte) (string, int, error) {
	n, m, err := readVarint(buf)
	if err != nil {
		return "", 0, err
	}
	if uint64(len(buf)-m) < n {
		return "", 0, fmt.Errorf("wire: truncated string")
	}
	return string(buf[m : m+int(n)]), m + int(n), nil
}

func appendVarint(buf []byte, x uint64) []byte {
	return append(buf, proto.EncodeVarint(x)...)
}

func readVarint(buf []byte) (uint64, int, error) {
	x, n := proto.DecodeVarint(buf)
	if n == 0 {
		return 0, 0, fmt.Errorf("wire: truncated varint")
	}
	return x, n, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func zigzag(i int64) uint64   { return uint64((i << 1) ^ (i >> 63)) }
func unzigzag(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }
