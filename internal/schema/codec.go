package schema

import (
	"encoding/binary"
	"fmt"
)

// MarshalType appends the on-disk encoding of t to buf. This is a segment-
// store concern (persisting a slice's layout alongside its rows, spec
// section 4.F/6 "dir/segment/<uuid>"), not part of the Value wire format
// spec section 6 defines, so it lives next to the type it serializes rather
// than in package wire.
func MarshalType(buf []byte, t Type) []byte {
	buf = append(buf, byte(t.Kind))
	buf = appendString(buf, t.Name)
	switch t.Kind {
	case KindRecord:
		buf = binary.AppendUvarint(buf, uint64(len(t.Fields)))
		for _, f := range t.Fields {
			buf = marshalField(buf, f)
		}
	case KindVector, KindSet:
		buf = MarshalType(buf, *t.Elem)
	case KindMap:
		buf = MarshalType(buf, *t.Key)
		buf = MarshalType(buf, *t.Elem)
	case KindAlias:
		buf = MarshalType(buf, *t.Elem)
	}
	return buf
}

func marshalField(buf []byte, f Field) []byte {
	buf = appendString(buf, f.Name)
	buf = MarshalType(buf, f.Type)
	var flags byte
	if f.Attrs.Timestamp {
		flags |= 1
	}
	if f.Attrs.Skip {
		flags |= 2
	}
	if f.Attrs.ID {
		flags |= 4
	}
	buf = append(buf, flags)
	buf = binary.AppendUvarint(buf, uint64(f.Attrs.MaxSize))
	buf = binary.AppendUvarint(buf, uint64(len(f.Attrs.Base)))
	for _, d := range f.Attrs.Base {
		buf = binary.AppendUvarint(buf, uint64(d))
	}
	return buf
}

// UnmarshalType decodes a Type from the front of buf, returning the type and
// the number of bytes consumed.
func UnmarshalType(buf []byte) (Type, int, error) {
	if len(buf) == 0 {
		return Type{}, 0, fmt.Errorf("schema: format_error: empty type encoding")
	}
	kind := Kind(buf[0])
	off := 1
	name, n, err := readString(buf[off:])
	if err != nil {
		return Type{}, 0, err
	}
	off += n
	t := Type{Kind: kind, Name: name}
	switch kind {
	case KindRecord:
		count, n := binary.Uvarint(buf[off:])
		if n <= 0 {
			return Type{}, 0, fmt.Errorf("schema: format_error: truncated field count")
		}
		off += n
		t.Fields = make([]Field, 0, count)
		for i := uint64(0); i < count; i++ {
			f, n, err := unmarshalField(buf[off:])
			if err != nil {
				return Type{}, 0, err
			}
			off += n
			t.Fields = append(t.Fields, f)
		}
	case KindVector, KindSet:
		elem, n, err := UnmarshalType(buf[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += n
		t.Elem = &elem
	case KindMap:
		key, n, err := UnmarshalType(buf[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += n
		elem, n, err := UnmarshalType(buf[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += n
		t.Key, t.Elem = &key, &elem
	case KindAlias:
		elem, n, err := UnmarshalType(buf[off:])
		if err != nil {
			return Type{}, 0, err
		}
		off += n
		t.Elem = &elem
	}
	return t, off, nil
}

func unmarshalField(buf []byte) (Field, int, error) {
	name, off, err := readString(buf)
	if err != nil {
		return Field{}, 0, err
	}
	typ, n, err := UnmarshalType(buf[off:])
	if err != nil {
		return Field{}, 0, err
	}
	off += n
	if len(buf) < off+1 {
		return Field{}, 0, fmt.Errorf("schema: format_error: truncated field flags")
	}
	flags := buf[off]
	off++
	maxSize, n := binary.Uvarint(buf[off:])
	if n <= 0 {
		return Field{}, 0, fmt.Errorf("schema: format_error: truncated max_size")
	}
	off += n
	baseLen, n := binary.Uvarint(buf[off:])
	if n <= 0 {
		return Field{}, 0, fmt.Errorf("schema: format_error: truncated base length")
	}
	off += n
	var base []int
	if baseLen > 0 {
		base = make([]int, baseLen)
		for i := range base {
			d, n := binary.Uvarint(buf[off:])
			if n <= 0 {
				return Field{}, 0, fmt.Errorf("schema: format_error: truncated base digit")
			}
			off += n
			base[i] = int(d)
		}
	}
	return Field{
		Name: name,
		Type: typ,
		Attrs: Attributes{
			Timestamp: flags&1 != 0,
			Skip:      flags&2 != 0,
			ID:        flags&4 != 0,
			MaxSize:   int(maxSize),
			Base:      base,
		},
	}, off, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func readString(buf []byte) (string, int, error) {
	n, m := binary.Uvarint(buf)
	if m <= 0 {
		return "", 0, fmt.Errorf("schema: format_error: truncated string length")
	}
	if uint64(len(buf)-m) < n {
		return "", 0, fmt.Errorf("schema: format_error: truncated string body")
	}
	return string(buf[m : m+int(n)]), m + int(n), nil
}
