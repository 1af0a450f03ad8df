// Package schema implements the record-type layer: field lists with
// attributes, flatten/unflatten between nested records and the flat rows
// table slices store, and layout identity (structural equality of a field
// list), grounded on the Coord/CoordRange comparison helpers in the
// teacher's biopb package -- there a small value type gets hand-written
// Compare/EQ methods instead of reflect.DeepEqual; RecordType.Equal follows
// the same discipline for the same reason (called on every slice append).
package schema

import (
	"fmt"
	"strings"

	"github.com/vastio/vast-core/internal/value"
)

// Kind is a field's shape: every value.Tag plus the two structural kinds
// the type system adds on top, record and alias.
type Kind uint8

const (
	KindNil Kind = Kind(value.TagNil)
	KindBool Kind = Kind(value.TagBool)
	KindInt Kind = Kind(value.TagInt)
	KindCount Kind = Kind(value.TagCount)
	KindReal Kind = Kind(value.TagReal)
	KindDuration Kind = Kind(value.TagDuration)
	KindTime Kind = Kind(value.TagTime)
	KindString Kind = Kind(value.TagString)
	KindPattern Kind = Kind(value.TagPattern)
	KindAddress Kind = Kind(value.TagAddress)
	KindSubnet Kind = Kind(value.TagSubnet)
	KindPort Kind = Kind(value.TagPort)
	KindEnum Kind = Kind(value.TagEnum)
	KindVector Kind = Kind(value.TagVector)
	KindSet Kind = Kind(value.TagSet)
	KindMap Kind = Kind(value.TagMap)

	KindRecord Kind = 100
	KindAlias  Kind = 101
)

// Attributes control indexing and storage behavior for a field.
type Attributes struct {
	Timestamp bool  // this field carries the event timestamp
	Skip      bool  // do not index this field
	MaxSize   int   // bound on string length / sequence size (0 = unset)
	Base      []int // value-index radix digits (nil = index.DefaultBase, eight base-256 digits)
	ID        bool  // index via hash_index instead of a per-character index
}

// Type describes the shape of a value: a scalar Kind, or KindRecord with
// Fields, KindVector/KindSet with Elem, KindMap with Key/Elem, or KindAlias
// wrapping another named Type.
type Type struct {
	Kind   Kind
	Name   string // layout/alias name
	Fields []Field
	Elem   *Type
	Key    *Type
}

// Field is one (name, type, attributes) triple of a record type.
type Field struct {
	Name  string
	Type  Type
	Attrs Attributes
}

// Equal is structural equality: two record types are the same layout iff
// their field lists agree on name, kind, and nested shape. Attributes are
// not part of identity (they tune indexing, not shape).
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindRecord:
		if len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
				return false
			}
		}
		return true
	case KindVector, KindSet:
		return elemEqual(t.Elem, o.Elem)
	case KindMap:
		return elemEqual(t.Key, o.Key) && elemEqual(t.Elem, o.Elem)
	case KindAlias:
		return t.Name == o.Name && elemEqual(t.Elem, o.Elem)
	default:
		return true
	}
}

func elemEqual(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// RecordType is a KindRecord Type; used as a map key by the meta-index, so
// it must be comparable only through Equal (never with Go's ==, since it
// embeds slices).
type RecordType = Type

func Record(name string, fields ...Field) RecordType {
	return RecordType{Kind: KindRecord, Name: name, Fields: fields}
}

func HasAttribute(f Field, name string) bool {
	switch name {
	case "timestamp":
		return f.Attrs.Timestamp
	case "skip":
		return f.Attrs.Skip
	case "id":
		return f.Attrs.ID
	default:
		return false
	}
}

func (t Type) String() string {
	switch t.Kind {
	case KindRecord:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Name + ":" + f.Type.String()
		}
		return fmt.Sprintf("record{%s}", strings.Join(parts, ", "))
	case KindAlias:
		return t.Name
	case KindVector:
		return "vector<" + t.Elem.String() + ">"
	case KindSet:
		return "set<" + t.Elem.String() + ">"
	case KindMap:
		return "map<" + t.Key.String() + "," + t.Elem.String() + ">"
	default:
		return value.Tag(t.Kind).String()
	}
}
