// Factory selects the index implementation for a flattened column, given its
// leaf type and attributes (spec 4.C / glossary "value index"): arithmetic
// variants share one generic implementation keyed by value.Tag, while
// string/address/subnet/port/sequence get dedicated layouts.
package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap/coder"
	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/value"
)

// New builds the index appropriate for a leaf field's type and attributes.
// t must be a leaf (scalar, vector, or set) type; records/aliases are
// expected to already have been flattened to leaves before reaching here.
func New(t schema.Type, attrs schema.Attributes) (Index, error) {
	switch t.Kind {
	case schema.KindBool:
		return NewBoolIndex(), nil
	case schema.KindInt, schema.KindCount, schema.KindReal, schema.KindDuration, schema.KindTime, schema.KindEnum:
		return NewArithmeticIndex(value.Tag(t.Kind), radixBase(attrs)), nil
	case schema.KindString:
		if attrs.ID {
			return NewHashIndex(), nil
		}
		return NewStringIndex(attrs.MaxSize), nil
	case schema.KindAddress:
		return NewAddressIndex(), nil
	case schema.KindSubnet:
		return NewSubnetIndex(), nil
	case schema.KindPort:
		return NewPortIndex(), nil
	case schema.KindVector, schema.KindSet:
		if t.Elem == nil {
			return nil, fmt.Errorf("index: %s has no element type", t)
		}
		elemType := *t.Elem
		maxSize := attrs.MaxSize
		if _, err := New(elemType, schema.Attributes{}); err != nil {
			return nil, fmt.Errorf("index: sequence element: %w", err)
		}
		return NewSequenceIndex(maxSize, func() Index {
			idx, _ := New(elemType, schema.Attributes{})
			return idx
		}), nil
	case schema.KindMap:
		return nil, fmt.Errorf("index: map columns are not indexed")
	default:
		return nil, fmt.Errorf("index: %s is not a leaf type", t)
	}
}

func radixBase(attrs schema.Attributes) coder.Base {
	if len(attrs.Base) == 0 {
		return nil
	}
	base := make(coder.Base, len(attrs.Base))
	for i, d := range attrs.Base {
		base[i] = uint64(d)
	}
	return base
}
