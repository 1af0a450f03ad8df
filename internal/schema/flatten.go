package schema

import (
	"fmt"

	"github.com/vastio/vast-core/internal/value"
)

// Cell is one slot of a nested record value before flattening: either a
// leaf value.Value or a nested sequence of Cells mirroring a record_type
// field. This models the "nested sequence of sequences" shape spec section
// 3 describes for record values.
type Cell interface{}

// resolveAlias follows a KindAlias Type down to its underlying shape.
func resolveAlias(t Type) Type {
	for t.Kind == KindAlias && t.Elem != nil {
		t = *t.Elem
	}
	return t
}

// FlattenType expands every nested record_type field of t into dotted leaf
// fields, producing the flat layout table slices are built against. Layout
// identity (RecordType.Equal) is computed over the result.
func FlattenType(t RecordType) (RecordType, error) {
	if t.Kind != KindRecord {
		return RecordType{}, fmt.Errorf("schema: FlattenType on non-record kind %v", t.Kind)
	}
	flat := RecordType{Kind: KindRecord, Name: t.Name}
	for _, f := range t.Fields {
		if err := flattenField("", f, &flat); err != nil {
			return RecordType{}, err
		}
	}
	return flat, nil
}

func flattenField(prefix string, f Field, out *RecordType) error {
	name := f.Name
	if prefix != "" {
		name = prefix + "." + name
	}
	resolved := resolveAlias(f.Type)
	if resolved.Kind == KindRecord {
		for _, nested := range resolved.Fields {
			if err := flattenField(name, nested, out); err != nil {
				return err
			}
		}
		return nil
	}
	leaf := f
	leaf.Name = name
	leaf.Type = resolved
	out.Fields = append(out.Fields, leaf)
	return nil
}

// Flatten converts a nested record value into a flat row whose length
// equals the leaf-field count of t's flattened layout. A Cell that is
// value.Nil at a position whose declared (unflattened) type is a record
// expands to one value.Nil per leaf of that nested record, per spec
// section 3.
func Flatten(t RecordType, row []Cell) ([]value.Value, error) {
	if len(row) != len(t.Fields) {
		return nil, fmt.Errorf("schema: Flatten: row has %d cells, type has %d fields", len(row), len(t.Fields))
	}
	var out []value.Value
	for i, f := range t.Fields {
		if err := flattenCell(f, row[i], &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flattenCell(f Field, c Cell, out *[]value.Value) error {
	resolved := resolveAlias(f.Type)
	if resolved.Kind != KindRecord {
		v, ok := c.(value.Value)
		if !ok {
			return fmt.Errorf("schema: field %q: expected leaf value, got %T", f.Name, c)
		}
		*out = append(*out, v)
		return nil
	}
	// Nested record field: nil collapses to nil-per-leaf; otherwise c must
	// be a nested []Cell matching resolved.Fields.
	if v, ok := c.(value.Value); ok && v.IsNil() {
		n := leafCount(resolved)
		for i := 0; i < n; i++ {
			*out = append(*out, value.Nil)
		}
		return nil
	}
	nested, ok := c.([]Cell)
	if !ok {
		return fmt.Errorf("schema: field %q: expected nested record, got %T", f.Name, c)
	}
	if len(nested) != len(resolved.Fields) {
		return fmt.Errorf("schema: field %q: nested row has %d cells, type has %d fields", f.Name, len(nested), len(resolved.Fields))
	}
	for i, nf := range resolved.Fields {
		if err := flattenCell(nf, nested[i], out); err != nil {
			return err
		}
	}
	return nil
}

func leafCount(t Type) int {
	resolved := resolveAlias(t)
	if resolved.Kind != KindRecord {
		return 1
	}
	n := 0
	for _, f := range resolved.Fields {
		n += leafCount(f.Type)
	}
	return n
}

// Unflatten is Flatten's inverse: it consumes leaf values from flat and
// reconstructs the nested Cell tree described by t. A nested record whose
// every leaf unflattened to value.Nil collapses back into a single
// value.Nil Cell at the parent position, recovering the original "absent
// nested record" rather than yielding a record full of nils.
func Unflatten(t RecordType, flat []value.Value) ([]Cell, error) {
	row := make([]Cell, len(t.Fields))
	pos := 0
	for i, f := range t.Fields {
		c, n, err := unflattenField(f, flat[pos:])
		if err != nil {
			return nil, err
		}
		row[i] = c
		pos += n
	}
	if pos != len(flat) {
		return nil, fmt.Errorf("schema: Unflatten: consumed %d of %d leaf values", pos, len(flat))
	}
	return row, nil
}

func unflattenField(f Field, flat []value.Value) (Cell, int, error) {
	resolved := resolveAlias(f.Type)
	if resolved.Kind != KindRecord {
		if len(flat) == 0 {
			return nil, 0, fmt.Errorf("schema: field %q: ran out of leaf values", f.Name)
		}
		return flat[0], 1, nil
	}
	n := leafCount(resolved)
	if len(flat) < n {
		return nil, 0, fmt.Errorf("schema: field %q: ran out of leaf values", f.Name)
	}
	allNil := true
	for i := 0; i < n; i++ {
		if !flat[i].IsNil() {
			allNil = false
			break
		}
	}
	if allNil {
		return value.Nil, n, nil
	}
	nested := make([]Cell, len(resolved.Fields))
	pos := 0
	for i, nf := range resolved.Fields {
		c, m, err := unflattenField(nf, flat[pos:n])
		if err != nil {
			return nil, 0, err
		}
		nested[i] = c
		pos += m
	}
	return nested, n, nil
}
