// Package tableslice implements the row-major typed mini-batch spec section
// 4.E describes: a Builder accumulates values into fixed-width rows against
// a record layout's flattened field list, producing immutable Slices tagged
// with the ID of their first row.
package tableslice

import (
	"fmt"

	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/value"
)

// Slice is an immutable, row-major batch of flattened values sharing one
// layout, starting at a known global row ID.
type Slice struct {
	Layout schema.RecordType // flattened layout; Rows are indexed against Layout.Fields
	Rows   [][]value.Value
	Offset uint64 // global ID of Rows[0]
}

// NumRows returns the number of rows in the slice.
func (s *Slice) NumRows() int { return len(s.Rows) }

// Column returns the col'th value of every row, in row order.
func (s *Slice) Column(col int) []value.Value {
	out := make([]value.Value, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row[col]
	}
	return out
}

// Builder accumulates values cell-by-cell into rows against a flattened
// layout, exactly as value_type_check + emplace_back does in the original:
// append(value) type-checks against layout.fields[col_], stores it, and
// advances col_; a full row is committed to the in-progress slice.
type Builder struct {
	layout schema.RecordType // original, unflattened layout (kept for reference)
	flat   schema.RecordType // flattened layout the rows are built against
	offset uint64
	rows   [][]value.Value
	row    []value.Value
	col    int
}

// NewBuilder flattens layout and starts a builder for rows beginning at
// offset.
func NewBuilder(layout schema.RecordType, offset uint64) (*Builder, error) {
	flat, err := schema.FlattenType(layout)
	if err != nil {
		return nil, err
	}
	return &Builder{
		layout: layout,
		flat:   flat,
		offset: offset,
		row:    make([]value.Value, len(flat.Fields)),
	}, nil
}

// Width is the number of flattened columns per row.
func (b *Builder) Width() int { return len(b.flat.Fields) }

// Append type-checks x against the current column's field and stores it,
// committing the row once every column has been filled.
func (b *Builder) Append(x value.Value) error {
	if b.col >= b.Width() {
		return fmt.Errorf("tableslice: builder: row already full")
	}
	field := b.flat.Fields[b.col]
	if !x.IsNil() && !typeMatches(field.Type, x) {
		return fmt.Errorf("tableslice: field %q: type_clash: expected %s, got %s", field.Name, field.Type, x.Tag())
	}
	b.row[b.col] = x
	b.col++
	if b.col == b.Width() {
		b.commit()
	}
	return nil
}

func (b *Builder) commit() {
	b.rows = append(b.rows, b.row)
	b.row = make([]value.Value, b.Width())
	b.col = 0
}

// Finish closes the builder, committing a partial trailing row (if any)
// with its unset tail implicitly nil, per spec section 4.E -- a row that
// never reached full width is still captured rather than dropped.
func (b *Builder) Finish() *Slice {
	if b.col > 0 {
		for i := b.col; i < b.Width(); i++ {
			b.row[i] = value.Nil
		}
		b.commit()
	}
	return &Slice{Layout: b.flat, Rows: b.rows, Offset: b.offset}
}

// typeMatches reports whether x's runtime tag is compatible with field
// type t's declared Kind. Nested container element types are not checked
// recursively here; the leaf-level factory/index layers reject mismatches
// they actually care about.
func typeMatches(t schema.Type, x value.Value) bool {
	return schema.Kind(x.Tag()) == t.Kind
}
