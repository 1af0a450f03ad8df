// Package index implements the per-column value indices of spec section
// 4.C: append-only structures keyed by row ID (so gaps encode nil) that
// answer predicate lookups with a compressed bitmap of matching IDs.
package index

import (
	"fmt"

	"github.com/vastio/vast-core/internal/bitmap"
	"github.com/vastio/vast-core/internal/value"
)

// Index is the contract every per-column value index implements.
type Index interface {
	// Append records x at pos. pos must be >= Offset(); gaps between the
	// previous offset and pos are implicitly nil.
	Append(x value.Value, pos uint64) error
	// Offset is the first position not yet written, i.e.
	// max(|mask|, |none|).
	Offset() uint64
	// Lookup evaluates "column op x" and returns the matching row IDs as a
	// bitmap, already intersected with mask and zero-padded to cover the
	// nil positions.
	Lookup(op value.Op, x value.Value) (*bitmap.Bitmap, error)
}

// impl is the per-variant extension point: append a concrete (non-nil)
// value at pos, and evaluate a lookup against only the concrete values
// (nil handling is done once, in Base).
type impl interface {
	appendImpl(x value.Value, pos uint64) error
	lookupImpl(op value.Op, x value.Value) (*bitmap.Bitmap, error)
}

// Base tracks which positions hold a concrete value (mask) and which were
// explicitly written as nil (none); every concrete Index embeds a Base and
// drives it through Append/Lookup.
type Base struct {
	mask *bitmap.Bitmap
	none *bitmap.Bitmap
}

func NewBase() Base {
	return Base{mask: bitmap.New(), none: bitmap.New()}
}

func (b *Base) Offset() uint64 { return maxU64(b.mask.Size(), b.none.Size()) }

// Append implements the value_index::append contract shared by every
// variant: nil positions only ever touch none_, never the concrete coder.
func (b *Base) Append(self impl, x value.Value, pos uint64) error {
	off := b.Offset()
	if pos < off {
		return fmt.Errorf("index: append at %d precedes offset %d", pos, off)
	}
	if x.IsNil() {
		b.none.AppendBits(false, pos-b.none.Size())
		b.none.AppendBit(true)
		return nil
	}
	if err := self.appendImpl(x, pos); err != nil {
		return err
	}
	b.mask.AppendBits(false, pos-b.mask.Size())
	b.mask.AppendBit(true)
	return nil
}

// Lookup implements the value_index::lookup contract: equality/inequality
// against nil are special-cased against none_ directly; everything else
// goes through lookupImpl and is masked + padded.
func (b *Base) Lookup(self impl, op value.Op, x value.Value) (*bitmap.Bitmap, error) {
	if x.IsNil() {
		switch op {
		case value.Eq:
			result := b.none.Clone()
			if result.Size() < b.mask.Size() {
				result.AppendBits(false, b.mask.Size()-result.Size())
			}
			return result, nil
		case value.Ne:
			result := b.none.Not()
			if result.Size() < b.mask.Size() {
				result.AppendBits(true, b.mask.Size()-result.Size())
			}
			return result, nil
		default:
			return nil, fmt.Errorf("index: unsupported operator %s against nil", op)
		}
	}
	result, err := self.lookupImpl(op, x)
	if err != nil {
		return nil, err
	}
	result = bitmap.And(result, b.mask)
	if b.none.Size() > b.mask.Size() {
		result.AppendBits(false, b.none.Size()-b.mask.Size())
	}
	return result, nil
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
