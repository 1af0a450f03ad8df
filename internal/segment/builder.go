package segment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vastio/vast-core/internal/tableslice"
)

// Builder accumulates finished table slices into the active segment, spec
// section 4.F's "builder_". Builders are layout-polymorphic by default:
// slices of any layout may be admitted, since a segment is just an ordered
// bag of (offset, rows) descriptors, not a single-layout table.
type Builder struct {
	id     uuid.UUID
	slices []tableslice.Slice
	size   uint64
}

// NewBuilder starts a fresh builder under a new UUID.
func NewBuilder() *Builder {
	return &Builder{id: uuid.New()}
}

// ID returns the UUID this builder's eventual sealed segment will carry.
func (b *Builder) ID() uuid.UUID { return b.id }

// Size is the approximate number of row-bytes accumulated so far, compared
// against Store.maxSegmentSize to decide when to roll over.
func (b *Builder) Size() uint64 { return b.size }

// NumSlices reports how many slices are currently buffered.
func (b *Builder) NumSlices() int { return len(b.slices) }

// Add appends slice to the builder. It fails only if slice's offset
// precedes the end of the last-added slice, which would mean the caller
// handed two overlapping ID ranges to the same segment -- a contract
// violation the importer must never produce (spec section 4.F step 2).
func (b *Builder) Add(slice tableslice.Slice) error {
	if n := len(b.slices); n > 0 {
		prev := b.slices[n-1]
		if slice.Offset < prev.Offset+uint64(prev.NumRows()) {
			return fmt.Errorf("segment: builder: slice at %d overlaps previous slice ending at %d",
				slice.Offset, prev.Offset+uint64(prev.NumRows()))
		}
	}
	b.slices = append(b.slices, slice)
	b.size += estimateSize(slice)
	return nil
}

// Get gathers the rows of ids that are still buffered in this builder.
func (b *Builder) Get(keep func(id uint64) bool) []tableslice.Slice {
	var out []tableslice.Slice
	for _, sl := range b.slices {
		out = append(out, selectFromSlice(sl, keep)...)
	}
	return out
}

// Finish seals the builder into an immutable Segment, leaving the builder's
// own state untouched (callers reset separately so an in-flight Get during
// rollover still sees the pre-reset slices).
func (b *Builder) Finish() *Segment {
	return &Segment{UUID: b.id, Slices: append([]tableslice.Slice{}, b.slices...)}
}

// Reset clears the builder's buffered slices and assigns it a fresh UUID,
// the "reset builder_ with a fresh UUID" step of spec section 4.F.3.
func (b *Builder) Reset() {
	b.id = uuid.New()
	b.slices = nil
	b.size = 0
}

// estimateSize approximates a slice's on-disk footprint: width * rows cells
// at a flat per-cell cost, good enough to drive size-bounded rollover
// without re-marshaling on every Add.
func estimateSize(s tableslice.Slice) uint64 {
	const perCell = 16
	return uint64(s.NumRows()) * uint64(len(s.Layout.Fields)) * perCell
}
