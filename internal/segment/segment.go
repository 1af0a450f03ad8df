package segment

import (
	"github.com/google/uuid"

	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
)

// Segment is the (uuid, meta, chunk) triple of spec section 3: meta.slices
// is implicit here as the order of the Slices field, and chunk collapses to
// the in-memory Slices themselves -- the mmap+deserialize step in
// Store.get only matters for sealed segments not resident in the LRU, and
// is handled by Store.gatherSegment (via Read), not by this type.
type Segment struct {
	UUID   uuid.UUID
	Slices []tableslice.Slice
}

// IDRange returns the lowest offset and highest (offset+rows) across every
// slice in the segment. ok is false for an empty segment.
func (s *Segment) IDRange() (lo, hi uint64, ok bool) {
	if len(s.Slices) == 0 {
		return 0, 0, false
	}
	lo = s.Slices[0].Offset
	for _, sl := range s.Slices {
		end := sl.Offset + uint64(sl.NumRows())
		if end > hi {
			hi = end
		}
	}
	return lo, hi, true
}

// Select gathers, in slice order, the sub-slices of s whose rows fall
// inside the keep predicate -- used both by Store.get (keep = "id ∈
// requested ids") and by Store.erase (keep = "id ∉ erase ids").
// Contiguous kept rows within a slice are coalesced into one output slice
// so a caller sees the fewest possible fragments.
func Select(s *Segment, keep func(id uint64) bool) []tableslice.Slice {
	var out []tableslice.Slice
	for _, sl := range s.Slices {
		out = append(out, selectFromSlice(sl, keep)...)
	}
	return out
}

func selectFromSlice(sl tableslice.Slice, keep func(id uint64) bool) []tableslice.Slice {
	var out []tableslice.Slice
	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		out = append(out, tableslice.Slice{
			Layout: sl.Layout,
			Rows:   append([][]value.Value{}, sl.Rows[runStart:end]...),
			Offset: sl.Offset + uint64(runStart),
		})
		runStart = -1
	}
	for i := range sl.Rows {
		id := sl.Offset + uint64(i)
		if keep(id) {
			if runStart < 0 {
				runStart = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(sl.Rows))
	return out
}
