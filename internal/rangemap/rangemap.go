// Package rangemap implements the segment store's "segments_" state (spec
// section 4.F): a map from half-open ID intervals [lo, hi) to a segment
// UUID, keyed for fast point lookup and ordered traversal. The teacher's
// encoding/bampair package indexes BAM shards the same way -- an
// llrb.Comparable key wrapping a struct, inserted into a biogo/store/llrb
// tree and queried with Floor -- so this keys an llrb.Tree by interval start
// and resolves point lookups the same way shard_info.go resolves a read's
// position to its enclosing shard.
package rangemap

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/google/uuid"
)

// entry is one [Lo, Hi) -> ID interval, ordered by Lo for llrb.
type entry struct {
	lo, hi uint64
	id     uuid.UUID
}

func (e entry) Compare(c llrb.Comparable) int {
	o := c.(entry)
	switch {
	case e.lo < o.lo:
		return -1
	case e.lo > o.lo:
		return 1
	default:
		return 0
	}
}

// Map is an append-mostly interval map: Inject refuses to overlap an
// existing interval, Lookup resolves a single ID to its covering interval's
// UUID, and EraseValue drops every interval mapped to a given UUID (used
// when a segment is rewritten without the IDs erase_ids removed).
type Map struct {
	tree llrb.Tree
}

func New() *Map { return &Map{} }

// Inject records that [lo, hi) maps to id. It is an error for [lo, hi) to
// overlap any interval already present.
func (m *Map) Inject(lo, hi uint64, id uuid.UUID) error {
	if hi <= lo {
		return fmt.Errorf("rangemap: empty or inverted interval [%d, %d)", lo, hi)
	}
	if m.overlaps(lo, hi) {
		return fmt.Errorf("rangemap: [%d, %d) overlaps an existing interval", lo, hi)
	}
	m.tree.Insert(entry{lo: lo, hi: hi, id: id})
	return nil
}

func (m *Map) overlaps(lo, hi uint64) bool {
	found := false
	m.tree.Do(func(c llrb.Comparable) bool {
		e := c.(entry)
		if e.lo < hi && lo < e.hi {
			found = true
			return true
		}
		return false
	})
	return found
}

// Lookup returns the UUID of the interval covering id, if any.
func (m *Map) Lookup(id uint64) (uuid.UUID, bool) {
	c := m.tree.Floor(entry{lo: id})
	if c == nil {
		return uuid.UUID{}, false
	}
	e := c.(entry)
	if id >= e.hi {
		return uuid.UUID{}, false
	}
	return e.id, true
}

// Entry is one exported [Lo, Hi) -> ID interval.
type Entry struct {
	Lo, Hi uint64
	ID     uuid.UUID
}

// Overlapping returns every interval that intersects [lo, hi), in ascending
// order of Lo -- the entry point for segment extraction over an ID range.
func (m *Map) Overlapping(lo, hi uint64) []Entry {
	var out []Entry
	m.tree.Do(func(c llrb.Comparable) bool {
		e := c.(entry)
		if e.lo < hi && lo < e.hi {
			out = append(out, Entry{e.lo, e.hi, e.id})
		}
		return false
	})
	return out
}

// All returns every interval currently tracked, in ascending order of Lo --
// used to persist the whole map to dir/meta.
func (m *Map) All() []Entry {
	var out []Entry
	m.tree.Do(func(c llrb.Comparable) bool {
		e := c.(entry)
		out = append(out, Entry{e.lo, e.hi, e.id})
		return false
	})
	return out
}

// EraseValue removes every interval currently mapped to id, returning how
// many were removed.
func (m *Map) EraseValue(id uuid.UUID) int {
	var targets []uint64
	m.tree.Do(func(c llrb.Comparable) bool {
		e := c.(entry)
		if e.id == id {
			targets = append(targets, e.lo)
		}
		return false
	})
	for _, lo := range targets {
		m.tree.Delete(entry{lo: lo})
	}
	return len(targets)
}

// Len returns the number of intervals currently tracked.
func (m *Map) Len() int { return m.tree.Len() }
