// Package metaindex implements the partition-pruning meta-index of spec
// section 4.D: per-partition, per-layout, per-column synopses consulted by
// expression lookup to decide which partitions could possibly contain a
// match. Synopses may answer false positives but never false negatives, so
// the pruning here is always a superset of the true candidate partitions.
package metaindex

import (
	"bytes"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vastio/vast-core/internal/expr"
	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/synopsis"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
)

type entry struct {
	layout  schema.RecordType
	columns []synopsis.Synopsis
}

// MetaIndex is the partition_synopses + blacklisted_layouts state of spec
// 4.D.
type MetaIndex struct {
	mu         sync.Mutex
	partitions map[uuid.UUID][]*entry
	blacklist  []schema.RecordType
}

func New() *MetaIndex {
	return &MetaIndex{partitions: make(map[uuid.UUID][]*entry)}
}

// Add feeds every non-nil cell of slice into the synopsis set for
// (partitionID, slice.Layout), building that set on first use.
func (m *MetaIndex) Add(partitionID uuid.UUID, slice *tableslice.Slice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isBlacklisted(slice.Layout) {
		return
	}
	e := m.findEntry(partitionID, slice.Layout)
	if e == nil {
		cols := make([]synopsis.Synopsis, len(slice.Layout.Fields))
		anyBuilt := false
		for i, f := range slice.Layout.Fields {
			if f.Attrs.Skip {
				continue
			}
			cols[i] = synopsis.New(f.Type)
			if cols[i] != nil {
				anyBuilt = true
			}
		}
		if !anyBuilt {
			m.blacklist = append(m.blacklist, slice.Layout)
			return
		}
		e = &entry{layout: slice.Layout, columns: cols}
		m.partitions[partitionID] = append(m.partitions[partitionID], e)
	}
	for _, row := range slice.Rows {
		for col, v := range row {
			if v.IsNil() || e.columns[col] == nil {
				continue
			}
			e.columns[col].Add(v)
		}
	}
}

func (m *MetaIndex) findEntry(partitionID uuid.UUID, layout schema.RecordType) *entry {
	for _, e := range m.partitions[partitionID] {
		if e.layout.Equal(layout) {
			return e
		}
	}
	return nil
}

func (m *MetaIndex) isBlacklisted(layout schema.RecordType) bool {
	for _, l := range m.blacklist {
		if l.Equal(layout) {
			return true
		}
	}
	return false
}

// Lookup returns the UUIDs of partitions that could possibly contain a row
// satisfying e, sorted ascending.
func (m *MetaIndex) Lookup(e expr.Expr) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(e)
}

func (m *MetaIndex) lookup(e expr.Expr) []uuid.UUID {
	switch v := e.(type) {
	case expr.Conjunction:
		return m.lookupConjunction(v)
	case expr.Disjunction:
		return m.lookupDisjunction(v)
	case expr.Negation:
		// Synopses admit false positives, never false negatives: negating a
		// predicate we can only approximate from one side would risk
		// dropping a partition that truly matches the negation, so negation
		// always returns the full universe.
		return m.universe()
	case expr.Predicate:
		return m.lookupPredicate(v)
	default:
		return m.universe()
	}
}

func (m *MetaIndex) lookupConjunction(c expr.Conjunction) []uuid.UUID {
	if len(c.Operands) == 0 {
		return m.universe()
	}
	result := m.lookup(c.Operands[0])
	for _, operand := range c.Operands[1:] {
		if len(result) == 0 {
			return result
		}
		result = intersectSorted(result, m.lookup(operand))
	}
	return result
}

func (m *MetaIndex) lookupDisjunction(d expr.Disjunction) []uuid.UUID {
	full := m.universe()
	seen := make(map[uuid.UUID]bool, len(full))
	var result []uuid.UUID
	for _, operand := range d.Operands {
		for _, id := range m.lookup(operand) {
			if !seen[id] {
				seen[id] = true
				result = append(result, id)
			}
		}
		if len(result) == len(full) {
			break
		}
	}
	sortUUIDs(result)
	return result
}

func (m *MetaIndex) lookupPredicate(p expr.Predicate) []uuid.UUID {
	if attr, ok := p.LHS.(expr.AttributeExtractor); ok && attr.Name == "type" {
		return m.lookupTypePredicate(p)
	}
	var matchedAny bool
	var result []uuid.UUID
	for id, entries := range m.partitions {
		include := false
		for _, e := range entries {
			for col, f := range e.layout.Fields {
				if !extractorMatches(p.LHS, f) {
					continue
				}
				matchedAny = true
				syn := e.columns[col]
				if syn == nil || syn.Lookup(p.Op, p.RHS) {
					include = true
				}
			}
		}
		if include {
			result = append(result, id)
		}
	}
	if !matchedAny {
		return m.universe()
	}
	sortUUIDs(result)
	return result
}

// lookupTypePredicate evaluates attribute_extractor(type) directly against
// each partition's layout name(s); it never consults a synopsis, since the
// layout name isn't a column value.
func (m *MetaIndex) lookupTypePredicate(p expr.Predicate) []uuid.UUID {
	var result []uuid.UUID
	for id, entries := range m.partitions {
		for _, e := range entries {
			if value.Evaluate(value.NewString(e.layout.Name), p.Op, p.RHS) {
				result = append(result, id)
				break
			}
		}
	}
	sortUUIDs(result)
	return result
}

func extractorMatches(ext expr.Extractor, f schema.Field) bool {
	switch v := ext.(type) {
	case expr.AttributeExtractor:
		switch v.Name {
		case "timestamp":
			return f.Attrs.Timestamp
		default:
			return false
		}
	case expr.KeyExtractor:
		return strings.HasSuffix(f.Name, v.Key)
	case expr.TypeExtractor:
		return f.Type.Equal(v.Type)
	default:
		return false
	}
}

func (m *MetaIndex) universe() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.partitions))
	for id := range m.partitions {
		ids = append(ids, id)
	}
	sortUUIDs(ids)
	return ids
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
}

// intersectSorted intersects two UUID slices by filtering a through a set
// built from b; inputs need not be sorted, and the result is sorted
// ascending.
func intersectSorted(a, b []uuid.UUID) []uuid.UUID {
	set := make(map[uuid.UUID]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	var out []uuid.UUID
	for _, id := range a {
		if set[id] {
			out = append(out, id)
		}
	}
	sortUUIDs(out)
	return out
}
