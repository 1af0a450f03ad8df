package metaindex

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastio/vast-core/internal/expr"
	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
)

var eventLayout = schema.Record("event",
	schema.Field{Name: "n", Type: schema.Type{Kind: schema.KindInt}},
)

func sliceOf(vals ...int64) *tableslice.Slice {
	rows := make([][]value.Value, len(vals))
	for i, v := range vals {
		rows[i] = []value.Value{value.NewInt(v)}
	}
	return &tableslice.Slice{Layout: eventLayout, Rows: rows}
}

func predicate(op value.Op, rhs int64) expr.Predicate {
	return expr.Predicate{LHS: expr.KeyExtractor{Key: "n"}, Op: op, RHS: value.NewInt(rhs)}
}

// TestLookupPrunesByRange is P4: a predicate whose range cannot be
// satisfied by a partition's min/max synopsis must not be returned.
func TestLookupPrunesByRange(t *testing.T) {
	m := New()
	a, b := uuid.New(), uuid.New()
	m.Add(a, sliceOf(0, 1, 2, 3, 4, 5))
	m.Add(b, sliceOf(10, 15, 20))

	got := m.Lookup(predicate(value.Ge, 10))
	assert.ElementsMatch(t, []uuid.UUID{b}, got)
}

func TestLookupConjunctionIntersects(t *testing.T) {
	m := New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	m.Add(a, sliceOf(0, 5))
	m.Add(b, sliceOf(5, 10))
	m.Add(c, sliceOf(20, 25))

	e := expr.And(predicate(value.Ge, 3), predicate(value.Le, 8))
	got := m.Lookup(e)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, got)
}

func TestLookupDisjunctionUnions(t *testing.T) {
	m := New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	m.Add(a, sliceOf(0, 1))
	m.Add(b, sliceOf(50, 51))
	m.Add(c, sliceOf(100, 101))

	e := expr.Or(predicate(value.Eq, 0), predicate(value.Eq, 100))
	got := m.Lookup(e)
	assert.ElementsMatch(t, []uuid.UUID{a, c}, got)
}

// TestLookupNegationReturnsUniverse: synopses never produce false negatives,
// so a negation falls back to every partition rather than risk excluding one
// that truly matches.
func TestLookupNegationReturnsUniverse(t *testing.T) {
	m := New()
	a, b := uuid.New(), uuid.New()
	m.Add(a, sliceOf(0))
	m.Add(b, sliceOf(100))

	got := m.Lookup(expr.Not(predicate(value.Eq, 0)))
	assert.ElementsMatch(t, []uuid.UUID{a, b}, got)
}

// TestLookupUnmatchedExtractorReturnsUniverse: a predicate over a column no
// partition's layout has must not silently prune everything.
func TestLookupUnmatchedExtractorReturnsUniverse(t *testing.T) {
	m := New()
	a := uuid.New()
	m.Add(a, sliceOf(0, 1, 2))

	got := m.Lookup(expr.Predicate{LHS: expr.KeyExtractor{Key: "missing"}, Op: value.Eq, RHS: value.NewInt(0)})
	assert.ElementsMatch(t, []uuid.UUID{a}, got)
}

// TestLookupTypePredicate matches against the partition's layout name
// instead of any column.
func TestLookupTypePredicate(t *testing.T) {
	m := New()
	a, b := uuid.New(), uuid.New()
	m.Add(a, sliceOf(0))
	otherLayout := schema.Record("other", schema.Field{Name: "n", Type: schema.Type{Kind: schema.KindInt}})
	m.Add(b, &tableslice.Slice{Layout: otherLayout, Rows: [][]value.Value{{value.NewInt(0)}}})

	got := m.Lookup(expr.Predicate{LHS: expr.AttributeExtractor{Name: "type"}, Op: value.Eq, RHS: value.NewString("event")})
	assert.ElementsMatch(t, []uuid.UUID{a}, got)
}

// TestBlacklistedLayoutIsNeverIndexed: a layout whose every field synopsis
// is null (here, a Port-only layout) is blacklisted, so its partition gets
// no entry and lookups never return it.
func TestBlacklistedLayoutIsNeverIndexed(t *testing.T) {
	m := New()
	portLayout := schema.Record("conn", schema.Field{Name: "p", Type: schema.Type{Kind: schema.KindPort}})
	a := uuid.New()
	m.Add(a, &tableslice.Slice{Layout: portLayout, Rows: [][]value.Value{
		{value.NewPort(value.Port{Number: 80, Proto: value.ProtoTCP})},
	}})

	require.True(t, m.isBlacklisted(portLayout))
	got := m.Lookup(predicate(value.Eq, 0))
	assert.Empty(t, got, "no partition ever built a synopsis for this layout")
}
