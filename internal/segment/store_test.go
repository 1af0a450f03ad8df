package segment

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastio/vast-core/internal/schema"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
)

var testLayout = schema.Record("event", schema.Field{Name: "n", Type: schema.Type{Kind: schema.KindCount}})

// sliceOf builds a one-column Count slice whose cells equal their own
// global row ID, starting at offset, so assertions can check surviving IDs
// by reading the cell value back.
func sliceOf(offset uint64, n int) tableslice.Slice {
	rows := make([][]value.Value, n)
	for i := range rows {
		rows[i] = []value.Value{value.NewCount(offset + uint64(i))}
	}
	return tableslice.Slice{Layout: testLayout, Rows: rows, Offset: offset}
}

func idsOf(slices []tableslice.Slice) []uint64 {
	var out []uint64
	for _, sl := range slices {
		for i := range sl.Rows {
			out = append(out, sl.Offset+uint64(i))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func openStore(t *testing.T, maxSegmentSize uint64) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		Dir:              t.TempDir(),
		MaxSegmentSize:   maxSegmentSize,
		InMemorySegments: 2,
	})
	require.NoError(t, err)
	return s
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 1<<30) // large enough that nothing seals

	require.NoError(t, s.Put(ctx, sliceOf(0, 5)))
	require.NoError(t, s.Put(ctx, sliceOf(5, 5)))

	got, err := s.Get(ctx, []uint64{0, 4, 7})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 4, 7}, idsOf(got))
}

// TestRolloverSeals is spec section 8 scenario 5: writing past
// MaxSegmentSize seals the active segment to disk and starts a fresh one,
// while Get still finds rows from the sealed segment.
func TestRolloverSeals(t *testing.T) {
	ctx := context.Background()
	// estimateSize is rows*width*16; width=1 here, so 4 rows is 64 bytes.
	s := openStore(t, 48)

	require.NoError(t, s.Put(ctx, sliceOf(0, 4))) // 64 bytes >= 48: seals immediately
	assert.Equal(t, 1, s.SegmentCount())

	require.NoError(t, s.Put(ctx, sliceOf(4, 2))) // active, not yet sealed

	got, err := s.Get(ctx, []uint64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, idsOf(got))
}

// TestSegmentsStayDisjoint is P5: the range-map never reports two segments
// claiming the same ID.
func TestSegmentsStayDisjoint(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48)
	require.NoError(t, s.Put(ctx, sliceOf(0, 4)))
	require.NoError(t, s.Put(ctx, sliceOf(4, 4)))
	require.NoError(t, s.Put(ctx, sliceOf(8, 2)))

	s.mu.Lock()
	entries := s.segments.All()
	s.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Lo < entries[j].Lo })
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqualf(t, entries[i-1].Hi, entries[i].Lo,
			"overlapping ranges [%d,%d) and [%d,%d)", entries[i-1].Lo, entries[i-1].Hi, entries[i].Lo, entries[i].Hi)
	}
}

// TestEraseSealedSegment is P7 (erase conservation): erasing a subset of a
// sealed segment's rows leaves exactly the complement retrievable, and the
// erased IDs never resurface even after the segment is rewritten.
func TestEraseSealedSegment(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48)
	require.NoError(t, s.Put(ctx, sliceOf(0, 4))) // seals: ids 0..3
	require.Equal(t, 1, s.SegmentCount())

	require.NoError(t, s.Erase(ctx, []uint64{1, 3}))

	got, err := s.Get(ctx, []uint64{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2}, idsOf(got))

	// The rewritten replacement segment is still a single live segment.
	assert.Equal(t, 1, s.SegmentCount())
}

// TestEraseEntireSealedSegment drops the segment file outright when every
// row is erased, rather than persisting an empty replacement.
func TestEraseEntireSealedSegment(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48)
	require.NoError(t, s.Put(ctx, sliceOf(0, 4)))
	require.Equal(t, 1, s.SegmentCount())

	require.NoError(t, s.Erase(ctx, []uint64{0, 1, 2, 3}))

	assert.Equal(t, 0, s.SegmentCount())
	got, err := s.Get(ctx, []uint64{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// TestEraseActiveBuilder exercises the in-memory (unsealed) erase path.
func TestEraseActiveBuilder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 1<<30)
	require.NoError(t, s.Put(ctx, sliceOf(0, 5)))

	require.NoError(t, s.Erase(ctx, []uint64{2}))

	got, err := s.Get(ctx, []uint64{0, 1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 3, 4}, idsOf(got))
}

func TestEraseEmptyIDsIsNoop(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 1<<30)
	require.NoError(t, s.Put(ctx, sliceOf(0, 3)))
	require.NoError(t, s.Erase(ctx, nil))

	got, err := s.Get(ctx, []uint64{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, idsOf(got))
}

// TestExtractStreamsMatches is the pull-style Extract iterator over two
// sealed segments and the active builder; both sealed segments fit in the
// two-entry LRU, so every candidate is served from memory.
func TestExtractStreamsMatches(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48)
	require.NoError(t, s.Put(ctx, sliceOf(0, 4)))   // seals
	require.NoError(t, s.Put(ctx, sliceOf(4, 10)))  // seals
	require.NoError(t, s.Put(ctx, sliceOf(14, 2)))  // active

	it := s.Extract(ctx, []uint64{0, 5, 15})
	var got []uint64
	for {
		sl, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, idsOf([]tableslice.Slice{sl})...)
	}
	require.NoError(t, it.Err())
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []uint64{0, 5, 15}, got)
}

// TestLRUEviction is P8: once more segments are sealed than
// InMemorySegments allows, the oldest resident segment is evicted but its
// rows remain retrievable via a disk re-read.
func TestLRUEviction(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48) // InMemorySegments: 2

	require.NoError(t, s.Put(ctx, sliceOf(0, 4)))  // seg A, seals
	require.NoError(t, s.Put(ctx, sliceOf(4, 4)))  // seg B, seals
	require.NoError(t, s.Put(ctx, sliceOf(8, 4)))  // seg C, seals: evicts A from the LRU

	got, err := s.Get(ctx, []uint64{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3}, idsOf(got), "evicted segment must still be readable from disk")
}

func TestScanReturnsEveryRow(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 48)
	require.NoError(t, s.Put(ctx, sliceOf(0, 4)))
	require.NoError(t, s.Put(ctx, sliceOf(4, 3)))

	it := s.Scan(ctx)
	var got []uint64
	for {
		sl, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, idsOf([]tableslice.Slice{sl})...)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6}, got)
}
