package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastio/vast-core/internal/consensus"
	"github.com/vastio/vast-core/internal/tableslice"
	"github.com/vastio/vast-core/internal/value"
)

func newTestImporter(gens []idRange, maxTableSliceSize int) *Importer {
	return &Importer{
		cons:               consensus.NewInProcess(),
		dir:                "",
		maxTableSliceSize:  uint64(maxTableSliceSize),
		nowFunc:            time.Now,
		generators:         gens,
		blocksPerReplenish: 1,
	}
}

func sliceWithRows(n int) tableslice.Slice {
	return tableslice.Slice{Rows: make([][]value.Value, n)}
}

// TestRequestCreditScenario is spec section 8 scenario 6:
// max_table_slice_size=100, a single [0,500) generator, desired=10 grants 5.
func TestRequestCreditScenario(t *testing.T) {
	imp := newTestImporter([]idRange{{lo: 0, hi: 500}}, 100)
	grant, err := imp.RequestCredit(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), grant)
}

func TestRequestCreditCappedByDesired(t *testing.T) {
	imp := newTestImporter([]idRange{{lo: 0, hi: 1000}}, 100)
	grant, err := imp.RequestCredit(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), grant)
}

func TestRequestCreditAccountsForInFlight(t *testing.T) {
	imp := newTestImporter([]idRange{{lo: 0, hi: 500}}, 100)
	_, err := imp.RequestCredit(context.Background(), 2)
	require.NoError(t, err)
	// 5 available slices total, 2 already in flight: only 3 left to grant.
	grant, err := imp.RequestCredit(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), grant)
}

func TestReplenishGrowsOnRapidReplenish(t *testing.T) {
	imp := newTestImporter(nil, 10)
	ctx := context.Background()
	require.NoError(t, imp.Replenish(ctx))
	assert.Equal(t, int64(1), imp.blocksPerReplenish)

	// Back-to-back in the same test run is well within replenishWindow.
	require.NoError(t, imp.Replenish(ctx))
	assert.Equal(t, int64(1+replenishGrowth), imp.blocksPerReplenish)
}

func TestReplenishAppendsGeneratorFromConsensus(t *testing.T) {
	imp := newTestImporter(nil, 10)
	require.NoError(t, imp.Replenish(context.Background()))
	require.Len(t, imp.generators, 1)
	assert.Equal(t, uint64(0), imp.generators[0].lo)
	assert.Equal(t, uint64(10), imp.generators[0].hi) // maxTableSliceSize * blocksPerReplenish
}

// TestProcessSliceAssignsMonotonicIDs is P6: successive slices get
// contiguous, strictly increasing ID ranges, and a slice that cannot fit in
// what remains of the front generator draws its block from the next
// generator instead ("contiguous modulo generator boundaries").
func TestProcessSliceAssignsMonotonicIDs(t *testing.T) {
	imp := newTestImporter([]idRange{{lo: 0, hi: 10}, {lo: 20, hi: 30}}, 4)

	s1, err := imp.ProcessSlice(sliceWithRows(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), s1.Offset)

	s2, err := imp.ProcessSlice(sliceWithRows(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s2.Offset)

	// Front generator only has 2 IDs left ([8,10)), short of a full
	// max_table_slice_size=4 block, so the third slice's block comes from
	// the second generator instead.
	s3, err := imp.ProcessSlice(sliceWithRows(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), s3.Offset)

	offsets := []uint64{s1.Offset, s2.Offset, s3.Offset}
	for i := 1; i < len(offsets); i++ {
		assert.Greater(t, offsets[i], offsets[i-1], "offsets must be strictly increasing")
	}
	assert.Equal(t, uint64(4), s2.Offset-s1.Offset, "contiguous within the same generator")
}
