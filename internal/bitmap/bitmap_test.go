package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendBitsAndGet(t *testing.T) {
	b := New()
	b.AppendBits(false, 3)
	b.AppendBit(true)
	b.AppendBits(false, 2)
	assert.Equal(t, uint64(6), b.Size())
	assert.False(t, b.Get(0))
	assert.False(t, b.Get(2))
	assert.True(t, b.Get(3))
	assert.False(t, b.Get(4))
	assert.False(t, b.Get(100)) // out of range reads as unset
}

func TestNotAndFlip(t *testing.T) {
	b := New()
	b.AppendBit(true)
	b.AppendBit(false)
	not := b.Not()
	assert.False(t, not.Get(0))
	assert.True(t, not.Get(1))

	b.Flip()
	assert.False(t, b.Get(0))
	assert.True(t, b.Get(1))
}

func TestAndOr(t *testing.T) {
	a := FromIDs(4, []uint64{0, 2})
	b := FromIDs(4, []uint64{2, 3})

	and := And(a, b)
	assert.Equal(t, []uint64{2}, and.IDs())

	or := Or(a, b)
	assert.Equal(t, []uint64{0, 2, 3}, or.IDs())
}

func TestAndOrPadsUnevenSizes(t *testing.T) {
	a := New()
	a.AppendBits(true, 2)
	b := New()
	b.AppendBit(true)

	or := Or(a, b)
	assert.Equal(t, uint64(2), or.Size())
	assert.True(t, or.Get(0))
	assert.True(t, or.Get(1))
}

func TestAllAndIDsRoundTrip(t *testing.T) {
	ids := []uint64{1, 4, 5, 9}
	b := FromIDs(10, ids)
	assert.Equal(t, ids, b.IDs())
	assert.False(t, b.All(true))

	allSet := FromIDs(3, []uint64{0, 1, 2})
	assert.True(t, allSet.All(true))
}

func TestCloneIndependence(t *testing.T) {
	a := New()
	a.AppendBit(true)
	clone := a.Clone()
	clone.AppendBit(false)
	assert.Equal(t, uint64(1), a.Size())
	assert.Equal(t, uint64(2), clone.Size())
}
