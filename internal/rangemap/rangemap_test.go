package rangemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInjectAndLookup(t *testing.T) {
	m := New()
	id := uuid.New()
	assert.NoError(t, m.Inject(0, 100, id))

	got, ok := m.Lookup(50)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = m.Lookup(100)
	assert.False(t, ok, "hi bound is exclusive")

	_, ok = m.Lookup(150)
	assert.False(t, ok)
}

func TestInjectRejectsOverlap(t *testing.T) {
	m := New()
	assert.NoError(t, m.Inject(0, 100, uuid.New()))
	err := m.Inject(50, 150, uuid.New())
	assert.Error(t, err)

	assert.Error(t, m.Inject(10, 10, uuid.New())) // empty interval
}

func TestOverlappingAndAll(t *testing.T) {
	m := New()
	id1, id2, id3 := uuid.New(), uuid.New(), uuid.New()
	assert.NoError(t, m.Inject(0, 10, id1))
	assert.NoError(t, m.Inject(10, 20, id2))
	assert.NoError(t, m.Inject(20, 30, id3))

	got := m.Overlapping(5, 25)
	assert.Equal(t, 3, len(got))
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 3, len(m.All()))
}

func TestEraseValue(t *testing.T) {
	m := New()
	id1, id2 := uuid.New(), uuid.New()
	assert.NoError(t, m.Inject(0, 10, id1))
	assert.NoError(t, m.Inject(10, 20, id1))
	assert.NoError(t, m.Inject(20, 30, id2))

	n := m.EraseValue(id1)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, m.Len())

	_, ok := m.Lookup(5)
	assert.False(t, ok)
	got, ok := m.Lookup(25)
	assert.True(t, ok)
	assert.Equal(t, id2, got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m := New()
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		assert.NoError(t, m.Inject(uint64(i*10), uint64(i*10+10), ids[i]))
	}

	path := filepath.Join(tempDir, "meta")
	assert.NoError(t, Save(ctx, path, m))

	loaded, err := Load(ctx, path)
	assert.NoError(t, err)
	assert.Equal(t, m.Len(), loaded.Len())
	for i, id := range ids {
		got, ok := loaded.Lookup(uint64(i * 10))
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestLoadMissingFileReturnsEmptyMap(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	m, err := Load(ctx, filepath.Join(tempDir, "does-not-exist"))
	assert.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLoadMalformedLineErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(tempDir, "meta")

	assert.NoError(t, os.WriteFile(path, []byte("not a valid line\n"), 0644))

	_, err := Load(ctx, path)
	assert.Error(t, err)
}
