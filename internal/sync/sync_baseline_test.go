package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BaselineStore {
	t.Helper()
	store := NewBaselineStore(filepath.Join(t.TempDir(), "baseline.db"))
	require.NoError(t, store.Open())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBaselineStore_SetAndLookup(t *testing.T) {
	store := openTestStore(t)

	mod := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(&BaselineEntry{
		Path:       "main.tex",
		Hash:       "abc123",
		Size:       42,
		ModifiedAt: mod,
	}))

	entry := store.Lookup("main.tex")
	require.NotNil(t, entry)
	assert.Equal(t, "main.tex", entry.Path)
	assert.Equal(t, "abc123", entry.Hash)
	assert.Equal(t, int64(42), entry.Size)
	assert.True(t, entry.ModifiedAt.Equal(mod))
}

func TestBaselineStore_LookupMissingIsNil(t *testing.T) {
	store := openTestStore(t)
	assert.Nil(t, store.Lookup("never-seen.tex"))
}

func TestBaselineStore_SetReplaces(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(&BaselineEntry{Path: "a.tex", Hash: "v1", Size: 1, ModifiedAt: time.Now()}))
	require.NoError(t, store.Set(&BaselineEntry{Path: "a.tex", Hash: "v2", Size: 2, ModifiedAt: time.Now()}))

	entry := store.Lookup("a.tex")
	require.NotNil(t, entry)
	assert.Equal(t, "v2", entry.Hash)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBaselineStore_Delete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Set(&BaselineEntry{Path: "a.tex", Hash: "h", Size: 1, ModifiedAt: time.Now()}))
	require.NoError(t, store.Delete("a.tex"))

	assert.Nil(t, store.Lookup("a.tex"))
	require.NoError(t, store.Delete("a.tex"), "deleting an absent path is not an error")
}

func TestBaselineStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "baseline.db")

	store := NewBaselineStore(dbPath)
	require.NoError(t, store.Open())
	require.NoError(t, store.Set(&BaselineEntry{Path: "a.tex", Hash: "h", Size: 1, ModifiedAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened := NewBaselineStore(dbPath)
	require.NoError(t, reopened.Open())
	defer reopened.Close()

	require.NotNil(t, reopened.Lookup("a.tex"))
}

func TestBaselineStore_DoubleOpenRejected(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Open())
}
