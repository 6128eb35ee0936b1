package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreFirstRun(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFileStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.DirExists(t, dir)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	books, members := sampleState()
	require.NoError(t, store.Save(books, members))

	gotBooks, gotMembers, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, books, gotBooks)
	assert.Equal(t, members, gotMembers)
}

func TestFileStoreEmptyState(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(map[int64]*Book{}, map[int64]*Member{}))

	books, members, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, members)
}

func TestFileStoreLeavesOnlySnapshots(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	books, members := sampleState()
	require.NoError(t, store.Save(books, members))
	require.NoError(t, store.Save(books, members))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{BooksFile, MembersFile}, names)
}

func TestFileStoreOneFileMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	books, members := sampleState()
	require.NoError(t, store.Save(books, members))
	require.NoError(t, os.Remove(filepath.Join(dir, MembersFile)))

	_, _, err = store.Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}

func TestFileStoreCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	books, members := sampleState()
	require.NoError(t, store.Save(books, members))
	require.NoError(t, os.WriteFile(filepath.Join(dir, BooksFile), []byte("garbage"), 0o644))

	_, _, err = store.Load()
	require.ErrorIs(t, err, ErrCorruptSnapshot)

	mgr := NewLibraryManager(store, nil)
	assert.Equal(t, Stats{}, mgr.Stats())

	// The next save replaces the unreadable files.
	require.NoError(t, mgr.AddBook(1, "Dune", "Frank Herbert", "SciFi"))
	gotBooks, gotMembers, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, gotBooks, 1)
	assert.Empty(t, gotMembers)
}

func TestFileStoreRejectsFilesFromDifferentSaves(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	books, members := sampleState()
	require.NoError(t, store.Save(books, members))
	oldMembers, err := os.ReadFile(filepath.Join(dir, MembersFile))
	require.NoError(t, err)

	// Ann gives book 1 back; the crash leaves the members file from before.
	books[1].MarkAsReturned()
	members[10].ReturnIssuedBook(1)
	require.NoError(t, store.Save(books, members))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MembersFile), oldMembers, 0o644))

	_, _, err = store.Load()
	require.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.ErrorContains(t, err, "from save")

	mgr := NewLibraryManager(store, nil)
	assert.Equal(t, Stats{}, mgr.Stats())
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0o644))

	books, members := sampleState()
	assert.Error(t, store.Save(books, members))
}
