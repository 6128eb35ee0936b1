package library

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	fs, err := OpenStore(BackendFile, dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)

	fs, err = OpenStore("", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)

	db, err := OpenStore(BackendSQLite, dir)
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &Database{}, db)
	assert.FileExists(t, filepath.Join(dir, DatabaseFile))

	_, err = OpenStore("postgres", dir)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestCheckConsistency(t *testing.T) {
	books, members := sampleState()
	require.NoError(t, checkConsistency(books, members))

	tests := []struct {
		name   string
		mutate func(map[int64]*Book, map[int64]*Member)
	}{
		{"unknown held book", func(b map[int64]*Book, m map[int64]*Member) {
			m[11].AddIssuedBook(99)
		}},
		{"held book not issued", func(b map[int64]*Book, m map[int64]*Member) {
			m[11].AddIssuedBook(3)
		}},
		{"issued book without holder", func(b map[int64]*Book, m map[int64]*Member) {
			b[3].Issued = true
		}},
		{"issued book held twice", func(b map[int64]*Book, m map[int64]*Member) {
			m[11].AddIssuedBook(1)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			books, members := sampleState()
			tc.mutate(books, members)
			assert.ErrorIs(t, checkConsistency(books, members), ErrInconsistentSnapshot)
		})
	}
}

func TestSortedByID(t *testing.T) {
	got := sortedByID(map[int64]string{3: "c", 1: "a", 2: "b"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, sortedByID(map[int64]string{}))
}
