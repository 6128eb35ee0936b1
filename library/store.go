package library

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
)

// Store persists the catalog and the registry as two full snapshots.
// Save always rewrites everything; there are no incremental writes.
type Store interface {
	Load() (map[int64]*Book, map[int64]*Member, error)
	Save(books map[int64]*Book, members map[int64]*Member) error
	Close() error
}

// Backend names accepted by OpenStore.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DatabaseFile is the sqlite file name inside the data directory.
const DatabaseFile = "library.db"

// OpenStore opens the named backend rooted at dataDir.
func OpenStore(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewDatabase(filepath.Join(dataDir, DatabaseFile))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// checkConsistency enforces the cross-entity invariant: every held id is an
// issued book, and every issued book is held exactly once.
func checkConsistency(books map[int64]*Book, members map[int64]*Member) error {
	holders := make(map[int64]int, len(books))
	for _, m := range members {
		for _, id := range m.IssuedBooks {
			b, ok := books[id]
			if !ok {
				return fmt.Errorf("%w: member %d holds unknown book %d", ErrInconsistentSnapshot, m.ID, id)
			}
			if !b.Issued {
				return fmt.Errorf("%w: member %d holds book %d which is not issued", ErrInconsistentSnapshot, m.ID, id)
			}
			holders[id]++
		}
	}
	for id, b := range books {
		if b.Issued && holders[id] != 1 {
			return fmt.Errorf("%w: issued book %d has %d holders", ErrInconsistentSnapshot, id, holders[id])
		}
	}
	return nil
}

// sortedByID returns the map values in ascending key order so saves are deterministic.
func sortedByID[V any](m map[int64]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
