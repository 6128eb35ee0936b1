package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Snapshot file names inside the data directory.
const (
	BooksFile   = "books.json"
	MembersFile = "members.json"
)

// FileStore keeps the catalog and the registry in two snapshot files.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed so the first save succeeds.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir is the directory holding the snapshot files.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Load() (map[int64]*Book, map[int64]*Member, error) {
	booksData, booksErr := os.ReadFile(filepath.Join(s.dir, BooksFile))
	membersData, membersErr := os.ReadFile(filepath.Join(s.dir, MembersFile))
	if errors.Is(booksErr, fs.ErrNotExist) && errors.Is(membersErr, fs.ErrNotExist) {
		return nil, nil, ErrNoSnapshot
	}
	if booksErr != nil {
		return nil, nil, fmt.Errorf("read books: %w", booksErr)
	}
	if membersErr != nil {
		return nil, nil, fmt.Errorf("read members: %w", membersErr)
	}

	books, booksID, err := decodeBooks(booksData)
	if err != nil {
		return nil, nil, err
	}
	members, membersID, err := decodeMembers(membersData)
	if err != nil {
		return nil, nil, err
	}
	// Both files carry the id of the save that wrote them. Different ids mean
	// a save stopped between the two renames.
	if booksID != membersID {
		return nil, nil, fmt.Errorf("%w: books from save %s, members from save %s", ErrCorruptSnapshot, booksID, membersID)
	}
	return books, members, nil
}

func (s *FileStore) Save(books map[int64]*Book, members map[int64]*Member) error {
	id := ulid.Make().String()
	now := time.Now()

	booksData, err := encodeBooks(books, id, now)
	if err != nil {
		return err
	}
	membersData, err := encodeMembers(members, id, now)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, BooksFile), booksData); err != nil {
		return fmt.Errorf("write books: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.dir, MembersFile), membersData); err != nil {
		return fmt.Errorf("write members: %w", err)
	}
	return nil
}

// Close is a no-op; every Save already reached disk.
func (s *FileStore) Close() error { return nil }

// writeFileAtomic writes to a temp file next to path and renames it over path,
// so a crash never leaves a half-written snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
