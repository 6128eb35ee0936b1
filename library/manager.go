package library

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"
)

// LibraryManager owns the catalog and the registry. Every mutating call
// persists the full state before returning.
type LibraryManager struct {
	books   map[int64]*Book
	members map[int64]*Member

	store Store
	log   *slog.Logger
}

// Stats summarises the collections for status lines.
type Stats struct {
	Books   int
	Issued  int
	Members int
}

// NewLibraryManager loads the last snapshot from store. Any load failure
// starts with an empty catalog and registry instead of failing.
func NewLibraryManager(store Store, logger *slog.Logger) *LibraryManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	lm := &LibraryManager{store: store, log: logger}

	books, members, err := store.Load()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		logger.Info("no saved library records, starting fresh")
	case err != nil:
		logger.Warn("starting fresh library records", "error", err)
	}
	if err != nil {
		books, members = nil, nil
	}
	if books == nil {
		books = make(map[int64]*Book)
	}
	if members == nil {
		members = make(map[int64]*Member)
	}
	lm.books, lm.members = books, members

	if err == nil {
		logger.Debug("library records loaded", "books", len(books), "members", len(members))
		if err := checkConsistency(books, members); err != nil {
			logger.Warn("loaded library records disagree on held books", "error", err)
		}
	}
	return lm
}

// Close performs a final save and closes the backend.
func (lm *LibraryManager) Close() error {
	return errors.Join(lm.Save(), lm.store.Close())
}

// Save writes the complete state. Failures are logged and returned wrapped in
// ErrPersistence; the in-memory state remains the source of truth.
func (lm *LibraryManager) Save() error {
	if err := lm.store.Save(lm.books, lm.members); err != nil {
		lm.log.Warn("saving library records failed, continuing with in-memory state", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	lm.log.Debug("library records saved", "books", len(lm.books), "members", len(lm.members))
	return nil
}

// ------------------ Catalog ------------------

// AddBook registers a book as available. An existing id is silently replaced.
func (lm *LibraryManager) AddBook(id int64, title, author, category string) error {
	if old, ok := lm.books[id]; ok && old.Issued {
		lm.log.Warn("issued book replaced, its holder still lists it", "book", id, "holders", lm.holdersOf(id))
	}
	lm.books[id] = NewBook(id, title, author, category)
	return lm.Save()
}

// GetBook returns a copy of the book with id.
func (lm *LibraryManager) GetBook(id int64) (Book, error) {
	b, ok := lm.books[id]
	if !ok {
		return Book{}, fmt.Errorf("%w: book %d", ErrNotFound, id)
	}
	return *b, nil
}

// SearchBooks yields every book whose title, author or category contains
// keyword, ignoring case. The sequence can be ranged over more than once; order
// is unspecified.
func (lm *LibraryManager) SearchBooks(keyword string) iter.Seq[Book] {
	keyword = strings.TrimSpace(keyword)
	return func(yield func(Book) bool) {
		for _, b := range lm.books {
			if b.Matches(keyword) && !yield(*b) {
				return
			}
		}
	}
}

// SortBooks returns every book ordered by case-insensitive title. Equal
// titles keep ascending id order so repeated calls agree.
func (lm *LibraryManager) SortBooks() []Book {
	sorted := make([]Book, 0, len(lm.books))
	for _, b := range sortedByID(lm.books) {
		sorted = append(sorted, *b)
	}
	slices.SortStableFunc(sorted, func(a, b Book) int {
		return strings.Compare(a.CompareKey(), b.CompareKey())
	})
	return sorted
}

// ------------------ Registry ------------------

// AddMember registers a member holding no books. An existing id is silently
// replaced; books the old record held stay issued until they are added again.
func (lm *LibraryManager) AddMember(id int64, name, email string) error {
	if old, ok := lm.members[id]; ok && len(old.IssuedBooks) > 0 {
		lm.log.Warn("member replaced while holding books, add those books again to release them",
			"member", id, "books", slices.Clone(old.IssuedBooks))
	}
	lm.members[id] = NewMember(id, name, email)
	return lm.Save()
}

// GetMember returns a copy of the member with id.
func (lm *LibraryManager) GetMember(id int64) (Member, error) {
	m, ok := lm.members[id]
	if !ok {
		return Member{}, fmt.Errorf("%w: member %d", ErrNotFound, id)
	}
	return m.clone(), nil
}

// Members returns copies of every member in ascending id order.
func (lm *LibraryManager) Members() []Member {
	out := make([]Member, 0, len(lm.members))
	for _, m := range sortedByID(lm.members) {
		out = append(out, m.clone())
	}
	return out
}

// Stats counts books, issued books and members.
func (lm *LibraryManager) Stats() Stats {
	s := Stats{Books: len(lm.books), Members: len(lm.members)}
	for _, b := range lm.books {
		if b.Issued {
			s.Issued++
		}
	}
	return s
}

// ------------------ Circulation ------------------

// IssueBook lends bookID to memberID. The state is saved whatever the outcome.
func (lm *LibraryManager) IssueBook(bookID, memberID int64) error {
	err := lm.issue(bookID, memberID)
	return errors.Join(err, lm.Save())
}

func (lm *LibraryManager) issue(bookID, memberID int64) error {
	book, member, err := lm.lookup(bookID, memberID)
	if err != nil {
		return err
	}
	if book.Issued {
		return fmt.Errorf("%w: book %d", ErrAlreadyIssued, bookID)
	}
	book.MarkAsIssued()
	member.AddIssuedBook(bookID)
	lm.log.Debug("book issued", "book", bookID, "member", memberID)
	return nil
}

// ReturnBook takes bookID back from memberID. The state is saved whatever the outcome.
func (lm *LibraryManager) ReturnBook(bookID, memberID int64) error {
	err := lm.giveBack(bookID, memberID)
	return errors.Join(err, lm.Save())
}

func (lm *LibraryManager) giveBack(bookID, memberID int64) error {
	book, member, err := lm.lookup(bookID, memberID)
	if err != nil {
		return err
	}
	if !book.Issued {
		return fmt.Errorf("%w: book %d", ErrNotIssued, bookID)
	}
	if !member.Holds(bookID) {
		return fmt.Errorf("%w: book %d, member %d", ErrNotHeld, bookID, memberID)
	}
	book.MarkAsReturned()
	member.ReturnIssuedBook(bookID)
	lm.log.Debug("book returned", "book", bookID, "member", memberID)
	return nil
}

func (lm *LibraryManager) holdersOf(bookID int64) []int64 {
	var ids []int64
	for _, m := range sortedByID(lm.members) {
		if m.Holds(bookID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (lm *LibraryManager) lookup(bookID, memberID int64) (*Book, *Member, error) {
	book, okBook := lm.books[bookID]
	member, okMember := lm.members[memberID]
	switch {
	case !okBook && !okMember:
		return nil, nil, fmt.Errorf("%w: book %d, member %d", ErrNotFound, bookID, memberID)
	case !okBook:
		return nil, nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
	case !okMember:
		return nil, nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}
	return book, member, nil
}
