package library

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Book is one catalog entry and its issue status.
type Book struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Issued   bool   `json:"issued"`
}

// NewBook returns an available book.
func NewBook(id int64, title, author, category string) *Book {
	return &Book{ID: id, Title: title, Author: author, Category: category}
}

// MarkAsIssued flips the book to issued. The caller must have checked availability.
func (b *Book) MarkAsIssued() { b.Issued = true }

// MarkAsReturned flips the book back to available.
func (b *Book) MarkAsReturned() { b.Issued = false }

// CompareKey is the case-folded title used for sort ordering.
func (b *Book) CompareKey() string { return fold(b.Title) }

// Matches reports whether keyword occurs, ignoring case, in the title,
// author or category. An empty keyword matches every book.
func (b *Book) Matches(keyword string) bool {
	k := fold(keyword)
	return strings.Contains(fold(b.Title), k) ||
		strings.Contains(fold(b.Author), k) ||
		strings.Contains(fold(b.Category), k)
}

// Member is a registered patron and the books currently held.
type Member struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	IssuedBooks []int64 `json:"issued_books"`
}

// NewMember returns a member holding no books.
func NewMember(id int64, name, email string) *Member {
	return &Member{ID: id, Name: name, Email: email, IssuedBooks: []int64{}}
}

// AddIssuedBook appends bookID to the held list. Duplicates are not rejected.
func (m *Member) AddIssuedBook(bookID int64) {
	m.IssuedBooks = append(m.IssuedBooks, bookID)
}

// ReturnIssuedBook removes the first occurrence of bookID; absent ids are ignored.
func (m *Member) ReturnIssuedBook(bookID int64) {
	if i := slices.Index(m.IssuedBooks, bookID); i >= 0 {
		m.IssuedBooks = slices.Delete(m.IssuedBooks, i, i+1)
	}
}

// Holds reports whether bookID is in the held list.
func (m *Member) Holds(bookID int64) bool {
	return slices.Contains(m.IssuedBooks, bookID)
}

func (m *Member) clone() Member {
	c := *m
	c.IssuedBooks = slices.Clone(m.IssuedBooks)
	if c.IssuedBooks == nil {
		c.IssuedBooks = []int64{}
	}
	return c
}

// fold uses full Unicode case folding so "Straße" and "STRASSE" compare equal.
func fold(s string) string {
	return cases.Fold().String(s)
}
