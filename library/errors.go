package library

import "errors"

// Outcomes of store operations. None of them is fatal: the shell reports
// them and keeps running.
var (
	// ErrNotFound is returned when a book or member id is not registered.
	ErrNotFound = errors.New("invalid book or member id")

	// ErrAlreadyIssued is returned when issuing a book that is already out.
	ErrAlreadyIssued = errors.New("book already issued")

	// ErrNotIssued is returned when returning a book that is on the shelf.
	ErrNotIssued = errors.New("book was not issued")

	// ErrNotHeld is returned when a member returns a book issued to someone else.
	ErrNotHeld = errors.New("book is not held by this member")

	// ErrPersistence wraps a failed snapshot write. In-memory state stays authoritative.
	ErrPersistence = errors.New("saving library records failed")
)

// Load failures. NewLibraryManager absorbs all of them and starts with an
// empty catalog and registry.
var (
	// ErrNoSnapshot is returned when nothing was ever saved.
	ErrNoSnapshot = errors.New("no saved library records")

	// ErrCorruptSnapshot is returned when a blob fails format, checksum or record validation.
	ErrCorruptSnapshot = errors.New("corrupt library snapshot")

	// ErrUnsupportedVersion is returned when a blob was written by a newer format version.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// ErrInconsistentSnapshot reports books and members that disagree on who
// holds what. It is logged on load, never used to discard data.
var ErrInconsistentSnapshot = errors.New("inconsistent library snapshot")
