package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/term"

	"city-library/library"
)

const banner = "===== City Library Digital Management System ====="

// shell is the numbered menu loop. Prompts are only printed when a person is
// typing, so scripted input produces just the results.
type shell struct {
	sc     *bufio.Scanner
	out    io.Writer
	mgr    *library.LibraryManager
	prompt bool
}

func newShell(in io.Reader, out io.Writer, mgr *library.LibraryManager, prompt bool) *shell {
	return &shell{sc: bufio.NewScanner(in), out: out, mgr: mgr, prompt: prompt}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// run dispatches menu choices until exit or end of input, then performs the
// final save.
func (s *shell) run() error {
	for {
		if s.prompt {
			s.printMenu()
		}
		choice, ok := s.readLine("Enter your choice: ")
		if !ok {
			return s.exit()
		}

		switch choice {
		case "1":
			s.handleAddBook()
		case "2":
			s.handleAddMember()
		case "3":
			s.handleIssueBook()
		case "4":
			s.handleReturnBook()
		case "5":
			s.handleSearchBooks()
		case "6":
			s.handleSortBooks()
		case "7":
			return s.exit()
		case "":
			continue
		default:
			fmt.Fprintln(s.out, "Invalid choice! Try again.")
		}
	}
}

func (s *shell) printMenu() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, banner)
	fmt.Fprintln(s.out, "1. Add Book")
	fmt.Fprintln(s.out, "2. Add Member")
	fmt.Fprintln(s.out, "3. Issue Book")
	fmt.Fprintln(s.out, "4. Return Book")
	fmt.Fprintln(s.out, "5. Search Books")
	fmt.Fprintln(s.out, "6. Sort Books")
	fmt.Fprintln(s.out, "7. Exit")
}

func (s *shell) exit() error {
	if err := s.mgr.Close(); err != nil {
		fmt.Fprintf(s.out, "Exiting... Error saving data: %v\n", err)
		return err
	}
	fmt.Fprintln(s.out, "Exiting... Data saved successfully.")
	return nil
}

// readLine prints prompt (when interactive) and returns the next trimmed line.
// ok is false at end of input.
func (s *shell) readLine(prompt string) (string, bool) {
	if s.prompt {
		fmt.Fprint(s.out, prompt)
	}
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

// readID asks for an integer id until one parses. ok is false only at end of
// input.
func (s *shell) readID(prompt string) (int64, bool) {
	for {
		raw, ok := s.readLine(prompt)
		if !ok {
			return 0, false
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return id, true
		}
		fmt.Fprintf(s.out, "Invalid number: %q\n", raw)
	}
}

// report prints the outcome of a store call. A failed save is reported in
// addition to the outcome because the change itself was applied in memory.
func (s *shell) report(err error, success string) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		fmt.Fprintln(s.out, "Invalid Book or Member ID.")
	case errors.Is(err, library.ErrAlreadyIssued):
		fmt.Fprintln(s.out, "Book already issued!")
	case errors.Is(err, library.ErrNotIssued):
		fmt.Fprintln(s.out, "Book was not issued.")
	case errors.Is(err, library.ErrNotHeld):
		fmt.Fprintln(s.out, "Book is not issued to this member.")
	default:
		fmt.Fprintln(s.out, success)
	}
	if errors.Is(err, library.ErrPersistence) {
		fmt.Fprintln(s.out, "Error saving data: changes are kept in memory for this session.")
	}
}

func (s *shell) handleAddBook() {
	id, ok := s.readID("Enter Book ID: ")
	if !ok {
		return
	}
	title, ok := s.readLine("Enter Title: ")
	if !ok {
		return
	}
	author, ok := s.readLine("Enter Author: ")
	if !ok {
		return
	}
	category, ok := s.readLine("Enter Category: ")
	if !ok {
		return
	}
	s.report(s.mgr.AddBook(id, title, author, category), "Book added successfully!")
}

func (s *shell) handleAddMember() {
	id, ok := s.readID("Enter Member ID: ")
	if !ok {
		return
	}
	name, ok := s.readLine("Enter Name: ")
	if !ok {
		return
	}
	email, ok := s.readLine("Enter Email: ")
	if !ok {
		return
	}
	s.report(s.mgr.AddMember(id, name, email), "Member added successfully!")
}

func (s *shell) handleIssueBook() {
	bookID, ok := s.readID("Enter Book ID to issue: ")
	if !ok {
		return
	}
	memberID, ok := s.readID("Enter Member ID: ")
	if !ok {
		return
	}
	s.report(s.mgr.IssueBook(bookID, memberID), "Book issued successfully!")
}

func (s *shell) handleReturnBook() {
	bookID, ok := s.readID("Enter Book ID to return: ")
	if !ok {
		return
	}
	memberID, ok := s.readID("Enter Member ID: ")
	if !ok {
		return
	}
	s.report(s.mgr.ReturnBook(bookID, memberID), "Book returned successfully!")
}

func (s *shell) handleSearchBooks() {
	keyword, ok := s.readLine("Enter keyword (title/author/category): ")
	if !ok {
		return
	}
	matches := slices.Collect(s.mgr.SearchBooks(keyword))
	if len(matches) == 0 {
		fmt.Fprintln(s.out, "No books found!")
		return
	}
	slices.SortFunc(matches, func(a, b library.Book) int { return compareIDs(a.ID, b.ID) })
	fmt.Fprintf(s.out, "Found %d book(s) matching '%s':\n", len(matches), keyword)
	fmt.Fprintln(s.out, renderBooks(matches))
}

func (s *shell) handleSortBooks() {
	books := s.mgr.SortBooks()
	if len(books) == 0 {
		fmt.Fprintln(s.out, "No books in library.")
		return
	}
	fmt.Fprintln(s.out, "Books sorted by title:")
	fmt.Fprintln(s.out, renderBooks(books))
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
