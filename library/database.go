package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Database is the sqlite snapshot backend. Every Save rewrites the books,
// members and held-book tables inside one transaction.
type Database struct {
	db *sql.DB

	addBookStmt   *sql.Stmt
	addMemberStmt *sql.Stmt
	addHeldStmt   *sql.Stmt
}

// NewDatabase opens the sqlite file at path, creating it and its directory on
// first use, brings the schema up to date and prepares the Save statements.
func NewDatabase(path string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	d := &Database{db: db}
	if err := d.prepareStatements(); err != nil {
		d.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}
	return d, nil
}

// Close finalizes the Save statements, then the connection pool.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.addBookStmt, d.addMemberStmt, d.addHeldStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current > schemaVersion {
		return fmt.Errorf("%w: database schema %d (supported up to %d)", ErrUnsupportedVersion, current, schemaVersion)
	}
	if current == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            category TEXT NOT NULL,
            issued BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		// position keeps each member's held list in issue order.
		`CREATE TABLE IF NOT EXISTS member_books (
            member_id INTEGER NOT NULL REFERENCES members(id),
            position INTEGER NOT NULL,
            book_id INTEGER NOT NULL REFERENCES books(id),
            PRIMARY KEY (member_id, position)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if err := setMeta(tx, "schema_version", fmt.Sprint(schemaVersion)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

func setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, key, value)
	return err
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(id,title,author,category,issued) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Prepare(`INSERT INTO members(id,name,email) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.addHeldStmt, err = d.db.Prepare(`INSERT INTO member_books(member_id,position,book_id) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// Save replaces every stored row with the given state.
func (d *Database) Save(books map[int64]*Book, members map[int64]*Member) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM member_books`, `DELETE FROM members`, `DELETE FROM books`} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("clear tables: %w", err)
		}
	}

	addBook := tx.Stmt(d.addBookStmt)
	for _, b := range sortedByID(books) {
		if _, err := addBook.Exec(b.ID, b.Title, b.Author, b.Category, b.Issued); err != nil {
			return fmt.Errorf("save book %d: %w", b.ID, err)
		}
	}

	addMember := tx.Stmt(d.addMemberStmt)
	addHeld := tx.Stmt(d.addHeldStmt)
	for _, m := range sortedByID(members) {
		if _, err := addMember.Exec(m.ID, m.Name, m.Email); err != nil {
			return fmt.Errorf("save member %d: %w", m.ID, err)
		}
		for pos, bookID := range m.IssuedBooks {
			if _, err := addHeld.Exec(m.ID, pos, bookID); err != nil {
				return fmt.Errorf("save held book %d for member %d: %w", bookID, m.ID, err)
			}
		}
	}

	if err := setMeta(tx, "snapshot_id", ulid.Make().String()); err != nil {
		return err
	}
	if err := setMeta(tx, "saved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load reads the last saved state. It returns ErrNoSnapshot if Save never ran.
func (d *Database) Load() (map[int64]*Book, map[int64]*Member, error) {
	var snapshotID string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key='snapshot_id'`).Scan(&snapshotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot id: %w", err)
	}

	books, err := d.loadBooks()
	if err != nil {
		return nil, nil, err
	}
	members, err := d.loadMembers()
	if err != nil {
		return nil, nil, err
	}
	return books, members, nil
}

func (d *Database) loadBooks() (map[int64]*Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,category,issued FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	defer rows.Close()

	books := make(map[int64]*Book)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Category, &b.Issued); err != nil {
			return nil, fmt.Errorf("%w: book row: %v", ErrCorruptSnapshot, err)
		}
		books[b.ID] = &b
	}
	return books, rows.Err()
}

func (d *Database) loadMembers() (map[int64]*Member, error) {
	rows, err := d.db.Query(`SELECT id,name,email FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	members := make(map[int64]*Member)
	for rows.Next() {
		var id int64
		var name, email string
		if err := rows.Scan(&id, &name, &email); err != nil {
			return nil, fmt.Errorf("%w: member row: %v", ErrCorruptSnapshot, err)
		}
		members[id] = NewMember(id, name, email)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	held, err := d.db.Query(`SELECT member_id, book_id FROM member_books ORDER BY member_id, position`)
	if err != nil {
		return nil, fmt.Errorf("load held books: %w", err)
	}
	defer held.Close()

	for held.Next() {
		var memberID, bookID int64
		if err := held.Scan(&memberID, &bookID); err != nil {
			return nil, fmt.Errorf("%w: held book row: %v", ErrCorruptSnapshot, err)
		}
		m, ok := members[memberID]
		if !ok {
			return nil, fmt.Errorf("%w: held book %d for unknown member %d", ErrCorruptSnapshot, bookID, memberID)
		}
		m.AddIssuedBook(bookID)
	}
	return members, held.Err()
}
