package library

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/crypto/blake2b"
)

// Snapshot blobs are JSON envelopes around a list of field-value records:
//
//	{"format":"city-library/books","version":1,"id":"01J...","saved_at":"...",
//	 "checksum":"<blake2b-256 of records>","records":[{...},{...}]}
//
// Records tolerate unknown fields; a newer version is refused outright.
const (
	snapshotVersion = 1

	booksFormat   = "city-library/books"
	membersFormat = "city-library/members"
)

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	ID       string          `json:"id"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	Records  json.RawMessage `json:"records"`
}

// Pointer fields tell a missing field apart from a zero value.
type bookRecord struct {
	ID       *int64  `json:"id"`
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Category *string `json:"category"`
	Issued   *bool   `json:"issued"`
}

type memberRecord struct {
	ID          *int64   `json:"id"`
	Name        *string  `json:"name"`
	Email       *string  `json:"email"`
	IssuedBooks *[]int64 `json:"issued_books"`
}

func encodeBooks(books map[int64]*Book, id string, savedAt time.Time) ([]byte, error) {
	return seal(booksFormat, id, savedAt, sortedByID(books))
}

func encodeMembers(members map[int64]*Member, id string, savedAt time.Time) ([]byte, error) {
	list := sortedByID(members)
	for _, m := range list {
		if m.IssuedBooks == nil {
			m.IssuedBooks = []int64{}
		}
	}
	return seal(membersFormat, id, savedAt, list)
}

func seal(format, id string, savedAt time.Time, records any) ([]byte, error) {
	raw, err := snapshotJSON.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode %s records: %w", format, err)
	}
	env := envelope{
		Format:   format,
		Version:  snapshotVersion,
		ID:       id,
		SavedAt:  savedAt.UTC(),
		Checksum: checksum(raw),
		Records:  raw,
	}
	return snapshotJSON.Marshal(env)
}

// open checks the envelope and returns the raw records with the id of the
// save that wrote them.
func open(data []byte, format string) (json.RawMessage, string, error) {
	var env envelope
	if err := snapshotJSON.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, format, err)
	}
	if env.Format != format {
		return nil, "", fmt.Errorf("%w: expected format %q, got %q", ErrCorruptSnapshot, format, env.Format)
	}
	if env.Version < 1 {
		return nil, "", fmt.Errorf("%w: %s: missing version", ErrCorruptSnapshot, format)
	}
	if env.Version > snapshotVersion {
		return nil, "", fmt.Errorf("%w: %s version %d (supported up to %d)", ErrUnsupportedVersion, format, env.Version, snapshotVersion)
	}
	if env.ID == "" {
		return nil, "", fmt.Errorf("%w: %s: missing snapshot id", ErrCorruptSnapshot, format)
	}
	if len(env.Records) == 0 {
		return nil, "", fmt.Errorf("%w: %s: missing records", ErrCorruptSnapshot, format)
	}
	if checksum(env.Records) != env.Checksum {
		return nil, "", fmt.Errorf("%w: %s: checksum mismatch", ErrCorruptSnapshot, format)
	}
	return env.Records, env.ID, nil
}

// decodeBooks returns the book records and the snapshot id of the blob.
func decodeBooks(data []byte) (map[int64]*Book, string, error) {
	raw, id, err := open(data, booksFormat)
	if err != nil {
		return nil, "", err
	}
	var records []bookRecord
	if err := snapshotJSON.Unmarshal(raw, &records); err != nil {
		return nil, "", fmt.Errorf("%w: book records: %v", ErrCorruptSnapshot, err)
	}

	books := make(map[int64]*Book, len(records))
	for i, r := range records {
		switch {
		case r.ID == nil:
			return nil, "", missingField("book", i, "id")
		case r.Title == nil:
			return nil, "", missingField("book", i, "title")
		case r.Author == nil:
			return nil, "", missingField("book", i, "author")
		case r.Category == nil:
			return nil, "", missingField("book", i, "category")
		case r.Issued == nil:
			return nil, "", missingField("book", i, "issued")
		}
		if _, dup := books[*r.ID]; dup {
			return nil, "", fmt.Errorf("%w: duplicate book id %d", ErrCorruptSnapshot, *r.ID)
		}
		books[*r.ID] = &Book{
			ID:       *r.ID,
			Title:    *r.Title,
			Author:   *r.Author,
			Category: *r.Category,
			Issued:   *r.Issued,
		}
	}
	return books, id, nil
}

// decodeMembers returns the member records and the snapshot id of the blob.
func decodeMembers(data []byte) (map[int64]*Member, string, error) {
	raw, id, err := open(data, membersFormat)
	if err != nil {
		return nil, "", err
	}
	var records []memberRecord
	if err := snapshotJSON.Unmarshal(raw, &records); err != nil {
		return nil, "", fmt.Errorf("%w: member records: %v", ErrCorruptSnapshot, err)
	}

	members := make(map[int64]*Member, len(records))
	for i, r := range records {
		switch {
		case r.ID == nil:
			return nil, "", missingField("member", i, "id")
		case r.Name == nil:
			return nil, "", missingField("member", i, "name")
		case r.Email == nil:
			return nil, "", missingField("member", i, "email")
		case r.IssuedBooks == nil:
			return nil, "", missingField("member", i, "issued_books")
		}
		if _, dup := members[*r.ID]; dup {
			return nil, "", fmt.Errorf("%w: duplicate member id %d", ErrCorruptSnapshot, *r.ID)
		}
		m := NewMember(*r.ID, *r.Name, *r.Email)
		m.IssuedBooks = append(m.IssuedBooks, (*r.IssuedBooks)...)
		members[*r.ID] = m
	}
	return members, id, nil
}

func missingField(kind string, index int, field string) error {
	return fmt.Errorf("%w: %s record %d: missing %q", ErrCorruptSnapshot, kind, index, field)
}

// checksum hashes the compacted records so reformatting a file by hand does
// not invalidate it.
func checksum(records []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, records); err != nil {
		buf.Reset()
		buf.Write(records)
	}
	sum := blake2b.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
