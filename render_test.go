package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"city-library/library"
)

func TestRenderBooks(t *testing.T) {
	out := renderBooks([]library.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Category: "SciFi", Issued: true},
		{ID: 2, Title: "Emma", Author: "Jane Austen", Category: "Classic"},
	})

	for _, want := range []string{"Title", "Author", "Category", "Dune", "Frank Herbert", "Emma", "Yes", "No"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Dune"), strings.Index(out, "Emma"))
}

func TestRenderMembers(t *testing.T) {
	out := renderMembers([]library.Member{
		{ID: 10, Name: "Ann", Email: "a@x.com", IssuedBooks: []int64{2, 1}},
		{ID: 11, Name: "Bob", Email: "b@x.com", IssuedBooks: []int64{}},
	})

	assert.Contains(t, out, "2, 1")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "-")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "Dune", truncateString("Dune", 10))
	assert.Equal(t, "Harry P...", truncateString("Harry Potter", 10))
	assert.Equal(t, "Straß...", truncateString("Straßenbahn", 8))
}
