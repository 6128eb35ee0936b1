package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"city-library/library"
)

var (
	purple = lipgloss.Color("99")

	headerStyle = lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// renderBooks lays books out one per row in the given order.
func renderBooks(books []library.Book) string {
	t := newTable("ID", "Title", "Author", "Category", "Issued")
	for _, b := range books {
		t.Row(
			fmt.Sprintf("%d", b.ID),
			truncateString(b.Title, 40),
			truncateString(b.Author, 30),
			truncateString(b.Category, 20),
			yesNo(b.Issued),
		)
	}
	return t.Render()
}

func renderMembers(members []library.Member) string {
	t := newTable("ID", "Name", "Email", "Issued Books")
	for _, m := range members {
		held := make([]string, 0, len(m.IssuedBooks))
		for _, id := range m.IssuedBooks {
			held = append(held, fmt.Sprintf("%d", id))
		}
		issued := strings.Join(held, ", ")
		if issued == "" {
			issued = "-"
		}
		t.Row(
			fmt.Sprintf("%d", m.ID),
			truncateString(m.Name, 30),
			truncateString(m.Email, 30),
			issued,
		)
	}
	return t.Render()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
