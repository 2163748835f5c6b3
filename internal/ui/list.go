package ui

import (
	"strings"

	"github.com/desertthunder/wlx/internal/models"
)

// entryRow is one line of the watchlist table.
type entryRow struct {
	entry    models.Entry
	cursor   bool
	selected bool
}

func (r entryRow) Title() string { return r.entry.Label() }

func (r entryRow) Description() string {
	parts := make([]string, 0, 3)
	if ratings := r.entry.Ratings(); ratings != "" {
		parts = append(parts, ratings)
	}
	if r.entry.Type != "" {
		parts = append(parts, r.entry.Type)
	}
	if r.entry.Genres != "" {
		parts = append(parts, r.entry.Genres)
	}
	return strings.Join(parts, " • ")
}

// Render draws the row as "> [x] ✓ Title (Year)  ratings • type • genres".
func (r entryRow) Render() string {
	var b strings.Builder

	pointer := "  "
	if r.cursor {
		pointer = styles.cursor.Render("> ")
	}
	b.WriteString(pointer)

	if r.selected {
		b.WriteString(styles.selected.Render("[x] "))
	} else {
		b.WriteString("[ ] ")
	}

	if r.entry.Seen {
		b.WriteString(styles.ok.Render("✓ "))
	} else {
		b.WriteString("  ")
	}

	title := r.Title()
	if r.cursor {
		title = styles.cursor.Render(title)
	}
	b.WriteString(title)

	if desc := r.Description(); desc != "" {
		b.WriteString("  ")
		b.WriteString(styles.dim.Render(desc))
	}
	return b.String()
}

func rows(page []models.Entry, cursor int, sel *models.SelectionSet) []entryRow {
	out := make([]entryRow, len(page))
	for i, e := range page {
		out[i] = entryRow{entry: e, cursor: i == cursor, selected: sel.Has(e.ID)}
	}
	return out
}
