// package formatter exports watchlist entries to JSON, CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the supported formats in help order.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat resolves a format name, accepting "md" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return ".json"
	}
}

var csvHeaders = []string{
	"ID", "Title", "Year", "Type", "Genres", "Runtime", "IMDb", "RT", "Metacritic",
	"Votes", "Seen", "AddedAt", "ReleaseDate", "Directors", "Cast", "Link",
}

// ExportToJSON encodes entries as an indented JSON array that [models.NormalizeRecords] reads back.
func ExportToJSON(entries []models.Entry) ([]byte, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := shared.MarshalJSON(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts entries to CSV with one row per entry. Unknown numbers are empty cells.
func ExportToCSV(entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID,
			e.Title,
			e.Year,
			e.Type,
			e.Genres,
			intCell(e.RuntimeMinutes),
			floatCell(e.IMDbRating),
			stringCell(e.RTRating),
			stringCell(e.MetacriticRating),
			intCell(e.VoteCount),
			strconv.FormatBool(e.Seen),
			e.AddedAt,
			e.ReleaseDate,
			e.DirectorText(),
			e.CastText(),
			e.Link,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders entries as a numbered Markdown list under title.
//
// posters maps entry ids to local image paths; entries found there get an image line.
func ExportToMarkdown(title string, entries []models.Entry, posters map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Entries**: %d\n", len(entries))
	fmt.Fprintf(&buf, "**Seen**: %d\n\n", countSeen(entries))

	buf.WriteString("## Watchlist\n\n")
	for i, e := range entries {
		label := e.Label()
		if e.Link != "" {
			label = fmt.Sprintf("[%s](%s)", label, e.Link)
		}
		check := " "
		if e.Seen {
			check = "x"
		}
		fmt.Fprintf(&buf, "%d. [%s] %s", i+1, check, label)
		if r := e.Ratings(); r != "" {
			fmt.Fprintf(&buf, " (%s)", r)
		}
		buf.WriteString("\n")

		if e.Genres != "" {
			fmt.Fprintf(&buf, "   - Genres: %s\n", e.Genres)
		}
		if d := e.DirectorText(); d != "" {
			fmt.Fprintf(&buf, "   - Directed by: %s\n", d)
		}
		if e.Plot != "" {
			fmt.Fprintf(&buf, "   - %s\n", e.Plot)
		}
		if p, ok := posters[e.ID]; ok {
			fmt.Fprintf(&buf, "   - ![%s](%s)\n", e.Title, p)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts entries to a plain numbered list.
func ExportToText(title string, entries []models.Entry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Watchlist: %s\n", title)
	fmt.Fprintf(&buf, "Entries: %d (%d seen)\n\n", len(entries), countSeen(entries))

	for i, e := range entries {
		mark := ""
		if e.Seen {
			mark = " [seen]"
		}
		line := fmt.Sprintf("%d. %s%s", i+1, e.Label(), mark)
		if r := e.Ratings(); r != "" {
			line += " - " + r
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// Export renders entries in format f.
func Export(f Format, title string, entries []models.Entry) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(entries)
	case Markdown:
		return ExportToMarkdown(title, entries, nil)
	case Text:
		return ExportToText(title, entries)
	case JSON:
		return ExportToJSON(entries)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
}

// WriteExport renders entries in format f to path, creating parent directories.
func WriteExport(f Format, title string, entries []models.Entry, path string) error {
	data, err := Export(f, title, entries)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", shared.ErrNetwork, resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
	Warnings  []string
}

// MarkdownExportOpts configures [WriteMarkdownExport].
type MarkdownExportOpts struct {
	Title      string
	Posters    bool         // download poster images next to the README
	HTTPClient *http.Client // used for poster downloads
}

// WriteMarkdownExport exports entries to {dir}/README.md and, when requested,
// downloads posters into {dir}/posters/{id}.jpg. Poster failures become
// warnings rather than errors.
func WriteMarkdownExport(entries []models.Entry, outputDir string, opts MarkdownExportOpts) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "watchlist"
	}
	if opts.Title == "" {
		opts.Title = "Watchlist"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}

	posters := map[string]string{}
	if opts.Posters {
		posterDir := filepath.Join(outputDir, "posters")
		if err := os.MkdirAll(posterDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create poster directory: %w", err)
		}

		for _, e := range entries {
			if e.Poster == "" {
				continue
			}
			data, err := DownloadImage(opts.HTTPClient, e.Poster)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", e.ID, err))
				continue
			}
			name := safeFilename(e.ID) + ".jpg"
			if err := os.WriteFile(filepath.Join(posterDir, name), data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: failed to save poster: %v", e.ID, err))
				continue
			}
			posters[e.ID] = "posters/" + name
			result.Files = append(result.Files, filepath.Join(posterDir, name))
			result.Posters++
		}
	}

	mdData, err := ExportToMarkdown(opts.Title, entries, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

func countSeen(entries []models.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Seen {
			n++
		}
	}
	return n
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func stringCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// safeFilename keeps letters, digits, dash and underscore.
func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
