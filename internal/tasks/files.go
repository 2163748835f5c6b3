package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/desertthunder/wlx/internal/formatter"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// ImportResult summarizes a file import.
type ImportResult struct {
	Path     string
	Read     int // entries parsed from the file
	Added    int // entries that were not already stored
	Skipped  int // entries dropped as duplicates
	Replaced bool
	Items    []models.Entry
}

// ImportFile reads a JSON array of entries from path and stores it.
//
// By default entries are merged by id: stored entries win and only new ids are
// appended. With replace the stored list is swapped for the file's contents.
// A file that is not an array of entry objects is rejected whole with
// [shared.ErrValidation] and nothing is written.
func (e *WatchlistEngine) ImportFile(ctx context.Context, s *Session, path string, replace bool, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if s.Anonymous() {
		return nil, shared.ErrNotAuthenticated
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	entries, err := models.NormalizeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.sendProgress(progress, importFileUpdate(path, len(entries)))

	op := MergeImport(entries)
	if replace {
		op = ReplaceImport(entries)
	}

	e.sendProgress(progress, commitUpdate(len(entries)))
	res, err := e.Mutate(ctx, s, op)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Path: path, Read: len(entries), Replaced: replace, Items: res.Items}
	if replace {
		result.Added = len(res.Items)
	} else {
		result.Added = len(res.Items) - res.Previous
	}
	result.Skipped = result.Read - result.Added
	return result, nil
}

// ExportOpts configures [WatchlistEngine.ExportFile].
type ExportOpts struct {
	Format     formatter.Format
	Path       string // output file, or directory for Markdown with posters (default: watchlist_{epoch})
	Title      string
	Posters    bool // Markdown only: download poster images
	HTTPClient *http.Client
}

// ExportResult lists the files an export wrote.
type ExportResult struct {
	Files    []string
	Count    int
	Warnings []string
}

// ExportFile writes entries to disk in the requested format.
func (e *WatchlistEngine) ExportFile(ctx context.Context, entries []models.Entry, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.Title == "" {
		opts.Title = "Watchlist"
	}
	if opts.Path == "" {
		opts.Path = fmt.Sprintf("watchlist_%d", e.now().Unix())
		if !(opts.Format == formatter.Markdown && opts.Posters) {
			opts.Path += opts.Format.Extension()
		}
	}

	result := &ExportResult{Count: len(entries)}

	if opts.Format == formatter.Markdown && opts.Posters {
		md, err := formatter.WriteMarkdownExport(entries, opts.Path, formatter.MarkdownExportOpts{
			Title:      opts.Title,
			Posters:    true,
			HTTPClient: opts.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		for _, w := range md.Warnings {
			e.logger.Warn("poster download failed", "detail", w)
		}
		result.Files = md.Files
		result.Warnings = md.Warnings
	} else {
		if err := formatter.WriteExport(opts.Format, opts.Title, entries, opts.Path); err != nil {
			return nil, err
		}
		result.Files = []string{opts.Path}
	}

	e.sendProgress(progress, exportFileUpdate(opts.Path, len(entries)))
	return result, nil
}
