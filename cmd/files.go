package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/wlx/internal/formatter"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// progressPrinter prints updates from the returned channel until stop is called.
func (r *Runner) progressPrinter() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadList, tasks.ImportFile:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.EnrichChunk, tasks.LookupEntry:
				r.writePlain("   %s\n", update.Message)
			case tasks.Commit:
				r.writePlain("\n💾 %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// Import reads a JSON array of entries into the list, merging by id unless --replace is set.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("importing watchlist", "path", path, "replace", cmd.Bool("replace"))
	progressCh, stop := r.progressPrinter()
	result, err := engine.ImportFile(ctx, session, path, cmd.Bool("replace"), progressCh)
	stop()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Import complete")
	if result.Replaced {
		r.writePlain("Replaced the list with %d entries\n", len(result.Items))
	} else {
		r.writePlain("Read %d, added %d, skipped %d already in the list\n", result.Read, result.Added, result.Skipped)
	}
	return r.writePlain("The list now has %d entries\n", len(result.Items))
}

// Export writes the list, narrowed by the filter flags, to a file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("posters") && format != formatter.Markdown {
		return fmt.Errorf("%w: --posters requires --format markdown", shared.ErrInvalidArgument)
	}

	entries, err := r.filtered(ctx, cmd)
	if err != nil {
		return err
	}
	engine, _, err := r.watchlist(ctx)
	if err != nil {
		return err
	}

	progressCh, stop := r.progressPrinter()
	result, err := engine.ExportFile(ctx, entries, tasks.ExportOpts{
		Format:     format,
		Path:       cmd.String("output"),
		Title:      cmd.String("title"),
		Posters:    cmd.Bool("posters"),
		HTTPClient: r.httpClient,
	}, progressCh)
	stop()
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		r.writePlain("⚠ %s\n", w)
	}
	if len(result.Files) > 1 {
		r.writePlain("Wrote %d files\n", len(result.Files))
	}
	return nil
}
