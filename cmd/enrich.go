package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Enrich fills in missing ratings from the completion service or the metadata provider.
func (r *Runner) Enrich(ctx context.Context, cmd *cli.Command) error {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}

	run := engine.Enrich
	switch source := strings.ToLower(cmd.String("source")); source {
	case "ai", "":
	case "omdb":
		run = engine.EnrichFromMetadata
	default:
		return fmt.Errorf("%w: source %q (want ai or omdb)", shared.ErrInvalidArgument, source)
	}

	r.logger.Info("enriching watchlist", "source", cmd.String("source"), "uid", session.UID)
	progressCh, stop := r.progressPrinter()
	result, err := run(ctx, session, progressCh)
	stop()
	if err != nil {
		return err
	}

	if result.Pending == 0 {
		return r.writePlain("✓ Every entry already has ratings\n")
	}

	r.writePlainln("")
	r.writePlainHeader("Enrichment Complete!")
	r.writePlain("Missing ratings: %d entries\n", result.Pending)
	r.writePlain("Requests: %d\n", result.Chunks)
	r.writePlain("Updated: %d entries\n", result.Updated)
	if len(result.Failed) > 0 {
		r.writePlain("\nLookups failed for %d entries:\n", len(result.Failed))
		for _, id := range result.Failed {
			r.writePlain("  - %s\n", id)
		}
	}
	return nil
}

// Ask sends a natural-language question about the filtered list and prints the matches.
func (r *Runner) Ask(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: question", shared.ErrMissingArgument)
	}

	entries, err := r.filtered(ctx, cmd)
	if err != nil {
		return err
	}
	engine, _, err := r.watchlist(ctx)
	if err != nil {
		return err
	}
	if len(entries) > tasks.AskLimit {
		r.logger.Warn("question only covers the first entries", "sent", tasks.AskLimit, "matched", len(entries))
	}

	matches, err := engine.Ask(ctx, entries, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, cmd.Bool("pretty"))
	}
	if len(matches) == 0 {
		return r.writePlain("Nothing in the list matched %q\n", query)
	}
	for i, e := range matches {
		r.writePlain("%s\n", entryLine(i+1, e))
	}
	return nil
}
