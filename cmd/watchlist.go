package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// find loads the list and returns the entry with id or [shared.ErrEntryNotFound].
func (r *Runner) find(ctx context.Context, id string) (*models.Entry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return nil, err
	}
	items, err := engine.Load(ctx, session)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(items, func(e models.Entry) bool { return e.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEntryNotFound, id)
	}
	return &items[i], nil
}

// mutate runs op for the configured session, reporting anonymous no-ops.
func (r *Runner) mutate(ctx context.Context, op tasks.Op) (*tasks.MutationResult, error) {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return nil, err
	}
	result, err := engine.Mutate(ctx, session, op)
	if err != nil {
		return nil, err
	}
	if !result.Written && session.Anonymous() {
		r.writePlain("⚠ Not signed in: the sample list is read-only. Run `wlx auth login` first.\n")
	}
	return result, nil
}

// ToggleSeen flips the seen flag of one entry.
func (r *Runner) ToggleSeen(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.find(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	result, err := r.mutate(ctx, tasks.ToggleSeen(entry.ID))
	if err != nil || !result.Written {
		return err
	}

	state := "seen"
	if entry.Seen {
		state = "unseen"
	}
	return r.writePlain("✓ %s marked %s\n", entry.Label(), state)
}

// Remove deletes one entry.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.find(ctx, cmd.StringArg("id"))
	if err != nil {
		return err
	}

	result, err := r.mutate(ctx, tasks.Remove(entry.ID))
	if err != nil || !result.Written {
		return err
	}
	return r.writePlain("✓ Removed %s (%d entries left)\n", entry.Label(), len(result.Items))
}

func selectionFromArgs(cmd *cli.Command) (*models.SelectionSet, error) {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one id", shared.ErrMissingArgument)
	}
	return models.NewSelectionSet(ids...), nil
}

// BulkSeen marks every id given as seen, or unseen with --unseen.
func (r *Runner) BulkSeen(ctx context.Context, cmd *cli.Command) error {
	sel, err := selectionFromArgs(cmd)
	if err != nil {
		return err
	}
	seen := !cmd.Bool("unseen")
	count := sel.Len()

	result, err := r.mutate(ctx, tasks.SetSeen(sel, seen))
	if err != nil || !result.Written {
		return err
	}

	state := "seen"
	if !seen {
		state = "unseen"
	}
	return r.writePlain("✓ Marked %d entries %s\n", count, state)
}

// BulkRemove deletes every id given.
func (r *Runner) BulkRemove(ctx context.Context, cmd *cli.Command) error {
	sel, err := selectionFromArgs(cmd)
	if err != nil {
		return err
	}

	result, err := r.mutate(ctx, tasks.RemoveAll(sel))
	if err != nil || !result.Written {
		return err
	}
	return r.writePlain("✓ Removed %d entries (%d left)\n", result.Previous-len(result.Items), len(result.Items))
}

// Search lists metadata candidates for a title.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	engine, _, err := r.watchlist(ctx)
	if err != nil {
		return err
	}

	title := strings.Join(cmd.Args().Slice(), " ")
	candidates, err := engine.Search(ctx, title)
	if err != nil {
		return err
	}
	if limit := cmd.Int("limit"); limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, cmd.Bool("pretty"))
	}
	if len(candidates) == 0 {
		return r.writePlain("No results for %q\n", title)
	}
	for i, c := range candidates {
		r.writePlain("%3d. %s (%s) %s  [%s]\n", i+1, c.Title, c.Year, c.Type, c.ID)
	}
	return r.writePlainln("Add one with: wlx add <id>")
}

// Add looks an id up and appends it to the list.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}

	entry, err := engine.AddByID(ctx, session, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s\n", entry.Label())
}
