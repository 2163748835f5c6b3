package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/browse"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/urfave/cli/v3"
)

// filterFromFlags builds a [browse.FilterState] from the shared filter flags.
func filterFromFlags(cmd *cli.Command) (browse.FilterState, error) {
	release, err := browse.ParseReleaseStatus(cmd.String("release"))
	if err != nil {
		return browse.FilterState{}, err
	}

	decade := cmd.Int("decade")
	if decade < 0 || decade%10 != 0 {
		return browse.FilterState{}, fmt.Errorf("%w: decade %d must be a year ending in 0", shared.ErrInvalidArgument, decade)
	}
	minRating := cmd.Float("min-rating")
	if minRating < 0 || minRating > 10 {
		return browse.FilterState{}, fmt.Errorf("%w: min-rating %.1f must be between 0 and 10", shared.ErrInvalidArgument, minRating)
	}

	return browse.FilterState{
		Search:     cmd.String("search"),
		Genres:     cmd.StringSlice("genre"),
		Types:      cmd.StringSlice("type"),
		Decade:     decade,
		MinRating:  minRating,
		Release:    release,
		HideSeen:   cmd.Bool("hide-seen"),
		RecentOnly: cmd.Bool("recent"),
	}, nil
}

// configView builds an unfiltered [browse.View] from the [browse] section of the config.
func (r *Runner) configView() (*browse.View, error) {
	mode, err := browse.ParseSortMode(r.cfg().Browse.Sort)
	if err != nil {
		return nil, err
	}
	size := r.cfg().Browse.PageSize
	if size <= 0 {
		size = browse.DefaultPageSize
	}
	return browse.NewView(size, mode)
}

// viewFromFlags builds a [browse.View] from flags, falling back to the config.
func (r *Runner) viewFromFlags(cmd *cli.Command) (*browse.View, error) {
	view, err := r.configView()
	if err != nil {
		return nil, err
	}

	if sort := cmd.String("sort"); sort != "" {
		mode, err := browse.ParseSortMode(sort)
		if err != nil {
			return nil, err
		}
		if err := view.SetSort(mode); err != nil {
			return nil, err
		}
	}
	if cmd.IsSet("page-size") {
		if err := view.SetPageSize(cmd.Int("page-size")); err != nil {
			return nil, err
		}
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	view.SetFilter(filter)
	return view, nil
}

// filtered loads the list and returns every entry the flags select, in sort order.
func (r *Runner) filtered(ctx context.Context, cmd *cli.Command) ([]models.Entry, error) {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return nil, err
	}
	items, err := engine.Load(ctx, session)
	if err != nil {
		return nil, err
	}

	view, err := r.viewFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	if err := view.SetPageSize(max(len(items), 1)); err != nil {
		return nil, err
	}
	return view.Apply(items, time.Now()).Items, nil
}

// List prints one page of the filtered, sorted list.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}
	view, err := r.viewFromFlags(cmd)
	if err != nil {
		return err
	}
	view.SetPage(cmd.Int("page"))

	r.logger.Debug("loading watchlist", "uid", session.UID, "anonymous", session.Anonymous())
	items, err := engine.Load(ctx, session)
	if err != nil {
		return err
	}

	page := view.Apply(items, time.Now())
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	if session.Anonymous() {
		r.writePlain("Showing the sample list. Sign in with `wlx auth login` to see your own.\n\n")
	}
	if len(page.Items) == 0 {
		return r.writePlain("No entries match.\n")
	}

	offset := (page.Number - 1) * page.Size
	for i, e := range page.Items {
		r.writePlain("%s\n", entryLine(offset+i+1, e))
	}
	return r.writePlainln("Page %d/%d · %d of %d entries · sorted by %s",
		page.Number, page.Pages, page.Matched, page.Total, view.Sort().String())
}

// Facets prints the genres, types and decades present in the list.
func (r *Runner) Facets(ctx context.Context, cmd *cli.Command) error {
	engine, session, err := r.watchlist(ctx)
	if err != nil {
		return err
	}
	items, err := engine.Load(ctx, session)
	if err != nil {
		return err
	}

	facets := browse.CollectFacets(items)
	if cmd.Bool("json") {
		return r.writeJSON(facets, cmd.Bool("pretty"))
	}

	decades := make([]string, len(facets.Decades))
	for i, d := range facets.Decades {
		decades[i] = fmt.Sprintf("%ds", d)
	}
	r.writePlain("Genres:  %s\n", strings.Join(facets.Genres, ", "))
	r.writePlain("Types:   %s\n", strings.Join(facets.Types, ", "))
	return r.writePlain("Decades: %s\n", strings.Join(decades, ", "))
}

// entryLine formats an entry as "  3. [x] Title (Year)  ratings · genres  (id)".
func entryLine(n int, e models.Entry) string {
	seen := "[ ]"
	if e.Seen {
		seen = "[x]"
	}

	line := fmt.Sprintf("%3d. %s %s", n, seen, e.Label())
	var details []string
	if ratings := e.Ratings(); ratings != "" {
		details = append(details, ratings)
	}
	if e.Genres != "" {
		details = append(details, e.Genres)
	}
	if len(details) > 0 {
		line += "  " + strings.Join(details, " · ")
	}
	return line + "  (" + e.ID + ")"
}
