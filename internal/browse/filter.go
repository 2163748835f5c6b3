package browse

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// ReleaseStatus selects entries by whether they have been released.
type ReleaseStatus string

const (
	ReleaseAll        ReleaseStatus = "all"
	ReleaseReleased   ReleaseStatus = "released"
	ReleaseUnreleased ReleaseStatus = "unreleased"
)

// ParseReleaseStatus accepts all, released or unreleased. An empty string is all.
func ParseReleaseStatus(s string) (ReleaseStatus, error) {
	switch ReleaseStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", ReleaseAll:
		return ReleaseAll, nil
	case ReleaseReleased:
		return ReleaseReleased, nil
	case ReleaseUnreleased:
		return ReleaseUnreleased, nil
	}
	return "", fmt.Errorf("%w: release status %q (want all, released or unreleased)", shared.ErrInvalidArgument, s)
}

// FilterState is a snapshot of every filter predicate. The zero value matches everything.
type FilterState struct {
	Search     string
	Genres     []string
	Types      []string
	Decade     int     // 0 disables
	MinRating  float64 // 0 disables
	Release    ReleaseStatus
	HideSeen   bool
	RecentOnly bool
}

// Clear resets every predicate.
func (f *FilterState) Clear() {
	*f = FilterState{}
}

// Active reports whether any predicate narrows the list.
func (f FilterState) Active() bool {
	return strings.TrimSpace(f.Search) != "" || len(f.Genres) > 0 || len(f.Types) > 0 ||
		f.Decade != 0 || f.MinRating != 0 || f.releaseStatus() != ReleaseAll || f.HideSeen || f.RecentOnly
}

// Equal compares two states field by field.
func (f FilterState) Equal(o FilterState) bool {
	return f.Search == o.Search && slices.Equal(f.Genres, o.Genres) && slices.Equal(f.Types, o.Types) &&
		f.Decade == o.Decade && f.MinRating == o.MinRating && f.releaseStatus() == o.releaseStatus() &&
		f.HideSeen == o.HideSeen && f.RecentOnly == o.RecentOnly
}

func (f FilterState) releaseStatus() ReleaseStatus {
	if f.Release == "" {
		return ReleaseAll
	}
	return f.Release
}

// Matches reports whether e passes every predicate in f.
func Matches(e models.Entry, f FilterState, now time.Time) bool {
	return matchSearch(e, f.Search) &&
		matchGenres(e, f.Genres) &&
		matchTypes(e, f.Types) &&
		matchDecade(e, f.Decade) &&
		(f.MinRating == 0 || e.Rating() >= f.MinRating) &&
		matchRelease(e, f.releaseStatus(), now) &&
		(!f.HideSeen || !e.Seen) &&
		(!f.RecentOnly || e.Recent(now))
}

// Filter returns the entries matching f in their original order.
func Filter(entries []models.Entry, f FilterState, now time.Time) []models.Entry {
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, f, now) {
			out = append(out, e)
		}
	}
	return out
}

func matchSearch(e models.Entry, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.CastText()), q) ||
		strings.Contains(strings.ToLower(e.DirectorText()), q)
}

// matchGenres uses substring containment against the stored genre string.
func matchGenres(e models.Entry, genres []string) bool {
	if len(genres) == 0 {
		return true
	}
	stored := strings.ToLower(e.Genres)
	for _, g := range genres {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" && strings.Contains(stored, g) {
			return true
		}
	}
	return false
}

func matchTypes(e models.Entry, types []string) bool {
	if len(types) == 0 {
		return true
	}
	return slices.ContainsFunc(types, func(t string) bool { return strings.EqualFold(t, e.Type) })
}

// matchDecade never matches a specific decade when the year is missing or unparsable.
func matchDecade(e models.Entry, decade int) bool {
	if decade == 0 {
		return true
	}
	y, ok := e.ParsedYear()
	return ok && y/10*10 == decade
}

func matchRelease(e models.Entry, status ReleaseStatus, now time.Time) bool {
	switch status {
	case ReleaseReleased:
		return e.Released(now)
	case ReleaseUnreleased:
		return !e.Released(now)
	default:
		return true
	}
}
