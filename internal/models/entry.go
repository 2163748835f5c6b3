package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/shared"
)

// RecentWindow is how far back addedAt may be for an entry to count as recently added.
const RecentWindow = 30 * 24 * time.Hour

// Entry is one movie or show in a watchlist.
//
// Numeric fields are pointers: nil means the value is unknown, never a
// placeholder such as "N/A". Cast and directors are lists internally and are
// joined with ", " only when rendered.
type Entry struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Year             string   `json:"year,omitempty"`
	Genres           string   `json:"genres,omitempty"`
	Type             string   `json:"type,omitempty"`
	RuntimeMinutes   *int     `json:"runtimeMinutes,omitempty"`
	IMDbRating       *float64 `json:"imdbRating,omitempty"`
	RTRating         *string  `json:"rtRating,omitempty"`
	MetacriticRating *string  `json:"metacriticRating,omitempty"`
	VoteCount        *int     `json:"voteCount,omitempty"`
	Cast             []string `json:"cast,omitempty"`
	Directors        []string `json:"directors,omitempty"`
	Plot             string   `json:"plot,omitempty"`
	Poster           string   `json:"poster,omitempty"`
	Link             string   `json:"link,omitempty"`
	Seen             bool     `json:"seen"`
	AddedAt          string   `json:"addedAt,omitempty"`
	ReleaseDate      string   `json:"releaseDate,omitempty"`
}

// Candidate is a metadata search hit that has not been added to a list yet.
type Candidate struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   string `json:"year,omitempty"`
	Type   string `json:"type,omitempty"`
	Poster string `json:"poster,omitempty"`
}

// Rating returns the primary rating, or 0 when unknown.
func (e Entry) Rating() float64 {
	if e.IMDbRating == nil {
		return 0
	}
	return *e.IMDbRating
}

// Runtime returns the runtime in minutes, or 0 when unknown.
func (e Entry) Runtime() int {
	if e.RuntimeMinutes == nil {
		return 0
	}
	return *e.RuntimeMinutes
}

// ParsedYear extracts the leading four-digit year, so series ranges like
// "2019–2022" resolve to their first year.
func (e Entry) ParsedYear() (int, bool) {
	s := strings.TrimSpace(e.Year)
	if len(s) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

// Added parses AddedAt.
func (e Entry) Added() (time.Time, bool) {
	return shared.ParseDate(e.AddedAt)
}

// Released reports whether the release date parses and is not after now.
// Entries without a parsable date are unreleased.
func (e Entry) Released(now time.Time) bool {
	t, ok := shared.ParseDate(e.ReleaseDate)
	return ok && !t.After(now)
}

// Recent reports whether the entry was added within [RecentWindow] of now.
func (e Entry) Recent(now time.Time) bool {
	t, ok := e.Added()
	return ok && now.Sub(t) <= RecentWindow
}

// GenreList splits the genre string on commas.
func (e Entry) GenreList() []string {
	return splitList(e.Genres)
}

func (e Entry) CastText() string     { return strings.Join(e.Cast, ", ") }
func (e Entry) DirectorText() string { return strings.Join(e.Directors, ", ") }

// NeedsEnrichment reports whether any of the three ratings is unknown.
func (e Entry) NeedsEnrichment() bool {
	return e.IMDbRating == nil || e.RTRating == nil || e.MetacriticRating == nil
}

// WithSeen returns a copy of e with Seen set.
func (e Entry) WithSeen(seen bool) Entry {
	e.Seen = seen
	return e
}

// Ratings formats all known ratings for display.
func (e Entry) Ratings() string {
	var parts []string
	if e.IMDbRating != nil {
		parts = append(parts, "IMDb "+strconv.FormatFloat(*e.IMDbRating, 'f', 1, 64))
	}
	if e.RTRating != nil {
		parts = append(parts, "RT "+*e.RTRating)
	}
	if e.MetacriticRating != nil {
		parts = append(parts, "MC "+*e.MetacriticRating)
	}
	return strings.Join(parts, " / ")
}

// Label formats the title with its year for lists and logs.
func (e Entry) Label() string {
	if e.Year == "" {
		return e.Title
	}
	return fmt.Sprintf("%s (%s)", e.Title, e.Year)
}

// IMDbLink builds a title URL for IMDb ids.
func IMDbLink(id string) string {
	if !strings.HasPrefix(id, "tt") {
		return ""
	}
	return "https://www.imdb.com/title/" + id + "/"
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func String(v string) *string  { return &v }

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
