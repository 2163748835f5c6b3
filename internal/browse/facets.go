package browse

import (
	"slices"
	"strings"

	"github.com/desertthunder/wlx/internal/models"
)

// Facets are the distinct values available for the genre, type and decade filters.
type Facets struct {
	Genres  []string `json:"genres"`
	Types   []string `json:"types"`
	Decades []int    `json:"decades"`
}

// CollectFacets gathers all three facets.
func CollectFacets(entries []models.Entry) Facets {
	return Facets{Genres: Genres(entries), Types: Types(entries), Decades: Decades(entries)}
}

// Genres returns the sorted distinct genre names.
func Genres(entries []models.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.GenreList()...)
	}
	return uniqueSorted(out)
}

// Types returns the sorted distinct entry types.
func Types(entries []models.Entry) []string {
	var out []string
	for _, e := range entries {
		if t := strings.TrimSpace(e.Type); t != "" {
			out = append(out, t)
		}
	}
	return uniqueSorted(out)
}

// Decades returns the distinct decades of parsable years, oldest first.
func Decades(entries []models.Entry) []int {
	var out []int
	for _, e := range entries {
		if y, ok := e.ParsedYear(); ok {
			out = append(out, y/10*10)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func uniqueSorted(values []string) []string {
	slices.Sort(values)
	return slices.Compact(values)
}
