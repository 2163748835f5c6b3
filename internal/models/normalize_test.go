package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/wlx/internal/shared"
)

func TestNormalizeRecord(t *testing.T) {
	t.Run("metadata API detail record", func(t *testing.T) {
		raw := map[string]any{
			"Title":      "The Shawshank Redemption",
			"Year":       "1994",
			"Released":   "14 Oct 1994",
			"Runtime":    "142 min",
			"Genre":      "Drama",
			"Director":   "Frank Darabont",
			"Actors":     "Tim Robbins, Morgan Freeman, Bob Gunton",
			"Plot":       "Two imprisoned men bond over a number of years.",
			"Poster":     "N/A",
			"Metascore":  "82",
			"imdbRating": "9.3",
			"imdbVotes":  "2,901,234",
			"imdbID":     "tt0111161",
			"Type":       "movie",
			"Ratings": []any{
				map[string]any{"Source": "Internet Movie Database", "Value": "9.3/10"},
				map[string]any{"Source": "Rotten Tomatoes", "Value": "91%"},
				map[string]any{"Source": "Metacritic", "Value": "82/100"},
			},
		}

		e, err := NormalizeRecord(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if e.ID != "tt0111161" || e.Title != "The Shawshank Redemption" {
			t.Errorf("unexpected identity %q %q", e.ID, e.Title)
		}
		if e.Runtime() != 142 {
			t.Errorf("expected runtime 142, got %d", e.Runtime())
		}
		if e.Rating() != 9.3 {
			t.Errorf("expected rating 9.3, got %v", e.Rating())
		}
		if e.VoteCount == nil || *e.VoteCount != 2901234 {
			t.Errorf("expected vote count 2901234, got %v", e.VoteCount)
		}
		if len(e.Cast) != 3 || e.Cast[1] != "Morgan Freeman" {
			t.Errorf("unexpected cast %v", e.Cast)
		}
		if len(e.Directors) != 1 || e.Directors[0] != "Frank Darabont" {
			t.Errorf("unexpected directors %v", e.Directors)
		}
		if e.Poster != "" {
			t.Errorf("N/A poster should be empty, got %q", e.Poster)
		}
		if e.RTRating == nil || *e.RTRating != "91%" {
			t.Errorf("unexpected rt rating %v", e.RTRating)
		}
		if e.MetacriticRating == nil || *e.MetacriticRating != "82/100" {
			t.Errorf("unexpected metacritic rating %v", e.MetacriticRating)
		}
		if e.ReleaseDate != "14 Oct 1994" {
			t.Errorf("unexpected release date %q", e.ReleaseDate)
		}
		if e.Link != "https://www.imdb.com/title/tt0111161/" {
			t.Errorf("unexpected link %q", e.Link)
		}
		if e.Seen {
			t.Error("seen should default to false")
		}
	})

	t.Run("missing secondary ratings are null", func(t *testing.T) {
		e, err := NormalizeRecord(map[string]any{
			"imdbID":     "tt1",
			"Title":      "Obscure",
			"imdbRating": "N/A",
			"Runtime":    "N/A",
			"imdbVotes":  "N/A",
			"Metascore":  "N/A",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.IMDbRating != nil || e.RTRating != nil || e.MetacriticRating != nil {
			t.Errorf("expected nil ratings, got %v %v %v", e.IMDbRating, e.RTRating, e.MetacriticRating)
		}
		if e.RuntimeMinutes != nil || e.VoteCount != nil {
			t.Errorf("expected nil numeric fields, got %v %v", e.RuntimeMinutes, e.VoteCount)
		}
		if !e.NeedsEnrichment() {
			t.Error("entry without ratings needs enrichment")
		}
	})

	t.Run("exported list record", func(t *testing.T) {
		e, err := NormalizeRecord(map[string]any{
			"id":             "tt2",
			"title":          "Listed",
			"imdbRating":     7.5,
			"runtimeMinutes": 101.0,
			"voteCount":      1234.0,
			"cast":           []any{"A", "B"},
			"directors":      "C, D",
			"seen":           true,
			"addedAt":        "2024-01-02T03:04:05Z",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rating() != 7.5 || e.Runtime() != 101 || *e.VoteCount != 1234 {
			t.Errorf("unexpected numeric fields %+v", e)
		}
		if e.CastText() != "A, B" || e.DirectorText() != "C, D" {
			t.Errorf("unexpected people %q %q", e.CastText(), e.DirectorText())
		}
		if !e.Seen {
			t.Error("seen should be preserved")
		}
	})

	t.Run("display rating fallback", func(t *testing.T) {
		e, err := NormalizeRecord(map[string]any{"id": "tt3", "title": "X", "imdbDisplay": "7.8/10"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Rating() != 7.8 {
			t.Errorf("expected 7.8, got %v", e.Rating())
		}
	})

	t.Run("title without id gets local id", func(t *testing.T) {
		e, err := NormalizeRecord(map[string]any{"title": "Homemade"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(e.ID, "local-") {
			t.Errorf("expected local id, got %q", e.ID)
		}
		if e.Link != "" {
			t.Errorf("local entries have no imdb link, got %q", e.Link)
		}
	})

	t.Run("local id is stable across normalizations", func(t *testing.T) {
		a, _ := NormalizeRecord(map[string]any{"title": "Home Movie", "year": "2001"})
		b, _ := NormalizeRecord(map[string]any{"title": " home movie ", "year": "2001"})
		c, _ := NormalizeRecord(map[string]any{"title": "Home Movie", "year": "2002"})
		if a.ID != b.ID {
			t.Errorf("expected the same id, got %q and %q", a.ID, b.ID)
		}
		if a.ID == c.ID {
			t.Errorf("expected a different id for another year, got %q", c.ID)
		}
	})

	t.Run("rejects record without id and title", func(t *testing.T) {
		_, err := NormalizeRecord(map[string]any{"year": "2001", "title": "N/A"})
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestNormalizeRecords(t *testing.T) {
	tc := []struct {
		name    string
		input   string
		count   int
		wantErr bool
	}{
		{name: "array of objects", input: `[{"id":"tt1","title":"A"},{"imdbID":"tt2","Title":"B"}]`, count: 2},
		{name: "empty array", input: `[]`, count: 0},
		{name: "top-level object", input: `{"id":"tt1","title":"A"}`, wantErr: true},
		{name: "non-object element", input: `[{"id":"tt1","title":"A"}, 42]`, wantErr: true},
		{name: "invalid element rejects batch", input: `[{"id":"tt1","title":"A"}, {"year":"1999"}]`, wantErr: true},
		{name: "not json", input: `id,title`, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := NormalizeRecords([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, shared.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				if entries != nil {
					t.Errorf("expected no entries on failure, got %d", len(entries))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(entries) != tt.count {
				t.Errorf("expected %d entries, got %d", tt.count, len(entries))
			}
		})
	}
}
