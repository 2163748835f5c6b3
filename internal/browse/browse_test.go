package browse

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixture() []models.Entry {
	return []models.Entry{
		{
			ID: "tt0111161", Title: "The Shawshank Redemption", Year: "1994", Genres: "Drama", Type: "movie",
			RuntimeMinutes: models.Int(142), IMDbRating: models.Float(9.3),
			Cast: []string{"Tim Robbins", "Morgan Freeman"}, Directors: []string{"Frank Darabont"},
			ReleaseDate: "1994-10-14", AddedAt: "2025-05-20T10:00:00Z",
		},
		{
			ID: "tt0903747", Title: "Breaking Bad", Year: "2008–2013", Genres: "Crime, Drama, Thriller", Type: "series",
			RuntimeMinutes: models.Int(49), IMDbRating: models.Float(9.5), Seen: true,
			Cast: []string{"Bryan Cranston", "Aaron Paul"}, Directors: []string{"Vince Gilligan"},
			ReleaseDate: "2008-01-20", AddedAt: "2024-01-01T00:00:00Z",
		},
		{
			ID: "tt9999999", Title: "Untitled Sequel", Genres: "Action", Type: "movie",
			ReleaseDate: "2027-07-01",
		},
		{
			ID: "tt0110912", Title: "Pulp Fiction", Year: "1994", Genres: "Crime, Drama", Type: "movie",
			RuntimeMinutes: models.Int(154), IMDbRating: models.Float(8.9),
			Cast: []string{"John Travolta", "Uma Thurman"}, Directors: []string{"Quentin Tarantino"},
			ReleaseDate: "not announced",
		},
	}
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestMatches(t *testing.T) {
	entries := fixture()

	t.Run("default filter state matches every entry", func(t *testing.T) {
		var f FilterState
		for _, e := range entries {
			if !Matches(e, f, now) {
				t.Errorf("default filter rejected %s", e.ID)
			}
		}
		if f.Active() {
			t.Error("default filter state should not be active")
		}
	})

	tc := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{name: "search title case-insensitive", filter: FilterState{Search: "PULP"}, want: []string{"tt0110912"}},
		{name: "search cast", filter: FilterState{Search: "freeman"}, want: []string{"tt0111161"}},
		{name: "search director", filter: FilterState{Search: "gilligan"}, want: []string{"tt0903747"}},
		{name: "genre substring", filter: FilterState{Genres: []string{"Crime"}}, want: []string{"tt0903747", "tt0110912"}},
		{name: "genre any of", filter: FilterState{Genres: []string{"Action", "Thriller"}}, want: []string{"tt0903747", "tt9999999"}},
		{name: "type membership", filter: FilterState{Types: []string{"series"}}, want: []string{"tt0903747"}},
		{name: "decade 1990", filter: FilterState{Decade: 1990}, want: []string{"tt0111161", "tt0110912"}},
		{name: "decade uses first year of a range", filter: FilterState{Decade: 2000}, want: []string{"tt0903747"}},
		{name: "min rating treats missing as zero", filter: FilterState{MinRating: 9.0}, want: []string{"tt0111161", "tt0903747"}},
		{name: "released", filter: FilterState{Release: ReleaseReleased}, want: []string{"tt0111161", "tt0903747"}},
		{name: "unreleased includes unparsable dates", filter: FilterState{Release: ReleaseUnreleased}, want: []string{"tt9999999", "tt0110912"}},
		{name: "hide seen", filter: FilterState{HideSeen: true}, want: []string{"tt0111161", "tt9999999", "tt0110912"}},
		{name: "recent only", filter: FilterState{RecentOnly: true}, want: []string{"tt0111161"}},
		{name: "conjunction", filter: FilterState{Genres: []string{"Drama"}, HideSeen: true, MinRating: 9}, want: []string{"tt0111161"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(entries, tt.filter, now))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("decade filter matches exactly one decade", func(t *testing.T) {
		e := models.Entry{ID: "tt1", Title: "A", Year: "1994"}
		for decade := 1900; decade <= 2030; decade += 10 {
			if got := Matches(e, FilterState{Decade: decade}, now); got != (decade == 1990) {
				t.Errorf("decade %d: got %v", decade, got)
			}
		}
	})

	t.Run("missing year never matches a specific decade", func(t *testing.T) {
		e := models.Entry{ID: "tt1", Title: "A", Year: "unknown"}
		if Matches(e, FilterState{Decade: 1990}, now) {
			t.Error("unparsable year matched a decade")
		}
		if !Matches(e, FilterState{}, now) {
			t.Error("unparsable year should pass the default filter")
		}
	})

	t.Run("Clear resets all predicates", func(t *testing.T) {
		f := FilterState{Search: "x", Genres: []string{"Drama"}, Decade: 1990, MinRating: 5, Release: ReleaseReleased, HideSeen: true, RecentOnly: true}
		if !f.Active() {
			t.Fatal("filter should be active")
		}
		f.Clear()
		if f.Active() || !f.Equal(FilterState{}) {
			t.Errorf("expected cleared filter, got %+v", f)
		}
	})

	t.Run("ParseReleaseStatus", func(t *testing.T) {
		if s, err := ParseReleaseStatus(""); err != nil || s != ReleaseAll {
			t.Errorf("empty status: got %q, %v", s, err)
		}
		if _, err := ParseReleaseStatus("soon"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSort(t *testing.T) {
	t.Run("rating descending with missing as zero", func(t *testing.T) {
		entries := []models.Entry{
			{ID: "low", IMDbRating: models.Float(6.2)},
			{ID: "none"},
			{ID: "high", IMDbRating: models.Float(8.5)},
		}
		if err := Sort(entries, SortRating); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(entries); !slices.Equal(got, []string{"high", "low", "none"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("ties keep input order", func(t *testing.T) {
		entries := []models.Entry{
			{ID: "a", IMDbRating: models.Float(7)},
			{ID: "b"},
			{ID: "c", IMDbRating: models.Float(7)},
			{ID: "d"},
		}
		if err := Sort(entries, SortRating); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(entries); !slices.Equal(got, []string{"a", "c", "b", "d"}) {
			t.Errorf("got %v", got)
		}
	})

	tc := []struct {
		mode SortMode
		want []string
	}{
		{SortRuntime, []string{"tt0110912", "tt0111161", "tt0903747", "tt9999999"}},
		{SortTitle, []string{"tt0903747", "tt0110912", "tt0111161", "tt9999999"}},
		{SortRecent, []string{"tt0111161", "tt0903747", "tt9999999", "tt0110912"}},
		{SortNewest, []string{"tt0903747", "tt0111161", "tt0110912", "tt9999999"}},
		{SortYear, []string{"tt0903747", "tt0111161", "tt0110912", "tt9999999"}},
		{SortOldest, []string{"tt9999999", "tt0111161", "tt0110912", "tt0903747"}},
	}
	for _, tt := range tc {
		t.Run(string(tt.mode), func(t *testing.T) {
			entries := fixture()
			if err := Sort(entries, tt.mode); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(entries); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("title collation ignores case and accents", func(t *testing.T) {
		entries := []models.Entry{{ID: "z", Title: "zulu"}, {ID: "e", Title: "Élan"}, {ID: "a", Title: "alpha"}}
		if err := Sort(entries, SortTitle); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ids(entries); !slices.Equal(got, []string{"a", "e", "z"}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if _, err := Comparator("popularity"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := ParseSortMode("Rating"); err != nil {
			t.Errorf("mode names are case-insensitive: %v", err)
		}
	})
}

func TestPaginate(t *testing.T) {
	t.Run("pages reconstruct the list", func(t *testing.T) {
		for n := 0; n <= 23; n++ {
			list := make([]int, n)
			for i := range list {
				list[i] = i
			}
			for _, size := range []int{1, 3, 10, 20, 50} {
				var joined []int
				for page := 1; page <= PageCount(n, size); page++ {
					joined = append(joined, Paginate(list, size, page)...)
				}
				if !slices.Equal(joined, list) {
					t.Fatalf("n=%d size=%d: got %v", n, size, joined)
				}
			}
		}
	})

	t.Run("out of range pages are empty", func(t *testing.T) {
		list := []int{1, 2, 3}
		if got := Paginate(list, 2, 3); len(got) != 0 {
			t.Errorf("expected empty page, got %v", got)
		}
		if got := Paginate(list, 2, 0); len(got) != 0 {
			t.Errorf("expected empty page, got %v", got)
		}
		if got := Paginate(list, 2, 2); !slices.Equal(got, []int{3}) {
			t.Errorf("expected partial last page, got %v", got)
		}
	})

	t.Run("ClampPage", func(t *testing.T) {
		tc := []struct{ page, total, size, want int }{
			{0, 10, 5, 1},
			{3, 10, 5, 2},
			{2, 0, 5, 1},
			{2, 11, 5, 2},
		}
		for _, tt := range tc {
			if got := ClampPage(tt.page, tt.total, tt.size); got != tt.want {
				t.Errorf("ClampPage(%d, %d, %d) = %d, want %d", tt.page, tt.total, tt.size, got, tt.want)
			}
		}
	})
}

func TestView(t *testing.T) {
	many := make([]models.Entry, 45)
	for i := range many {
		many[i] = models.Entry{ID: string(rune('a' + i%26)), Title: "T", Seen: i%2 == 0}
	}

	t.Run("hideSeen with rating sort", func(t *testing.T) {
		entries := []models.Entry{
			{ID: "tt1", Title: "A", IMDbRating: models.Float(7.0)},
			{ID: "tt2", Title: "B", IMDbRating: models.Float(9.0), Seen: true},
		}
		v, err := NewView(20, SortRating)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		v.SetFilter(FilterState{HideSeen: true})
		page := v.Apply(entries, now)
		if got := ids(page.Items); !slices.Equal(got, []string{"tt1"}) {
			t.Errorf("got %v", got)
		}
		if page.Matched != 1 || page.Total != 2 {
			t.Errorf("unexpected counts %d/%d", page.Matched, page.Total)
		}
	})

	t.Run("page size change resets page", func(t *testing.T) {
		v, _ := NewView(10, SortRating)
		v.SetPage(4)
		if got := v.Apply(many, now); got.Number != 4 || len(got.Items) != 10 {
			t.Fatalf("expected page 4 with 10 items, got %d/%d", got.Number, len(got.Items))
		}
		if err := v.SetPageSize(50); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Page() != 1 {
			t.Errorf("expected page 1 after size change, got %d", v.Page())
		}
	})

	t.Run("filter change resets page", func(t *testing.T) {
		v, _ := NewView(10, SortRating)
		v.SetPage(3)
		v.UpdateFilter(func(f *FilterState) { f.HideSeen = true })
		if v.Page() != 1 {
			t.Errorf("expected page 1 after filter change, got %d", v.Page())
		}
		page := v.Apply(many, now)
		if page.Matched != 22 || page.Pages != 3 {
			t.Errorf("expected 22 matches over 3 pages, got %d over %d", page.Matched, page.Pages)
		}
	})

	t.Run("stale page is clamped", func(t *testing.T) {
		v, _ := NewView(20, SortRating)
		v.SetPage(9)
		page := v.Apply(many, now)
		if page.Number != 3 || len(page.Items) != 5 {
			t.Errorf("expected clamped page 3 with 5 items, got %d/%d", page.Number, len(page.Items))
		}
	})

	t.Run("invalid settings", func(t *testing.T) {
		if _, err := NewView(-1, SortRating); err == nil {
			t.Error("expected error for negative page size")
		}
		if _, err := NewView(10, "bogus"); err == nil {
			t.Error("expected error for unknown sort")
		}
	})
}

func TestFacets(t *testing.T) {
	f := CollectFacets(fixture())
	if !slices.Equal(f.Genres, []string{"Action", "Crime", "Drama", "Thriller"}) {
		t.Errorf("unexpected genres %v", f.Genres)
	}
	if !slices.Equal(f.Types, []string{"movie", "series"}) {
		t.Errorf("unexpected types %v", f.Types)
	}
	if !slices.Equal(f.Decades, []int{1990, 2000}) {
		t.Errorf("unexpected decades %v", f.Decades)
	}
}
