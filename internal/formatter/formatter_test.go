package formatter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	th "github.com/desertthunder/wlx/internal/testing"
)

func sampleEntries() []models.Entry {
	return []models.Entry{
		{
			ID:               "tt0113277",
			Title:            "Heat",
			Year:             "1995",
			Genres:           "Action, Crime, Drama",
			Type:             "movie",
			RuntimeMinutes:   models.Int(170),
			IMDbRating:       models.Float(8.3),
			RTRating:         models.String("88%"),
			MetacriticRating: models.String("76/100"),
			VoteCount:        models.Int(712000),
			Directors:        []string{"Michael Mann"},
			Cast:             []string{"Al Pacino", "Robert De Niro"},
			Plot:             "A group of high-end professional thieves start to feel the heat.",
			Link:             models.IMDbLink("tt0113277"),
			Seen:             true,
		},
		{
			ID:    "local-1",
			Title: "Home Movie",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", JSON},
		{"json", JSON},
		{"CSV", CSV},
		{"md", Markdown},
		{"markdown", Markdown},
		{"text", Text},
		{"txt", Text},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	if Markdown.Extension() != ".md" || JSON.Extension() != ".json" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	entries := sampleEntries()

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(entries)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		back, err := models.NormalizeRecords(data)
		if err != nil {
			t.Fatalf("exported JSON does not import: %v", err)
		}
		if len(back) != 2 || back[0].ID != "tt0113277" || !back[0].Seen {
			t.Errorf("unexpected round trip: %+v", back)
		}
		if back[0].Rating() != 8.3 || *back[0].RTRating != "88%" {
			t.Errorf("ratings lost in round trip: %+v", back[0])
		}
	})

	t.Run("ExportToJSON empty", func(t *testing.T) {
		data, err := ExportToJSON(nil)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(entries)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Title,Year,Type,Genres,Runtime,IMDb,RT,Metacritic") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `tt0113277,Heat,1995,movie,"Action, Crime, Drama",170,8.3,88%,76/100,712000,true`) {
			t.Errorf("CSV missing Heat row, got: %s", output)
		}
		if !strings.Contains(output, "local-1,Home Movie,,,,,,,,,false") {
			t.Errorf("unknown values should be empty cells, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown("My List", entries, map[string]string{"tt0113277": "posters/tt0113277.jpg"})
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# My List",
			"**Entries**: 2",
			"**Seen**: 1",
			"1. [x] [Heat (1995)](https://www.imdb.com/title/tt0113277/) (IMDb 8.3 / RT 88% / MC 76/100)",
			"   - Directed by: Michael Mann",
			"   - ![Heat](posters/tt0113277.jpg)",
			"2. [ ] Home Movie",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("My List", entries)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Watchlist: My List") {
			t.Errorf("Text missing title")
		}
		if !strings.Contains(output, "Entries: 2 (1 seen)") {
			t.Errorf("Text missing counts")
		}
		if !strings.Contains(output, "1. Heat (1995) [seen] - IMDb 8.3") {
			t.Errorf("Text missing Heat line, got:\n%s", output)
		}
		if !strings.Contains(output, "2. Home Movie\n") {
			t.Errorf("Text missing Home Movie line, got:\n%s", output)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(nil, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("status error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(server.Client(), server.URL+"/x.jpg"); !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	entries := sampleEntries()

	t.Run("WriteExport", func(t *testing.T) {
		for _, f := range Formats {
			t.Run(string(f), func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "nested", "watchlist"+f.Extension())
				if err := WriteExport(f, "My List", entries, path); err != nil {
					t.Fatalf("WriteExport failed: %v", err)
				}
				th.AssertFileExists(t, path)
				if content := th.MustReadFile(t, path); !strings.Contains(content, "Heat") {
					t.Errorf("%s export missing entry, got:\n%s", f, content)
				}
			})
		}
	})

	t.Run("WriteExport unknown format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.xml")
		if err := WriteExport(Format("xml"), "x", entries, path); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("without posters", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "export")
			result, err := WriteMarkdownExport(entries, dir, MarkdownExportOpts{Title: "Mine"})
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, result.Directory)
			readme := filepath.Join(dir, "README.md")
			th.AssertFileExists(t, readme)
			if content := th.MustReadFile(t, readme); !strings.Contains(content, "# Mine") {
				t.Errorf("README missing title, got:\n%s", content)
			}
			if result.Posters != 0 || len(result.Files) != 1 {
				t.Errorf("unexpected result %+v", result)
			}
		})

		t.Run("with posters", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/missing.jpg" {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte("jpeg-bytes"))
			}))
			defer server.Close()

			withPosters := sampleEntries()
			withPosters[0].Poster = server.URL + "/heat.jpg"
			withPosters[1].Poster = server.URL + "/missing.jpg"

			dir := t.TempDir()
			result, err := WriteMarkdownExport(withPosters, dir, MarkdownExportOpts{Posters: true, HTTPClient: server.Client()})
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Posters != 1 {
				t.Errorf("expected 1 poster, got %d", result.Posters)
			}
			if len(result.Warnings) != 1 || !strings.HasPrefix(result.Warnings[0], "local-1") {
				t.Errorf("expected one warning for local-1, got %v", result.Warnings)
			}

			poster := filepath.Join(dir, "posters", "tt0113277.jpg")
			th.AssertFileExists(t, poster)
			if th.MustReadFile(t, poster) != "jpeg-bytes" {
				t.Error("poster content mismatch")
			}
			if content := th.MustReadFile(t, filepath.Join(dir, "README.md")); !strings.Contains(content, "posters/tt0113277.jpg") {
				t.Errorf("README should reference poster, got:\n%s", content)
			}
		})
	})
}
