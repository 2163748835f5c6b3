package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wlx/internal/formatter"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/repositories"
	"github.com/desertthunder/wlx/internal/shared"
	th "github.com/desertthunder/wlx/internal/testing"
)

// countingStore wraps a store, counting writes and optionally failing them.
type countingStore struct {
	repositories.Store
	sets    int
	failSet error
}

func (c *countingStore) Set(ctx context.Context, key string, fields repositories.Document, merge bool) error {
	if c.failSet != nil {
		return c.failSet
	}
	c.sets++
	return c.Store.Set(ctx, key, fields, merge)
}

type fixture struct {
	ctx     context.Context
	store   *countingStore
	docs    *repositories.DocumentStore
	engine  *WatchlistEngine
	session *Session
	ai      *th.MockCompleter
	meta    *th.MockMetadata
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := shared.OpenDatabase(ctx, shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs := repositories.NewDocumentStore(db, repositories.CollectionWatchlists)
	f := &fixture{
		ctx:     ctx,
		store:   &countingStore{Store: docs},
		docs:    docs,
		session: NewSession(repositories.Owner{UID: "u1", Name: "Viewer", Email: "viewer@example.com"}),
		ai:      &th.MockCompleter{},
		meta:    &th.MockMetadata{Entries: map[string]models.Entry{}},
	}
	f.engine = NewWatchlistEngine(EngineOpts{
		Store:     f.store,
		Completer: f.ai,
		Metadata:  f.meta,
		Logger:    log.New(io.Discard),
	})
	f.engine.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// seed writes items directly, bypassing the write counter.
func (f *fixture) seed(t *testing.T, items ...models.Entry) {
	t.Helper()
	doc := repositories.Document{}
	if err := doc.Put(repositories.FieldItems, items); err != nil {
		t.Fatalf("failed to encode items: %v", err)
	}
	if err := f.docs.Set(f.ctx, f.session.UID, doc, false); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func (f *fixture) stored(t *testing.T) []models.Entry {
	t.Helper()
	doc, err := f.docs.Get(f.ctx, f.session.UID)
	if err != nil {
		t.Fatalf("failed to read store: %v", err)
	}
	items, err := doc.Items()
	if err != nil {
		t.Fatalf("failed to decode items: %v", err)
	}
	return items
}

func ids(entries []models.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func twoEntries() []models.Entry {
	return []models.Entry{
		{ID: "tt1", Title: "A", IMDbRating: models.Float(7.0), Seen: false},
		{ID: "tt2", Title: "B", IMDbRating: models.Float(9.0), Seen: true},
	}
}

func TestOps(t *testing.T) {
	t.Run("ToggleSeen is an involution", func(t *testing.T) {
		in := twoEntries()
		once, _ := ToggleSeen("tt1").Transform(in)
		twice, _ := ToggleSeen("tt1").Transform(once)

		if !once[0].Seen {
			t.Error("first toggle should mark seen")
		}
		if twice[0].Seen != in[0].Seen || twice[1].Seen != in[1].Seen {
			t.Errorf("double toggle changed state: %+v", twice)
		}
		if in[0].Seen {
			t.Error("transform modified its input")
		}
	})

	t.Run("remove", func(t *testing.T) {
		in := twoEntries()
		out, _ := Remove("tt1").Transform(in)
		if !slices.Equal(ids(out), []string{"tt2"}) {
			t.Errorf("got %v", ids(out))
		}
		if len(in) != 2 || in[0].ID != "tt1" {
			t.Error("transform modified its input")
		}
	})

	t.Run("remove unknown ID", func(t *testing.T) {
		out, _ := Remove("tt9").Transform(twoEntries())
		if len(out) != 2 {
			t.Errorf("expected list unchanged, got %v", ids(out))
		}
	})

	t.Run("SetSeen", func(t *testing.T) {
		out, _ := SetSeen(models.NewSelectionSet("tt1", "tt2"), false).Transform(twoEntries())
		for _, e := range out {
			if e.Seen {
				t.Errorf("%s should be unseen", e.ID)
			}
		}
	})

	t.Run("RemoveAll", func(t *testing.T) {
		out, _ := RemoveAll(models.NewSelectionSet("tt1", "tt2")).Transform(twoEntries())
		if len(out) != 0 {
			t.Errorf("expected empty list, got %v", ids(out))
		}
	})

	t.Run("add duplicate", func(t *testing.T) {
		_, err := Add(models.Entry{ID: "tt1", Title: "Again"}).Transform(twoEntries())
		if !errors.Is(err, shared.ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
	})

	t.Run("MergeImport", func(t *testing.T) {
		incoming := []models.Entry{
			{ID: "tt1", Title: "Imported A", IMDbRating: models.Float(1.0), Seen: true},
			{ID: "tt3", Title: "C"},
			{ID: "tt3", Title: "C again"},
		}
		out, _ := MergeImport(incoming).Transform(twoEntries())

		if !slices.Equal(ids(out), []string{"tt1", "tt2", "tt3"}) {
			t.Fatalf("got %v", ids(out))
		}
		if out[0].Title != "A" || out[0].Rating() != 7.0 || out[0].Seen {
			t.Errorf("existing entry was overwritten: %+v", out[0])
		}
		if out[2].Title != "C" {
			t.Errorf("expected first duplicate in batch to win, got %q", out[2].Title)
		}
	})

	t.Run("ReplaceImport", func(t *testing.T) {
		out, _ := ReplaceImport([]models.Entry{{ID: "tt5", Title: "E"}, {ID: "tt5", Title: "E2"}}).Transform(twoEntries())
		if !slices.Equal(ids(out), []string{"tt5"}) {
			t.Errorf("got %v", ids(out))
		}
	})

	t.Run("RequiresDocument", func(t *testing.T) {
		for _, op := range []Op{ToggleSeen("x"), Remove("x"), SetSeen(&models.SelectionSet{}, true), RemoveAll(&models.SelectionSet{})} {
			if !op.RequiresDocument() {
				t.Errorf("%s should require a document", op.Name)
			}
		}
		for _, op := range []Op{Add(models.Entry{ID: "x"}), MergeImport(nil), ReplaceImport(nil)} {
			if op.RequiresDocument() {
				t.Errorf("%s should not require a document", op.Name)
			}
		}
	})
}

func TestMutate(t *testing.T) {
	t.Run("toggle without document is a no-op", func(t *testing.T) {
		f := setup(t)

		res, err := f.engine.Mutate(f.ctx, f.session, ToggleSeen("tt1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Written || len(res.Items) != 0 {
			t.Errorf("expected empty no-op result, got %+v", res)
		}
		if f.store.sets != 0 {
			t.Errorf("expected no writes, got %d", f.store.sets)
		}
		if _, err := f.docs.Get(f.ctx, "u1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected no document to be created, got %v", err)
		}
	})

	t.Run("add creates document", func(t *testing.T) {
		f := setup(t)

		res, err := f.engine.Mutate(f.ctx, f.session, Add(models.Entry{ID: "tt1", Title: "A"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Written || res.Previous != 0 {
			t.Errorf("unexpected result %+v", res)
		}

		doc, err := f.docs.Get(f.ctx, "u1")
		if err != nil {
			t.Fatalf("expected document: %v", err)
		}
		var owner repositories.Owner
		if ok, err := doc.Decode(repositories.FieldOwner, &owner); !ok || err != nil {
			t.Fatalf("expected owner field, err=%v", err)
		}
		if owner.Email != "viewer@example.com" {
			t.Errorf("unexpected owner %+v", owner)
		}
		var updated string
		doc.Decode(repositories.FieldUpdatedAt, &updated)
		if updated != "2025-06-01T12:00:00Z" {
			t.Errorf("unexpected updatedAt %q", updated)
		}
	})

	t.Run("write replaces items and keeps other fields", func(t *testing.T) {
		f := setup(t)
		doc := repositories.Document{}
		doc.Put(repositories.FieldItems, twoEntries())
		doc.Put(repositories.FieldImportedAt, "2024-01-01T00:00:00Z")
		if err := f.docs.Set(f.ctx, "u1", doc, false); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		if _, err := f.engine.Mutate(f.ctx, f.session, Remove("tt2")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := ids(f.stored(t)); !slices.Equal(got, []string{"tt1"}) {
			t.Errorf("stored %v", got)
		}
		after, _ := f.docs.Get(f.ctx, "u1")
		var imported string
		after.Decode(repositories.FieldImportedAt, &imported)
		if imported != "2024-01-01T00:00:00Z" {
			t.Errorf("merge write dropped importedAt, got %q", imported)
		}
	})

	t.Run("cache holds written list", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		var notified [][]models.Entry
		unsubscribe := f.session.Subscribe(func(items []models.Entry) { notified = append(notified, items) })

		if _, err := f.engine.Mutate(f.ctx, f.session, ToggleSeen("tt1")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cached := f.session.Items()
		if len(cached) != 2 || !cached[0].Seen {
			t.Errorf("cache not updated: %+v", cached)
		}
		if len(notified) != 1 || !notified[0][0].Seen {
			t.Errorf("subscriber not notified with written list: %+v", notified)
		}

		unsubscribe()
		f.engine.Mutate(f.ctx, f.session, ToggleSeen("tt1"))
		if len(notified) != 1 {
			t.Errorf("unsubscribed callback still called")
		}
	})

	t.Run("failed write leaves cache", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)
		if _, err := f.engine.Load(f.ctx, f.session); err != nil {
			t.Fatalf("load failed: %v", err)
		}

		f.store.failSet = fmt.Errorf("%w: store offline", shared.ErrNetwork)
		_, err := f.engine.Mutate(f.ctx, f.session, Remove("tt1"))
		if !errors.Is(err, shared.ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}

		if got := ids(f.session.Items()); !slices.Equal(got, []string{"tt1", "tt2"}) {
			t.Errorf("cache changed after failed write: %v", got)
		}
	})

	t.Run("failed bulk write keeps selection", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)
		f.store.failSet = errors.New("boom")

		sel := models.NewSelectionSet("tt1")
		if _, err := f.engine.Mutate(f.ctx, f.session, RemoveAll(sel)); err == nil {
			t.Fatal("expected error")
		}
		if !sel.Has("tt1") {
			t.Error("selection cleared although nothing was written")
		}
	})

	t.Run("anonymous is a no-op", func(t *testing.T) {
		f := setup(t)
		anon := NewSession(repositories.Owner{})

		res, err := f.engine.Mutate(f.ctx, anon, Add(models.Entry{ID: "tt1", Title: "A"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Written || f.store.sets != 0 {
			t.Errorf("anonymous mutation wrote: %+v", res)
		}
	})

	t.Run("duplicate add does not write", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		_, err := f.engine.Mutate(f.ctx, f.session, Add(models.Entry{ID: "tt2", Title: "B"}))
		if !errors.Is(err, shared.ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry, got %v", err)
		}
		if f.store.sets != 0 {
			t.Errorf("expected no writes, got %d", f.store.sets)
		}
	})
}

func TestScenarios(t *testing.T) {
	t.Run("bulk remove clears selection", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		sel := models.NewSelectionSet("tt1")
		res, err := f.engine.Mutate(f.ctx, f.session, RemoveAll(sel))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := ids(res.Items); !slices.Equal(got, []string{"tt2"}) {
			t.Errorf("expected [tt2], got %v", got)
		}
		if got := ids(f.stored(t)); !slices.Equal(got, []string{"tt2"}) {
			t.Errorf("expected stored [tt2], got %v", got)
		}
		if sel.Len() != 0 {
			t.Errorf("expected empty selection, got %v", sel.IDs())
		}
	})

	t.Run("bulk mark seen", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		sel := models.NewSelectionSet("tt1", "tt2")
		res, err := f.engine.Mutate(f.ctx, f.session, SetSeen(sel, true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, e := range res.Items {
			if !e.Seen {
				t.Errorf("%s should be seen", e.ID)
			}
		}
		if sel.Len() != 0 || f.store.sets != 1 {
			t.Errorf("expected one write and an empty selection, got %d writes and %v", f.store.sets, sel.IDs())
		}
	})

	t.Run("merge import keeps existing entry", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		path := filepath.Join(t.TempDir(), "import.json")
		th.MustWriteFile(t, path, `[
			{"imdbID": "tt1", "Title": "Renamed", "imdbRating": "2.0"},
			{"id": "tt3", "title": "C", "year": "2001"}
		]`)

		result, err := f.engine.ImportFile(f.ctx, f.session, path, false, nil)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if result.Read != 2 || result.Added != 1 || result.Skipped != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		stored := f.stored(t)
		if got := ids(stored); !slices.Equal(got, []string{"tt1", "tt2", "tt3"}) {
			t.Fatalf("expected no duplicate, got %v", got)
		}
		if stored[0].Title != "A" || stored[0].Rating() != 7.0 {
			t.Errorf("existing entry overwritten: %+v", stored[0])
		}

		doc, _ := f.docs.Get(f.ctx, "u1")
		var imported string
		if ok, _ := doc.Decode(repositories.FieldImportedAt, &imported); !ok || imported == "" {
			t.Error("expected importedAt stamp")
		}
	})
}

func TestImportFile(t *testing.T) {
	t.Run("replace", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		path := filepath.Join(t.TempDir(), "import.json")
		th.MustWriteFile(t, path, `[{"id": "tt9", "title": "Z"}]`)

		result, err := f.engine.ImportFile(f.ctx, f.session, path, true, nil)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !result.Replaced || result.Added != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if got := ids(f.stored(t)); !slices.Equal(got, []string{"tt9"}) {
			t.Errorf("expected [tt9], got %v", got)
		}
	})

	t.Run("merging the same title-only file twice keeps one entry", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		path := filepath.Join(t.TempDir(), "import.json")
		th.MustWriteFile(t, path, `[{"title": "Home Movie", "year": "2001"}]`)

		for i := range 3 {
			result, err := f.engine.ImportFile(f.ctx, f.session, path, false, nil)
			if err != nil {
				t.Fatalf("import %d failed: %v", i+1, err)
			}
			if want := 1 - min(i, 1); result.Added != want {
				t.Errorf("import %d: expected %d added, got %d", i+1, want, result.Added)
			}
		}

		stored := f.stored(t)
		if len(stored) != 3 {
			t.Fatalf("expected 3 entries, got %v", ids(stored))
		}
		if stored[2].ID != models.LocalID("Home Movie", "2001") {
			t.Errorf("expected derived local id, got %q", stored[2].ID)
		}
	})

	t.Run("rejects non-array", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)

		path := filepath.Join(t.TempDir(), "import.json")
		th.MustWriteFile(t, path, `{"id": "tt9", "title": "Z"}`)

		_, err := f.engine.ImportFile(f.ctx, f.session, path, false, nil)
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if f.store.sets != 0 {
			t.Errorf("expected no writes, got %d", f.store.sets)
		}
	})

	t.Run("rejects entry without ID or title", func(t *testing.T) {
		f := setup(t)

		path := filepath.Join(t.TempDir(), "import.json")
		th.MustWriteFile(t, path, `[{"id": "tt1", "title": "A"}, {"year": "1999"}]`)

		if _, err := f.engine.ImportFile(f.ctx, f.session, path, false, nil); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if f.store.sets != 0 {
			t.Errorf("expected no writes, got %d", f.store.sets)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		f := setup(t)
		if _, err := f.engine.ImportFile(f.ctx, f.session, filepath.Join(t.TempDir(), "nope.json"), false, nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := setup(t)
		if _, err := f.engine.ImportFile(f.ctx, NewSession(repositories.Owner{}), "x.json", false, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestExportFile(t *testing.T) {
	f := setup(t)

	t.Run("JSON round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		progress := make(chan ProgressUpdate, 4)

		result, err := f.engine.ExportFile(f.ctx, twoEntries(), ExportOpts{Format: formatter.JSON, Path: path}, progress)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if result.Count != 2 || len(result.Files) != 1 || result.Files[0] != path {
			t.Errorf("unexpected result %+v", result)
		}

		back, err := models.NormalizeRecords([]byte(th.MustReadFile(t, path)))
		if err != nil || len(back) != 2 {
			t.Errorf("export did not round trip: %v %+v", err, back)
		}

		select {
		case u := <-progress:
			if u.Phase != ExportFile {
				t.Errorf("unexpected phase %v", u.Phase)
			}
		default:
			t.Error("expected a progress update")
		}
	})

	t.Run("markdown directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "md")
		result, err := f.engine.ExportFile(f.ctx, twoEntries(), ExportOpts{Format: formatter.Markdown, Path: dir, Posters: true}, nil)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		if len(result.Warnings) != 0 {
			t.Errorf("entries without posters should not warn: %v", result.Warnings)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("no document is empty", func(t *testing.T) {
		f := setup(t)
		items, err := f.engine.Load(f.ctx, f.session)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 0 || !f.session.Loaded() {
			t.Errorf("expected loaded empty list, got %v", items)
		}
	})

	t.Run("anonymous reads sample", func(t *testing.T) {
		f := setup(t)
		path := filepath.Join(t.TempDir(), "sample.json")
		th.MustWriteFile(t, path, `[{"imdbID": "tt0133093", "Title": "The Matrix", "Year": "1999"}]`)
		f.engine.samplePath = path

		items, err := f.engine.Load(f.ctx, NewSession(repositories.Owner{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].Title != "The Matrix" {
			t.Errorf("unexpected sample %+v", items)
		}
	})

	t.Run("anonymous without sample", func(t *testing.T) {
		f := setup(t)
		f.engine.samplePath = filepath.Join(t.TempDir(), "missing.json")

		items, err := f.engine.Load(f.ctx, NewSession(repositories.Owner{}))
		if err != nil || len(items) != 0 {
			t.Errorf("expected empty list, got %v, %v", items, err)
		}
	})

	t.Run("items uses cache", func(t *testing.T) {
		f := setup(t)
		f.seed(t, twoEntries()...)
		f.engine.Load(f.ctx, f.session)

		f.seed(t, models.Entry{ID: "tt7", Title: "Elsewhere"})
		items, _ := f.engine.Items(f.ctx, f.session)
		if got := ids(items); !slices.Equal(got, []string{"tt1", "tt2"}) {
			t.Errorf("expected cached list, got %v", got)
		}
	})
}

func pendingEntries(n int) []models.Entry {
	out := make([]models.Entry, n)
	for i := range out {
		out[i] = models.Entry{ID: fmt.Sprintf("tt%02d", i), Title: fmt.Sprintf("Title %d", i)}
	}
	return out
}

func ratingsReply(ids ...string) string {
	var parts []string
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf(`{"id":%q,"imdbRating":7.5,"rtRating":"90%%","metacriticRating":"80/100"}`, id))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestEnrich(t *testing.T) {
	t.Run("chunks sequentially and commits once", func(t *testing.T) {
		f := setup(t)
		items := pendingEntries(23)
		items[0].IMDbRating = models.Float(9.9)
		items = append(items, models.Entry{
			ID: "done", Title: "Complete",
			IMDbRating: models.Float(8), RTRating: models.String("1%"), MetacriticRating: models.String("1/100"),
		})
		f.seed(t, items...)

		f.ai.Replies = []string{
			"```json\n" + ratingsReply("tt00", "tt01") + "\n```",
			ratingsReply("tt10"),
			ratingsReply("tt22", "unknown"),
		}
		progress := make(chan ProgressUpdate, 16)

		result, err := f.engine.Enrich(f.ctx, f.session, progress)
		if err != nil {
			t.Fatalf("enrich failed: %v", err)
		}

		if len(f.ai.Calls) != 3 {
			t.Fatalf("expected 3 chunk requests, got %d", len(f.ai.Calls))
		}
		if strings.Contains(f.ai.Calls[0].User, `"done"`) {
			t.Error("complete entries should not be sent")
		}
		if !strings.Contains(f.ai.Calls[2].User, `"tt22"`) || strings.Contains(f.ai.Calls[2].User, `"tt19"`) {
			t.Errorf("unexpected last chunk: %s", f.ai.Calls[2].User)
		}
		if result.Pending != 23 || result.Chunks != 3 || result.Updated != 4 {
			t.Errorf("unexpected result %+v", result)
		}
		if f.store.sets != 1 {
			t.Errorf("expected a single write, got %d", f.store.sets)
		}

		stored := f.stored(t)
		if stored[0].Rating() != 9.9 {
			t.Errorf("existing rating overwritten: %v", stored[0].Rating())
		}
		if stored[0].RTRating == nil || *stored[0].RTRating != "90%" {
			t.Errorf("missing rating not filled: %+v", stored[0])
		}
		if stored[10].Rating() != 7.5 || stored[2].IMDbRating != nil {
			t.Errorf("unexpected merge: %+v / %+v", stored[10], stored[2])
		}
		if *stored[23].RTRating != "1%" {
			t.Error("complete entry changed")
		}
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("malformed chunk aborts without write", func(t *testing.T) {
		f := setup(t)
		f.seed(t, pendingEntries(15)...)
		f.ai.Replies = []string{ratingsReply("tt00"), "Sure! Here are the ratings you asked for."}

		_, err := f.engine.Enrich(f.ctx, f.session, nil)
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Fatalf("expected ErrMalformedResponse, got %v", err)
		}
		if f.store.sets != 0 {
			t.Errorf("expected no write, got %d", f.store.sets)
		}
		if f.stored(t)[0].IMDbRating != nil {
			t.Error("partial chunk result was committed")
		}
	})

	t.Run("network failure aborts remaining chunks", func(t *testing.T) {
		f := setup(t)
		f.seed(t, pendingEntries(25)...)
		f.ai.Errs = []error{nil, fmt.Errorf("%w: timeout", shared.ErrNetwork)}
		f.ai.Replies = []string{ratingsReply("tt00")}

		_, err := f.engine.Enrich(f.ctx, f.session, nil)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
		if len(f.ai.Calls) != 2 {
			t.Errorf("expected the third chunk to be skipped, got %d calls", len(f.ai.Calls))
		}
		if f.store.sets != 0 {
			t.Errorf("expected no write, got %d", f.store.sets)
		}
	})

	t.Run("nothing pending", func(t *testing.T) {
		f := setup(t)
		f.seed(t, models.Entry{ID: "x", Title: "X", IMDbRating: models.Float(1), RTRating: models.String("1%"), MetacriticRating: models.String("1/100")})

		result, err := f.engine.Enrich(f.ctx, f.session, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Pending != 0 || len(f.ai.Calls) != 0 || f.store.sets != 0 {
			t.Errorf("expected no work, got %+v", result)
		}
	})

	t.Run("missing completer", func(t *testing.T) {
		f := setup(t)
		f.engine.completer = nil
		if _, err := f.engine.Enrich(f.ctx, f.session, nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		f := setup(t)
		if _, err := f.engine.Enrich(f.ctx, NewSession(repositories.Owner{}), nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestEnrichFromMetadata(t *testing.T) {
	f := setup(t)
	f.seed(t,
		models.Entry{ID: "tt1", Title: "A", IMDbRating: models.Float(6.0)},
		models.Entry{ID: "tt2", Title: "B"},
		models.Entry{ID: "tt3", Title: "C"},
	)
	f.meta.Entries["tt1"] = models.Entry{ID: "tt1", IMDbRating: models.Float(8.0), RTRating: models.String("70%")}
	f.meta.Entries["tt3"] = models.Entry{ID: "tt3", IMDbRating: models.Float(5.5), VoteCount: models.Int(1200)}
	f.meta.Fail = map[string]error{"tt2": fmt.Errorf("%w: timeout", shared.ErrNetwork)}

	result, err := f.engine.EnrichFromMetadata(f.ctx, f.session, nil)
	if err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if !slices.Equal(f.meta.Lookups, []string{"tt1", "tt2", "tt3"}) {
		t.Errorf("unexpected lookups %v", f.meta.Lookups)
	}
	if !slices.Equal(result.Failed, []string{"tt2"}) || result.Updated != 2 {
		t.Errorf("unexpected result %+v", result)
	}

	stored := f.stored(t)
	if stored[0].Rating() != 6.0 || *stored[0].RTRating != "70%" {
		t.Errorf("unexpected tt1 %+v", stored[0])
	}
	if stored[1].IMDbRating != nil {
		t.Errorf("failed lookup should keep entry unchanged, got %+v", stored[1])
	}
	if stored[2].Rating() != 5.5 || *stored[2].VoteCount != 1200 {
		t.Errorf("unexpected tt3 %+v", stored[2])
	}
	if f.store.sets != 1 {
		t.Errorf("expected a single write, got %d", f.store.sets)
	}
}

func TestAsk(t *testing.T) {
	entries := pendingEntries(60)

	t.Run("returns matches in list order", func(t *testing.T) {
		f := setup(t)
		f.ai.Replies = []string{"```json\n[\"tt05\", \"tt02\", \"nope\"]\n```"}

		got, err := f.engine.Ask(f.ctx, entries, "something short")
		if err != nil {
			t.Fatalf("ask failed: %v", err)
		}
		if !slices.Equal(ids(got), []string{"tt02", "tt05"}) {
			t.Errorf("got %v", ids(got))
		}

		prompt := f.ai.Calls[0].User
		if !strings.Contains(prompt, `"tt49"`) || strings.Contains(prompt, `"tt50"`) {
			t.Error("expected only the first 50 entries in the prompt")
		}
		if !strings.Contains(prompt, `Query: "something short"`) {
			t.Errorf("query missing from prompt: %s", prompt)
		}
	})

	t.Run("malformed reply", func(t *testing.T) {
		f := setup(t)
		f.ai.Replies = []string{`{"ids": ["tt01"]}`}
		if _, err := f.engine.Ask(f.ctx, entries, "anything"); !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		f := setup(t)
		if _, err := f.engine.Ask(f.ctx, entries, "  "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if len(f.ai.Calls) != 0 {
			t.Error("no request expected for an empty query")
		}
	})
}

func TestAddByID(t *testing.T) {
	t.Run("adds looked up entry", func(t *testing.T) {
		f := setup(t)
		f.meta.Entries["tt0133093"] = models.Entry{ID: "tt0133093", Title: "The Matrix", Year: "1999", Seen: true}

		entry, err := f.engine.AddByID(f.ctx, f.session, "tt0133093")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if entry.Seen || entry.AddedAt != "2025-06-01T12:00:00Z" {
			t.Errorf("unexpected entry %+v", entry)
		}
		if got := ids(f.stored(t)); !slices.Equal(got, []string{"tt0133093"}) {
			t.Errorf("stored %v", got)
		}

		if _, err := f.engine.AddByID(f.ctx, f.session, "tt0133093"); !errors.Is(err, shared.ErrDuplicateEntry) {
			t.Errorf("expected ErrDuplicateEntry on second add, got %v", err)
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		f := setup(t)
		if _, err := f.engine.AddByID(f.ctx, f.session, "tt404"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if f.store.sets != 0 {
			t.Error("expected no write")
		}
	})
}

func TestSearch(t *testing.T) {
	f := setup(t)
	f.meta.Results = []models.Candidate{{ID: "tt1", Title: "Heat"}}

	got, err := f.engine.Search(f.ctx, "heat")
	if err != nil || len(got) != 1 {
		t.Errorf("unexpected search result %v, %v", got, err)
	}
	if _, err := f.engine.Search(f.ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{LoadList: "load_list", EnrichChunk: "enrich_chunk", Commit: "commit", Phase(99): ""} {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
