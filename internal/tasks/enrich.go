package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
)

const (
	// EnrichChunkSize bounds the number of entries sent in one completion request.
	EnrichChunkSize = 10
	// AskLimit bounds the number of entries sent with a natural-language query.
	AskLimit = 50
)

const enrichSystemPrompt = `You are a film and television ratings assistant.
You are given a JSON array of titles with fields id, title, year and type.
For each title return its IMDb rating, Rotten Tomatoes score and Metacritic score.
Return ONLY a valid JSON array of objects with the fields id, imdbRating, rtRating and metacriticRating.
Use a number for imdbRating (for example 7.8), strings like "93%" for rtRating and "81/100" for metacriticRating.
Use null for any score you do not know. Do NOT include any text, explanation, or Markdown formatting.`

const askSystemPrompt = `You are a movie recommendation assistant.
You are given a list of movies in JSON format (with fields like id, title, genres, seen).
Your job is to return a filtered subset based on the user's natural language query.
Return ONLY a valid JSON array of ids. Do NOT include any text, explanation, or formatting like Markdown.`

// EnrichResult summarizes an enrichment run.
type EnrichResult struct {
	Pending int            // entries missing at least one rating
	Chunks  int            // completion requests or metadata lookups made
	Updated int            // entries that gained a rating
	Failed  []string       // ids whose lookup failed (metadata source only)
	Items   []models.Entry // list after the commit
}

type promptEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  string `json:"year,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Enrich fills missing ratings using the completion service.
//
// Entries lacking a rating are sent in chunks of [EnrichChunkSize], one request
// at a time. A network failure or an unparsable reply for any chunk aborts the
// whole run without writing anything. Returned values never overwrite ratings
// the entry already has. All chunks are committed in a single write.
func (e *WatchlistEngine) Enrich(ctx context.Context, s *Session, progress chan<- ProgressUpdate) (*EnrichResult, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("%w: no completion service configured", shared.ErrMissingCredentials)
	}
	if s.Anonymous() {
		return nil, shared.ErrNotAuthenticated
	}

	e.sendProgress(progress, loadListUpdate(s.UID))
	items, err := e.Items(ctx, s)
	if err != nil {
		return nil, err
	}

	pending := slices.DeleteFunc(slices.Clone(items), func(x models.Entry) bool { return !x.NeedsEnrichment() })
	result := &EnrichResult{Pending: len(pending), Items: s.Items()}
	if len(pending) == 0 {
		return result, nil
	}

	total := (len(pending) + EnrichChunkSize - 1) / EnrichChunkSize
	patches := make(map[string]ratingPatch, len(pending))

	for chunk := range slices.Chunk(pending, EnrichChunkSize) {
		result.Chunks++
		e.sendProgress(progress, enrichChunkUpdate(result.Chunks, total, len(chunk)))

		got, err := e.enrichChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("enrichment chunk %d/%d: %w", result.Chunks, total, err)
		}
		for id, p := range got {
			patches[id] = p
		}
	}

	result.Updated = countUpdated(pending, patches)
	if result.Updated == 0 {
		return result, nil
	}

	e.sendProgress(progress, commitUpdate(len(items)))
	res, err := e.Mutate(ctx, s, applyRatings(patches))
	if err != nil {
		return nil, err
	}
	result.Items = res.Items
	return result, nil
}

// enrichChunk asks for ratings of one chunk and parses the reply.
func (e *WatchlistEngine) enrichChunk(ctx context.Context, chunk []models.Entry) (map[string]ratingPatch, error) {
	payload := make([]promptEntry, len(chunk))
	for i, x := range chunk {
		payload[i] = promptEntry{ID: x.ID, Title: x.Title, Year: x.Year, Type: x.Type}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}

	reply, err := e.completer.Complete(ctx, enrichSystemPrompt, "Titles: "+string(data))
	if err != nil {
		return nil, err
	}

	records, err := models.NormalizeRecords([]byte(services.StripCodeFences(reply)))
	if err != nil {
		e.logger.Warn("unparsable enrichment reply", "reply", truncate(reply, 200))
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}

	patches := make(map[string]ratingPatch, len(records))
	for _, r := range records {
		patches[r.ID] = patchFrom(r)
	}
	return patches, nil
}

// EnrichFromMetadata fills missing ratings by looking each entry up in the
// metadata provider, one rate-limited request at a time. A failed lookup keeps
// the entry unchanged and is reported in [EnrichResult.Failed]; only context
// cancellation aborts the run. Results are committed in a single write.
func (e *WatchlistEngine) EnrichFromMetadata(ctx context.Context, s *Session, progress chan<- ProgressUpdate) (*EnrichResult, error) {
	if e.metadata == nil {
		return nil, fmt.Errorf("%w: no metadata provider configured", shared.ErrMissingCredentials)
	}
	if s.Anonymous() {
		return nil, shared.ErrNotAuthenticated
	}

	e.sendProgress(progress, loadListUpdate(s.UID))
	items, err := e.Items(ctx, s)
	if err != nil {
		return nil, err
	}

	pending := slices.DeleteFunc(slices.Clone(items), func(x models.Entry) bool { return !x.NeedsEnrichment() })
	result := &EnrichResult{Pending: len(pending), Items: s.Items()}
	patches := make(map[string]ratingPatch, len(pending))

	for i, x := range pending {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		result.Chunks++
		e.sendProgress(progress, lookupEntryUpdate(i+1, len(pending), x))

		found, err := e.metadata.Lookup(ctx, x.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("metadata lookup failed", "id", x.ID, "title", x.Title, "err", err)
			e.sendProgress(progress, lookupFailedUpdate(i+1, len(pending), x, err))
			result.Failed = append(result.Failed, x.ID)
			continue
		}
		patches[x.ID] = patchFrom(*found)
	}

	result.Updated = countUpdated(pending, patches)
	if result.Updated == 0 {
		return result, nil
	}

	e.sendProgress(progress, commitUpdate(len(items)))
	res, err := e.Mutate(ctx, s, applyRatings(patches))
	if err != nil {
		return nil, err
	}
	result.Items = res.Items
	return result, nil
}

// Ask sends the first [AskLimit] entries and a natural-language query to the
// completion service and returns the entries whose ids come back, in list order.
func (e *WatchlistEngine) Ask(ctx context.Context, entries []models.Entry, query string) ([]models.Entry, error) {
	if e.completer == nil {
		return nil, fmt.Errorf("%w: no completion service configured", shared.ErrMissingCredentials)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(entries[:min(len(entries), AskLimit)])
	if err != nil {
		return nil, fmt.Errorf("failed to encode prompt: %w", err)
	}
	user := fmt.Sprintf("Here is the watchlist: %s\n\nQuery: %q\n\nReturn JSON array like: [\"tt1234567\", \"tt2345678\"]", data, query)

	reply, err := e.completer.Complete(ctx, askSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(services.StripCodeFences(reply)), &ids); err != nil {
		e.logger.Warn("unparsable query reply", "reply", truncate(reply, 200))
		return nil, fmt.Errorf("%w: expected a JSON array of ids: %w", shared.ErrMalformedResponse, err)
	}

	wanted := models.NewSelectionSet(ids...)
	return slices.DeleteFunc(slices.Clone(entries), func(x models.Entry) bool { return !wanted.Has(x.ID) }), nil
}

func countUpdated(pending []models.Entry, patches map[string]ratingPatch) int {
	n := 0
	for _, x := range pending {
		if p, ok := patches[x.ID]; ok {
			if _, changed := p.apply(x); changed {
				n++
			}
		}
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
