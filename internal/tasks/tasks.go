package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/repositories"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	"golang.org/x/time/rate"
)

// MutationResult is the outcome of [WatchlistEngine.Mutate].
type MutationResult struct {
	Items    []models.Entry // list as written, or the unchanged cache when nothing was written
	Previous int            // length of the list the transform read
	Written  bool           // false for no-ops
}

// EngineOpts configures a [WatchlistEngine]. Completer and Metadata are optional;
// operations that need a missing one fail with [shared.ErrMissingCredentials].
type EngineOpts struct {
	Store      repositories.Store
	Completer  services.Completer
	Metadata   services.MetadataProvider
	SamplePath string  // list shown to anonymous sessions
	LookupRate float64 // metadata lookups per second during enrichment, <= 0 for unlimited
	Logger     *log.Logger
}

// WatchlistEngine runs watchlist operations for sessions.
type WatchlistEngine struct {
	store      repositories.Store
	completer  services.Completer
	metadata   services.MetadataProvider
	samplePath string
	limiter    *rate.Limiter
	logger     *log.Logger
	now        func() time.Time
}

// NewWatchlistEngine creates a new WatchlistEngine with the provided dependencies.
func NewWatchlistEngine(opts EngineOpts) *WatchlistEngine {
	limit := rate.Inf
	if opts.LookupRate > 0 {
		limit = rate.Limit(opts.LookupRate)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	return &WatchlistEngine{
		store:      opts.Store,
		completer:  opts.Completer,
		metadata:   opts.Metadata,
		samplePath: opts.SamplePath,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		now:        time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *WatchlistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Load reads the session's list into its cache and returns it.
//
// A user with no stored document has an empty list. Anonymous sessions read the
// sample file; a missing sample file is an empty list too.
func (e *WatchlistEngine) Load(ctx context.Context, s *Session) ([]models.Entry, error) {
	var (
		items []models.Entry
		err   error
	)
	if s.Anonymous() {
		items, err = e.loadSample()
	} else {
		items, err = e.read(ctx, s.UID)
		if errors.Is(err, shared.ErrNotFound) {
			items, err = nil, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.replace(items)
	return s.Items(), nil
}

// Items returns the cached list, loading it first if the session has never been loaded.
func (e *WatchlistEngine) Items(ctx context.Context, s *Session) ([]models.Entry, error) {
	if s.Loaded() {
		return s.Items(), nil
	}
	return e.Load(ctx, s)
}

func (e *WatchlistEngine) loadSample() ([]models.Entry, error) {
	if e.samplePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(e.samplePath)
	if errors.Is(err, os.ErrNotExist) {
		e.logger.Debug("sample watchlist not found", "path", e.samplePath)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sample watchlist: %w", err)
	}
	return models.NormalizeRecords(data)
}

// read returns the stored list for uid or an error wrapping [shared.ErrNotFound].
func (e *WatchlistEngine) read(ctx context.Context, uid string) ([]models.Entry, error) {
	doc, err := e.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return doc.Items()
}

// Mutate runs op through the read/transform/write protocol:
//
//  1. read the stored list for the session's user (no document is an empty list,
//     and a no-op for ops that need one)
//  2. apply op's pure transform, matching entries by id
//  3. write the full result back, replacing the items field wholesale
//
// The cache is replaced with exactly the written list and subscribers are notified.
//
// Known limitation: the protocol is last-writer-wins. There is no version check
// between the read and the write, so two mutations racing for the same user
// (two quick toggles, or two devices) can lose an update.
//
// On any failure the cache is left as it was.
func (e *WatchlistEngine) Mutate(ctx context.Context, s *Session, op Op) (*MutationResult, error) {
	if s.Anonymous() {
		e.logger.Warn("ignoring mutation without a signed-in user", "op", op.Name)
		return &MutationResult{Items: s.Items()}, nil
	}

	current, err := e.read(ctx, s.UID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if op.RequiresDocument() {
			e.logger.Debug("no stored watchlist, nothing to change", "op", op.Name, "uid", s.UID)
			s.replace(nil)
			return &MutationResult{Items: []models.Entry{}}, nil
		}
		current = nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	next, err := op.Transform(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []models.Entry{}
	}

	fields := repositories.Document{}
	now := e.now().UTC().Format(time.RFC3339)
	if err := fields.Put(repositories.FieldItems, next); err != nil {
		return nil, err
	}
	if err := fields.Put(repositories.FieldOwner, s.Owner); err != nil {
		return nil, err
	}
	if err := fields.Put(repositories.FieldUpdatedAt, now); err != nil {
		return nil, err
	}
	if op.imported {
		if err := fields.Put(repositories.FieldImportedAt, now); err != nil {
			return nil, err
		}
	}

	if err := e.store.Set(ctx, s.UID, fields, true); err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}

	s.replace(next)
	if op.selection != nil {
		op.selection.Clear()
	}

	e.logger.Debug("watchlist written", "op", op.Name, "uid", s.UID, "before", len(current), "after", len(next))
	return &MutationResult{Items: s.Items(), Previous: len(current), Written: true}, nil
}

// Search finds titles through the metadata provider.
func (e *WatchlistEngine) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	if e.metadata == nil {
		return nil, fmt.Errorf("%w: no metadata provider configured", shared.ErrMissingCredentials)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}
	return e.metadata.Search(ctx, title)
}

// AddByID looks id up through the metadata provider and appends the result,
// stamped with the current time as its added date.
func (e *WatchlistEngine) AddByID(ctx context.Context, s *Session, id string) (*models.Entry, error) {
	if e.metadata == nil {
		return nil, fmt.Errorf("%w: no metadata provider configured", shared.ErrMissingCredentials)
	}
	if s.Anonymous() {
		return nil, shared.ErrNotAuthenticated
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	entry, err := e.metadata.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.AddedAt = e.now().UTC().Format(time.RFC3339)
	entry.Seen = false

	if _, err := e.Mutate(ctx, s, Add(*entry)); err != nil {
		return nil, err
	}
	return entry, nil
}
