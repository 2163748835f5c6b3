// package services defines the external APIs the watchlist browser talks to
//
// OMDb metadata, OpenAI-compatible chat completions, OAuth identity
package services

import (
	"context"

	"github.com/desertthunder/wlx/internal/models"
)

// MetadataProvider looks titles up in an external metadata catalogue.
type MetadataProvider interface {
	// Search returns candidates whose title matches, best match first.
	Search(ctx context.Context, title string) ([]models.Candidate, error)

	// Lookup returns the full record for id normalized into an entry.
	// Unknown ids fail with [shared.ErrNotFound].
	Lookup(ctx context.Context, id string) (*models.Entry, error)

	// Name returns the name of the provider
	Name() string
}

// Completer sends a system instruction and a user payload to a text-completion
// model and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
