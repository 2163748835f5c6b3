package tasks

import (
	"fmt"
	"slices"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// Transform is a pure function from the stored list to the list to write.
// It must not modify its input.
type Transform func([]models.Entry) ([]models.Entry, error)

// Op is one watchlist mutation.
type Op struct {
	Name      string
	Transform Transform

	requiresDocument bool
	selection        *models.SelectionSet
	imported         bool
}

// RequiresDocument reports whether the op is a no-op for a user with no stored list.
func (o Op) RequiresDocument() bool {
	return o.requiresDocument
}

// ToggleSeen flips seen on the entry with id.
func ToggleSeen(id string) Op {
	return Op{
		Name:             "toggle-seen",
		requiresDocument: true,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			out := slices.Clone(in)
			for i := range out {
				if out[i].ID == id {
					out[i] = out[i].WithSeen(!out[i].Seen)
				}
			}
			return out, nil
		},
	}
}

// Remove drops the entry with id.
func Remove(id string) Op {
	return Op{
		Name:             "remove",
		requiresDocument: true,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			return slices.DeleteFunc(slices.Clone(in), func(e models.Entry) bool { return e.ID == id }), nil
		},
	}
}

// SetSeen marks every selected entry as seen (or unseen). The selection is
// cleared once the write succeeds.
func SetSeen(sel *models.SelectionSet, seen bool) Op {
	return Op{
		Name:             "bulk-seen",
		requiresDocument: true,
		selection:        sel,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			out := slices.Clone(in)
			for i := range out {
				if sel.Has(out[i].ID) {
					out[i] = out[i].WithSeen(seen)
				}
			}
			return out, nil
		},
	}
}

// RemoveAll drops every selected entry. The selection is cleared once the write succeeds.
func RemoveAll(sel *models.SelectionSet) Op {
	return Op{
		Name:             "bulk-remove",
		requiresDocument: true,
		selection:        sel,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			return slices.DeleteFunc(slices.Clone(in), func(e models.Entry) bool { return sel.Has(e.ID) }), nil
		},
	}
}

// Add appends e, rejecting an id already in the list with [shared.ErrDuplicateEntry].
func Add(e models.Entry) Op {
	return Op{
		Name: "add",
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			if slices.ContainsFunc(in, func(x models.Entry) bool { return x.ID == e.ID }) {
				return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateEntry, e.Label())
			}
			return append(slices.Clone(in), e), nil
		},
	}
}

// MergeImport appends incoming entries whose id is not already stored. Stored
// entries are never overwritten and repeated ids within the batch keep the first.
func MergeImport(incoming []models.Entry) Op {
	return Op{
		Name:     "import-merge",
		imported: true,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			seen := make(map[string]bool, len(in)+len(incoming))
			for _, e := range in {
				seen[e.ID] = true
			}
			out := slices.Clone(in)
			for _, e := range incoming {
				if seen[e.ID] {
					continue
				}
				seen[e.ID] = true
				out = append(out, e)
			}
			return out, nil
		},
	}
}

// ReplaceImport swaps the stored list for incoming wholesale.
func ReplaceImport(incoming []models.Entry) Op {
	return Op{
		Name:     "import-replace",
		imported: true,
		Transform: func([]models.Entry) ([]models.Entry, error) {
			return dedupe(incoming), nil
		},
	}
}

// ratingPatch holds ratings returned by an enrichment source for one id.
type ratingPatch struct {
	IMDbRating       *float64
	RTRating         *string
	MetacriticRating *string
	VoteCount        *int
}

func patchFrom(e models.Entry) ratingPatch {
	return ratingPatch{
		IMDbRating:       e.IMDbRating,
		RTRating:         e.RTRating,
		MetacriticRating: e.MetacriticRating,
		VoteCount:        e.VoteCount,
	}
}

// apply fills ratings e lacks. Values already present are kept.
func (p ratingPatch) apply(e models.Entry) (models.Entry, bool) {
	changed := false
	if e.IMDbRating == nil && p.IMDbRating != nil {
		e.IMDbRating, changed = p.IMDbRating, true
	}
	if e.RTRating == nil && p.RTRating != nil {
		e.RTRating, changed = p.RTRating, true
	}
	if e.MetacriticRating == nil && p.MetacriticRating != nil {
		e.MetacriticRating, changed = p.MetacriticRating, true
	}
	if e.VoteCount == nil && p.VoteCount != nil {
		e.VoteCount, changed = p.VoteCount, true
	}
	return e, changed
}

// applyRatings merges patches into matching entries by id.
func applyRatings(patches map[string]ratingPatch) Op {
	return Op{
		Name:             "enrich",
		requiresDocument: true,
		Transform: func(in []models.Entry) ([]models.Entry, error) {
			out := slices.Clone(in)
			for i := range out {
				if p, ok := patches[out[i].ID]; ok {
					out[i], _ = p.apply(out[i])
				}
			}
			return out, nil
		},
	}
}

func dedupe(entries []models.Entry) []models.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out
}
