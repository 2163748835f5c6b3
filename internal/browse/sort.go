package browse

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode names an ordering of entries.
type SortMode string

const (
	SortRating  SortMode = "rating"
	SortRuntime SortMode = "runtime"
	SortTitle   SortMode = "title"
	SortRecent  SortMode = "recent"
	SortYear    SortMode = "year"
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
)

// SortModes lists the modes in the order menus present them.
var SortModes = []SortMode{SortRating, SortRuntime, SortTitle, SortRecent, SortNewest, SortOldest}

// String returns the display name for the mode.
func (m SortMode) String() string {
	switch m {
	case SortRating:
		return "Rating"
	case SortRuntime:
		return "Runtime"
	case SortTitle:
		return "Title"
	case SortRecent:
		return "Recently Added"
	case SortYear, SortNewest:
		return "Newest"
	case SortOldest:
		return "Oldest"
	default:
		return string(m)
	}
}

// ParseSortMode validates a mode name.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Comparator(m); err != nil {
		return "", err
	}
	return m, nil
}

// Comparator returns the ordering for mode. Missing ratings, runtimes and years
// count as 0 and missing addedAt as the epoch, so unknown values sink under
// descending orders. Ties are left to the caller's stable sort.
func Comparator(mode SortMode) (func(a, b models.Entry) int, error) {
	switch mode {
	case SortRating:
		return func(a, b models.Entry) int { return cmp.Compare(b.Rating(), a.Rating()) }, nil
	case SortRuntime:
		return func(a, b models.Entry) int { return cmp.Compare(b.Runtime(), a.Runtime()) }, nil
	case SortTitle:
		// A collator keeps scratch buffers, so each comparator gets its own.
		c := collate.New(language.Und, collate.IgnoreCase, collate.Loose)
		return func(a, b models.Entry) int { return c.CompareString(a.Title, b.Title) }, nil
	case SortRecent:
		return func(a, b models.Entry) int { return cmp.Compare(addedUnix(b), addedUnix(a)) }, nil
	case SortYear, SortNewest:
		return func(a, b models.Entry) int { return cmp.Compare(year(b), year(a)) }, nil
	case SortOldest:
		return func(a, b models.Entry) int { return cmp.Compare(year(a), year(b)) }, nil
	}
	return nil, fmt.Errorf("%w: sort mode %q", shared.ErrInvalidArgument, mode)
}

// Sort orders entries in place. Equal entries keep their input order.
func Sort(entries []models.Entry, mode SortMode) error {
	compare, err := Comparator(mode)
	if err != nil {
		return err
	}
	slices.SortStableFunc(entries, compare)
	return nil
}

func year(e models.Entry) int {
	y, _ := e.ParsedYear()
	return y
}

func addedUnix(e models.Entry) int64 {
	t, ok := e.Added()
	if !ok {
		return time.Unix(0, 0).Unix()
	}
	return t.Unix()
}
