package browse

import (
	"fmt"
	"slices"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

// Page is one rendered window of a watchlist.
type Page struct {
	Items   []models.Entry `json:"items"`
	Number  int            `json:"page"`
	Pages   int            `json:"pages"`
	Size    int            `json:"pageSize"`
	Matched int            `json:"matched"`
	Total   int            `json:"total"`
}

// View holds the filter, sort and paging state between renders.
//
// Changing the filter or the page size returns to page 1 so a stale page
// number never points past the end of a shorter result.
type View struct {
	filter   FilterState
	sort     SortMode
	pageSize int
	page     int
}

// NewView creates a view on page 1 with no filters.
func NewView(pageSize int, mode SortMode) (*View, error) {
	v := &View{page: 1, pageSize: DefaultPageSize, sort: SortRating}
	if err := v.SetPageSize(pageSize); err != nil {
		return nil, err
	}
	if err := v.SetSort(mode); err != nil {
		return nil, err
	}
	v.page = 1
	return v, nil
}

func (v *View) Filter() FilterState { return v.filter }
func (v *View) Sort() SortMode      { return v.sort }
func (v *View) PageSize() int       { return v.pageSize }
func (v *View) Page() int           { return v.page }

// SetFilter replaces the filter state and returns to page 1.
func (v *View) SetFilter(f FilterState) {
	v.filter = f
	v.page = 1
}

// UpdateFilter applies fn to a copy of the filter and stores the result.
func (v *View) UpdateFilter(fn func(f *FilterState)) {
	f := v.filter
	fn(&f)
	v.SetFilter(f)
}

// ClearFilter removes every predicate and returns to page 1.
func (v *View) ClearFilter() {
	v.SetFilter(FilterState{})
}

// SetSort changes the ordering and returns to page 1. An empty mode keeps the current one.
func (v *View) SetSort(mode SortMode) error {
	if mode == "" {
		return nil
	}
	if _, err := Comparator(mode); err != nil {
		return err
	}
	v.sort = mode
	v.page = 1
	return nil
}

// SetPageSize changes the page size and returns to page 1. Zero keeps the current size.
func (v *View) SetPageSize(size int) error {
	switch {
	case size == 0:
		return nil
	case size < 0:
		return fmt.Errorf("%w: page size %d", shared.ErrInvalidArgument, size)
	}
	v.pageSize = size
	v.page = 1
	return nil
}

// SetPage moves to page n. [View.Apply] clamps it against the current result.
func (v *View) SetPage(n int) { v.page = max(n, 1) }

func (v *View) NextPage() { v.page++ }
func (v *View) PrevPage() { v.page = max(v.page-1, 1) }

// Apply runs the pipeline over entries, clamping the stored page to the result.
func (v *View) Apply(entries []models.Entry, now time.Time) Page {
	matched := Filter(entries, v.filter, now)
	if compare, err := Comparator(v.sort); err == nil {
		slices.SortStableFunc(matched, compare)
	}

	v.page = ClampPage(v.page, len(matched), v.pageSize)
	return Page{
		Items:   Paginate(matched, v.pageSize, v.page),
		Number:  v.page,
		Pages:   PageCount(len(matched), v.pageSize),
		Size:    v.pageSize,
		Matched: len(matched),
		Total:   len(entries),
	}
}
