// Package browse turns a stored watchlist into the window a user sees.
//
// The pipeline is filter, then sort, then paginate:
//   - [Matches] and [Filter] evaluate a [FilterState] against entries
//   - [Comparator] and [Sort] order entries by a [SortMode] with a stable sort
//   - [Paginate], [PageCount] and [ClampPage] slice the ordered result
//
// [View] holds the state between renders and resets to the first page when the
// filter or page size changes. Everything here is pure: callers pass the
// current time and the entries, and nothing is cached.
package browse
