package browse

// PageSizes are the page sizes offered to users.
var PageSizes = []int{10, 20, 50}

// DefaultPageSize is used when no size is configured.
const DefaultPageSize = 20

// Paginate returns the window [(page-1)*size, page*size) of list, clamped to
// its bounds. Callers clamp page with [ClampPage] first; out-of-range pages
// yield an empty window. A non-positive size returns the whole list.
func Paginate[T any](list []T, size, page int) []T {
	if size <= 0 {
		return list
	}
	start := (page - 1) * size
	end := start + size
	start = min(max(start, 0), len(list))
	end = min(max(end, start), len(list))
	return list[start:end]
}

// PageCount is ceil(total/size), with at least one page so an empty result
// still has a page 1.
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage limits page to [1, PageCount(total, size)].
func ClampPage(page, total, size int) int {
	return min(max(page, 1), PageCount(total, size))
}
