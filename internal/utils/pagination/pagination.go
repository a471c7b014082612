// Package pagination implements the 1-based page/page_size slicing used
// by the feed. The next-page token is simply page+1, or nil when the
// slice exhausted the input.
package pagination

const DefaultPageSize = 20

// Normalize clamps page and pageSize to sane values. Page is 1-based;
// a non-positive pageSize falls back to the default.
func Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// Bounds returns the [start, end) slice indexes for a page over total
// items, plus the next page number (nil when no items remain).
func Bounds(total, page, pageSize int) (start, end int, nextPage *int) {
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	if (page-1)*pageSize+pageSize < total {
		next := page + 1
		nextPage = &next
	}
	return start, end, nextPage
}
