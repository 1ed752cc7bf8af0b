// Package paging slices 1-based pages out of in-memory result sets.
package paging

// Window returns the [start, end) bounds of one page over total items and
// whether items remain after it. Page and limit must be at least 1. The
// bounds never overflow, so any page or limit yields an empty page rather
// than a panic.
func Window(total, page, limit int) (start, end int, hasMore bool) {
	if total <= 0 || page < 1 || limit < 1 {
		return 0, 0, false
	}
	skipped := page - 1
	if skipped > total/limit {
		return total, total, false
	}
	start = skipped * limit
	end = start + min(limit, total-start)
	return start, end, end < total
}
