package search

const windowSize = 5

// TotalPages is ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageWindow returns the zero-based page numbers shown in the pager: at
// most five, centred on current and clamped to both ends.
func PageWindow(current, totalPages int) []int {
	n := min(windowSize, totalPages)
	if n <= 0 {
		return nil
	}
	var start int
	switch {
	case totalPages <= windowSize, current <= 2:
		start = 0
	case current >= totalPages-3:
		start = totalPages - windowSize
	default:
		start = current - 2
	}
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}
