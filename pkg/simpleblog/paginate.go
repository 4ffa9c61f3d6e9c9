package simpleblog

import (
	"errors"
	"strconv"
	"strings"
)

// Pagination holds the clamped bounds of one page
type Pagination struct {
	Page       int
	TotalPages int
	Offset     int
}

// Paginate computes page bounds for a listing of totalCount items. It never
// fails: the requested page is clamped to [1, TotalPages], a negative total
// counts as zero and a non-positive page size as one.
func Paginate(totalCount, requestedPage, pageSize int) Pagination {
	if totalCount < 0 {
		totalCount = 0
	}
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		Page:       page,
		TotalPages: totalPages,
		Offset:     (page - 1) * pageSize,
	}
}

// ParsePage converts a raw pagenum value into a page number. Missing or
// non-numeric input yields 1. Numbers too large for an int saturate; range
// clamping is left to Paginate.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return n
		}
		return 1
	}
	return n
}
