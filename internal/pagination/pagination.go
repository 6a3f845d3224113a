// Package pagination splits ordered listings into numbered pages.
//
// Requested page numbers are forgiving: anything missing or non-numeric is
// page 1, numbers below 1 clamp to 1 and numbers past the end clamp to the
// last page. An empty listing still has one (empty) page.
package pagination

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// FeedPageSize is used by the index and the followed feed.
	FeedPageSize = 10
	// ListingPageSize is used by group listings and profiles.
	ListingPageSize = 5
)

// Page describes one page of a listing. Items is filled by the caller for
// count-based pagination and by SlicePage for in-memory slices.
type Page[T any] struct {
	Items       []T
	Number      int
	NumPages    int
	PerPage     int
	Count       int64
	Offset      int
	HasNext     bool
	HasPrevious bool
}

// NextPageNumber is only meaningful when HasNext is true.
func (p Page[T]) NextPageNumber() int { return p.Number + 1 }

// PreviousPageNumber is only meaningful when HasPrevious is true.
func (p Page[T]) PreviousPageNumber() int { return p.Number - 1 }

// HasOtherPages reports whether navigation links are needed.
func (p Page[T]) HasOtherPages() bool { return p.HasNext || p.HasPrevious }

// PageRange lists every page number, for rendering numbered links.
func (p Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ParsePage turns the raw "page" query value into a number >= 1. A number too
// large for int saturates so callers clamp it to the last page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && n > 0 {
		return n
	}
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate computes page bounds for a listing of count items. Use the returned
// Offset and PerPage as LIMIT/OFFSET for the page query.
func Paginate[T any](count int64, perPage int, rawPage string) Page[T] {
	if perPage < 1 {
		perPage = 1
	}
	if count < 0 {
		count = 0
	}

	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	number := ParsePage(rawPage)
	if number > numPages {
		number = numPages
	}

	return Page[T]{
		Number:      number,
		NumPages:    numPages,
		PerPage:     perPage,
		Count:       count,
		Offset:      (number - 1) * perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
}

// SlicePage paginates an in-memory, already ordered slice.
func SlicePage[T any](items []T, perPage int, rawPage string) Page[T] {
	p := Paginate[T](int64(len(items)), perPage, rawPage)
	end := p.Offset + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	p.Items = items[p.Offset:end]
	return p
}
