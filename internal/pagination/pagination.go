// Package pagination provides the shared page/limit parsing and the
// list-plus-count result shape used by every paginated read query.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is applied when the caller omits or mangles the limit.
	DefaultLimit = 10
	// DefaultMaxLimit caps the page size when no explicit cap is configured.
	DefaultMaxLimit = 100
)

// Page is a validated page request. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// FromQuery parses page and limit query parameters, clamping the limit to
// maxLimit. Invalid or non-positive values fall back to the defaults.
func FromQuery(values url.Values, maxLimit int) Page {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}

	page := positiveInt(values.Get("page"), 1)
	limit := positiveInt(values.Get("limit"), DefaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	return Page{Number: page, Limit: limit}
}

// Result pairs one page of rows with the total count of all matching rows,
// unaffected by page or limit.
type Result[T any] struct {
	Items      []T `json:"paginatedResults"`
	TotalCount int `json:"totalCount"`
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
