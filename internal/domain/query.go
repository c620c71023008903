package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoKeywords is returned when the include list is empty after trimming.
var ErrNoKeywords = errors.New("at least one keyword to include is required")

// SearchQuery is the immutable input of one run.
type SearchQuery struct {
	Include []string
	Exclude []string
	Pages   int
}

// NewSearchQuery parses comma-separated keyword strings and validates the page budget.
func NewSearchQuery(include, exclude string, pages, maxPages int) (SearchQuery, error) {
	q := SearchQuery{
		Include: SplitKeywords(include),
		Exclude: SplitKeywords(exclude),
		Pages:   pages,
	}
	if len(q.Include) == 0 {
		return SearchQuery{}, ErrNoKeywords
	}
	if pages < 1 || (maxPages > 0 && pages > maxPages) {
		return SearchQuery{}, fmt.Errorf("page count %d out of range 1-%d", pages, maxPages)
	}
	return q, nil
}

// SplitKeywords splits a comma-separated list, trimming blanks.
func SplitKeywords(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Terms renders the query string: included terms OR-ed, excluded terms negated.
func (q SearchQuery) Terms() string {
	var b strings.Builder
	b.WriteString(strings.Join(q.Include, " | "))
	for _, ex := range q.Exclude {
		b.WriteString(" -")
		b.WriteString(ex)
	}
	return b.String()
}
