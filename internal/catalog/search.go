package catalog

import (
	"net/url"
	"strings"
)

// DefaultPageSize is how many entries one page reveals.
const DefaultPageSize = 6

// FilterByQuery keeps entries whose title contains query, ignoring case.
// Entries without a title are matched on their unescaped metadata URI instead.
// A blank query matches everything.
func FilterByQuery(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(searchable(e)), q) {
			out = append(out, e)
		}
	}
	return out
}

func searchable(e Entry) string {
	if e.Metadata.HasTitle() {
		return e.Metadata.Title
	}
	if raw, err := url.QueryUnescape(e.Record.MetadataURI); err == nil {
		return raw
	}
	return e.Record.MetadataURI
}

// Page returns the pageSize entries starting at offset. An offset at or past
// the end yields an empty slice.
func Page(filtered []Entry, offset, pageSize int) []Entry {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(filtered) {
		return []Entry{}
	}
	end := offset + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end]
}

// SearchSession is the search box and scroll position of one catalog view.
// Offset counts entries already handed out for Query.
type SearchSession struct {
	Query  string `json:"query"`
	Offset int    `json:"offset"`
}

// SetQuery changes the query. A different query invalidates the pages
// already returned, so Offset goes back to 0.
func (s *SearchSession) SetQuery(q string) {
	if q == s.Query {
		return
	}
	s.Query = q
	s.Offset = 0
}

// Next returns the next increment of matching entries and advances Offset.
// Once everything has been returned further calls return an empty slice.
func (s *SearchSession) Next(entries []Entry, pageSize int) []Entry {
	if s.Offset < 0 {
		s.Offset = 0
	}
	page := Page(FilterByQuery(entries, s.Query), s.Offset, pageSize)
	s.Offset += len(page)
	return page
}

// HasMore reports whether Next would return anything.
func (s *SearchSession) HasMore(entries []Entry) bool {
	return s.Offset < len(FilterByQuery(entries, s.Query))
}
