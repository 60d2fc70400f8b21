package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ytget/mashup/internal/model"
)

// ErrNoCandidates is returned when a query yields nothing to download
var ErrNoCandidates = errors.New("no results found")

// Query is a parsed user query: either a URL list or free text
type Query struct {
	Text string
	URLs []string
}

// IsURLList reports whether the query is a literal list of URLs
func (q Query) IsURLList() bool {
	return len(q.URLs) > 0
}

// String returns the query as the user would recognise it
func (q Query) String() string {
	if q.IsURLList() {
		return strings.Join(q.URLs, ", ")
	}
	return q.Text
}

// ParseQuery treats input as a URL list when every non-empty line or
// comma-separated item is an http(s) URL, otherwise as search text.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if input == "" {
		return Query{}
	}

	items := strings.FieldsFunc(input, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	var urls []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !isHTTPURL(item) {
			return Query{Text: strings.Join(strings.Fields(input), " ")}
		}
		urls = append(urls, item)
	}

	if len(urls) == 0 {
		return Query{Text: input}
	}
	return Query{URLs: urls}
}

func isHTTPURL(s string) bool {
	if strings.ContainsAny(s, " \t") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Limit applies the count policy: more than n results are truncated, fewer
// are kept with a warning, none is ErrNoCandidates.
func Limit(candidates []model.Candidate, n int) ([]model.Candidate, string, error) {
	if len(candidates) == 0 {
		return nil, "", ErrNoCandidates
	}
	if n <= 0 || len(candidates) == n {
		return candidates, "", nil
	}
	if len(candidates) > n {
		return candidates[:n], "", nil
	}
	return candidates, fmt.Sprintf("only %d of %d results available", len(candidates), n), nil
}
