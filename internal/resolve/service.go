package resolve

import (
	"context"
	"fmt"
	"log"

	"github.com/ytget/mashup/internal/model"
)

// Searcher finds candidates for free text
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]model.Candidate, error)
}

// URLLister resolves a literal URL list
type URLLister interface {
	Resolve(ctx context.Context, urls []string, n int) ([]model.Candidate, error)
}

// Result is the outcome of resolving a query
type Result struct {
	Query      Query
	Candidates []model.Candidate
	Warning    string // set when fewer than the requested count were found
}

// Service dispatches a raw query to search or URL resolution and applies Limit
type Service struct {
	search Searcher
	urls   URLLister
	logger *log.Logger
}

// NewService creates a resolver service
func NewService(search Searcher, urls URLLister, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{search: search, urls: urls, logger: logger}
}

// Resolve returns at most n candidates for the raw query
func (s *Service) Resolve(ctx context.Context, raw string, n int) (*Result, error) {
	q := ParseQuery(raw)
	if q.Text == "" && !q.IsURLList() {
		return nil, fmt.Errorf("empty query: %w", ErrNoCandidates)
	}

	var (
		candidates []model.Candidate
		err        error
	)
	if q.IsURLList() {
		s.logger.Printf("Resolving %d URLs", len(q.URLs))
		candidates, err = s.urls.Resolve(ctx, q.URLs, n)
	} else {
		s.logger.Printf("Searching for %q (%d results)", q.Text, n)
		candidates, err = s.search.Search(ctx, q.Text, n)
	}
	if err != nil {
		return nil, err
	}

	limited, warning, err := Limit(candidates, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q, err)
	}
	if warning != "" {
		s.logger.Printf("Warning: %s", warning)
	}

	return &Result{Query: q, Candidates: limited, Warning: warning}, nil
}
