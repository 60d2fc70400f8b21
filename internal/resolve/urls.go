package resolve

import (
	"context"
	"fmt"
	"log"

	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/platform"
)

// Expander expands a playlist URL into its items
type Expander interface {
	Expand(ctx context.Context, url string, limit int) ([]model.Candidate, error)
}

// URLResolver takes a literal list of URLs, expanding playlist links
type URLResolver struct {
	playlists Expander
	logger    *log.Logger
}

// NewURLResolver creates a resolver for URL lists
func NewURLResolver(playlists Expander, logger *log.Logger) *URLResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &URLResolver{playlists: playlists, logger: logger}
}

// Resolve returns candidates for urls in input order. A playlist that cannot
// be expanded is logged and skipped. n <= 0 keeps everything.
func (r *URLResolver) Resolve(ctx context.Context, urls []string, n int) ([]model.Candidate, error) {
	var candidates []model.Candidate
	for i, u := range urls {
		if n > 0 && len(candidates) >= n {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if platform.IsPlaylistURL(u) && r.playlists != nil && !isWatchURL(u) {
			remaining := 0
			if n > 0 {
				remaining = n - len(candidates)
			}
			items, err := r.playlists.Expand(ctx, u, remaining)
			if err != nil {
				r.logger.Printf("Skipping playlist %s: %v", u, err)
				continue
			}
			candidates = append(candidates, items...)
			continue
		}

		candidates = append(candidates, candidateFromURL(i, u))
	}

	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// candidateFromURL derives the video ID when the URL carries one
func candidateFromURL(index int, u string) model.Candidate {
	id := platform.ExtractVideoID(u)
	if id == "" {
		id = fmt.Sprintf("url%d", index)
	}
	return model.Candidate{ID: id, URL: u}
}

// isWatchURL reports whether a URL with list= also points at one video, in
// which case the video itself is meant.
func isWatchURL(u string) bool {
	return platform.ExtractVideoID(u) != ""
}
