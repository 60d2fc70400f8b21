package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/platform"
)

// Search constants
const (
	SearchPrefix         = "ytsearch"
	DefaultSearchTimeout = 60 * time.Second
)

// searchFunc runs a yt-dlp search and returns its JSON-lines output
type searchFunc func(ctx context.Context, target string) (string, error)

// SearchResolver finds candidates with a yt-dlp ytsearch query
type SearchResolver struct {
	timeout time.Duration
	logger  *log.Logger
	search  searchFunc
}

// NewSearchResolver creates a resolver backed by yt-dlp
func NewSearchResolver(logger *log.Logger) *SearchResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &SearchResolver{
		timeout: DefaultSearchTimeout,
		logger:  logger,
		search:  runSearch,
	}
}

// SetTimeout sets the timeout for one search
func (r *SearchResolver) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		r.timeout = timeout
	}
}

// Search returns at most n candidates for the query in ranking order
func (r *SearchResolver) Search(ctx context.Context, query string, n int) ([]model.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if n <= 0 {
		return nil, fmt.Errorf("invalid result count %d", n)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	target := SearchTarget(query, n)
	r.logger.Printf("Searching %q", target)

	output, err := r.search(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	candidates := ParseSearchOutput(output)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// SearchTarget builds the yt-dlp search URL, e.g. ytsearch5:artist
func SearchTarget(query string, n int) string {
	return fmt.Sprintf("%s%d:%s", SearchPrefix, n, query)
}

func runSearch(ctx context.Context, target string) (string, error) {
	res, err := ytdlp.New().
		FlatPlaylist().
		DumpJSON().
		Run(ctx, target)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// searchEntry is the subset of a flat-playlist JSON line we read
type searchEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Duration   float64 `json:"duration"`
}

// ParseSearchOutput parses yt-dlp JSON-lines output. Lines that are not
// JSON or carry no ID are skipped.
func ParseSearchOutput(output string) []model.Candidate {
	var candidates []model.Candidate
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var e searchEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if e.ID == "" {
			continue
		}

		u := e.WebpageURL
		if u == "" || !strings.HasPrefix(u, "http") {
			u = e.URL
		}
		if u == "" || !strings.HasPrefix(u, "http") {
			u = platform.VideoURL(e.ID)
		}

		candidates = append(candidates, model.Candidate{
			ID:       e.ID,
			Title:    e.Title,
			URL:      u,
			Duration: time.Duration(e.Duration * float64(time.Second)),
		})
	}
	return candidates
}
