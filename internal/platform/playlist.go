package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/mashup/internal/model"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
	videoIDLength           = 11
)

// PlaylistFetcher returns up to limit items of a playlist; limit 0 means all
type PlaylistFetcher func(ctx context.Context, playlistID string, limit int) ([]model.Candidate, error)

// PlaylistExpander turns playlist URLs into the candidates they contain
type PlaylistExpander struct {
	timeout time.Duration
	fetch   PlaylistFetcher
}

// NewPlaylistExpander creates an expander backed by the ytdlp library
func NewPlaylistExpander() *PlaylistExpander {
	return &PlaylistExpander{
		timeout: DefaultPlaylistParseTimeout,
		fetch:   fetchPlaylistItems,
	}
}

// SetTimeout sets the timeout for a single expansion
func (p *PlaylistExpander) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		p.timeout = timeout
	}
}

// SetFetcher replaces the playlist backend
func (p *PlaylistExpander) SetFetcher(fetch PlaylistFetcher) {
	if fetch != nil {
		p.fetch = fetch
	}
}

// Expand returns the playlist's videos in playlist order
func (p *PlaylistExpander) Expand(ctx context.Context, url string, limit int) ([]model.Candidate, error) {
	if !IsPlaylistURL(url) {
		return nil, fmt.Errorf("invalid playlist URL: %s", url)
	}

	playlistID := ExtractPlaylistID(url)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", url)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	candidates, err := p.fetch(ctx, playlistID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// IsPlaylistURL checks if the URL carries a playlist parameter
func IsPlaylistURL(rawURL string) bool {
	return strings.Contains(rawURL, PlaylistURLParam)
}

// ExtractPlaylistID extracts the playlist ID from the list= query parameter
func ExtractPlaylistID(rawURL string) string {
	parts := strings.SplitN(rawURL, PlaylistURLParam, 2)
	if len(parts) < 2 {
		return ""
	}
	id := parts[1]
	if i := strings.Index(id, PlaylistParamSeparator); i >= 0 {
		id = id[:i]
	}
	if i := strings.Index(id, "#"); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSpace(id)
}

// ExtractVideoID returns the video ID of a watch, short or embed link on a
// YouTube host, or "" when the URL does not point at a single video.
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch host {
	case "youtu.be":
		id = segments[0]
	case "youtube.com", "youtube-nocookie.com":
		switch segments[0] {
		case "watch":
			id = u.Query().Get("v")
		case "shorts", "embed", "live", "v":
			if len(segments) > 1 {
				id = segments[1]
			}
		}
	}

	if !isVideoID(id) {
		return ""
	}
	return id
}

func isVideoID(id string) bool {
	if len(id) != videoIDLength {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// VideoURL returns the watch URL for a video ID
func VideoURL(id string) string {
	return fmt.Sprintf(YouTubeVideoURLTemplate, id)
}

// fetchPlaylistItems loads the whole playlist; Expand applies the limit
func fetchPlaylistItems(ctx context.Context, playlistID string, _ int) ([]model.Candidate, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		candidates = append(candidates, model.Candidate{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   VideoURL(it.VideoID),
		})
	}
	return candidates, nil
}
