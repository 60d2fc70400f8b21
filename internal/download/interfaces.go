package download

import (
	"context"

	"github.com/ytget/mashup/internal/model"
)

// Downloader fetches the audio of one candidate into dir and returns the
// path of the local file.
type Downloader interface {
	Download(ctx context.Context, c model.Candidate, dir string) (string, error)
}

// ProgressFunc receives download progress for a candidate in percent
type ProgressFunc func(c model.Candidate, percent int)
