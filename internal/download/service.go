package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/platform"
)

// yt-dlp defaults
const (
	BestAudioFormat       = "bestaudio/best"
	DefaultAudioQuality   = "192K"
	OutputTemplate        = platform.DownloadPrefix + "%(id)s.%(ext)s"
	ProgressInterval      = 500 * time.Millisecond
	DefaultRetryDelay     = 2 * time.Second
	UserAgentHeaderPrefix = "User-Agent:"
)

// attemptFunc runs one download attempt for url
type attemptFunc func(ctx context.Context, url string) (*ytdlp.Result, error)

// YTDLPService downloads audio with yt-dlp
type YTDLPService struct {
	format     media.Format
	quality    string
	userAgent  string
	retries    int
	retryDelay time.Duration
	onProgress ProgressFunc
	logger     *log.Logger

	// attempt overrides the yt-dlp invocation in tests
	attempt func(dl *ytdlp.Command) attemptFunc
}

// NewYTDLPService creates a yt-dlp backed downloader extracting audio into format
func NewYTDLPService(format media.Format, logger *log.Logger) *YTDLPService {
	if logger == nil {
		logger = log.Default()
	}
	return &YTDLPService{
		format:     format,
		quality:    DefaultAudioQuality,
		retryDelay: DefaultRetryDelay,
		logger:     logger,
		attempt: func(dl *ytdlp.Command) attemptFunc {
			return func(ctx context.Context, url string) (*ytdlp.Result, error) {
				return dl.Run(ctx, url)
			}
		},
	}
}

// SetAudioQuality sets the extracted audio quality (e.g. "192K")
func (s *YTDLPService) SetAudioQuality(quality string) {
	if quality == "" {
		quality = DefaultAudioQuality
	}
	s.quality = strings.ToUpper(quality)
}

// SetUserAgent sets the User-Agent header sent by yt-dlp
func (s *YTDLPService) SetUserAgent(ua string) {
	s.userAgent = ua
}

// SetRetries sets how many times a failed download is retried; 0 disables retries
func (s *YTDLPService) SetRetries(retries int) {
	if retries < 0 {
		retries = 0
	}
	s.retries = retries
}

// SetProgressCallback sets the callback for download progress
func (s *YTDLPService) SetProgressCallback(callback ProgressFunc) {
	s.onProgress = callback
}

// Download fetches the candidate's audio into dir as video_<id>.<ext>
func (s *YTDLPService) Download(ctx context.Context, c model.Candidate, dir string) (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("candidate %q has no URL", c.ID)
	}

	dl := s.buildCommand(dir)
	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		s.updateProgress(c, &update)
	})

	result, err := s.downloadWithRetry(ctx, s.attempt(dl), c)
	if err != nil {
		return "", err
	}

	return s.outputPath(result, c, dir)
}

// buildCommand configures yt-dlp for single-item audio extraction
func (s *YTDLPService) buildCommand(dir string) *ytdlp.Command {
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		NoPlaylist().
		Format(BestAudioFormat).
		ExtractAudio().
		AudioFormat(string(s.format)).
		AudioQuality(s.quality).
		PrintJSON().
		Output(filepath.Join(dir, OutputTemplate))

	if s.userAgent != "" {
		dl.AddHeaders(UserAgentHeaderPrefix + s.userAgent)
	}
	return dl
}

// downloadWithRetry attempts download with retry logic
func (s *YTDLPService) downloadWithRetry(ctx context.Context, attempt attemptFunc, c model.Candidate) (*ytdlp.Result, error) {
	var lastErr error

	for i := 0; i <= s.retries; i++ {
		if i > 0 {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			s.logger.Printf("Retrying download for %s, attempt %d", c.ID, i+1)
		}

		res, err := attempt(ctx, c.URL)
		if err == nil {
			return res, nil
		}

		lastErr = err
		s.logger.Printf("Download attempt %d failed for %s: %v", i+1, c.ID, err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("download %s: %w", c.ID, lastErr)
}

// outputPath prefers the filename yt-dlp reports and falls back to a lookup
// of the expected name in dir.
func (s *YTDLPService) outputPath(result *ytdlp.Result, c model.Candidate, dir string) (string, error) {
	if result != nil {
		info, err := result.GetExtractedInfo()
		if err == nil && len(info) > 0 && info[0].Filename != nil && *info[0].Filename != "" {
			reported := *info[0].Filename
			// With audio extraction the reported name still carries the source extension
			expected := strings.TrimSuffix(reported, filepath.Ext(reported)) + s.format.Extension()
			if found, err := platform.FindFileWithFallback(expected); err == nil {
				return found, nil
			}
		}
	}

	expected := filepath.Join(dir, platform.DownloadPrefix+c.ID+s.format.Extension())
	found, err := platform.FindFileWithFallback(expected)
	if err != nil {
		return "", errors.Join(fmt.Errorf("downloaded file for %s not found", c.ID), err)
	}
	return found, nil
}

// updateProgress forwards yt-dlp progress to the callback
func (s *YTDLPService) updateProgress(c model.Candidate, update *ytdlp.ProgressUpdate) {
	if s.onProgress == nil || update.TotalBytes <= 0 {
		return
	}
	percent := int(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
	s.onProgress(c, percent)
}
