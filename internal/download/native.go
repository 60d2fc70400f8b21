package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/platform"
)

// Raw stream suffix, removed once transcoded
const RawStreamSuffix = ".stream"

// Transcoder converts a downloaded stream into the output container
type Transcoder interface {
	Transcode(ctx context.Context, in, out string, format media.Format) error
}

// NativeService downloads the best audio-only stream with the YouTube client
// library and transcodes it with ffmpeg.
type NativeService struct {
	client     *youtube.Client
	transcoder Transcoder
	format     media.Format
	onProgress ProgressFunc
	logger     *log.Logger
}

// NewNativeService creates a library backed downloader
func NewNativeService(transcoder Transcoder, format media.Format, logger *log.Logger) *NativeService {
	if logger == nil {
		logger = log.Default()
	}
	return &NativeService{
		client:     &youtube.Client{},
		transcoder: transcoder,
		format:     format,
		logger:     logger,
	}
}

// SetProgressCallback sets the callback for download progress
func (s *NativeService) SetProgressCallback(callback ProgressFunc) {
	s.onProgress = callback
}

// Download fetches the candidate's audio into dir as video_<id>.<ext>
func (s *NativeService) Download(ctx context.Context, c model.Candidate, dir string) (string, error) {
	id := platform.ExtractVideoID(c.URL)
	if id == "" {
		id = c.ID
	}
	if id == "" {
		return "", fmt.Errorf("no video id in %s", c.URL)
	}

	video, err := s.client.GetVideoContext(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get video %s: %w", id, err)
	}

	format, err := pickAudioFormat(video.Formats.WithAudioChannels())
	if err != nil {
		return "", fmt.Errorf("video %s: %w", id, err)
	}

	stream, size, err := s.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("get stream %s: %w", id, err)
	}
	defer stream.Close()

	out := filepath.Join(dir, platform.DownloadFileName(id, s.format.Extension()))
	raw := out + RawStreamSuffix
	defer os.Remove(raw)

	if err := s.saveStream(c, stream, size, raw); err != nil {
		return "", fmt.Errorf("save stream %s: %w", id, err)
	}

	s.logger.Printf("Transcoding %s to %s", filepath.Base(raw), s.format)
	if err := s.transcoder.Transcode(ctx, raw, out, s.format); err != nil {
		return "", fmt.Errorf("transcode %s: %w", id, err)
	}
	return out, nil
}

// saveStream copies the stream to path, removing it on failure
func (s *NativeService) saveStream(c model.Candidate, stream io.Reader, size int64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	if s.onProgress != nil && size > 0 {
		w = &progressWriter{w: f, total: size, report: func(p int) { s.onProgress(c, p) }}
	}

	if _, err := io.Copy(w, stream); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// pickAudioFormat prefers audio-only formats, then the highest bitrate
func pickAudioFormat(formats youtube.FormatList) (*youtube.Format, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("no audio formats available")
	}

	sorted := make(youtube.FormatList, len(formats))
	copy(sorted, formats)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai := strings.HasPrefix(sorted[i].MimeType, "audio/")
		aj := strings.HasPrefix(sorted[j].MimeType, "audio/")
		if ai != aj {
			return ai
		}
		return sorted[i].Bitrate > sorted[j].Bitrate
	})
	return &sorted[0], nil
}

// progressWriter reports whole-percent steps while copying
type progressWriter struct {
	w       io.Writer
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	percent := int(p.written * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent != p.last {
		p.last = percent
		p.report(percent)
	}
	return n, err
}
