package download

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/model"
)

func newTestService(t *testing.T, attempt attemptFunc) *YTDLPService {
	t.Helper()
	s := NewYTDLPService(media.FormatMP3, log.New(io.Discard, "", 0))
	s.retryDelay = time.Millisecond
	s.attempt = func(*ytdlp.Command) attemptFunc { return attempt }
	return s
}

func TestNewYTDLPService(t *testing.T) {
	s := NewYTDLPService(media.FormatMP3, nil)

	if s.quality != DefaultAudioQuality {
		t.Errorf("Expected quality %q, got %q", DefaultAudioQuality, s.quality)
	}
	if s.retries != 0 {
		t.Errorf("Expected no retries by default, got %d", s.retries)
	}
	if s.logger == nil {
		t.Error("Expected default logger")
	}

	s.SetAudioQuality("128k")
	if s.quality != "128K" {
		t.Errorf("Expected quality 128K, got %q", s.quality)
	}
	s.SetAudioQuality("")
	if s.quality != DefaultAudioQuality {
		t.Errorf("Expected default quality after reset, got %q", s.quality)
	}

	s.SetRetries(-3)
	if s.retries != 0 {
		t.Errorf("Expected negative retries clamped to 0, got %d", s.retries)
	}
}

func TestDownloadWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		retries   int
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"success first try", 0, 0, 1, false},
		{"no retry by default", 0, 1, 1, true},
		{"retry recovers", 2, 1, 2, false},
		{"retries exhausted", 2, 5, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			s := newTestService(t, func(ctx context.Context, url string) (*ytdlp.Result, error) {
				calls++
				if calls <= tt.failures {
					return nil, errors.New("HTTP Error 403")
				}
				return &ytdlp.Result{}, nil
			})
			s.SetRetries(tt.retries)

			c := model.Candidate{ID: "abc", URL: "https://www.youtube.com/watch?v=abc"}
			_, err := s.downloadWithRetry(context.Background(), s.attempt(nil), c)

			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestDownloadWithRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := newTestService(t, func(context.Context, string) (*ytdlp.Result, error) {
		calls++
		cancel()
		return nil, errors.New("killed")
	})
	s.SetRetries(3)

	_, err := s.downloadWithRetry(ctx, s.attempt(nil), model.Candidate{ID: "abc", URL: "u"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no retry after cancel, got %d calls", calls)
	}
}

func TestDownload_FindsOutputFile(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "video_abc.mp3")
	s := newTestService(t, func(context.Context, string) (*ytdlp.Result, error) {
		if err := os.WriteFile(want, []byte("ID3"), 0644); err != nil {
			return nil, err
		}
		return nil, nil
	})

	got, err := s.Download(context.Background(), model.Candidate{ID: "abc", URL: "https://www.youtube.com/watch?v=abc"}, dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != want {
		t.Errorf("Download = %q, want %q", got, want)
	}
}

func TestDownload_MissingOutputFile(t *testing.T) {
	dir := t.TempDir()
	s := newTestService(t, func(context.Context, string) (*ytdlp.Result, error) {
		return nil, nil
	})

	_, err := s.Download(context.Background(), model.Candidate{ID: "abc", URL: "u"}, dir)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestDownload_RequiresURL(t *testing.T) {
	s := newTestService(t, func(context.Context, string) (*ytdlp.Result, error) {
		t.Fatal("attempt must not run without a URL")
		return nil, nil
	})
	if _, err := s.Download(context.Background(), model.Candidate{ID: "abc"}, t.TempDir()); err == nil {
		t.Error("Expected error for empty URL")
	}
}

func TestUpdateProgress(t *testing.T) {
	s := newTestService(t, nil)

	var got []int
	s.SetProgressCallback(func(c model.Candidate, percent int) {
		got = append(got, percent)
	})

	c := model.Candidate{ID: "abc"}
	s.updateProgress(c, &ytdlp.ProgressUpdate{DownloadedBytes: 50, TotalBytes: 200})
	s.updateProgress(c, &ytdlp.ProgressUpdate{DownloadedBytes: 10, TotalBytes: 0})
	s.updateProgress(c, &ytdlp.ProgressUpdate{DownloadedBytes: 200, TotalBytes: 200})

	if len(got) != 2 || got[0] != 25 || got[1] != 100 {
		t.Errorf("progress = %v, want [25 100]", got)
	}
}
