package model

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is a search result identifying a downloadable media item
type Candidate struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	URL      string        `json:"url"`
	Duration time.Duration `json:"duration"` // zero if unknown
}

// Track represents one candidate moving through the pipeline
type Track struct {
	Index        int
	Candidate    Candidate
	Status       TrackStatus
	SourcePath   string        // downloaded audio file
	SourceLength time.Duration // probed length of the source
	ClipPath     string        // trimmed clip file
	ClipStart    time.Duration // offset into the source
	ClipDuration time.Duration // min(requested, source - offset)
	LastError    string        // last error message if any
	StartedAt    time.Time
	FinishedAt   time.Time
}

// NewTrack creates a pending track for the candidate at position index
func NewTrack(index int, c Candidate) *Track {
	return &Track{
		Index:     index,
		Candidate: c,
		Status:    TrackStatusPending,
	}
}

// Fail marks the track as failed with the given error
func (t *Track) Fail(err error) {
	t.Status = TrackStatusError
	if err != nil {
		t.LastError = err.Error()
	}
	t.FinishedAt = time.Now()
}

// Skip marks the track as skipped with a reason
func (t *Track) Skip(reason string) {
	t.Status = TrackStatusSkipped
	t.LastError = reason
	t.FinishedAt = time.Now()
}

// GetClipString returns the clip window formatted as "mm:ss+mm:ss", or "—" if not trimmed
func (t *Track) GetClipString() string {
	if t.ClipDuration <= 0 {
		return "—"
	}

	var b strings.Builder
	b.WriteString(formatClock(t.ClipStart))
	b.WriteString("+")
	b.WriteString(formatClock(t.ClipDuration))
	return b.String()
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (t *Track) GetDisplayTitle() string {
	// First priority: candidate title (non-URL)
	if t.Candidate.Title != "" && !strings.HasPrefix(t.Candidate.Title, "http") {
		return t.Candidate.Title
	}

	// Second priority: filename from SourcePath
	if t.SourcePath != "" {
		parts := strings.FieldsFunc(t.SourcePath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	if t.Candidate.URL != "" {
		return t.Candidate.URL
	}
	return t.Candidate.ID
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
