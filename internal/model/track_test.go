package model

import (
	"errors"
	"testing"
	"time"
)

func TestTrack_GetClipString(t *testing.T) {
	tests := []struct {
		start    time.Duration
		duration time.Duration
		expected string
	}{
		{0, 0, "—"},
		{0, 30 * time.Second, "00:00+00:30"},
		{2 * time.Second, 20 * time.Second, "00:02+00:20"},
		{90 * time.Second, 61 * time.Second, "01:30+01:01"},
		{time.Hour, time.Minute, "01:00:00+01:00"},
	}

	for _, test := range tests {
		track := &Track{ClipStart: test.start, ClipDuration: test.duration}
		result := track.GetClipString()
		if result != test.expected {
			t.Errorf("GetClipString() with start=%v duration=%v = %s, expected %s", test.start, test.duration, result, test.expected)
		}
	}
}

func TestTrack_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected string
	}{
		{
			name:     "title wins",
			track:    Track{Candidate: Candidate{Title: "Song Title", URL: "https://youtube.com/watch?v=1"}},
			expected: "Song Title",
		},
		{
			name:     "url-like title falls back to filename",
			track:    Track{Candidate: Candidate{Title: "https://x"}, SourcePath: "/tmp/run/video_abc.mp3"},
			expected: "video_abc",
		},
		{
			name:     "url when nothing else",
			track:    Track{Candidate: Candidate{URL: "https://youtube.com/watch?v=2"}},
			expected: "https://youtube.com/watch?v=2",
		},
		{
			name:     "id as last resort",
			track:    Track{Candidate: Candidate{ID: "abc123"}},
			expected: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.GetDisplayTitle(); got != tt.expected {
				t.Errorf("GetDisplayTitle() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestTrack_FailAndSkip(t *testing.T) {
	track := NewTrack(0, Candidate{ID: "a"})
	if track.Status != TrackStatusPending {
		t.Fatalf("Expected pending status, got %s", track.Status)
	}

	track.Fail(errors.New("boom"))
	if track.Status != TrackStatusError || track.LastError != "boom" {
		t.Errorf("Expected error status with message, got %s / %q", track.Status, track.LastError)
	}
	if track.FinishedAt.IsZero() {
		t.Error("Expected FinishedAt to be set")
	}

	other := NewTrack(1, Candidate{ID: "b"})
	other.Skip("file not found")
	if other.Status != TrackStatusSkipped || other.LastError != "file not found" {
		t.Errorf("Expected skipped status with reason, got %s / %q", other.Status, other.LastError)
	}
}
