package model

import (
	"errors"
	"testing"
	"time"
)

func newTestRun() *Run {
	run := NewRun("run-1", "artist", 3, 20*time.Second, "/tmp/run-1")
	for i, id := range []string{"a", "b", "c"} {
		run.AddTrack(NewTrack(i, Candidate{ID: id}))
	}
	return run
}

func TestNewRun(t *testing.T) {
	run := NewRun("run-1", "artist", 3, 20*time.Second, "/tmp/run-1")

	if run.Status != RunStatusResolving {
		t.Errorf("Expected status %s, got %s", RunStatusResolving, run.Status)
	}
	if len(run.Tracks) != 0 {
		t.Errorf("Expected no tracks, got %d", len(run.Tracks))
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestRun_UsableClipsKeepsOrder(t *testing.T) {
	run := newTestRun()
	run.Tracks[0].Status = TrackStatusTrimmed
	run.Tracks[0].ClipPath = "/tmp/run-1/trimmed_audio_0.mp3"
	run.Tracks[0].ClipDuration = 20 * time.Second
	run.Tracks[1].Skip("missing")
	run.Tracks[2].Status = TrackStatusTrimmed
	run.Tracks[2].ClipPath = "/tmp/run-1/trimmed_audio_2.mp3"
	run.Tracks[2].ClipDuration = 15 * time.Second

	clips := run.UsableClips()
	if len(clips) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(clips))
	}
	if clips[0] != "/tmp/run-1/trimmed_audio_0.mp3" || clips[1] != "/tmp/run-1/trimmed_audio_2.mp3" {
		t.Errorf("Unexpected clip order: %v", clips)
	}

	if total := run.TotalClipDuration(); total != 35*time.Second {
		t.Errorf("Expected total 35s, got %v", total)
	}
}

func TestRun_GetProgress(t *testing.T) {
	run := NewRun("run-1", "artist", 0, 0, "")
	if run.GetProgress() != 0 {
		t.Errorf("Expected 0 progress for empty run, got %v", run.GetProgress())
	}

	run = newTestRun()
	run.Tracks[0].Status = TrackStatusTrimmed
	run.Tracks[1].Fail(errors.New("x"))

	progress := run.GetProgress()
	expected := float64(2) / float64(3) * 100
	if progress != expected {
		t.Errorf("Expected progress %v, got %v", expected, progress)
	}
	if !run.HasErrors() {
		t.Error("Expected HasErrors to be true")
	}
}

func TestRun_IntermediatePaths(t *testing.T) {
	run := newTestRun()
	run.TrackCreated("/tmp/a.mp3")
	run.TrackCreated("")
	run.TrackCreated("/tmp/b.mp3")

	paths := run.IntermediatePaths()
	if len(paths) != 2 {
		t.Fatalf("Expected 2 paths, got %d", len(paths))
	}

	// returned slice is a copy
	paths[0] = "changed"
	if run.IntermediatePaths()[0] != "/tmp/a.mp3" {
		t.Error("IntermediatePaths should return a copy")
	}
}

func TestRun_Deliverable(t *testing.T) {
	run := newTestRun()
	run.OutputPath = "/tmp/run-1/mashup.mp3"
	if run.Deliverable() != run.OutputPath {
		t.Errorf("Expected output path, got %s", run.Deliverable())
	}

	run.ArchivePath = "/tmp/run-1/mashup.zip"
	if run.Deliverable() != run.ArchivePath {
		t.Errorf("Expected archive path, got %s", run.Deliverable())
	}
}

func TestRun_Fail(t *testing.T) {
	run := newTestRun()
	run.Fail(errors.New("merge failed"))

	if run.Status != RunStatusError {
		t.Errorf("Expected error status, got %s", run.Status)
	}
	if run.Error != "merge failed" {
		t.Errorf("Expected error message, got %q", run.Error)
	}
}
