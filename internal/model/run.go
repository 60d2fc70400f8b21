package model

import (
	"time"
)

// Run represents one mashup request from query to delivered file
type Run struct {
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	Count         int           `json:"count"`
	ClipDuration  time.Duration `json:"clip_duration"`
	Dir           string        `json:"dir"`
	Tracks        []*Track      `json:"tracks"`
	Status        RunStatus     `json:"status"`
	OutputPath    string        `json:"output_path,omitempty"`
	ArchivePath   string        `json:"archive_path,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	Error         string        `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	intermediates []string
}

// NewRun creates a new run in the resolving state
func NewRun(id, query string, count int, clipDuration time.Duration, dir string) *Run {
	now := time.Now()
	return &Run{
		ID:           id,
		Query:        query,
		Count:        count,
		ClipDuration: clipDuration,
		Dir:          dir,
		Tracks:       make([]*Track, 0, count),
		Status:       RunStatusResolving,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddTrack appends a track to the run
func (r *Run) AddTrack(track *Track) {
	r.Tracks = append(r.Tracks, track)
	r.UpdatedAt = time.Now()
}

// UpdateStatus updates the run status
func (r *Run) UpdateStatus(status RunStatus) {
	r.Status = status
	r.UpdatedAt = time.Now()
}

// Warn records a non-fatal problem
func (r *Run) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
	r.UpdatedAt = time.Now()
}

// Fail moves the run into the error state
func (r *Run) Fail(err error) {
	r.Status = RunStatusError
	if err != nil {
		r.Error = err.Error()
	}
	r.UpdatedAt = time.Now()
}

// TrackCreated registers an intermediate file that cleanup must remove
func (r *Run) TrackCreated(path string) {
	if path == "" {
		return
	}
	r.intermediates = append(r.intermediates, path)
}

// IntermediatePaths returns every intermediate file created during the run, in creation order
func (r *Run) IntermediatePaths() []string {
	out := make([]string, len(r.intermediates))
	copy(out, r.intermediates)
	return out
}

// UsableClips returns the clip paths of trimmed tracks in track order
func (r *Run) UsableClips() []string {
	var clips []string
	for _, track := range r.Tracks {
		if track.Status.IsUsable() && track.ClipPath != "" {
			clips = append(clips, track.ClipPath)
		}
	}
	return clips
}

// TotalClipDuration returns the summed duration of all usable clips
func (r *Run) TotalClipDuration() time.Duration {
	var total time.Duration
	for _, track := range r.Tracks {
		if track.Status.IsUsable() {
			total += track.ClipDuration
		}
	}
	return total
}

// GetProgress returns overall track progress as percentage
func (r *Run) GetProgress() float64 {
	if len(r.Tracks) == 0 {
		return 0
	}

	finished := 0
	for _, track := range r.Tracks {
		if track.Status.IsFinished() {
			finished++
		}
	}
	return float64(finished) / float64(len(r.Tracks)) * 100
}

// HasErrors checks if any track has errors
func (r *Run) HasErrors() bool {
	for _, track := range r.Tracks {
		if track.Status == TrackStatusError {
			return true
		}
	}
	return false
}

// Deliverable returns the archive when present, otherwise the merged output
func (r *Run) Deliverable() string {
	if r.ArchivePath != "" {
		return r.ArchivePath
	}
	return r.OutputPath
}
