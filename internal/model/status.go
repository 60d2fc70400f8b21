package model

// TrackStatus represents the state of a single track inside a mashup run
type TrackStatus string

const (
	// TrackStatusPending means the candidate is queued but not fetched
	TrackStatusPending TrackStatus = "Pending"

	// TrackStatusDownloading means the audio is being fetched
	TrackStatusDownloading TrackStatus = "Downloading"

	// TrackStatusDownloaded means a local source file exists
	TrackStatusDownloaded TrackStatus = "Downloaded"

	// TrackStatusTrimmed means the clip was cut and is ready for merging
	TrackStatusTrimmed TrackStatus = "Trimmed"

	// TrackStatusSkipped means the track was dropped without a hard failure
	TrackStatusSkipped TrackStatus = "Skipped"

	// TrackStatusError means acquisition or trimming failed
	TrackStatusError TrackStatus = "Error"
)

// String returns the string representation of TrackStatus
func (ts TrackStatus) String() string {
	return string(ts)
}

// IsFinished returns true if the track will not change state anymore
func (ts TrackStatus) IsFinished() bool {
	return ts == TrackStatusTrimmed || ts == TrackStatusSkipped || ts == TrackStatusError
}

// IsUsable returns true if the track contributes a clip to the merge
func (ts TrackStatus) IsUsable() bool {
	return ts == TrackStatusTrimmed
}

// RunStatus represents the pipeline stage a run is in
type RunStatus string

const (
	RunStatusResolving   RunStatus = "resolving"
	RunStatusDownloading RunStatus = "downloading"
	RunStatusTrimming    RunStatus = "trimming"
	RunStatusMerging     RunStatus = "merging"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusError       RunStatus = "error"
)

// IsFinished returns true if the run reached a terminal state
func (rs RunStatus) IsFinished() bool {
	return rs == RunStatusCompleted || rs == RunStatusError
}
