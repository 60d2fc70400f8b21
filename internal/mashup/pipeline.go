package mashup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/mashup/internal/audio"
	"github.com/ytget/mashup/internal/compress"
	"github.com/ytget/mashup/internal/download"
	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/merge"
	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/platform"
	"github.com/ytget/mashup/internal/resolve"
)

// RunIDPrefix is used when a UUID cannot be generated
const RunIDPrefix = "run-"

// Resolver turns a raw query into candidates
type Resolver interface {
	Resolve(ctx context.Context, raw string, n int) (*resolve.Result, error)
}

// Trimmer measures sources and cuts clips
type Trimmer interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
	Trim(ctx context.Context, in, out string, start, length time.Duration, format media.Format) error
}

// Tagger writes metadata to a finished mashup
type Tagger interface {
	SaveTags(path string, info audio.TagInfo) error
}

// Pipeline wires the stages of a mashup run
type Pipeline struct {
	resolver   Resolver
	downloader download.Downloader
	trimmer    Trimmer
	merger     merge.Merger
	archiver   compress.Archiver
	tagger     Tagger

	baseDir  string
	limits   Limits
	format   media.Format
	logger   *log.Logger
	onUpdate func(*model.Run)
	newID    func() string
}

// NewPipeline creates a pipeline writing runs below baseDir
func NewPipeline(baseDir string, resolver Resolver, downloader download.Downloader, trimmer Trimmer, merger merge.Merger, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		resolver:   resolver,
		downloader: downloader,
		trimmer:    trimmer,
		merger:     merger,
		baseDir:    baseDir,
		limits:     DefaultLimits(),
		format:     media.DefaultFormat,
		logger:     logger,
		newID:      generateRunID,
	}
}

// SetArchiver enables zip delivery
func (p *Pipeline) SetArchiver(a compress.Archiver) {
	p.archiver = a
}

// SetTagger enables MP3 tagging of the output; nil disables it
func (p *Pipeline) SetTagger(t Tagger) {
	p.tagger = t
}

// SetLimits sets the count and duration floors
func (p *Pipeline) SetLimits(l Limits) {
	p.limits = l
}

// SetDefaultFormat sets the container used when neither the request nor the
// output name picks one
func (p *Pipeline) SetDefaultFormat(format media.Format) {
	if format != "" {
		p.format = format
	}
}

// Limits returns the configured floors
func (p *Pipeline) Limits() Limits {
	return p.limits
}

// SetUpdateCallback sets the callback for run updates
func (p *Pipeline) SetUpdateCallback(callback func(*model.Run)) {
	p.onUpdate = callback
}

// Run executes one mashup. The returned run is non-nil whenever the options
// were valid, also on error, so callers can report warnings and track errors.
func (p *Pipeline) Run(ctx context.Context, query string, opts Options) (*model.Run, error) {
	if err := opts.Validate(p.limits); err != nil {
		return nil, err
	}
	format := opts.Format
	if _, named := media.FormatFromPath(opts.OutputName); format == "" && !named {
		format = p.format
	}
	outputName, format := ResolveOutput(opts.OutputName, format)

	id := p.newID()
	run := model.NewRun(id, query, opts.Count, opts.ClipDuration, filepath.Join(p.baseDir, id))
	p.notify(run)

	// Resolve
	res, err := p.resolver.Resolve(ctx, query, opts.Count)
	if err != nil {
		return p.fail(run, fmt.Errorf("resolve: %w", err))
	}
	if res.Warning != "" {
		run.Warn(res.Warning)
	}
	for i, c := range res.Candidates {
		run.AddTrack(model.NewTrack(i, c))
	}
	p.logger.Printf("Run %s: %d candidates for %q", run.ID, len(run.Tracks), query)

	if err := platform.CreateDirectoryIfNotExists(run.Dir); err != nil {
		return p.fail(run, fmt.Errorf("create run directory: %w", err))
	}

	// Download
	run.UpdateStatus(model.RunStatusDownloading)
	p.notify(run)
	for _, track := range run.Tracks {
		if err := ctx.Err(); err != nil {
			return p.abort(run, opts, err)
		}
		p.download(ctx, run, track)
		p.notify(run)
	}

	// Trim
	run.UpdateStatus(model.RunStatusTrimming)
	p.notify(run)
	for _, track := range run.Tracks {
		if err := ctx.Err(); err != nil {
			return p.abort(run, opts, err)
		}
		if track.Status != model.TrackStatusDownloaded {
			continue
		}
		p.trim(ctx, run, track, opts.StartOffset, format)
		p.notify(run)
	}

	clips := run.UsableClips()
	if len(clips) == 0 {
		return p.abort(run, opts, merge.ErrNoValidClips)
	}

	// Merge
	run.UpdateStatus(model.RunStatusMerging)
	p.notify(run)
	output := filepath.Join(run.Dir, outputName)
	if err := p.merger.Merge(ctx, clips, output); err != nil {
		return p.abort(run, opts, err)
	}
	run.OutputPath = output
	p.logger.Printf("Run %s: merged %d clips (%s) into %s", run.ID, len(clips), run.TotalClipDuration(), output)

	p.tag(run, format)
	p.zip(ctx, run, opts)
	p.cleanup(run, opts)

	run.UpdateStatus(model.RunStatusCompleted)
	p.notify(run)
	return run, nil
}

// download fetches one track; failures skip the track
func (p *Pipeline) download(ctx context.Context, run *model.Run, track *model.Track) {
	track.Status = model.TrackStatusDownloading
	track.StartedAt = time.Now()
	p.notify(run)

	path, err := p.downloader.Download(ctx, track.Candidate, run.Dir)
	if err != nil {
		track.Fail(err)
		p.logger.Printf("Download failed for %s: %v", track.GetDisplayTitle(), err)
		run.Warn(fmt.Sprintf("Error downloading video %d. Skipping this video: %v", track.Index+1, err))
		return
	}

	run.TrackCreated(path)
	track.SourcePath = path
	track.Status = model.TrackStatusDownloaded
}

// trim cuts one clip; failures skip the track
func (p *Pipeline) trim(ctx context.Context, run *model.Run, track *model.Track, offset time.Duration, format media.Format) {
	length, err := p.trimmer.Probe(ctx, track.SourcePath)
	if err != nil {
		p.skipTrim(run, track, err)
		return
	}
	track.SourceLength = length

	clipLength := media.ClipLength(run.ClipDuration, length, offset)
	if clipLength <= 0 {
		track.Skip(fmt.Sprintf("source is %s long, shorter than the %s start offset", length, offset))
		run.Warn(fmt.Sprintf("Video %d is too short for the start offset. Skipping this video.", track.Index+1))
		return
	}

	clip := filepath.Join(run.Dir, platform.ClipFileName(track.Index, format.Extension()))
	if err := p.trimmer.Trim(ctx, track.SourcePath, clip, offset, clipLength, format); err != nil {
		p.skipTrim(run, track, err)
		return
	}

	run.TrackCreated(clip)
	track.ClipPath = clip
	track.ClipStart = offset
	track.ClipDuration = clipLength
	track.Status = model.TrackStatusTrimmed
	track.FinishedAt = time.Now()
}

func (p *Pipeline) skipTrim(run *model.Run, track *model.Track, err error) {
	track.Fail(err)
	p.logger.Printf("Trim failed for %s: %v", track.GetDisplayTitle(), err)
	run.Warn(fmt.Sprintf("Error processing video %d. Skipping this video: %v", track.Index+1, err))
}

// tag writes ID3 frames to MP3 output; failures are warnings
func (p *Pipeline) tag(run *model.Run, format media.Format) {
	if p.tagger == nil || format != media.FormatMP3 {
		return
	}

	sources := make([]string, 0, len(run.Tracks))
	for _, track := range run.Tracks {
		if track.Status.IsUsable() {
			sources = append(sources, fmt.Sprintf("%s %s", track.GetClipString(), track.GetDisplayTitle()))
		}
	}

	info := audio.TagInfo{
		Title:   fmt.Sprintf("%s %s", run.Query, audio.MashupAlbum),
		Artist:  run.Query,
		Sources: sources,
	}
	if err := p.tagger.SaveTags(run.OutputPath, info); err != nil {
		p.logger.Printf("Tagging failed for %s: %v", run.OutputPath, err)
		run.Warn(fmt.Sprintf("could not tag output: %v", err))
	}
}

// zip archives the output when requested; failures are warnings and the
// plain output stays deliverable
func (p *Pipeline) zip(ctx context.Context, run *model.Run, opts Options) {
	if !opts.Zip || p.archiver == nil {
		return
	}

	archive := compress.ArchivePath(run.OutputPath)
	if err := p.archiver.ZipFile(ctx, run.OutputPath, archive); err != nil {
		p.logger.Printf("Zip failed for %s: %v", run.OutputPath, err)
		run.Warn(fmt.Sprintf("could not create zip: %v", err))
		return
	}
	run.ArchivePath = archive
}

// cleanup removes intermediates unless they are kept; failures are warnings
func (p *Pipeline) cleanup(run *model.Run, opts Options) {
	if opts.KeepIntermediate {
		return
	}
	if err := platform.RemoveFiles(removable(run)); err != nil {
		p.logger.Printf("Cleanup failed for run %s: %v", run.ID, err)
		run.Warn(fmt.Sprintf("cleanup: %v", err))
	}
	if err := platform.RemoveDirIfEmpty(run.Dir); err != nil {
		p.logger.Printf("Could not remove run directory %s: %v", run.Dir, err)
	}
}

// removable returns the intermediates of run minus its deliverables
func removable(run *model.Run) []string {
	var paths []string
	for _, path := range run.IntermediatePaths() {
		if path != run.OutputPath && path != run.ArchivePath {
			paths = append(paths, path)
		}
	}
	return paths
}

// abort cleans up and fails the run
func (p *Pipeline) abort(run *model.Run, opts Options, err error) (*model.Run, error) {
	p.cleanup(run, opts)
	return p.fail(run, err)
}

func (p *Pipeline) fail(run *model.Run, err error) (*model.Run, error) {
	p.logger.Printf("Run %s failed: %v", run.ID, err)
	run.Fail(err)
	p.notify(run)
	return run, err
}

// notify calls the update callback if set
func (p *Pipeline) notify(run *model.Run) {
	if p.onUpdate != nil {
		p.onUpdate(run)
	}
}

// UserMessage renders an error for display
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, merge.ErrNoValidClips):
		return "No valid audio clips could be processed for the mashup."
	case errors.Is(err, resolve.ErrNoCandidates):
		return "No videos were found for this query."
	case errors.Is(err, context.Canceled):
		return "The mashup was canceled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The mashup took too long and was stopped."
	default:
		return err.Error()
	}
}

// generateRunID generates a time-ordered run ID using UUID v7
func generateRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(RunIDPrefix+"%d", time.Now().UnixNano())
	}
	return id.String()
}
