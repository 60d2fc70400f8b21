package mashup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ytget/mashup/internal/audio"
	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/merge"
	"github.com/ytget/mashup/internal/model"
	"github.com/ytget/mashup/internal/resolve"
)

type fakeResolver struct {
	result *resolve.Result
	err    error
	calls  int
}

func (f *fakeResolver) Resolve(ctx context.Context, raw string, n int) (*resolve.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeDownloader writes video_<id>.mp3 unless the ID is listed in fail
type fakeDownloader struct {
	fail map[string]bool
}

func (f *fakeDownloader) Download(ctx context.Context, c model.Candidate, dir string) (string, error) {
	if f.fail[c.ID] {
		return "", fmt.Errorf("HTTP Error 403 for %s", c.ID)
	}
	path := filepath.Join(dir, "video_"+c.ID+".mp3")
	return path, os.WriteFile(path, []byte("source"), 0644)
}

// fakeTrimmer reports source lengths by file name and writes clips
type fakeTrimmer struct {
	lengths map[string]time.Duration
	trimmed map[string]time.Duration
	failOn  string
}

func (f *fakeTrimmer) Probe(ctx context.Context, path string) (time.Duration, error) {
	l, ok := f.lengths[filepath.Base(path)]
	if !ok {
		return 0, fmt.Errorf("probe %s: invalid data", path)
	}
	return l, nil
}

func (f *fakeTrimmer) Trim(ctx context.Context, in, out string, start, length time.Duration, format media.Format) error {
	if filepath.Base(in) == f.failOn {
		return errors.New("ffmpeg failed")
	}
	if f.trimmed == nil {
		f.trimmed = map[string]time.Duration{}
	}
	f.trimmed[filepath.Base(out)] = length
	return os.WriteFile(out, []byte("clip"), 0644)
}

type fakeMerger struct {
	clips []string
	err   error
}

func (f *fakeMerger) Merge(ctx context.Context, clips []string, out string) error {
	f.clips = clips
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(out, []byte("mashup"), 0644)
}

type fakeArchiver struct{}

func (fakeArchiver) ZipFile(ctx context.Context, src, dst string) error {
	return os.WriteFile(dst, []byte("PK"), 0644)
}

type fakeTagger struct {
	info audio.TagInfo
	err  error
}

func (f *fakeTagger) SaveTags(path string, info audio.TagInfo) error {
	f.info = info
	return f.err
}

func candidates(ids ...string) []model.Candidate {
	out := make([]model.Candidate, len(ids))
	for i, id := range ids {
		out[i] = model.Candidate{ID: id, Title: "Song " + id, URL: "https://www.youtube.com/watch?v=" + id}
	}
	return out
}

type fixture struct {
	base       string
	resolver   *fakeResolver
	downloader *fakeDownloader
	trimmer    *fakeTrimmer
	merger     *fakeMerger
	pipeline   *Pipeline
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	f := &fixture{
		base:       t.TempDir(),
		resolver:   &fakeResolver{result: &resolve.Result{Candidates: candidates(ids...)}},
		downloader: &fakeDownloader{fail: map[string]bool{}},
		trimmer:    &fakeTrimmer{lengths: map[string]time.Duration{}},
		merger:     &fakeMerger{},
	}
	for _, id := range ids {
		f.trimmer.lengths["video_"+id+".mp3"] = 3 * time.Minute
	}
	f.pipeline = NewPipeline(f.base, f.resolver, f.downloader, f.trimmer, f.merger, log.New(io.Discard, "", 0))
	n := 0
	f.pipeline.newID = func() string {
		n++
		return fmt.Sprintf("run%d", n)
	}
	return f
}

func defaultOptions() Options {
	return Options{Count: 3, ClipDuration: 20 * time.Second, OutputName: "output.mp3"}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPipelineRun(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.downloader.fail["b"] = true
	f.trimmer.lengths["video_c.mp3"] = 12 * time.Second

	var statuses []model.RunStatus
	f.pipeline.SetUpdateCallback(func(r *model.Run) {
		if len(statuses) == 0 || statuses[len(statuses)-1] != r.Status {
			statuses = append(statuses, r.Status)
		}
	})

	run, err := f.pipeline.Run(context.Background(), "Sharry Mann", defaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != model.RunStatusCompleted {
		t.Errorf("status = %s, want completed", run.Status)
	}
	wantStatuses := []model.RunStatus{
		model.RunStatusResolving, model.RunStatusDownloading, model.RunStatusTrimming,
		model.RunStatusMerging, model.RunStatusCompleted,
	}
	if fmt.Sprint(statuses) != fmt.Sprint(wantStatuses) {
		t.Errorf("statuses = %v, want %v", statuses, wantStatuses)
	}

	// failed download skipped, order preserved
	if len(f.merger.clips) != 2 {
		t.Fatalf("merged %d clips, want 2", len(f.merger.clips))
	}
	if filepath.Base(f.merger.clips[0]) != "trimmed_audio_0.mp3" || filepath.Base(f.merger.clips[1]) != "trimmed_audio_2.mp3" {
		t.Errorf("clips = %v", f.merger.clips)
	}
	if run.Tracks[1].Status != model.TrackStatusError {
		t.Errorf("track b status = %s, want Error", run.Tracks[1].Status)
	}

	// clip length is min(requested, available)
	if got := f.trimmer.trimmed["trimmed_audio_0.mp3"]; got != 20*time.Second {
		t.Errorf("clip 0 length = %v, want 20s", got)
	}
	if got := f.trimmer.trimmed["trimmed_audio_2.mp3"]; got != 12*time.Second {
		t.Errorf("clip 2 length = %v, want 12s", got)
	}
	if run.TotalClipDuration() != 32*time.Second {
		t.Errorf("total = %v, want 32s", run.TotalClipDuration())
	}

	// only the output is left in the run directory
	if run.OutputPath != filepath.Join(f.base, "run1", "output.mp3") {
		t.Errorf("OutputPath = %q", run.OutputPath)
	}
	if got := listDir(t, run.Dir); len(got) != 1 || got[0] != "output.mp3" {
		t.Errorf("run dir = %v, want only output.mp3", got)
	}

	if len(run.Warnings) != 1 || !strings.Contains(run.Warnings[0], "Skipping this video") {
		t.Errorf("warnings = %v", run.Warnings)
	}
}

func TestPipelineRun_ShortfallWarning(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.resolver.result.Warning = "only 2 of 5 results available"

	opts := defaultOptions()
	opts.Count = 5
	run, err := f.pipeline.Run(context.Background(), "artist", opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(run.Tracks) != 2 {
		t.Errorf("tracks = %d, want 2", len(run.Tracks))
	}
	if len(run.Warnings) == 0 || run.Warnings[0] != "only 2 of 5 results available" {
		t.Errorf("warnings = %v", run.Warnings)
	}
}

func TestPipelineRun_NoValidClips(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.downloader.fail["a"] = true
	f.trimmer.failOn = "video_b.mp3"

	run, err := f.pipeline.Run(context.Background(), "artist", defaultOptions())
	if !errors.Is(err, merge.ErrNoValidClips) {
		t.Fatalf("err = %v, want ErrNoValidClips", err)
	}
	if !strings.Contains(err.Error(), "no valid clips") {
		t.Errorf("error text = %q", err.Error())
	}
	if run == nil || run.Status != model.RunStatusError || run.OutputPath != "" {
		t.Errorf("run = %+v", run)
	}
	if f.merger.clips != nil {
		t.Error("merger must not run without clips")
	}
	if got := listDir(t, f.base); len(got) != 0 {
		t.Errorf("base dir = %v, want empty", got)
	}
}

func TestPipelineRun_InvalidOptionsWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"count", Options{Count: 1, ClipDuration: 30 * time.Second}, ErrInvalidCount},
		{"duration", Options{Count: 3, ClipDuration: 5 * time.Second}, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "a", "b")
			run, err := f.pipeline.Run(context.Background(), "artist", tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if run != nil {
				t.Error("no run expected for invalid options")
			}
			if f.resolver.calls != 0 {
				t.Error("resolver must not be called")
			}
			if got := listDir(t, f.base); len(got) != 0 {
				t.Errorf("files written: %v", got)
			}
		})
	}
}

func TestPipelineRun_ReservedOutputNames(t *testing.T) {
	for _, name := range []string{"trimmed_audio_0.mp3", "video_a.mp3", "Video_b"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "a", "b")
			opts := Options{Count: 2, ClipDuration: 30 * time.Second, OutputName: name}

			run, err := f.pipeline.Run(context.Background(), "artist", opts)
			if !errors.Is(err, ErrBadArgs) {
				t.Fatalf("err = %v, want ErrBadArgs", err)
			}
			if run != nil || f.resolver.calls != 0 || len(f.merger.clips) != 0 {
				t.Error("nothing may run for a reserved output name")
			}
			if got := listDir(t, f.base); len(got) != 0 {
				t.Errorf("files written: %v", got)
			}
		})
	}
}

func TestRemovableKeepsDeliverables(t *testing.T) {
	run := model.NewRun("run1", "artist", 2, 20*time.Second, "/runs/run1")
	run.TrackCreated("/runs/run1/video_a.mp3")
	run.TrackCreated("/runs/run1/trimmed_audio_0.mp3")
	run.TrackCreated("/runs/run1/out.zip")
	run.OutputPath = "/runs/run1/trimmed_audio_0.mp3"
	run.ArchivePath = "/runs/run1/out.zip"

	got := removable(run)
	if len(got) != 1 || got[0] != "/runs/run1/video_a.mp3" {
		t.Errorf("removable = %v, want only the download", got)
	}
}

func TestPipelineRun_NoCandidates(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = resolve.ErrNoCandidates

	_, err := f.pipeline.Run(context.Background(), "nobody", defaultOptions())
	if !errors.Is(err, resolve.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
	if got := listDir(t, f.base); len(got) != 0 {
		t.Errorf("files written: %v", got)
	}
}

func TestPipelineRun_MergeFailureCleansUp(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.merger.err = errors.New("encoder not found")

	run, err := f.pipeline.Run(context.Background(), "artist", defaultOptions())
	if err == nil || !strings.Contains(err.Error(), "encoder not found") {
		t.Fatalf("err = %v", err)
	}
	if run.Status != model.RunStatusError {
		t.Errorf("status = %s", run.Status)
	}
	if got := listDir(t, f.base); len(got) != 0 {
		t.Errorf("intermediates left: %v", got)
	}
}

func TestPipelineRun_KeepIntermediate(t *testing.T) {
	f := newFixture(t, "a", "b")

	opts := defaultOptions()
	opts.KeepIntermediate = true
	run, err := f.pipeline.Run(context.Background(), "artist", opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, p := range run.IntermediatePaths() {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("intermediate %s removed: %v", p, err)
		}
	}
	if len(run.IntermediatePaths()) != 4 {
		t.Errorf("intermediates = %v, want 2 sources and 2 clips", run.IntermediatePaths())
	}
}

func TestPipelineRun_ZipAndTag(t *testing.T) {
	f := newFixture(t, "a", "b")
	tagger := &fakeTagger{}
	f.pipeline.SetArchiver(fakeArchiver{})
	f.pipeline.SetTagger(tagger)

	opts := defaultOptions()
	opts.Zip = true
	run, err := f.pipeline.Run(context.Background(), "Sharry Mann", opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.ArchivePath != filepath.Join(run.Dir, "output.zip") {
		t.Errorf("ArchivePath = %q", run.ArchivePath)
	}
	if run.Deliverable() != run.ArchivePath {
		t.Error("archive should be the deliverable")
	}
	if tagger.info.Artist != "Sharry Mann" || len(tagger.info.Sources) != 2 {
		t.Errorf("tag info = %+v", tagger.info)
	}
}

func TestPipelineRun_TagFailureIsWarning(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.pipeline.SetTagger(&fakeTagger{err: errors.New("read-only")})

	run, err := f.pipeline.Run(context.Background(), "artist", defaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(run.Warnings) != 1 || !strings.Contains(run.Warnings[0], "read-only") {
		t.Errorf("warnings = %v", run.Warnings)
	}
}

func TestPipelineRun_NoTagForOtherFormats(t *testing.T) {
	f := newFixture(t, "a", "b")
	tagger := &fakeTagger{}
	f.pipeline.SetTagger(tagger)

	opts := defaultOptions()
	opts.OutputName = "output.wav"
	run, err := f.pipeline.Run(context.Background(), "artist", opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if filepath.Ext(run.OutputPath) != ".wav" {
		t.Errorf("OutputPath = %q", run.OutputPath)
	}
	if tagger.info.Artist != "" {
		t.Error("non-MP3 output must not be tagged")
	}
}

func TestPipelineRun_DefaultFormat(t *testing.T) {
	tests := []struct {
		output string
		format media.Format
		want   string
	}{
		{"mix", "", "mix.flac"},
		{"mix.wav", "", "mix.wav"},
		{"mix.wav", media.FormatOGG, "mix.ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.output+"_"+string(tt.format), func(t *testing.T) {
			f := newFixture(t, "a", "b")
			f.pipeline.SetDefaultFormat(media.FormatFLAC)

			opts := defaultOptions()
			opts.OutputName = tt.output
			opts.Format = tt.format
			run, err := f.pipeline.Run(context.Background(), "artist", opts)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if filepath.Base(run.OutputPath) != tt.want {
				t.Errorf("OutputPath = %q, want %s", run.OutputPath, tt.want)
			}
		})
	}
}

func TestPipelineRun_StartOffsetLongerThanSource(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.trimmer.lengths["video_b.mp3"] = time.Second

	opts := defaultOptions()
	opts.StartOffset = 2 * time.Second
	run, err := f.pipeline.Run(context.Background(), "artist", opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Tracks[1].Status != model.TrackStatusSkipped {
		t.Errorf("track b = %s, want Skipped", run.Tracks[1].Status)
	}
	if run.Tracks[0].ClipStart != 2*time.Second {
		t.Errorf("ClipStart = %v", run.Tracks[0].ClipStart)
	}
}

func TestPipelineRun_Canceled(t *testing.T) {
	f := newFixture(t, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := f.pipeline.Run(ctx, "artist", defaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if run.Status != model.RunStatusError {
		t.Errorf("status = %s", run.Status)
	}
	if got := listDir(t, f.base); len(got) != 0 {
		t.Errorf("files left: %v", got)
	}
}

func TestGenerateRunID(t *testing.T) {
	a, b := generateRunID(), generateRunID()
	if a == b {
		t.Error("run IDs should be unique")
	}
	if len(a) != 36 {
		t.Errorf("expected UUID string, got %q", a)
	}
}
