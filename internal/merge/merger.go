package merge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ytget/mashup/internal/audio"
	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/platform"
)

// ErrNoValidClips is returned when there is nothing to merge
var ErrNoValidClips = errors.New("no valid clips")

// Merger joins clips in order into out. The output is complete when Merge
// returns nil; on error no partial output is left behind.
type Merger interface {
	Merge(ctx context.Context, clips []string, out string) error
}

// ConcatRunner runs the ffmpeg concat demuxer
type ConcatRunner interface {
	Concat(ctx context.Context, listPath, out string, format media.Format) error
}

// PCMCodec decodes files to and encodes files from interleaved samples
type PCMCodec interface {
	DecodePCM(ctx context.Context, path string) ([]int16, error)
	EncodePCM(ctx context.Context, samples []int16, out string, format media.Format) error
}

// ConcatMerger merges through a concat-demuxer list file, re-encoding once
type ConcatMerger struct {
	runner ConcatRunner
	logger *log.Logger
}

// NewConcatMerger creates a concat-demuxer merger
func NewConcatMerger(runner ConcatRunner, logger *log.Logger) *ConcatMerger {
	if logger == nil {
		logger = log.Default()
	}
	return &ConcatMerger{runner: runner, logger: logger}
}

// Merge implements Merger
func (m *ConcatMerger) Merge(ctx context.Context, clips []string, out string) error {
	if len(clips) == 0 {
		return ErrNoValidClips
	}
	if err := checkClips(clips); err != nil {
		return err
	}

	listPath := filepath.Join(filepath.Dir(out), platform.ConcatListName)
	if err := os.WriteFile(listPath, []byte(BuildConcatList(clips)), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	m.logger.Printf("Concatenating %d clips into %s", len(clips), filepath.Base(out))
	if err := m.runner.Concat(ctx, listPath, out, outputFormat(out)); err != nil {
		os.Remove(out)
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}

// BuildConcatList renders the concat demuxer list for clips. Paths are made
// absolute and single quotes are escaped the way the demuxer expects.
func BuildConcatList(clips []string) string {
	var b strings.Builder
	for _, clip := range clips {
		if abs, err := filepath.Abs(clip); err == nil {
			clip = abs
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(clip, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// PCMMerger decodes every clip to PCM, joins the samples in memory and
// encodes the result once. The output lasts exactly the sum of the clips.
type PCMMerger struct {
	codec  PCMCodec
	logger *log.Logger
}

// NewPCMMerger creates an in-memory merger
func NewPCMMerger(codec PCMCodec, logger *log.Logger) *PCMMerger {
	if logger == nil {
		logger = log.Default()
	}
	return &PCMMerger{codec: codec, logger: logger}
}

// Merge implements Merger
func (m *PCMMerger) Merge(ctx context.Context, clips []string, out string) error {
	if len(clips) == 0 {
		return ErrNoValidClips
	}
	if err := checkClips(clips); err != nil {
		return err
	}

	decoded := make([][]int16, 0, len(clips))
	for _, clip := range clips {
		samples, err := m.codec.DecodePCM(ctx, clip)
		if err != nil {
			return fmt.Errorf("merge: decode %s: %w", filepath.Base(clip), err)
		}
		decoded = append(decoded, samples)
	}

	joined := audio.Concat(decoded...)
	m.logger.Printf("Encoding %d clips (%s) into %s", len(clips), audio.Duration(joined), filepath.Base(out))

	if err := m.codec.EncodePCM(ctx, joined, out, outputFormat(out)); err != nil {
		os.Remove(out)
		return fmt.Errorf("merge: encode: %w", err)
	}
	return nil
}

// checkClips fails on the first clip that is missing
func checkClips(clips []string) error {
	for _, clip := range clips {
		if _, err := os.Stat(clip); err != nil {
			return fmt.Errorf("merge: clip %s: %w", filepath.Base(clip), err)
		}
	}
	return nil
}

func outputFormat(out string) media.Format {
	if f, ok := media.FormatFromPath(out); ok {
		return f
	}
	return media.DefaultFormat
}
