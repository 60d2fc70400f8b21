package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/mashup/internal/audio"
)

// FFmpeg constants shared by every invocation
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	// Encoder defaults
	DefaultBitrate = "192k"

	// ffprobe query
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"

	// Raw PCM layout used by DecodePCM/EncodePCM
	PCMFormat = "s16le"
	PCMCodec  = "pcm_s16le"
	PipeOut   = "pipe:1"
	PipeIn    = "pipe:0"

	// stderrLimit caps how much ffmpeg output ends up in an error message
	stderrLimit = 512
)

// FFmpeg runs ffmpeg/ffprobe binaries
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	bitrate     string
	logger      *log.Logger
}

// NewFFmpeg creates a runner. Empty paths fall back to the binaries on PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string, logger *log.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	if ffprobePath == "" {
		ffprobePath = FFprobeCommand
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		bitrate:     DefaultBitrate,
		logger:      logger,
	}
}

// SetBitrate sets the bitrate for lossy encoders (e.g. "192k")
func (f *FFmpeg) SetBitrate(bitrate string) {
	if bitrate == "" {
		bitrate = DefaultBitrate
	}
	f.bitrate = bitrate
}

// Bitrate returns the configured encoder bitrate
func (f *FFmpeg) Bitrate() string {
	return f.bitrate
}

// ClipLength returns min(requested, source-offset), never negative.
func ClipLength(requested, source, offset time.Duration) time.Duration {
	if offset < 0 {
		offset = 0
	}
	available := source - offset
	if available < requested {
		requested = available
	}
	if requested < 0 {
		return 0
	}
	return requested
}

// Probe returns the duration of a media file using ffprobe
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, f.BuildProbeArgs(path)...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	return ParseProbeOutput(string(output))
}

// BuildProbeArgs builds the ffprobe arguments for a duration query
func (f *FFmpeg) BuildProbeArgs(path string) []string {
	return []string{
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		path,
	}
}

// ParseProbeOutput parses ffprobe's csv duration output in seconds
func ParseProbeOutput(output string) (time.Duration, error) {
	durationStr := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", durationStr, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %q", durationStr)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Trim cuts [start, start+length) out of in and encodes it to out
func (f *FFmpeg) Trim(ctx context.Context, in, out string, start, length time.Duration, format Format) error {
	if length <= 0 {
		return fmt.Errorf("trim %s: empty clip", in)
	}
	return f.run(ctx, out, f.BuildTrimArgs(in, out, start, length, format))
}

// BuildTrimArgs builds the ffmpeg arguments for a clip cut. Seeking before -i
// is input seeking, so the clip starts exactly at start after re-encoding.
func (f *FFmpeg) BuildTrimArgs(in, out string, start, length time.Duration, format Format) []string {
	args := []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", in,
		"-t", formatSeconds(length),
		"-vn",
	}
	args = append(args, f.encodeArgs(format)...)
	args = append(args, "-loglevel", "error", out)
	return args
}

// Transcode converts any audio-bearing file into the target container
func (f *FFmpeg) Transcode(ctx context.Context, in, out string, format Format) error {
	return f.run(ctx, out, f.BuildTranscodeArgs(in, out, format))
}

// BuildTranscodeArgs builds the ffmpeg arguments for a full-file transcode
func (f *FFmpeg) BuildTranscodeArgs(in, out string, format Format) []string {
	args := []string{"-y", "-i", in, "-vn"}
	args = append(args, f.encodeArgs(format)...)
	args = append(args, "-loglevel", "error", out)
	return args
}

// Concat joins the files listed in a concat-demuxer list file into out
func (f *FFmpeg) Concat(ctx context.Context, listPath, out string, format Format) error {
	return f.run(ctx, out, f.BuildConcatArgs(listPath, out, format))
}

// BuildConcatArgs builds the ffmpeg arguments for the concat demuxer
func (f *FFmpeg) BuildConcatArgs(listPath, out string, format Format) []string {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vn",
	}
	args = append(args, f.encodeArgs(format)...)
	args = append(args, "-loglevel", "error", out)
	return args
}

// DecodePCM decodes a file to interleaved s16le samples at audio.SampleRate
func (f *FFmpeg) DecodePCM(ctx context.Context, path string) ([]int16, error) {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, f.BuildDecodeArgs(path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w%s", path, err, stderrSuffix(&stderr))
	}
	return audio.BytesToSamples(out), nil
}

// BuildDecodeArgs builds the ffmpeg arguments for raw PCM decoding to stdout
func (f *FFmpeg) BuildDecodeArgs(path string) []string {
	return []string{
		"-i", path,
		"-f", PCMFormat,
		"-acodec", PCMCodec,
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-loglevel", "error",
		PipeOut,
	}
}

// EncodePCM writes interleaved samples to out through ffmpeg stdin
func (f *FFmpeg) EncodePCM(ctx context.Context, samples []int16, out string, format Format) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, f.BuildEncodeArgs(out, format)...)
	cmd.Stdin = bytes.NewReader(audio.SamplesToBytes(samples))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(out)
		return fmt.Errorf("ffmpeg encode %s: %w%s", out, err, stderrSuffix(&stderr))
	}
	return nil
}

// BuildEncodeArgs builds the ffmpeg arguments for encoding raw PCM from stdin
func (f *FFmpeg) BuildEncodeArgs(out string, format Format) []string {
	args := []string{
		"-y",
		"-f", PCMFormat,
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", PipeIn,
	}
	args = append(args, f.encodeArgs(format)...)
	args = append(args, "-loglevel", "error", out)
	return args
}

// encodeArgs returns codec, bitrate and layout flags for the container
func (f *FFmpeg) encodeArgs(format Format) []string {
	args := []string{
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-c:a", format.Codec(),
	}
	if format.Lossy() {
		args = append(args, "-b:a", f.bitrate)
	}
	return args
}

// run executes ffmpeg and removes the partial output on failure
func (f *FFmpeg) run(ctx context.Context, out string, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Printf("Running %s %s", f.ffmpegPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w%s", err, stderrSuffix(&stderr))
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func stderrSuffix(stderr *bytes.Buffer) string {
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		return ""
	}
	if len(msg) > stderrLimit {
		msg = msg[len(msg)-stderrLimit:]
	}
	return ": " + msg
}
