package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"

	"github.com/ytget/mashup/internal/media"
)

// Downloader backends
type DownloaderBackend string

const (
	DownloaderYTDLP  DownloaderBackend = "ytdlp"
	DownloaderNative DownloaderBackend = "native"
)

// Merger backends
type MergerBackend string

const (
	MergerConcat MergerBackend = "concat"
	MergerPCM    MergerBackend = "pcm"
)

// Environment keys, read after the optional .env file
const (
	KeyDownloadDir       = "MASHUP_DOWNLOAD_DIR"
	KeyMinCount          = "MASHUP_MIN_COUNT"
	KeyMinClipSeconds    = "MASHUP_MIN_CLIP_SECONDS"
	KeyStartOffset       = "MASHUP_START_OFFSET"
	KeyOutputFormat      = "MASHUP_OUTPUT_FORMAT"
	KeyAudioQuality      = "MASHUP_AUDIO_QUALITY"
	KeyDownloader        = "MASHUP_DOWNLOADER"
	KeyMerger            = "MASHUP_MERGER"
	KeyFFmpegPath        = "MASHUP_FFMPEG_PATH"
	KeyFFprobePath       = "MASHUP_FFPROBE_PATH"
	KeyUserAgent         = "MASHUP_USER_AGENT"
	KeyDownloadRetries   = "MASHUP_DOWNLOAD_RETRIES"
	KeySearchTimeout     = "MASHUP_SEARCH_TIMEOUT"
	KeyZip               = "MASHUP_ZIP"
	KeyKeepIntermediate  = "MASHUP_KEEP_INTERMEDIATE"
	KeyTagOutput         = "MASHUP_TAG_OUTPUT"
	KeyListenAddr        = "MASHUP_LISTEN_ADDR"
	KeyMaxConcurrentRuns = "MASHUP_MAX_CONCURRENT_RUNS"
)

// Default values
const (
	DefaultDownloadDir       = "./downloads"
	DefaultMinCount          = 2
	DefaultMinClipSeconds    = 20
	DefaultStartOffset       = 0.0
	DefaultOutputFormat      = media.DefaultFormat
	DefaultAudioQuality      = "192k"
	DefaultDownloader        = DownloaderYTDLP
	DefaultMerger            = MergerConcat
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36"
	DefaultDownloadRetries   = 0
	DefaultSearchTimeout     = 60
	DefaultListenAddr        = ":8501"
	DefaultMaxConcurrentRuns = 2

	MaxDownloadRetries   = 5
	MaxConcurrentRunsCap = 10
)

// Settings holds every tunable of the pipeline and its front-ends
type Settings struct {
	DownloadDir       string  `toml:"download_dir"`
	MinCount          int     `toml:"min_count"`
	MinClipSeconds    int     `toml:"min_clip_seconds"`
	StartOffset       float64 `toml:"start_offset"` // seconds into each source
	OutputFormat      string  `toml:"output_format"`
	AudioQuality      string  `toml:"audio_quality"`
	Downloader        string  `toml:"downloader"`
	Merger            string  `toml:"merger"`
	FFmpegPath        string  `toml:"ffmpeg_path"`
	FFprobePath       string  `toml:"ffprobe_path"`
	UserAgent         string  `toml:"user_agent"`
	DownloadRetries   int     `toml:"download_retries"`
	SearchTimeout     int     `toml:"search_timeout"` // seconds
	Zip               bool    `toml:"zip"`
	KeepIntermediate  bool    `toml:"keep_intermediate"`
	TagOutput         bool    `toml:"tag_output"`
	ListenAddr        string  `toml:"listen_addr"`
	MaxConcurrentRuns int     `toml:"max_concurrent_runs"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		DownloadDir:       DefaultDownloadDir,
		MinCount:          DefaultMinCount,
		MinClipSeconds:    DefaultMinClipSeconds,
		StartOffset:       DefaultStartOffset,
		OutputFormat:      string(DefaultOutputFormat),
		AudioQuality:      DefaultAudioQuality,
		Downloader:        string(DefaultDownloader),
		Merger:            string(DefaultMerger),
		FFmpegPath:        media.FFmpegCommand,
		FFprobePath:       media.FFprobeCommand,
		UserAgent:         DefaultUserAgent,
		DownloadRetries:   DefaultDownloadRetries,
		SearchTimeout:     DefaultSearchTimeout,
		TagOutput:         true,
		ListenAddr:        DefaultListenAddr,
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
	}
}

// Load builds settings from defaults, an optional TOML file, a .env file in
// the working directory and MASHUP_* environment variables, in that order.
func Load(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		if err := s.LoadFile(path); err != nil {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()
	s.ApplyEnv(os.LookupEnv)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile overlays values from a TOML file
func (s *Settings) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(s); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays values found through lookup. Unparsable values are
// logged and ignored.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				log.Printf("Warning: could not parse %s=%q, keeping %d", key, v, *dst)
				return
			}
			*dst = n
		}
	}
	flt := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				log.Printf("Warning: could not parse %s=%q, keeping %v", key, v, *dst)
				return
			}
			*dst = f
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				log.Printf("Warning: could not parse %s=%q, keeping %v", key, v, *dst)
				return
			}
			*dst = b
		}
	}

	str(KeyDownloadDir, &s.DownloadDir)
	num(KeyMinCount, &s.MinCount)
	num(KeyMinClipSeconds, &s.MinClipSeconds)
	flt(KeyStartOffset, &s.StartOffset)
	str(KeyOutputFormat, &s.OutputFormat)
	str(KeyAudioQuality, &s.AudioQuality)
	str(KeyDownloader, &s.Downloader)
	str(KeyMerger, &s.Merger)
	str(KeyFFmpegPath, &s.FFmpegPath)
	str(KeyFFprobePath, &s.FFprobePath)
	str(KeyUserAgent, &s.UserAgent)
	num(KeyDownloadRetries, &s.DownloadRetries)
	num(KeySearchTimeout, &s.SearchTimeout)
	flag(KeyZip, &s.Zip)
	flag(KeyKeepIntermediate, &s.KeepIntermediate)
	flag(KeyTagOutput, &s.TagOutput)
	str(KeyListenAddr, &s.ListenAddr)
	num(KeyMaxConcurrentRuns, &s.MaxConcurrentRuns)

	s.SetDownloadRetries(s.DownloadRetries)
	s.SetMaxConcurrentRuns(s.MaxConcurrentRuns)
}

// Validate checks enumerations and floors
func (s *Settings) Validate() error {
	if s.DownloadDir == "" {
		return fmt.Errorf("download directory must not be empty")
	}
	if s.MinCount < 1 {
		return fmt.Errorf("min count must be at least 1, got %d", s.MinCount)
	}
	if s.MinClipSeconds < 1 {
		return fmt.Errorf("min clip seconds must be at least 1, got %d", s.MinClipSeconds)
	}
	if s.StartOffset < 0 {
		return fmt.Errorf("start offset must not be negative, got %v", s.StartOffset)
	}
	if _, err := media.ParseFormat(s.OutputFormat); err != nil {
		return err
	}
	if _, err := ParseDownloader(s.Downloader); err != nil {
		return err
	}
	if _, err := ParseMerger(s.Merger); err != nil {
		return err
	}
	return nil
}

// SetDownloadRetries sets the per-item retry count, clamped to [0, MaxDownloadRetries]
func (s *Settings) SetDownloadRetries(count int) {
	if count < 0 {
		count = 0
	}
	if count > MaxDownloadRetries {
		count = MaxDownloadRetries
	}
	s.DownloadRetries = count
}

// SetMaxConcurrentRuns sets the web run limit, clamped to [1, MaxConcurrentRunsCap]
func (s *Settings) SetMaxConcurrentRuns(count int) {
	if count < 1 {
		count = 1
	}
	if count > MaxConcurrentRunsCap {
		count = MaxConcurrentRunsCap
	}
	s.MaxConcurrentRuns = count
}

// GetOutputFormat returns the parsed output container, falling back to the default
func (s *Settings) GetOutputFormat() media.Format {
	f, err := media.ParseFormat(s.OutputFormat)
	if err != nil {
		return DefaultOutputFormat
	}
	return f
}

// GetStartOffset returns the trim start offset
func (s *Settings) GetStartOffset() time.Duration {
	return time.Duration(s.StartOffset * float64(time.Second))
}

// GetMinClipDuration returns the clip duration floor
func (s *Settings) GetMinClipDuration() time.Duration {
	return time.Duration(s.MinClipSeconds) * time.Second
}

// GetSearchTimeout returns the resolver timeout
func (s *Settings) GetSearchTimeout() time.Duration {
	if s.SearchTimeout <= 0 {
		return DefaultSearchTimeout * time.Second
	}
	return time.Duration(s.SearchTimeout) * time.Second
}

// GetDownloader returns the parsed downloader backend
func (s *Settings) GetDownloader() DownloaderBackend {
	b, err := ParseDownloader(s.Downloader)
	if err != nil {
		return DefaultDownloader
	}
	return b
}

// GetMerger returns the parsed merger backend
func (s *Settings) GetMerger() MergerBackend {
	b, err := ParseMerger(s.Merger)
	if err != nil {
		return DefaultMerger
	}
	return b
}

// ParseDownloader validates a downloader backend name
func ParseDownloader(name string) (DownloaderBackend, error) {
	switch DownloaderBackend(strings.ToLower(strings.TrimSpace(name))) {
	case DownloaderYTDLP:
		return DownloaderYTDLP, nil
	case DownloaderNative:
		return DownloaderNative, nil
	}
	return "", fmt.Errorf("unknown downloader %q (want %s or %s)", name, DownloaderYTDLP, DownloaderNative)
}

// ParseMerger validates a merger backend name
func ParseMerger(name string) (MergerBackend, error) {
	switch MergerBackend(strings.ToLower(strings.TrimSpace(name))) {
	case MergerConcat:
		return MergerConcat, nil
	case MergerPCM:
		return MergerPCM, nil
	}
	return "", fmt.Errorf("unknown merger %q (want %s or %s)", name, MergerConcat, MergerPCM)
}
