package media

import (
	"fmt"
	"strings"
)

// Format is an output audio container
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatM4A  Format = "m4a"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatOGG  Format = "ogg"
)

// DefaultFormat is used when nothing else is configured
const DefaultFormat = FormatMP3

// SupportedFormats returns every container the encoder can write
func SupportedFormats() []Format {
	return []Format{FormatMP3, FormatM4A, FormatWAV, FormatFLAC, FormatOGG}
}

// ParseFormat accepts a container name with or without a leading dot
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	for _, f := range SupportedFormats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported audio format: %q", s)
}

// FormatFromPath derives the container from a file extension
func FormatFromPath(path string) (Format, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return "", false
	}
	f, err := ParseFormat(path[idx+1:])
	if err != nil {
		return "", false
	}
	return f, true
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Codec returns the ffmpeg audio encoder for the container
func (f Format) Codec() string {
	switch f {
	case FormatM4A:
		return "aac"
	case FormatWAV:
		return "pcm_s16le"
	case FormatFLAC:
		return "flac"
	case FormatOGG:
		return "libvorbis"
	default:
		return "libmp3lame"
	}
}

// Lossy reports whether the encoder takes a bitrate
func (f Format) Lossy() bool {
	return f == FormatMP3 || f == FormatM4A || f == FormatOGG
}

// MimeType returns the content type used when serving the file
func (f Format) MimeType() string {
	switch f {
	case FormatM4A:
		return "audio/mp4"
	case FormatWAV:
		return "audio/wav"
	case FormatFLAC:
		return "audio/flac"
	case FormatOGG:
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
