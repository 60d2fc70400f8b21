package mashup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/platform"
)

// Argument errors, reported before anything touches the filesystem
var (
	ErrInvalidCount    = errors.New("invalid count")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrBadArgs         = errors.New("bad arguments")
)

// Default limits
const (
	DefaultMinCount        = 2
	DefaultMinClipDuration = 20 * time.Second
	DefaultOutputName      = "mashup"
)

// Limits are the floors a request must meet
type Limits struct {
	MinCount        int
	MinClipDuration time.Duration
}

// DefaultLimits returns the default floors
func DefaultLimits() Limits {
	return Limits{MinCount: DefaultMinCount, MinClipDuration: DefaultMinClipDuration}
}

// Options describe one mashup request
type Options struct {
	Count            int
	ClipDuration     time.Duration
	StartOffset      time.Duration
	OutputName       string
	Format           media.Format // empty: taken from OutputName, else the default
	Zip              bool
	KeepIntermediate bool
}

// Validate checks the request against limits
func (o Options) Validate(l Limits) error {
	if o.Count < l.MinCount {
		return fmt.Errorf("%w: number of videos must be at least %d, got %d", ErrInvalidCount, l.MinCount, o.Count)
	}
	if o.ClipDuration < l.MinClipDuration {
		return fmt.Errorf("%w: clip duration must be at least %s, got %s", ErrInvalidDuration, l.MinClipDuration, o.ClipDuration)
	}
	if o.StartOffset < 0 {
		return fmt.Errorf("%w: start offset must not be negative", ErrBadArgs)
	}
	if o.Format != "" {
		if _, err := media.ParseFormat(string(o.Format)); err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgs, err)
		}
	}
	if name, _ := ResolveOutput(o.OutputName, o.Format); platform.IsIntermediateName(name) {
		return fmt.Errorf("%w: output name %q is reserved for working files", ErrBadArgs, name)
	}
	return nil
}

// ResolveOutput returns the sanitized output file name and its container.
// A known audio extension on name decides the container when format is
// empty; otherwise the extension is replaced to match format.
func ResolveOutput(name string, format media.Format) (string, media.Format) {
	clean := platform.SanitizeFileName(name)
	if clean == "" {
		clean = DefaultOutputName
	}

	if f, ok := media.FormatFromPath(clean); ok {
		if format == "" {
			format = f
		} else if f != format {
			clean = strings.TrimSuffix(clean, filepath.Ext(clean))
		}
	}
	if format == "" {
		format = media.DefaultFormat
	}

	return platform.EnsureExtension(clean, format.Extension()), format
}
