package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ytget/mashup/internal/config"
	"github.com/ytget/mashup/internal/mashup"
	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/model"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
)

// Name is the program name shown in usage
const Name = "mashup"

// LogPrefix is the prefix of verbose log lines
const LogPrefix = "[mashup] "

// Runner executes a mashup run
type Runner interface {
	Run(ctx context.Context, query string, opts mashup.Options) (*model.Run, error)
	SetUpdateCallback(callback func(*model.Run))
}

// BuildFunc creates a runner from the final settings
type BuildFunc func(s *config.Settings, logger *log.Logger) Runner

// App is the command line front-end
type App struct {
	stdout io.Writer
	stderr io.Writer
	build  BuildFunc
	lookup func(string) (string, bool)
}

// NewApp creates an app printing to stdout and stderr
func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		stdout: stdout,
		stderr: stderr,
		build: func(s *config.Settings, logger *log.Logger) Runner {
			return mashup.Build(s, logger)
		},
	}
}

// SetBuilder replaces the pipeline constructor
func (a *App) SetBuilder(build BuildFunc) {
	a.build = build
}

// flags holds parsed command line options
type flags struct {
	configPath string
	dir        string
	offset     float64
	format     string
	zip        bool
	downloader string
	merger     string
	keep       bool
	verbose    bool
	set        *pflag.FlagSet
}

// request is the positional part of the command line
type request struct {
	query    string
	count    int
	duration time.Duration
	output   string
}

// Run parses args (without the program name), runs one mashup and returns the exit code
func (a *App) Run(ctx context.Context, args []string) int {
	printer := NewPrinter(a.stdout)

	f, pos, err := parseFlags(args, a.stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		printer.Error("%v", err)
		return ExitError
	}
	if len(pos) != 4 {
		printer.Error("expected 4 arguments, got %d", len(pos))
		fmt.Fprintln(a.stderr, usage(f.set))
		return ExitError
	}

	req, err := parseRequest(pos)
	if err != nil {
		printer.Error("%v", err)
		return ExitError
	}

	settings, err := a.loadSettings(f)
	if err != nil {
		printer.Error("%v", err)
		return ExitError
	}

	opts := mashup.DefaultOptions(settings)
	opts.Count = req.count
	opts.ClipDuration = req.duration
	opts.OutputName = req.output
	if f.set.Changed("format") {
		opts.Format = media.Format(strings.ToLower(f.format))
	}
	if f.set.Changed("zip") {
		opts.Zip = f.zip
	}
	if f.set.Changed("keep") {
		opts.KeepIntermediate = f.keep
	}

	limits := mashup.Limits{MinCount: settings.MinCount, MinClipDuration: settings.GetMinClipDuration()}
	if err := opts.Validate(limits); err != nil {
		printer.Error("%v", err)
		return ExitError
	}

	logOut := io.Discard
	if f.verbose {
		logOut = a.stderr
	}
	logger := log.New(logOut, LogPrefix, log.LstdFlags)

	runner := a.build(settings, logger)
	runner.SetUpdateCallback(printer.Update)

	run, err := runner.Run(ctx, req.query, opts)
	if run != nil {
		printer.Update(run)
	}
	if err != nil {
		printer.Error("%s", mashup.UserMessage(err))
		return ExitError
	}

	printer.Success("Mashup created: %s", run.OutputPath)
	if run.ArchivePath != "" {
		printer.Success("Zip archive: %s", run.ArchivePath)
	}
	return ExitOK
}

// loadSettings overlays flags on the configured settings
func (a *App) loadSettings(f *flags) (*config.Settings, error) {
	var (
		s   *config.Settings
		err error
	)
	if a.lookup != nil {
		s = config.DefaultSettings()
		if f.configPath != "" {
			if err := s.LoadFile(f.configPath); err != nil {
				return nil, err
			}
		}
		s.ApplyEnv(a.lookup)
	} else {
		s, err = config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
	}

	if f.set.Changed("dir") {
		s.DownloadDir = f.dir
	}
	if f.set.Changed("offset") {
		s.StartOffset = f.offset
	}
	if f.set.Changed("downloader") {
		s.Downloader = f.downloader
	}
	if f.set.Changed("merger") {
		s.Merger = f.merger
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", mashup.ErrBadArgs, err)
	}
	return s, nil
}

func parseFlags(args []string, stderr io.Writer) (*flags, []string, error) {
	f := &flags{}
	fs := pflag.NewFlagSet(Name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a TOML settings file")
	fs.StringVarP(&f.dir, "dir", "d", config.DefaultDownloadDir, "Working directory for runs")
	fs.Float64Var(&f.offset, "offset", config.DefaultStartOffset, "Seconds to skip at the start of each video")
	fs.StringVarP(&f.format, "format", "f", "", "Output format: mp3, wav, m4a, ogg or flac")
	fs.BoolVarP(&f.zip, "zip", "z", false, "Also write a zip archive of the mashup")
	fs.StringVar(&f.downloader, "downloader", string(config.DefaultDownloader), "Download backend: ytdlp or native")
	fs.StringVar(&f.merger, "merger", string(config.DefaultMerger), "Merge backend: concat or pcm")
	fs.BoolVarP(&f.keep, "keep", "k", false, "Keep downloaded and trimmed files")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Show verbose output")
	f.set = fs

	fs.Usage = func() {
		fmt.Fprintln(stderr, usage(fs))
	}

	if err := fs.Parse(args); err != nil {
		return f, nil, err
	}
	return f, fs.Args(), nil
}

func usage(fs *pflag.FlagSet) string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	fmt.Fprintf(&b, "  %s <artist or URLs> <number of videos> <clip seconds> <output file> [options]\n\n", Name)
	b.WriteString("Example:\n")
	fmt.Fprintf(&b, "  %s \"Sharry Maan\" 20 20 output.mp3\n\n", Name)
	b.WriteString("Options:\n")
	b.WriteString(fs.FlagUsages())
	return b.String()
}

func parseRequest(pos []string) (request, error) {
	query := strings.TrimSpace(pos[0])
	if query == "" {
		return request{}, fmt.Errorf("%w: query must not be empty", mashup.ErrBadArgs)
	}

	count, err := strconv.Atoi(strings.TrimSpace(pos[1]))
	if err != nil {
		return request{}, fmt.Errorf("%w: number of videos must be an integer, got %q", mashup.ErrInvalidCount, pos[1])
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(pos[2]))
	if err != nil {
		return request{}, fmt.Errorf("%w: duration must be whole seconds, got %q", mashup.ErrInvalidDuration, pos[2])
	}

	return request{
		query:    query,
		count:    count,
		duration: time.Duration(seconds) * time.Second,
		output:   pos[3],
	}, nil
}
