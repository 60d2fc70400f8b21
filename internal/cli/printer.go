package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/ytget/mashup/internal/model"
)

// Printer renders run updates as styled status lines
type Printer struct {
	out io.Writer

	info    lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	success lipgloss.Style
	dim     lipgloss.Style

	stage    model.RunStatus
	tracks   map[int]model.TrackStatus
	warnings int
}

// NewPrinter creates a printer writing to out. Colors are dropped when out
// is not a terminal.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		info:    r.NewStyle().Foreground(lipgloss.Color("#A8DADC")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#95E1A3")).Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#6C757D")),
		tracks:  make(map[int]model.TrackStatus),
	}
}

// Info prints a neutral status line
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.out, p.info.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.warn.Render("Warning: "+fmt.Sprintf(format, args...)))
}

// Error prints an error line
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.out, p.fail.Render("Error: "+fmt.Sprintf(format, args...)))
}

// Success prints a completion line
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.success.Render(fmt.Sprintf(format, args...)))
}

// Update prints what changed since the previous snapshot of run
func (p *Printer) Update(run *model.Run) {
	if run.Status != p.stage {
		p.stage = run.Status
		if line := stageLine(run); line != "" {
			p.Info("%s", line)
		}
	}

	for _, track := range run.Tracks {
		if p.tracks[track.Index] == track.Status {
			continue
		}
		p.tracks[track.Index] = track.Status
		p.track(track)
	}

	for ; p.warnings < len(run.Warnings); p.warnings++ {
		p.Warn("%s", run.Warnings[p.warnings])
	}
}

func (p *Printer) track(track *model.Track) {
	label := fmt.Sprintf("[%d] %s", track.Index+1, track.GetDisplayTitle())
	switch track.Status {
	case model.TrackStatusDownloading:
		fmt.Fprintln(p.out, p.dim.Render("  downloading "+label))
	case model.TrackStatusDownloaded:
		fmt.Fprintln(p.out, p.dim.Render("  downloaded "+label))
	case model.TrackStatusTrimmed:
		fmt.Fprintln(p.out, p.dim.Render(fmt.Sprintf("  trimmed %s (%s)", label, track.GetClipString())))
	}
}

func stageLine(run *model.Run) string {
	switch run.Status {
	case model.RunStatusResolving:
		return fmt.Sprintf("Searching for %d videos of %q", run.Count, run.Query)
	case model.RunStatusDownloading:
		return fmt.Sprintf("Downloading %d videos", len(run.Tracks))
	case model.RunStatusTrimming:
		return fmt.Sprintf("Cutting %s from each video", run.ClipDuration)
	case model.RunStatusMerging:
		return "Merging clips"
	}
	return ""
}
