package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ytget/mashup/internal/mashup"
	"github.com/ytget/mashup/internal/model"
)

// Form defaults
const (
	DefaultFormCount    = 10
	DefaultFormDuration = 30
)

// busyMessage is shown when every run slot is taken
const busyMessage = "The server is busy with other mashups. Please try again in a minute."

type formPage struct {
	Query       string
	Count       int
	Duration    int
	Output      string
	Zip         bool
	MinCount    int
	MinDuration int
	Error       string
}

type link struct {
	Name string
	URL  string
}

type resultPage struct {
	Links    []link
	Warnings []string
	Tracks   []*model.Track
	Error    string
}

func (s *Server) newForm() formPage {
	limits := s.runner.Limits()
	return formPage{
		Count:       max(DefaultFormCount, limits.MinCount),
		Duration:    max(DefaultFormDuration, int(limits.MinClipDuration/time.Second)),
		Output:      mashup.DefaultOutputName + s.defaultExtension(),
		Zip:         s.defaults.Zip,
		MinCount:    limits.MinCount,
		MinDuration: int(limits.MinClipDuration / time.Second),
	}
}

func (s *Server) defaultExtension() string {
	if s.defaults.Format == "" {
		return ""
	}
	return s.defaults.Format.Extension()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.index, s.newForm())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleMashup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormBytes)
	form := s.newForm()

	query, opts, err := s.parseForm(r, &form)
	if err != nil {
		form.Error = err.Error()
		s.render(w, http.StatusBadRequest, s.index, form)
		return
	}

	if !s.acquire() {
		form.Error = busyMessage
		w.Header().Set("Retry-After", "60")
		s.render(w, http.StatusServiceUnavailable, s.index, form)
		return
	}
	defer s.release()

	s.logger.Printf("Starting mashup for %q (%d videos, %s each)", query, opts.Count, opts.ClipDuration)
	run, err := s.runner.Run(r.Context(), query, opts)
	if errors.Is(err, mashup.ErrInvalidCount) || errors.Is(err, mashup.ErrInvalidDuration) || errors.Is(err, mashup.ErrBadArgs) {
		form.Error = err.Error()
		s.render(w, http.StatusBadRequest, s.index, form)
		return
	}

	page := resultPage{}
	if run != nil {
		page.Warnings = run.Warnings
		page.Tracks = run.Tracks
	}
	if err != nil {
		s.logger.Printf("Mashup for %q failed: %v", query, err)
		page.Error = mashup.UserMessage(err)
		s.render(w, http.StatusUnprocessableEntity, s.result, page)
		return
	}

	page.Links = s.links(run)
	s.logger.Printf("Mashup %s ready: %s", run.ID, run.Deliverable())
	s.render(w, http.StatusOK, s.result, page)
}

// parseForm reads the submitted fields into form and returns the request
func (s *Server) parseForm(r *http.Request, form *formPage) (string, mashup.Options, error) {
	if err := r.ParseForm(); err != nil {
		return "", mashup.Options{}, fmt.Errorf("could not read the form: %w", err)
	}

	form.Query = strings.TrimSpace(r.PostFormValue("query"))
	form.Output = strings.TrimSpace(r.PostFormValue("output"))
	form.Zip = r.PostFormValue("zip") != ""

	if form.Query == "" {
		return "", mashup.Options{}, fmt.Errorf("%w: enter an artist name or at least one URL", mashup.ErrBadArgs)
	}

	count, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("count")))
	if err != nil {
		return "", mashup.Options{}, fmt.Errorf("%w: number of videos must be a whole number", mashup.ErrInvalidCount)
	}
	form.Count = count

	seconds, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("duration")))
	if err != nil {
		return "", mashup.Options{}, fmt.Errorf("%w: duration must be whole seconds", mashup.ErrInvalidDuration)
	}
	form.Duration = seconds

	opts := s.defaults
	opts.Count = count
	opts.ClipDuration = time.Duration(seconds) * time.Second
	opts.OutputName = form.Output
	opts.Zip = form.Zip

	if err := opts.Validate(s.runner.Limits()); err != nil {
		return "", mashup.Options{}, err
	}
	return form.Query, opts, nil
}

// links returns download links for the run's deliverables
func (s *Server) links(run *model.Run) []link {
	var links []link
	for _, path := range []string{run.ArchivePath, run.OutputPath} {
		if path == "" {
			continue
		}
		name := filepath.Base(path)
		links = append(links, link{
			Name: name,
			URL:  "/download/" + url.PathEscape(run.ID) + "/" + url.PathEscape(name),
		})
	}
	return links
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	runID, file := r.PathValue("run"), r.PathValue("file")
	if !isPlainName(runID) || !isPlainName(file) {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.baseDir, runID, file)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file}))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

// isPlainName reports whether name is a single safe path element
func isPlainName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// render executes a page into a buffer before writing the status
func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, tmpl.Name(), data); err != nil {
		s.logger.Printf("Template %s failed: %v", tmpl.Name(), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
