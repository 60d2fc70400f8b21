package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytget/mashup/internal/mashup"
	"github.com/ytget/mashup/internal/model"
)

// Server limits. There is no write timeout: a POST blocks for the whole run.
const (
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 30 * time.Second
	MaxFormBytes      = 64 << 10
)

// Runner executes a mashup run
type Runner interface {
	Run(ctx context.Context, query string, opts mashup.Options) (*model.Run, error)
	Limits() mashup.Limits
}

// Server serves the mashup form and its results
type Server struct {
	runner   Runner
	baseDir  string
	defaults mashup.Options
	slots    chan struct{}
	logger   *log.Logger

	index  *template.Template
	result *template.Template
}

// NewServer creates a server whose runs live below baseDir. At most maxRuns
// pipelines run at once; further requests are refused.
func NewServer(runner Runner, baseDir string, defaults mashup.Options, maxRuns int, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if maxRuns < 1 {
		maxRuns = 1
	}
	return &Server{
		runner:   runner,
		baseDir:  baseDir,
		defaults: defaults,
		slots:    make(chan struct{}, maxRuns),
		logger:   logger,
		index:    parsePage(indexTemplate),
		result:   parsePage(resultTemplate),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /mashup", s.handleMashup)
	mux.HandleFunc("GET /download/{run}/{file}", s.handleDownload)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Printf("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		s.logger.Printf("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// acquire takes a run slot without blocking
func (s *Server) acquire() bool {
	select {
	case s.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Server) release() {
	<-s.slots
}
