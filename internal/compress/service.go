package compress

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive constants
const (
	ArchiveExtension = ".zip"
	ArchiveFileMode  = 0644
)

// Service writes single-file zip archives
type Service struct {
	logger *log.Logger
}

// NewService creates a new archive service
func NewService(logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{logger: logger}
}

// ZipFile writes src into a new archive at dst under its base name. A failed
// or canceled archive is removed.
func (s *Service) ZipFile(ctx context.Context, src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input is a directory: %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, ArchiveFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()

	zw := zip.NewWriter(out)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		out.Close()
		return fmt.Errorf("zip header: %w", err)
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate
	header.Modified = time.Now()

	w, err := zw.CreateHeader(header)
	if err != nil {
		out.Close()
		return fmt.Errorf("zip entry: %w", err)
	}

	if _, err = io.Copy(w, &contextReader{ctx: ctx, r: in}); err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("zip %s: %w", src, err)
	}
	if err = zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	s.logger.Printf("Zipped %s into %s", filepath.Base(src), dst)
	return nil
}

// ArchivePath returns the archive path for a file: same directory and base
// name with a .zip extension.
func ArchivePath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ArchiveExtension
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
