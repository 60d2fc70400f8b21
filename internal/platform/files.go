package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Intermediate file naming
const (
	DownloadPrefix = "video_"
	ClipPrefix     = "trimmed_audio_"
	ConcatListName = "concat_list.txt"
)

// File name limits
const (
	MaxFileNameLength = 120
	MaxNameDifference = 10
)

// File extensions to skip, left behind by interrupted downloads
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// Common file name variations produced by filename restriction
var (
	FileNameVariations = []string{"-", "_", " "}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// DownloadFileName returns the per-item download name, e.g. video_abc123.mp3
func DownloadFileName(id, ext string) string {
	return DownloadPrefix + SanitizeFileName(id) + dotted(ext)
}

// ClipFileName returns the clip name for the track at index
func ClipFileName(index int, ext string) string {
	return fmt.Sprintf("%s%d%s", ClipPrefix, index, dotted(ext))
}

// SanitizeFileName folds accents, drops path separators and anything outside
// [A-Za-z0-9._-], and collapses whitespace to underscores.
func SanitizeFileName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r), r == '_', r == '/', r == '\\':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._-")
	if len(out) > MaxFileNameLength {
		out = out[:MaxFileNameLength]
	}
	return out
}

// EnsureExtension appends ext to name unless name already ends with it
func EnsureExtension(name, ext string) string {
	ext = dotted(ext)
	if ext == "" || strings.EqualFold(filepath.Ext(name), ext) {
		return name
	}
	return name + ext
}

// RemoveFiles deletes every path. Files that do not exist are ignored; any
// other failure is collected and returned as one joined error.
func RemoveFiles(paths []string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveDirIfEmpty removes dir when nothing is left inside it
func RemoveDirIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(dir)
}

// FindFileWithFallback tries to find a file by its original path, and if not found,
// searches the same directory for the same base name with another extension, then
// for names that differ only by separators added during filename restriction.
func FindFileWithFallback(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path is empty")
	}

	if strings.HasPrefix(filePath, "http") {
		return "", fmt.Errorf("file path appears to be a URL: %s", filePath)
	}

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil
	}

	dir := filepath.Dir(filePath)
	originalName := filepath.Base(filePath)
	baseName := strings.TrimSuffix(originalName, filepath.Ext(originalName))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var sameBase, similar []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		entryName := entry.Name()
		entryExt := filepath.Ext(entryName)
		if isSkippedExtension(entryExt) {
			continue
		}
		entryBase := strings.TrimSuffix(entryName, entryExt)

		switch {
		case entryBase == baseName:
			sameBase = append(sameBase, filepath.Join(dir, entryName))
		case isSimilarFileName(baseName, entryBase):
			similar = append(similar, filepath.Join(dir, entryName))
		}
	}

	if len(sameBase) > 0 {
		sort.Strings(sameBase)
		return sameBase[0], nil
	}
	if len(similar) > 0 {
		sort.Strings(similar)
		return similar[0], nil
	}

	return "", fmt.Errorf("file not found: %s", filePath)
}

// isSimilarFileName checks if two base names differ only by separator
// characters at either end or by a short suffix.
func isSimilarFileName(name1, name2 string) bool {
	if name1 == name2 {
		return true
	}

	for _, v := range FileNameVariations {
		if name2 == v+name1 || name2 == name1+v || name1 == v+name2 || name1 == name2+v {
			return true
		}
	}

	shorter, longer := name1, name2
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return false
	}
	return strings.HasPrefix(longer, shorter) && len(longer)-len(shorter) < MaxNameDifference
}

// IsIntermediateName reports whether name collides with the per-run download,
// clip or concat list naming scheme
func IsIntermediateName(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasPrefix(base, DownloadPrefix) || strings.HasPrefix(base, ClipPrefix) || base == ConcatListName
}

func isSkippedExtension(ext string) bool {
	for _, skipped := range SkippedExtensions {
		if strings.EqualFold(ext, skipped) {
			return true
		}
	}
	return false
}

func dotted(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
