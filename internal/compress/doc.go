package compress

// Package compress packages finished mashups into zip archives for download.
