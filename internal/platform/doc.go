package platform

// Package platform contains filesystem and external tooling glue: run
// directories, intermediate file naming, cleanup, downloaded-file lookup and
// playlist expansion via the ytdlp library.
