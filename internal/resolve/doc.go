package resolve

// Package resolve turns a user query into a bounded, ordered list of
// candidates: free text goes through a yt-dlp search, a list of URLs is taken
// literally with playlist links expanded.
