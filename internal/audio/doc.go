package audio

// Package audio holds raw PCM helpers used by the in-memory merger and the
// ID3 tagger applied to finished MP3 mashups.
