package mashup

// Package mashup runs one mashup end to end: resolve the query, download each
// candidate, trim every source to a clip, merge the clips, tag and optionally
// zip the result, and remove the intermediate files.
