package media

// Package media drives ffmpeg and ffprobe: probing source lengths, cutting
// clips, transcoding downloads into the output container, and raw PCM
// decode/encode used by the in-memory merger. Every call blocks until the
// external process exits and honours context cancellation.
