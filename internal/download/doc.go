package download

// Package download fetches candidate audio into a run directory. The default
// backend drives yt-dlp via github.com/lrstanley/go-ytdlp; the native backend
// pulls the audio stream with github.com/kkdai/youtube/v2 and transcodes it
// with ffmpeg.
