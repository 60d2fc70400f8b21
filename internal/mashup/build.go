package mashup

import (
	"log"

	"github.com/ytget/mashup/internal/audio"
	"github.com/ytget/mashup/internal/compress"
	"github.com/ytget/mashup/internal/config"
	"github.com/ytget/mashup/internal/download"
	"github.com/ytget/mashup/internal/media"
	"github.com/ytget/mashup/internal/merge"
	"github.com/ytget/mashup/internal/platform"
	"github.com/ytget/mashup/internal/resolve"
)

// Build assembles a pipeline from settings
func Build(s *config.Settings, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}

	ff := media.NewFFmpeg(s.FFmpegPath, s.FFprobePath, logger)
	ff.SetBitrate(s.AudioQuality)
	format := s.GetOutputFormat()

	search := resolve.NewSearchResolver(logger)
	search.SetTimeout(s.GetSearchTimeout())
	playlists := platform.NewPlaylistExpander()
	playlists.SetTimeout(s.GetSearchTimeout())
	resolver := resolve.NewService(search, resolve.NewURLResolver(playlists, logger), logger)

	var downloader download.Downloader
	switch s.GetDownloader() {
	case config.DownloaderNative:
		downloader = download.NewNativeService(ff, format, logger)
	default:
		yt := download.NewYTDLPService(format, logger)
		yt.SetAudioQuality(s.AudioQuality)
		yt.SetUserAgent(s.UserAgent)
		yt.SetRetries(s.DownloadRetries)
		downloader = yt
	}

	var merger merge.Merger
	switch s.GetMerger() {
	case config.MergerPCM:
		merger = merge.NewPCMMerger(ff, logger)
	default:
		merger = merge.NewConcatMerger(ff, logger)
	}

	p := NewPipeline(s.DownloadDir, resolver, downloader, ff, merger, logger)
	p.SetLimits(Limits{MinCount: s.MinCount, MinClipDuration: s.GetMinClipDuration()})
	p.SetDefaultFormat(format)
	p.SetArchiver(compress.NewService(logger))
	if s.TagOutput {
		p.SetTagger(audio.NewTagger())
	}
	return p
}

// DefaultOptions returns request options seeded from settings
func DefaultOptions(s *config.Settings) Options {
	return Options{
		StartOffset:      s.GetStartOffset(),
		Zip:              s.Zip,
		KeepIntermediate: s.KeepIntermediate,
	}
}
