package audio

import (
	"fmt"
	"strings"

	"github.com/bogem/id3v2"
)

// MashupAlbum is written to the album frame of every tagged mashup
const MashupAlbum = "Mashup"

// TagInfo describes the frames written to a finished mashup
type TagInfo struct {
	Title   string
	Artist  string
	Sources []string // one line per clip, in play order
}

// Tagger writes ID3 tags to MP3 mashups.
type Tagger struct {
	language string
}

// NewTagger creates a Tagger writing comment frames in English.
func NewTagger() *Tagger {
	return &Tagger{language: "eng"}
}

// SaveTags writes title, artist, album and a track-list comment to path.
// Files without an existing tag get a fresh one on save.
func (t *Tagger) SaveTags(path string, info TagInfo) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(info.Title)
	tag.SetArtist(info.Artist)
	tag.SetAlbum(MashupAlbum)
	tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, info.Artist)

	if len(info.Sources) > 0 {
		tag.DeleteFrames(tag.CommonID("Comments"))
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    t.language,
			Description: "sources",
			Text:        strings.Join(info.Sources, "\n"),
		})
	}

	return tag.Save()
}
