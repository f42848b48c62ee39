package record

import "strings"

// DefaultBitrate is the video bitrate BestVariant aims for when no
// preference is given.
const DefaultBitrate = 832000

// Media types as reported by the provider.
const (
	MediaPhoto       = "photo"
	MediaAnimatedGIF = "animated_gif"
	MediaVideo       = "video"
	MediaAudio       = "audio"
)

// Media is an attachment of a record.
type Media struct {
	ID       string
	Type     string
	URL      string
	Sizes    []string
	Variants []Variant
}

// Variant is one encoding of a video attachment. Bitrate is zero when the
// provider omits it (e.g. HLS playlists).
type Variant struct {
	Bitrate     int
	ContentType string
	URL         string
}

func (m Media) IsPhoto() bool {
	t := strings.ToLower(m.Type)
	return t == MediaPhoto || t == MediaAnimatedGIF
}

func (m Media) IsVideo() bool {
	return strings.ToLower(m.Type) == MediaVideo
}

// SizedURL returns the URL of the named rendition ("thumb", "small",
// "medium", "large") when the provider lists it, else the base URL.
func (m Media) SizedURL(size string) string {
	for _, s := range m.Sizes {
		if s == size {
			return m.URL + ":" + size
		}
	}
	return m.URL
}

// BestVariant picks the variant whose bitrate equals bitrate, else the one
// closest to it, else the first listed. Variants without a bitrate are only
// ever chosen by the last fallback. ok is false when there are no variants.
func (m Media) BestVariant(bitrate int) (Variant, bool) {
	if len(m.Variants) == 0 {
		return Variant{}, false
	}
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}

	best := -1
	distance := bitrate
	for i, v := range m.Variants {
		if v.Bitrate == 0 {
			continue
		}
		if v.Bitrate == bitrate {
			return v, true
		}
		d := v.Bitrate - bitrate
		if d < 0 {
			d = -d
		}
		if d < distance {
			distance = d
			best = i
		}
	}
	if best >= 0 {
		return m.Variants[best], true
	}
	return m.Variants[0], true
}

// PreferredURL is the URL stored for the attachment: the best video variant
// for videos, the base URL otherwise.
func (m Media) PreferredURL() string {
	if m.IsVideo() {
		if v, ok := m.BestVariant(DefaultBitrate); ok {
			return v.URL
		}
	}
	return m.URL
}
