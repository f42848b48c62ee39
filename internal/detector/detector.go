package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/segment"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over the given languages, or over every language
// lingua knows when none are given.
func New(languages ...lingua.Language) *Detector {
	var builder lingua.LanguageDetectorBuilder
	if len(languages) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(languages...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}
	return &Detector{detector: builder.Build()}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectRecord returns the language of rec. The provider's language wins;
// otherwise detection runs on the text with mentions and hashtags removed.
func (d *Detector) DetectRecord(rec *record.Record) (string, bool) {
	if rec.Lang != "" {
		return rec.Lang, true
	}
	split, err := segment.Segment(rec.Text, rec.Entities)
	if err != nil {
		return d.DetectISO(rec.Text)
	}
	return d.DetectISO(strings.Join(split.Translatable(), " "))
}
