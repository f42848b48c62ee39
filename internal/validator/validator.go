// Package validator checks that a record translation reads as the requested
// target language.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/tweetreview/internal/detector"
	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/segment"
)

// minValidationLength is the minimum rune count required to attempt language detection.
const minValidationLength = 20

var ErrWrongLanguage = errors.New("translation is in the wrong language")

type Validator struct {
	det *detector.Detector
}

func New(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// Check returns ErrWrongLanguage when translated is detected as a language
// other than targetLang. Rendered mentions and hashtags of rec are ignored.
// Empty translations, short texts and texts whose language cannot be
// determined pass.
func (v *Validator) Check(rec *record.Record, translated, targetLang string) error {
	if targetLang == "" {
		return nil
	}
	tag, err := language.Parse(targetLang)
	if err != nil {
		return fmt.Errorf("invalid target language: %w", err)
	}
	base, _ := tag.Base()

	text := strings.TrimSpace(stripEntities(translated, rec.Entities))
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if detected != base.String() {
		return fmt.Errorf("%w: expected %s, detected %s", ErrWrongLanguage, base, detected)
	}
	return nil
}

func stripEntities(text string, entities []record.Entity) string {
	for _, e := range entities {
		rendered, err := segment.Render(e)
		if err != nil {
			continue
		}
		text = strings.ReplaceAll(text, rendered, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}
