// Package segment splits a record's text around its mentions and hashtags so
// that only the literal spans are sent for translation, and puts translated
// spans back together with the entities re-attached in their original
// positions.
//
// For text "Hello @bob check #fun" with entities @bob [6,10) and #fun
// [17,21), Segment yields the spans "Hello ", " check " and "". Recompose
// with translations "Hola " and " revisa " yields "Hola  @bob  revisa  #fun ":
// spans and rendered entities alternate and are joined with a single space,
// empty spans included.
package segment

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/valpere/tweetreview/internal/record"
)

var (
	// ErrInvalidRange is returned when an entity range falls outside the text
	// or ends before it starts.
	ErrInvalidRange = errors.New("entity range out of bounds")

	// ErrOverlap is returned when two entity ranges intersect.
	ErrOverlap = errors.New("overlapping entities")

	// ErrUnlabeled is returned when an entity cannot be rendered because its
	// kind is unknown or its label is empty.
	ErrUnlabeled = errors.New("entity has no label")

	// ErrTranslationCount is returned when the number of translations does not
	// match the number of translatable spans.
	ErrTranslationCount = errors.New("translation count mismatch")
)

// Split is the result of Segment. Spans has exactly len(Entities)+1 elements;
// entity i sits between Spans[i] and Spans[i+1].
type Split struct {
	Spans    []string
	Entities []record.Entity

	// sources holds the original text covered by each entity.
	sources []string
}

// Segment sorts entities by start offset (stable, so ties keep input order)
// and cuts text into the literal spans between them. Offsets are Unicode code
// points. Ranges must lie within the text and must not overlap.
func Segment(text string, entities []record.Entity) (Split, error) {
	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b record.Entity) int {
		return a.Start - b.Start
	})

	runes := []rune(text)
	split := Split{
		Spans:    make([]string, 0, len(sorted)+1),
		Entities: sorted,
		sources:  make([]string, 0, len(sorted)),
	}

	tail := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(runes) {
			return Split{}, fmt.Errorf("%w: %s %q at [%d,%d) in text of length %d",
				ErrInvalidRange, e.Kind, e.Label, e.Start, e.End, len(runes))
		}
		if e.Start < tail {
			prev := sorted[i-1]
			return Split{}, fmt.Errorf("%w: %s %q at [%d,%d) and %s %q at [%d,%d)",
				ErrOverlap, prev.Kind, prev.Label, prev.Start, prev.End, e.Kind, e.Label, e.Start, e.End)
		}
		split.Spans = append(split.Spans, string(runes[tail:e.Start]))
		split.sources = append(split.sources, string(runes[e.Start:e.End]))
		tail = e.End
	}
	split.Spans = append(split.Spans, string(runes[tail:]))

	return split, nil
}

// Translatable returns the non-empty spans in order. Empty spans have nothing
// to translate; their positions are kept in the Split for Recompose.
func (s Split) Translatable() []string {
	out := make([]string, 0, len(s.Spans))
	for _, span := range s.Spans {
		if span != "" {
			out = append(out, span)
		}
	}
	return out
}

// Original reassembles the input text from the spans and the text originally
// covered by each entity.
func (s Split) Original() string {
	var b strings.Builder
	for i, span := range s.Spans {
		b.WriteString(span)
		if i < len(s.sources) {
			b.WriteString(s.sources[i])
		}
	}
	return b.String()
}

// Render returns the display form of an entity: "@label" for mentions and
// "#label" for hashtags.
func Render(e record.Entity) (string, error) {
	if e.Label == "" || !e.Kind.IsValid() {
		return "", fmt.Errorf("%w: kind %q at [%d,%d)", ErrUnlabeled, e.Kind, e.Start, e.End)
	}
	if e.Kind == record.EntityMention {
		return "@" + e.Label, nil
	}
	return "#" + e.Label, nil
}

// Recompose rebuilds text from the translations of s.Translatable(), given in
// the same order. Spans and rendered entities alternate, joined by a single
// space; an empty span contributes an empty token. With no entities the single
// translation is returned as-is.
func Recompose(s Split, translations []string) (string, error) {
	want := len(s.Translatable())
	if len(translations) != want {
		return "", fmt.Errorf("%w: got %d translations for %d spans", ErrTranslationCount, len(translations), want)
	}

	tokens := make([]string, 0, 2*len(s.Spans)-1)
	next := 0
	for i, span := range s.Spans {
		if span == "" {
			tokens = append(tokens, "")
		} else {
			tokens = append(tokens, translations[next])
			next++
		}
		if i < len(s.Entities) {
			rendered, err := Render(s.Entities[i])
			if err != nil {
				return "", err
			}
			tokens = append(tokens, rendered)
		}
	}
	return strings.Join(tokens, " "), nil
}
