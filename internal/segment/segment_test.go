package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/segment"
)

func mention(label string, start, end int) record.Entity {
	return record.Entity{Kind: record.EntityMention, Label: label, Start: start, End: end}
}

func hashtag(label string, start, end int) record.Entity {
	return record.Entity{Kind: record.EntityHashtag, Label: label, Start: start, End: end}
}

func TestSegment_Scenario(t *testing.T) {
	text := "Hello @bob check #fun"
	// Hashtags come after mentions in provider order; give them out of order
	// to exercise the sort.
	entities := []record.Entity{hashtag("fun", 17, 21), mention("bob", 6, 10)}

	split, err := segment.Segment(text, entities)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello ", " check ", ""}, split.Spans)
	assert.Equal(t, []string{"Hello ", " check "}, split.Translatable())
	assert.Equal(t, text, split.Original())

	got, err := segment.Recompose(split, []string{"Hola ", " revisa "})
	require.NoError(t, err)
	assert.Equal(t, "Hola  @bob  revisa  #fun ", got)
}

func TestSegment_NoEntities(t *testing.T) {
	split, err := segment.Segment("just words", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"just words"}, split.Spans)

	got, err := segment.Recompose(split, []string{"solo palabras"})
	require.NoError(t, err)
	assert.Equal(t, "solo palabras", got, "translation is returned unmodified")
}

func TestSegment_EntityOnly(t *testing.T) {
	split, err := segment.Segment("@a#b", []record.Entity{mention("a", 0, 2), hashtag("b", 2, 4)})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "", ""}, split.Spans)
	assert.Empty(t, split.Translatable())

	got, err := segment.Recompose(split, nil)
	require.NoError(t, err)
	assert.Equal(t, " @a  #b ", got)
}

func TestSegment_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		entities []record.Entity
	}{
		{"leading entity", "@x hi", []record.Entity{mention("x", 0, 2)}},
		{"trailing entity", "hi #go", []record.Entity{hashtag("go", 3, 6)}},
		{"adjacent", "a@x#y b", []record.Entity{mention("x", 1, 3), hashtag("y", 3, 5)}},
		{"multibyte", "¡Olé @josé! ¿qué? #fútbol ✨", []record.Entity{mention("josé", 5, 10), hashtag("fútbol", 18, 25)}},
		{"empty text", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := segment.Segment(tt.text, tt.entities)
			require.NoError(t, err)

			assert.Len(t, split.Spans, len(tt.entities)+1)
			assert.Equal(t, tt.text, split.Original())
		})
	}
}

func TestRecompose_IdentityTranslation(t *testing.T) {
	text := "¡Olé @josé! ¿qué? #fútbol ✨"
	split, err := segment.Segment(text, []record.Entity{mention("josé", 5, 10), hashtag("fútbol", 18, 25)})
	require.NoError(t, err)

	assert.Equal(t, []string{"¡Olé ", "! ¿qué? ", " ✨"}, split.Spans)

	got, err := segment.Recompose(split, split.Translatable())
	require.NoError(t, err)
	assert.Equal(t, "¡Olé  @josé ! ¿qué?  #fútbol  ✨", got)
}

func TestSegment_StableTies(t *testing.T) {
	entities := []record.Entity{mention("first", 3, 3), hashtag("second", 3, 3)}

	split, err := segment.Segment("abcdef", entities)
	require.NoError(t, err)

	require.Len(t, split.Entities, 2)
	assert.Equal(t, "first", split.Entities[0].Label)
	assert.Equal(t, "second", split.Entities[1].Label)
}

func TestSegment_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		entities []record.Entity
		want     error
	}{
		{"overlap", []record.Entity{mention("a", 0, 4), hashtag("b", 3, 6)}, segment.ErrOverlap},
		{"past end", []record.Entity{mention("a", 4, 20)}, segment.ErrInvalidRange},
		{"negative", []record.Entity{mention("a", -1, 2)}, segment.ErrInvalidRange},
		{"inverted", []record.Entity{mention("a", 4, 2)}, segment.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := segment.Segment("abcdefgh", tt.entities)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRecompose_Unlabeled(t *testing.T) {
	split, err := segment.Segment("hi @ there", []record.Entity{mention("", 3, 4)})
	require.NoError(t, err)

	_, err = segment.Recompose(split, []string{"hola ", " alli"})
	assert.ErrorIs(t, err, segment.ErrUnlabeled)
}

func TestRecompose_CountMismatch(t *testing.T) {
	split, err := segment.Segment("Hello @bob check #fun", []record.Entity{mention("bob", 6, 10), hashtag("fun", 17, 21)})
	require.NoError(t, err)

	_, err = segment.Recompose(split, []string{"Hola "})
	assert.ErrorIs(t, err, segment.ErrTranslationCount)
}

func TestRender(t *testing.T) {
	got, err := segment.Render(mention("bob", 0, 4))
	require.NoError(t, err)
	assert.Equal(t, "@bob", got)

	got, err = segment.Render(hashtag("fun", 0, 4))
	require.NoError(t, err)
	assert.Equal(t, "#fun", got)

	_, err = segment.Render(record.Entity{Kind: "cashtag", Label: "X"})
	assert.ErrorIs(t, err, segment.ErrUnlabeled)
}
