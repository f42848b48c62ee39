package preprocess

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/store"
)

type mapFetcher map[string]*record.Record

func (m mapFetcher) Fetch(_ context.Context, id string) (*record.Record, error) {
	if rec, ok := m[id]; ok {
		return rec, nil
	}
	return nil, errors.New("not found")
}

type fixedDetector string

func (d fixedDetector) DetectRecord(rec *record.Record) (string, bool) {
	if rec.Lang != "" {
		return rec.Lang, true
	}
	return string(d), d != ""
}

func setup(t *testing.T, ids string) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.LoadIDs(context.Background(), strings.NewReader(ids))
	require.NoError(t, err)
	return st
}

func TestRun(t *testing.T) {
	st := setup(t, "plain\nrt\nquote\ngone\n")
	ctx := context.Background()

	fetcher := mapFetcher{
		"plain": {
			ID: "plain", UserID: "7", ScreenName: "bob", Text: "hola amigos",
			Media: []record.Media{{ID: "m1", Type: record.MediaPhoto, URL: "https://img/1.jpg"}},
		},
		"rt":    {ID: "rt", UserID: "8", Retweeted: &record.Record{ID: "orig", UserID: "9"}},
		"quote": {ID: "quote", UserID: "8", Text: "look", Lang: "en", Quoted: &record.Record{ID: "q", UserID: "9"}},
	}

	p := New(st, fetcher, fixedDetector("es"), nil)
	res, err := p.Run(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, Result{Preprocessed: 2, Unavailable: 1, Retweets: 1}, res)

	for id, want := range map[string]store.Status{
		"plain": store.StatusPreprocessed,
		"quote": store.StatusPreprocessed,
		"rt":    store.StatusRetweetSkipped,
		"gone":  store.StatusUnavailable,
		"orig":  store.StatusUnprocessed,
		"q":     store.StatusUnprocessed,
	} {
		got, found, err := st.Status(ctx, id)
		require.NoError(t, err)
		require.True(t, found, id)
		assert.Equal(t, want, got, id)
	}

	a, found, err := st.GetAutoDetail(ctx, "plain")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "es", a.Language, "detected language")
	assert.True(t, a.HasMedia)
	assert.Equal(t, "https://twitter.com/7/status/plain", a.URL)

	a, _, err = st.GetAutoDetail(ctx, "quote")
	require.NoError(t, err)
	assert.Equal(t, "en", a.Language, "provider language wins")
	assert.Equal(t, "q", a.BasedOn)
}

func TestRun_OnlyUnprocessed(t *testing.T) {
	st := setup(t, "1\n2\n")
	ctx := context.Background()
	require.NoError(t, st.SetStatus(ctx, "1", store.StatusFinalized))

	fetcher := mapFetcher{
		"1": {ID: "1", UserID: "7", Text: "x"},
		"2": {ID: "2", UserID: "7", Text: "y"},
	}
	res, err := New(st, fetcher, nil, nil).Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Preprocessed)

	got, _, err := st.Status(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFinalized, got)
}
