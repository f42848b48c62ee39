package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/scheduler"
	"github.com/valpere/tweetreview/internal/store"
)

type mapFetcher map[string]*record.Record

func (m mapFetcher) Fetch(_ context.Context, id string) (*record.Record, error) {
	if rec, ok := m[id]; ok {
		return rec, nil
	}
	return nil, errors.New("not found")
}

type upperTranslator struct{}

func (upperTranslator) Translate(_ context.Context, rec *record.Record, lang string) (string, error) {
	if lang == "" {
		return "", nil
	}
	return strings.ToUpper(rec.Text), nil
}

func newTestSession(t *testing.T, input string, recs ...*record.Record) (*reviewSession, *store.Store, *bytes.Buffer) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fetcher := mapFetcher{}
	var ids []string
	for _, r := range recs {
		fetcher[r.ID] = r
		ids = append(ids, r.ID)
	}
	_, err = db.LoadIDs(context.Background(), strings.NewReader(strings.Join(ids, "\n")))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &reviewSession{
		sched:   scheduler.New(db, fetcher, scheduler.Config{}, slog.Default()),
		tr:      upperTranslator{},
		lang:    "xx",
		allowed: store.Schedulable(),
		in:      strings.NewReader(input),
		out:     out,
		log:     slog.Default(),
	}, db, out
}

func TestReviewSession_Accept(t *testing.T) {
	rec := &record.Record{ID: "1", UserID: "7", ScreenName: "bob", Text: "hello", Lang: "en"}
	s, db, out := newTestSession(t, "9\n1\na greeting\n\ny\nmaybe\nn\n\n", rec)

	stats, err := s.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.accepted)

	assert.Contains(t, out.String(), "HELLO", "translation is shown")
	assert.Contains(t, out.String(), `Unknown choice "9"`)
	assert.Contains(t, out.String(), "No more records to review.")

	details, err := db.ListDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "a greeting", details[0].Description)
	assert.False(t, details[0].HasMedia)
	assert.True(t, details[0].IsMeme)
	assert.False(t, details[0].HasSlang)
	assert.Equal(t, "en", details[0].Language, "record language is the default")
}

func TestReviewSession_RejectAndSkip(t *testing.T) {
	a := &record.Record{ID: "a", UserID: "1", Text: "one"}
	b := &record.Record{ID: "b", UserID: "1", Text: "two"}
	s, db, _ := newTestSession(t, "2\n3\n4\n", a, b)

	stats, err := s.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.rejected)
	assert.Equal(t, 1, stats.skipped)

	counts, err := db.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[store.StatusRejected])
	assert.Equal(t, 0, counts[store.StatusReviewing], "exit puts the current record back")
	assert.Equal(t, 1, counts[store.StatusUnprocessed])
}

func TestReviewSession_EndOfInput(t *testing.T) {
	rec := &record.Record{ID: "1", UserID: "7", Text: "hello"}
	s, db, _ := newTestSession(t, "1\nhalf typed", rec)

	_, err := s.run(context.Background())
	require.NoError(t, err)

	st, _, err := db.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnprocessed, st)
}

// cancelOnPrompt cancels the session when the given prompt is printed.
type cancelOnPrompt struct {
	bytes.Buffer
	prompt string
	cancel context.CancelFunc
}

func (w *cancelOnPrompt) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.prompt) {
		w.cancel()
	}
	return w.Buffer.Write(p)
}

func TestReviewSession_InterruptWhileWaiting(t *testing.T) {
	rec := &record.Record{ID: "1", UserID: "7", Text: "hello"}
	s, db, _ := newTestSession(t, "", rec)

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	s.in = pr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.out = &cancelOnPrompt{prompt: "[4] Exit", cancel: cancel}

	stats, err := s.run(ctx)
	require.NoError(t, err)
	assert.Equal(t, reviewStats{}, stats)

	st, _, err := db.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnprocessed, st, "interrupted record is put back")
}

func TestReviewSession_InterruptWhileAccepting(t *testing.T) {
	rec := &record.Record{ID: "1", UserID: "7", Text: "hello"}
	s, db, _ := newTestSession(t, "1\n", rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.out = &cancelOnPrompt{prompt: "Description:", cancel: cancel}

	stats, err := s.run(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.accepted)

	st, _, err := db.Status(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnprocessed, st)

	details, err := db.ListDetails(context.Background())
	require.NoError(t, err)
	assert.Empty(t, details)
}
