// Package preprocess enriches UNPROCESSED records ahead of review: it
// fetches each record once, stores the author, the media and the facts that
// need no reviewer input, and marks the record PREPROCESSED.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/store"
)

type Fetcher interface {
	Fetch(ctx context.Context, id string) (*record.Record, error)
}

// LanguageDetector returns the ISO 639-1 code of a record's language.
type LanguageDetector interface {
	DetectRecord(rec *record.Record) (string, bool)
}

type Store interface {
	SampleIDs(ctx context.Context, statuses []store.Status, n int) ([]string, error)
	InsertIfAbsent(ctx context.Context, id string, st store.Status) (bool, error)
	Transition(ctx context.Context, id string, from []store.Status, to store.Status) error
	SavePreprocessed(ctx context.Context, a store.AutoDetail, u store.User, media []store.MediaItem) error
}

// Result counts what a run did with each sampled record.
type Result struct {
	Preprocessed int
	Unavailable  int
	Retweets     int
	Stale        int
}

type Preprocessor struct {
	store    Store
	fetcher  Fetcher
	detector LanguageDetector
	logger   *slog.Logger
}

func New(st Store, f Fetcher, d LanguageDetector, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{store: st, fetcher: f, detector: d, logger: logger}
}

// Run preprocesses up to limit randomly sampled UNPROCESSED records.
func (p *Preprocessor) Run(ctx context.Context, limit int) (Result, error) {
	var res Result

	ids, err := p.store.SampleIDs(ctx, []store.Status{store.StatusUnprocessed}, limit)
	if err != nil {
		return res, fmt.Errorf("failed to sample ids: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		rec, err := p.fetcher.Fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			p.logger.Info("record unavailable", "id", id, "error", err)
			moved, err := p.move(ctx, id, store.StatusUnavailable, &res)
			if err != nil {
				return res, err
			}
			if moved {
				res.Unavailable++
			}
			continue
		}

		if rec.IsRetweet() {
			if _, err := p.store.InsertIfAbsent(ctx, rec.Retweeted.ID, store.StatusUnprocessed); err != nil {
				return res, err
			}
			moved, err := p.move(ctx, id, store.StatusRetweetSkipped, &res)
			if err != nil {
				return res, err
			}
			if moved {
				res.Retweets++
			}
			continue
		}
		if rec.IsQuote() {
			if _, err := p.store.InsertIfAbsent(ctx, rec.Quoted.ID, store.StatusUnprocessed); err != nil {
				return res, err
			}
		}

		a, u, media := p.extract(rec)
		if err := p.store.SavePreprocessed(ctx, a, u, media); err != nil {
			if errors.Is(err, store.ErrStatusConflict) {
				res.Stale++
				continue
			}
			return res, fmt.Errorf("failed to save %s: %w", id, err)
		}
		res.Preprocessed++
	}

	p.logger.Info("preprocessing done",
		"preprocessed", res.Preprocessed, "unavailable", res.Unavailable,
		"retweets", res.Retweets, "stale", res.Stale)
	return res, nil
}

// move transitions id out of UNPROCESSED. A record that changed status since
// sampling is counted as stale and left alone.
func (p *Preprocessor) move(ctx context.Context, id string, to store.Status, res *Result) (bool, error) {
	err := p.store.Transition(ctx, id, []store.Status{store.StatusUnprocessed}, to)
	if errors.Is(err, store.ErrStatusConflict) {
		res.Stale++
		return false, nil
	}
	return err == nil, err
}

func (p *Preprocessor) extract(rec *record.Record) (store.AutoDetail, store.User, []store.MediaItem) {
	all := rec.AllMedia()

	a := store.AutoDetail{
		RecordID:    rec.ID,
		BasedOn:     rec.ReferencedID(),
		URL:         rec.URL(),
		UserID:      rec.UserID,
		DateCreated: rec.CreatedAt,
		HasMedia:    len(all) > 0,
		Text:        rec.Text,
	}
	if p.detector != nil {
		a.Language, _ = p.detector.DetectRecord(rec)
	} else {
		a.Language = rec.Lang
	}

	u := store.User{ID: rec.UserID, URL: rec.UserURL(), ScreenName: rec.ScreenName}

	media := make([]store.MediaItem, 0, len(all))
	for _, m := range all {
		media = append(media, store.MediaItem{ID: m.ID, URL: m.PreferredURL(), Type: m.Type})
	}
	return a, u, media
}
