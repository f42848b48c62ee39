// Package scheduler hands records to a reviewer one at a time and moves them
// through the review state machine:
//
//	UNPROCESSED/PREPROCESSED -> REVIEWING -> FINALIZED | REJECTED | UNPROCESSED
//	                                      -> UNAVAILABLE | RETWEET_SKIPPED
//
// Retweets are skipped in favour of the record they retweet. Quotes are
// reviewed, and the quoted record is queued for review as well.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/store"
)

const (
	DefaultSampleSize       = 5
	DefaultMaxFetchFailures = 30
)

var (
	// ErrInvariant is returned when a fetched record is both a retweet and a
	// quote. The record is left in REVIEWING.
	ErrInvariant = errors.New("record is both a retweet and a quote")

	// ErrInvalidTransition is returned when a decision is recorded for a
	// record that is not in REVIEWING.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Fetcher retrieves a record by id from the upstream provider.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*record.Record, error)
}

// Store is the persistence the scheduler needs.
type Store interface {
	Status(ctx context.Context, id string) (store.Status, bool, error)
	InsertIfAbsent(ctx context.Context, id string, st store.Status) (bool, error)
	Transition(ctx context.Context, id string, from []store.Status, to store.Status) error
	SampleIDs(ctx context.Context, statuses []store.Status, n int) ([]string, error)
	Finalize(ctx context.Context, d store.Details) error
}

type Config struct {
	SampleSize       int `mapstructure:"sample_size"`
	MaxFetchFailures int `mapstructure:"max_fetch_failures"`
}

// Scheduler is not safe for concurrent use; it serves a single reviewer.
type Scheduler struct {
	store   Store
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger
	queue   []string
}

func New(st Store, f Fetcher, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.MaxFetchFailures <= 0 {
		cfg.MaxFetchFailures = DefaultMaxFetchFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: st, fetcher: f, cfg: cfg, logger: logger}
}

// Pending returns the number of ids waiting in the in-memory queue.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// EnqueueIfSchedulable queues id for review. Unknown ids are created as
// UNPROCESSED first; ids whose status is not in allowed are ignored.
func (s *Scheduler) EnqueueIfSchedulable(ctx context.Context, id string, allowed []store.Status) error {
	created, err := s.store.InsertIfAbsent(ctx, id, store.StatusUnprocessed)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", id, err)
	}
	if created {
		if isIn(store.StatusUnprocessed, allowed) {
			s.queue = append(s.queue, id)
		}
		return nil
	}

	st, found, err := s.store.Status(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to read status of %s: %w", id, err)
	}
	if found && isIn(st, allowed) {
		s.queue = append(s.queue, id)
	}
	return nil
}

// Next returns the next record to review, already moved to REVIEWING. It
// returns (nil, nil) when no record with a status in allowed is left, or
// when too many consecutive fetches fail.
func (s *Scheduler) Next(ctx context.Context, allowed []store.Status) (*record.Record, error) {
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if len(s.queue) == 0 {
			ids, err := s.store.SampleIDs(ctx, allowed, s.cfg.SampleSize)
			if err != nil {
				return nil, fmt.Errorf("failed to sample ids: %w", err)
			}
			if len(ids) == 0 {
				return nil, nil
			}
			s.queue = append(s.queue, ids...)
		}

		id := s.queue[0]
		s.queue = s.queue[1:]

		st, found, err := s.store.Status(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read status of %s: %w", id, err)
		}
		if !found || !isIn(st, allowed) {
			continue
		}

		if err := s.store.Transition(ctx, id, allowed, store.StatusReviewing); err != nil {
			if errors.Is(err, store.ErrStatusConflict) || errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to claim %s: %w", id, err)
		}

		rec, err := s.fetcher.Fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Info("record unavailable", "id", id, "error", err)
			if err := s.store.Transition(ctx, id, []store.Status{store.StatusReviewing}, store.StatusUnavailable); err != nil {
				return nil, fmt.Errorf("failed to mark %s unavailable: %w", id, err)
			}
			failures++
			if failures >= s.cfg.MaxFetchFailures {
				s.logger.Warn("giving up after consecutive fetch failures", "failures", failures)
				return nil, nil
			}
			continue
		}
		failures = 0

		next, err := s.resolveReferences(ctx, rec, allowed)
		if err != nil {
			return nil, err
		}
		if next != nil {
			return next, nil
		}
	}
}

// resolveReferences decides what to do with a freshly claimed record. A nil
// record with a nil error means the record was skipped and the caller should
// move on.
func (s *Scheduler) resolveReferences(ctx context.Context, rec *record.Record, allowed []store.Status) (*record.Record, error) {
	switch {
	case rec.IsRetweet() && rec.IsQuote():
		return nil, fmt.Errorf("%w: %s", ErrInvariant, rec.ID)

	case rec.IsRetweet():
		if err := s.EnqueueIfSchedulable(ctx, rec.Retweeted.ID, allowed); err != nil {
			return nil, err
		}
		if err := s.store.Transition(ctx, rec.ID, []store.Status{store.StatusReviewing}, store.StatusRetweetSkipped); err != nil {
			return nil, fmt.Errorf("failed to skip retweet %s: %w", rec.ID, err)
		}
		s.logger.Debug("retweet skipped", "id", rec.ID, "retweeted", rec.Retweeted.ID)
		return nil, nil

	case rec.IsQuote():
		if err := s.EnqueueIfSchedulable(ctx, rec.Quoted.ID, allowed); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Decision is the reviewer's verdict on a record in REVIEWING.
type Decision struct {
	kind    decisionKind
	details store.Details
}

type decisionKind int

const (
	decisionAccept decisionKind = iota
	decisionReject
	decisionSkip
)

// Accept finalizes the record with the given details.
func Accept(d store.Details) Decision {
	return Decision{kind: decisionAccept, details: d}
}

func Reject() Decision { return Decision{kind: decisionReject} }

// Skip returns the record to UNPROCESSED so it can be sampled again.
func Skip() Decision { return Decision{kind: decisionSkip} }

func (d Decision) String() string {
	switch d.kind {
	case decisionAccept:
		return "accept"
	case decisionReject:
		return "reject"
	case decisionSkip:
		return "skip"
	}
	return "unknown"
}

// RecordDecision applies d to id, which must be in REVIEWING.
func (s *Scheduler) RecordDecision(ctx context.Context, id string, d Decision) error {
	var err error
	switch d.kind {
	case decisionAccept:
		details := d.details
		details.RecordID = id
		err = s.store.Finalize(ctx, details)
	case decisionReject:
		err = s.store.Transition(ctx, id, []store.Status{store.StatusReviewing}, store.StatusRejected)
	case decisionSkip:
		err = s.store.Transition(ctx, id, []store.Status{store.StatusReviewing}, store.StatusUnprocessed)
	default:
		return fmt.Errorf("unknown decision for %s", id)
	}

	if errors.Is(err, store.ErrStatusConflict) || errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidTransition, d, id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", d, id, err)
	}
	s.logger.Debug("decision recorded", "id", id, "decision", d.String())
	return nil
}

func isIn(st store.Status, set []store.Status) bool {
	for _, s := range set {
		if s == st {
			return true
		}
	}
	return false
}
