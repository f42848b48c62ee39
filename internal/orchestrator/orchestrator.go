// Package orchestrator produces cached machine translations of records. Each
// (record id, language) pair is sent to the provider at most once for the
// lifetime of the cache.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/segment"
	"github.com/valpere/tweetreview/internal/translator"
)

// Cache is a write-once store of translations keyed by record id and target
// language.
type Cache interface {
	GetTranslation(ctx context.Context, id, lang string) (string, bool, error)
	SaveTranslation(ctx context.Context, id, lang, text string) error
}

type OrchestratorConfig struct {
	// Timeout bounds a single provider call. Zero leaves the caller's context
	// in charge.
	Timeout time.Duration
}

type Orchestrator struct {
	cache    Cache
	provider translator.BatchTranslator
	config   OrchestratorConfig
	logger   *slog.Logger
}

// New builds an Orchestrator. A nil provider turns Translate into a no-op.
func New(cache Cache, provider translator.BatchTranslator, config OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cache:    cache,
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Translate returns the translation of rec's text into lang, with mentions
// and hashtags kept out of the provider request and re-inserted afterwards.
// It returns "" when no provider is configured, when lang is empty, or when
// the text has nothing but entities. Nothing is cached when the provider
// fails.
func (o *Orchestrator) Translate(ctx context.Context, rec *record.Record, lang string) (string, error) {
	if o.provider == nil || lang == "" {
		return "", nil
	}

	cached, found, err := o.cache.GetTranslation(ctx, rec.ID, lang)
	if err != nil {
		return "", fmt.Errorf("failed to read translation cache: %w", err)
	}
	if found {
		o.logger.Debug("translation cache hit", "id", rec.ID, "lang", lang)
		return cached, nil
	}

	split, err := segment.Segment(rec.Text, rec.Entities)
	if err != nil {
		return "", fmt.Errorf("failed to segment %s: %w", rec.ID, err)
	}

	var translated string
	spans := split.Translatable()
	if len(spans) > 0 {
		translated, err = o.translateSpans(ctx, split, spans, lang)
		if err != nil {
			return "", fmt.Errorf("failed to translate %s: %w", rec.ID, err)
		}
	}

	if err := o.cache.SaveTranslation(ctx, rec.ID, lang, translated); err != nil {
		return "", fmt.Errorf("failed to cache translation: %w", err)
	}
	return translated, nil
}

func (o *Orchestrator) translateSpans(ctx context.Context, split segment.Split, spans []string, lang string) (string, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := o.provider.TranslateBatch(ctx, spans, lang)
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.provider.Name(), err)
	}
	o.logger.Debug("spans translated", "provider", o.provider.Name(), "spans", len(spans), "latency", time.Since(start))

	return segment.Recompose(split, out)
}
