/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/tweetreview/internal/orchestrator"
	"github.com/valpere/tweetreview/internal/scheduler"
	"github.com/valpere/tweetreview/internal/store"
	"github.com/valpere/tweetreview/internal/translator"
	"github.com/valpere/tweetreview/internal/twitter"
)

// openStore opens the configured database, creating its directory.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DB); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newFetcher() *twitter.Client {
	return twitter.New(cfg.Twitter)
}

func newScheduler(db *store.Store) *scheduler.Scheduler {
	return scheduler.New(db, newFetcher(), cfg.Scheduler, logger.With("component", "scheduler"))
}

// newOrchestrator builds the translation orchestrator. With no provider
// configured its Translate is a no-op.
func newOrchestrator(db *store.Store) (*orchestrator.Orchestrator, error) {
	provider, err := translator.New(cfg.Translate.Provider, cfg.Translate.Service)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(db, provider, orchestrator.OrchestratorConfig{
		Timeout: cfg.Translate.Timeout,
	}, logger.With("component", "orchestrator")), nil
}

// parseStatuses parses a list of status names.
func parseStatuses(names []string) ([]store.Status, error) {
	out := make([]store.Status, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		st, err := store.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no statuses given")
	}
	return out, nil
}
