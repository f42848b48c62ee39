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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/tweetreview/internal/detector"
	"github.com/valpere/tweetreview/internal/validator"
)

var translateValidate bool

var translateCmd = &cobra.Command{
	Use:   "translate <id>...",
	Short: "Translate records into the target language",
	Long: `Fetch each record and print its translation into --target. Mentions and
hashtags are kept out of the provider request and re-inserted verbatim.
Translations are cached per record and language; a cached record is never
sent to the provider again.

With --validate, a warning is logged when a translation does not read as
the target language.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Translate.Enabled() {
			return fmt.Errorf("no translation provider configured (use --provider)")
		}
		if cfg.Translate.TargetLang == "" {
			return fmt.Errorf("target language is required (use --target)")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		orch, err := newOrchestrator(db)
		if err != nil {
			return err
		}

		var val *validator.Validator
		if translateValidate {
			val = validator.New(detector.New())
		}

		ctx := context.Background()
		client := newFetcher()
		failed := 0
		for _, id := range args {
			rec, err := client.Fetch(ctx, id)
			if err != nil {
				logger.Warn("fetch failed", "id", id, "error", err)
				failed++
				continue
			}
			text, err := orch.Translate(ctx, rec, cfg.Translate.TargetLang)
			if err != nil {
				return fmt.Errorf("failed to translate %s: %w", id, err)
			}
			if val != nil {
				if err := val.Check(rec, text, cfg.Translate.TargetLang); err != nil {
					logger.Warn("suspicious translation", "id", id, "error", err)
				}
			}
			fmt.Printf("%s\t%s\n", id, text)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d records could not be fetched", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().BoolVar(&translateValidate, "validate", false, "Check that translations are in the target language")
}
