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
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valpere/tweetreview/internal/detector"
	"github.com/valpere/tweetreview/internal/preprocess"
)

var preprocessLimit int

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Fetch and enrich UNPROCESSED records ahead of review",
	Long: `Sample up to --limit UNPROCESSED records, fetch each one and store its
author, media, detected language and text. Enriched records become
PREPROCESSED and are still handed out by "review". Records that cannot be
fetched become UNAVAILABLE; retweets are skipped and the retweeted record
is added to the queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if preprocessLimit <= 0 {
			return fmt.Errorf("--limit must be > 0")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "Loading language models...\n")
		p := preprocess.New(db, newFetcher(), detector.New(), logger.With("component", "preprocess"))

		res, err := p.Run(ctx, preprocessLimit)
		fmt.Printf("Preprocessed: %d, unavailable: %d, retweets skipped: %d, stale: %d\n",
			res.Preprocessed, res.Unavailable, res.Retweets, res.Stale)
		return err
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().IntVarP(&preprocessLimit, "limit", "n", 100, "Maximum number of records to preprocess")
}
