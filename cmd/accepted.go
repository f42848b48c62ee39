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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/store"
)

var (
	acceptedSort     string
	acceptedPage     int
	acceptedPageSize int
)

var acceptedCmd = &cobra.Command{
	Use:   "accepted",
	Short: "List accepted records ordered by popularity",
	Long: `Fetch one page of FINALIZED records and print them ordered by retweet or
quote count, most popular first. Retweets count as zero. With a provider
and --target configured, each record is printed with its translation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cmp record.Comparator
		switch acceptedSort {
		case "retweets":
			cmp = record.ByRetweets
		case "quotes":
			cmp = record.ByQuotes
		default:
			return fmt.Errorf("unknown sort %q (use retweets or quotes)", acceptedSort)
		}
		if acceptedPage < 1 || acceptedPageSize < 1 {
			return fmt.Errorf("--page and --page-size must be >= 1")
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

		ctx := context.Background()
		ids, err := db.ListIDs(ctx, store.StatusFinalized, acceptedPageSize, (acceptedPage-1)*acceptedPageSize)
		if err != nil {
			return fmt.Errorf("failed to list accepted records: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No accepted records on this page.")
			return nil
		}

		client := newFetcher()
		recs := make([]*record.Record, 0, len(ids))
		for _, id := range ids {
			rec, err := client.Fetch(ctx, id)
			if err != nil {
				logger.Warn("fetch failed", "id", id, "error", err)
				continue
			}
			recs = append(recs, rec)
		}
		record.SortByPopularity(recs, cmp)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tRETWEETS\tQUOTES\tURL\tTEXT\tTRANSLATION")
		for _, rec := range recs {
			translated, err := orch.Translate(ctx, rec, cfg.Translate.TargetLang)
			if err != nil {
				logger.Warn("translation failed", "id", rec.ID, "error", err)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
				rec.ID, rec.RetweetCount, rec.QuoteCount, rec.URL(),
				snippet(rec.Text, 60), snippet(translated, 60))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(acceptedCmd)

	acceptedCmd.Flags().StringVar(&acceptedSort, "sort", "retweets", "Order by: retweets or quotes")
	acceptedCmd.Flags().IntVar(&acceptedPage, "page", 1, "Page number, starting at 1")
	acceptedCmd.Flags().IntVar(&acceptedPageSize, "page-size", 20, "Records per page")
}
