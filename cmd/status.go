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

	"github.com/valpere/tweetreview/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the number of records per review status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.CountByStatus(context.Background())
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		total := 0
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "STATUS\tCODE\tRECORDS")
		for _, st := range store.AllStatuses {
			fmt.Fprintf(w, "%s\t%d\t%d\n", st, int(st), counts[st])
			total += counts[st]
		}
		fmt.Fprintf(w, "TOTAL\t\t%d\n", total)
		return w.Flush()
	},
}

var (
	requeueFrom string
	requeueTo   string
)

var requeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Move records stuck in one status back to another",
	Long: `Records stay in REVIEWING when a session ends without a decision (for
example after a crash). Requeue moves them back so they can be reviewed:

  tweetreview requeue --from REVIEWING --to UNPROCESSED`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := store.ParseStatus(requeueFrom)
		if err != nil {
			return err
		}
		to, err := store.ParseStatus(requeueTo)
		if err != nil {
			return err
		}
		if from == to {
			return fmt.Errorf("--from and --to must differ")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.Requeue(context.Background(), from, to)
		if err != nil {
			return fmt.Errorf("failed to requeue: %w", err)
		}
		logger.Info("records requeued", "from", from.String(), "to", to.String(), "count", n)
		fmt.Printf("Moved %d records from %s to %s.\n", n, from, to)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(requeueCmd)

	requeueCmd.Flags().StringVar(&requeueFrom, "from", "REVIEWING", "Status to move records out of")
	requeueCmd.Flags().StringVar(&requeueTo, "to", "UNPROCESSED", "Status to move records into")
}
