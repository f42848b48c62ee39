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
	"io"
	"os"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load record ids into the review queue",
	Long: `Load record ids, one per line, as UNPROCESSED records. Blank lines are
skipped and ids that are already known keep their status. Use "-" to read
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()
			r = f
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.LoadIDs(context.Background(), r)
		if err != nil {
			return fmt.Errorf("failed to load ids: %w", err)
		}
		logger.Info("ids loaded", "new", n, "source", args[0])
		fmt.Printf("Loaded %d new records.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
