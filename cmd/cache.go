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
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
)

var (
	cacheLang  string
	cacheLimit int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation cache",
	Long: `List, inspect, and clear cached record translations. Entries are never
recomputed while cached; delete an entry to have it translated again.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListTranslations(context.Background(), cacheLang, cacheLimit)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No cached translations.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RECORD\tTARGET\tCREATED\tTEXT")
		for _, e := range entries {
			text := snippet(e.TranslatedText, 40)
			if e.TranslatedText == "" {
				text = "(nothing to translate)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				e.RecordID, e.TargetLang, e.CreatedAt.Format("2006-01-02 15:04"), text)
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.TranslationStats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:    %d\n", stats.TotalEntries)
		fmt.Printf("Empty entries:    %d\n", stats.Negative)

		langs := make([]string, 0, len(stats.Languages))
		for lang := range stats.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			fmt.Printf("  %-14s  %d\n", lang, stats.Languages[lang])
		}
		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <record-id>",
	Short: "Delete the cached translations of a record",
	Long:  `Delete the cached translations of a record, in every language or only --lang.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.DeleteTranslation(context.Background(), args[0], cacheLang)
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted %d entries for record %s\n", n, args[0])
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearTranslations(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d entries from the translation cache.\n", n)
		return nil
	},
}

// snippet returns s on a single line, cut to at most n characters.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n-3]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheListCmd.Flags().StringVar(&cacheLang, "lang", "", "Only this target language")
	cacheListCmd.Flags().IntVar(&cacheLimit, "limit", 50, "Maximum entries to list (0 for all)")
	cacheDeleteCmd.Flags().StringVar(&cacheLang, "lang", "", "Only this target language")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
