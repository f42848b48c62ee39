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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valpere/tweetreview/internal/store"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the details of accepted records",
	Long:  `Write the reviewer details of every FINALIZED record as JSON or YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		details, err := db.ListDetails(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list details: %w", err)
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" && exportOutput != "-" {
			if err := os.MkdirAll(filepath.Dir(exportOutput), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := writeDetails(w, exportFormat, details); err != nil {
			return err
		}
		if w != os.Stdout {
			fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(details), exportOutput)
		}
		return nil
	},
}

func writeDetails(w io.Writer, format string, details []store.Details) error {
	if details == nil {
		details = []store.Details{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(details)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(details); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
