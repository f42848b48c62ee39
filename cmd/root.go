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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/tweetreview/internal/config"
	"github.com/valpere/tweetreview/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tweetreview",
	Short: "Human-in-the-loop review of social media records",
	Long: `A CLI application that walks a reviewer through social media records one
at a time, records accept/reject/skip decisions with annotation details,
and enriches records with cached machine translation.

Load ids with "tweetreview load ids.txt", then start a session with
"tweetreview review".

Configuration is read from --config (YAML), TWEETREVIEW_* environment
variables and flags.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./tweetreview.yaml if present)")
	flags.String("db", "./data/tweetreview.db", "Database path")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("provider", "none", "Translation provider: google, systran or none")
	flags.StringP("target", "t", "", "Target language code for translations")

	v.BindPFlag("db", flags.Lookup("db"))
	v.BindPFlag("log.level", flags.Lookup("log-level"))
	v.BindPFlag("log.format", flags.Lookup("log-format"))
	v.BindPFlag("translate.provider", flags.Lookup("provider"))
	v.BindPFlag("translate.target_lang", flags.Lookup("target"))
}
