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
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/tweetreview/internal/record"
	"github.com/valpere/tweetreview/internal/scheduler"
	"github.com/valpere/tweetreview/internal/store"
)

var reviewStatuses []string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start an interactive review session",
	Long: `Hand out records one at a time for review. For each record choose:

  1  Accept   (asks for annotation details)
  2  Reject
  3  Skip     (the record goes back to the queue)
  4  Exit

Retweets are skipped in favour of the retweeted record; quoted records are
queued for review as well. When a target language and provider are
configured, each record is shown with its translation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		allowed, err := parseStatuses(reviewStatuses)
		if err != nil {
			return err
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		session := &reviewSession{
			sched:   newScheduler(db),
			tr:      orch,
			lang:    cfg.Translate.TargetLang,
			allowed: allowed,
			in:      os.Stdin,
			out:     os.Stdout,
			log:     logger,
		}
		stats, err := session.run(ctx)
		fmt.Printf("Accepted: %d, rejected: %d, skipped: %d\n", stats.accepted, stats.rejected, stats.skipped)
		return err
	},
}

type recordTranslator interface {
	Translate(ctx context.Context, rec *record.Record, lang string) (string, error)
}

type reviewStats struct {
	accepted int
	rejected int
	skipped  int
}

type reviewSession struct {
	sched   *scheduler.Scheduler
	tr      recordTranslator
	lang    string
	allowed []store.Status
	in      io.Reader
	out     io.Writer
	log     *slog.Logger
	stats   reviewStats

	lines chan string
}

func (s *reviewSession) run(ctx context.Context) (reviewStats, error) {
	if s.lines == nil {
		s.lines = make(chan string)
		go s.readLines()
	}

	for {
		rec, err := s.sched.Next(ctx, s.allowed)
		if err != nil {
			return s.stats, err
		}
		if rec == nil {
			fmt.Fprintln(s.out, "No more records to review.")
			return s.stats, nil
		}

		s.show(ctx, rec)

		done, err := s.decide(ctx, rec)
		if err != nil {
			return s.stats, err
		}
		if done {
			return s.stats, nil
		}
	}
}

// readLines feeds input lines to ask until the input ends.
func (s *reviewSession) readLines() {
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	close(s.lines)
}

// decide prompts until a valid choice is made. It reports whether the
// reviewer asked to stop or the session was interrupted; the current record
// is then put back.
func (s *reviewSession) decide(ctx context.Context, rec *record.Record) (bool, error) {
	for {
		choice, ok := s.ask(ctx, "[1] Accept  [2] Reject  [3] Skip  [4] Exit > ")
		if !ok {
			choice = "4"
		}

		switch choice {
		case "1":
			details, ok := s.askDetails(ctx, rec)
			if !ok {
				return true, s.putBack(ctx, rec)
			}
			if err := s.sched.RecordDecision(ctx, rec.ID, scheduler.Accept(details)); err != nil {
				return false, err
			}
			s.stats.accepted++
			return false, nil
		case "2":
			if err := s.sched.RecordDecision(ctx, rec.ID, scheduler.Reject()); err != nil {
				return false, err
			}
			s.stats.rejected++
			return false, nil
		case "3":
			if err := s.sched.RecordDecision(ctx, rec.ID, scheduler.Skip()); err != nil {
				return false, err
			}
			s.stats.skipped++
			return false, nil
		case "4":
			return true, s.putBack(ctx, rec)
		default:
			fmt.Fprintf(s.out, "Unknown choice %q\n", choice)
		}
	}
}

// putBack returns rec to UNPROCESSED. It runs even after ctx is cancelled
// so an interrupted session does not leave the record in REVIEWING.
func (s *reviewSession) putBack(ctx context.Context, rec *record.Record) error {
	return s.sched.RecordDecision(context.WithoutCancel(ctx), rec.ID, scheduler.Skip())
}

func (s *reviewSession) show(ctx context.Context, rec *record.Record) {
	fmt.Fprintln(s.out, strings.Repeat("-", 60))
	fmt.Fprintf(s.out, "Record:  %s\n", rec.ID)
	fmt.Fprintf(s.out, "URL:     %s\n", rec.URL())
	if rec.ScreenName != "" {
		fmt.Fprintf(s.out, "User:    @%s (%s)\n", rec.ScreenName, rec.UserID)
	}
	if rec.Lang != "" {
		fmt.Fprintf(s.out, "Lang:    %s\n", rec.Lang)
	}
	fmt.Fprintf(s.out, "Stats:   %d retweets, %d quotes, %d likes\n", rec.RetweetCount, rec.QuoteCount, rec.FavoriteCount)
	fmt.Fprintf(s.out, "\n%s\n\n", rec.Text)

	for _, m := range rec.AllMedia() {
		fmt.Fprintf(s.out, "Media:   %s %s\n", m.Type, m.PreferredURL())
	}
	if rec.IsQuote() {
		fmt.Fprintf(s.out, "Quoting %s: %s\n", rec.Quoted.URL(), rec.Quoted.Text)
	}

	translated, err := s.tr.Translate(ctx, rec, s.lang)
	if err != nil {
		s.log.Warn("translation failed", "id", rec.ID, "lang", s.lang, "error", err)
		return
	}
	if translated != "" {
		fmt.Fprintf(s.out, "Translation (%s):\n%s\n\n", s.lang, translated)
	}
}

// askDetails collects annotation details. ok is false when input ends.
func (s *reviewSession) askDetails(ctx context.Context, rec *record.Record) (store.Details, bool) {
	var d store.Details
	var ok bool

	if d.Description, ok = s.ask(ctx, "Description: "); !ok {
		return d, false
	}
	if d.HasMedia, ok = s.askYesNo(ctx, "Has media?", len(rec.AllMedia()) > 0); !ok {
		return d, false
	}
	if d.IsMeme, ok = s.askYesNo(ctx, "Is it a meme?", false); !ok {
		return d, false
	}
	if d.HasSlang, ok = s.askYesNo(ctx, "Contains slang?", false); !ok {
		return d, false
	}

	lang, ok := s.ask(ctx, fmt.Sprintf("Language [%s]: ", rec.Lang))
	if !ok {
		return d, false
	}
	if lang == "" {
		lang = rec.Lang
	}
	d.Language = lang
	return d, true
}

func (s *reviewSession) askYesNo(ctx context.Context, prompt string, def bool) (bool, bool) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		answer, ok := s.ask(ctx, fmt.Sprintf("%s [%s] ", prompt, hint))
		if !ok {
			return false, false
		}
		switch strings.ToLower(answer) {
		case "":
			return def, true
		case "y", "yes":
			return true, true
		case "n", "no":
			return false, true
		}
	}
}

// ask prints prompt and waits for a line. ok is false when input ends or
// ctx is cancelled.
func (s *reviewSession) ask(ctx context.Context, prompt string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	fmt.Fprint(s.out, prompt)
	select {
	case <-ctx.Done():
		fmt.Fprintln(s.out)
		return "", false
	case line, ok := <-s.lines:
		if !ok {
			fmt.Fprintln(s.out)
			return "", false
		}
		return strings.TrimSpace(line), true
	}
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringSliceVar(&reviewStatuses, "statuses", []string{"UNPROCESSED", "PREPROCESSED"}, "Statuses to hand out for review")
}
