package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/redgyro/internal/journal"
	"github.com/roman-kulish/redgyro/internal/motion"
)

// ShowJournal prints a recorded run and the outcome of each of its clips. A
// runID of 0 selects the latest run.
func ShowJournal(ctx context.Context, path string, runID int64, w io.Writer) (err error) {
	if path == "" {
		return fmt.Errorf("journal path is required")
	}
	if _, err = os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("checking journal: %w", err)
	}

	store := journal.NewSqliteStore(path)
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing journal: %w", cErr)
		}
	}()

	var run *journal.Run
	if runID == 0 {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.Run(ctx, runID)
	}
	if err != nil {
		return fmt.Errorf("reading run: %w", err)
	}

	conversions, err := store.Conversions(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("reading conversions: %w", err)
	}

	return writeRun(w, run, conversions)
}

func writeRun(w io.Writer, run *journal.Run, conversions []journal.Conversion) error {
	var summary Summary
	for _, c := range conversions {
		summary.addOutcome(c.Outcome)
	}

	if _, err := fmt.Fprintf(w, "Run %d (%s) started %s, %s\nREDline: %s\n\n",
		run.ID, run.Mode,
		run.StartTime.Local().Format(time.DateTime), humanize.Time(run.StartTime),
		run.Runtime); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tOUTCOME\tENCODING\tCAMERA\tSAMPLES\tRATE\tDETAIL")
	for _, c := range conversions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Source, c.Outcome, c.Encoding, orDash(c.CameraModel),
			humanize.Comma(int64(c.Samples)), formatRate(c.SampleRate), conversionDetail(c))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d clips: %d converted, %d skipped, %d failed, %d errors\n",
		summary.Total(), summary.Converted, summary.Skipped, summary.Failed, summary.Errors)
	return err
}

func conversionDetail(c journal.Conversion) string {
	switch {
	case c.Error != "":
		return c.Error
	case c.Reason != "":
		return c.Reason
	default:
		return orDash(c.Output)
	}
}

func formatRate(rate float64) string {
	if rate <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(rate, 1, "Hz")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (s *Summary) addOutcome(outcome string) {
	switch outcome {
	case motion.Success.String():
		s.Converted++
	case motion.Skipped.String():
		s.Skipped++
	case motion.Failed.String():
		s.Failed++
	default:
		s.Errors++
	}
}
