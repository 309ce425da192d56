package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/bot"
	"jordanella.com/rehearsal-bot/internal/database"
)

var historyLimit int

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [session-dir]",
		Short: "List past sessions",
		Long: `List past sessions from the history database, newest first.

Given a session directory, print the session.ini summary stored there
instead; this works without the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: historyE,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of sessions to show")

	return cmd
}

func historyE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		s, err := bot.ReadSummary(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Session %s (%s)\n", s.ID, s.Dir)
		fmt.Fprintf(out, "  started:     %s\n", s.StartedAt.Format(time.DateTime))
		if !s.FinishedAt.IsZero() {
			fmt.Fprintf(out, "  finished:    %s\n", s.FinishedAt.Format(time.DateTime))
		}
		fmt.Fprintf(out, "  outcome:     %s\n", s.Outcome)
		if s.Reason != "" {
			fmt.Fprintf(out, "  reason:      %s\n", s.Reason)
		}
		fmt.Fprintf(out, "  iterations:  %d/%d\n", s.IterationsDone(), s.Iterations)
		fmt.Fprintf(out, "  records:     %d (%d failed)\n", s.Final.Written, s.Final.Failed)
		return nil
	}

	db, err := database.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.RunMigrations(); err != nil {
		return err
	}

	sessions, err := db.ListSessions(historyLimit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOUTCOME\tITERATIONS\tRECORDS\tFAILED\tDIRECTORY")
	for _, s := range sessions {
		outcome := s.Outcome
		if s.Reason != nil {
			outcome = fmt.Sprintf("%s (%s)", outcome, *s.Reason)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			s.StartedAt.Local().Format(time.DateTime), outcome,
			s.IterationsDone, s.IterationsPlanned, s.RecordsWritten, s.ExtractionFailures, s.Directory)
	}
	return tw.Flush()
}
