package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/bot"
	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/database"
	"jordanella.com/rehearsal-bot/internal/events"
	"jordanella.com/rehearsal-bot/internal/hotkey"
	"jordanella.com/rehearsal-bot/internal/input"
	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/ocr"
)

var runIterations int

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the rehearsal loop",
		Long: `Run the rehearsal loop for the configured number of iterations.

Each iteration waits for the start page, clicks start, waits for loading,
clicks skip, waits for the result page, saves a screenshot and clicks end.
Screenshots are read in the background and their scores appended to
results.csv and rehearsal_data.csv in the session directory.`,
		RunE: runE,
	}

	cmd.Flags().IntVarP(&runIterations, "iterations", "n", 0, "Number of iterations (overrides config)")

	return cmd
}

func runE(cmd *cobra.Command, args []string) error {
	c := cfg
	if runIterations > 0 {
		c.Iterations = runIterations
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger("CLI")

	v, err := newVision(c)
	if err != nil {
		return err
	}

	tess := ocr.NewTesseract(tesseractConfig(c))
	if err := tess.Available(); err != nil {
		logger.WarnWithContext("Text recognition unavailable, screenshots will be kept for reprocessing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	clicker, err := input.New(c.Input, v.windows)
	if err != nil {
		return err
	}
	if closer, ok := clicker.(io.Closer); ok {
		defer closer.Close()
	}

	history := openHistory(c, logger)
	if history != nil {
		defer history.Close()
	}

	out := cmd.OutOrStdout()
	bus := events.NewEventBus(256)
	defer bus.Stop()
	bus.Subscribe(events.EventTypeStateChanged, func(e events.Event) {
		fmt.Fprintln(out, formatStatus(events.ProgressOf(e)))
	})
	bus.Subscribe(events.EventTypeExtractionFailed, func(e events.Event) {
		p := events.ProgressOf(e)
		fmt.Fprintf(out, "  extraction failed (%d so far)\n", p.Failed)
	})

	ctx := cmd.Context()
	control := bot.NewControl(ctx, c.Iterations, bot.WithEvents(bus))

	listener, err := hotkey.Listen(ctx, c.Hotkey.Abort, control.Cancel)
	if err != nil {
		return err
	}
	defer listener.Stop()

	runner := bot.NewRunner(c, bot.RunnerDeps{
		Windows:    v.windows,
		Detector:   v.detector,
		Capturer:   v.capturer,
		Clicker:    clicker,
		Recognizer: tess,
		History:    history,
	}, control)

	session, err := runner.Run(ctx)
	bus.Stop()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nSession %s: %s\n", session.ID, session.Outcome)
	fmt.Fprintf(out, "  directory:   %s\n", session.Dir)
	fmt.Fprintf(out, "  iterations:  %d/%d\n", session.IterationsDone(), session.Iterations)
	fmt.Fprintf(out, "  screenshots: %d\n", session.Final.Screenshots)
	fmt.Fprintf(out, "  records:     %d (%d failed)\n", session.Final.Written, session.Final.Failed)

	if session.Outcome == database.OutcomeError {
		return &RunFailedError{Reason: session.Reason}
	}
	return nil
}

func formatStatus(s events.Progress) string {
	return fmt.Sprintf("[%d/%d] %s (saved %d, recorded %d, failed %d)",
		s.Iteration, s.Total, s.State, s.Screenshots, s.Written, s.Failed)
}

func tesseractConfig(c config.Config) ocr.TesseractConfig {
	return ocr.TesseractConfig{
		Path:             c.OCR.TesseractPath,
		TessdataDir:      c.OCR.TessdataDir,
		Language:         c.OCR.Language,
		PageSegmentation: c.OCR.PageSegmentation,
	}
}

// openHistory opens and migrates the history database. Failures are logged
// and the run continues without history.
func openHistory(c config.Config, logger *logging.Logger) *database.DB {
	if !c.History.Enabled {
		return nil
	}

	db, err := database.Open(c.History.Driver, c.History.DSN)
	if err != nil {
		logger.Error("Failed to open history database", err)
		return nil
	}
	if err := db.RunMigrations(); err != nil {
		logger.Error("Failed to migrate history database", err)
		db.Close()
		return nil
	}
	return db
}

