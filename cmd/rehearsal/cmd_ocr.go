package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/ocr"
	"jordanella.com/rehearsal-bot/internal/results"
	"jordanella.com/rehearsal-bot/internal/worker"
)

var ocrAppendDir string

func newOCRCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr <image>...",
		Short: "Extract scores from saved screenshots",
		Long: `Run score extraction on screenshots saved by a previous session.

Use this to recover results lost to a crash or to check new extraction
settings. With --append the rows are added to that directory's results.csv
and rehearsal_data.csv.`,
		Args: cobra.MinimumNArgs(1),
		RunE: ocrE,
	}

	cmd.Flags().StringVar(&ocrAppendDir, "append", "", "Session directory to append results to")

	return cmd
}

func ocrE(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tess := ocr.NewTesseract(tesseractConfig(cfg))
	if err := tess.Available(); err != nil {
		return err
	}

	processor := worker.NewProcessor(tess, ocr.NewExtractor(cfg.OCR.Rules), worker.ProcessorConfig{
		Threshold: uint8(cfg.OCR.Threshold),
		Scale:     cfg.OCR.Scale,
		Regions:   cfg.Regions.Scores,
	})

	var store *results.Store
	if ocrAppendDir != "" {
		s, err := results.Open(ocrAppendDir)
		if err != nil {
			return err
		}
		store = s
	}

	out := cmd.OutOrStdout()
	failed := 0
	for i, path := range args {
		grid, err := processor.ProcessFile(cmd.Context(), path)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: %v %v %v\n", path, grid[0], grid[1], grid[2])

		if store != nil {
			rec := results.Record{
				Iteration:  sequenceOf(path, i+1),
				CapturedAt: modTime(path),
				Screenshot: path,
				Scores:     grid,
			}
			if err := store.Append(rec); err != nil {
				return err
			}
		}
	}

	if store != nil {
		fmt.Fprintf(out, "appended %d rows to %s\n", store.Appended(), store.ResultsPath())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be read", failed, len(args))
	}
	return nil
}

// sequenceOf reads the iteration from a "007_20250301_120000.png" name
func sequenceOf(path string, fallback int) int {
	prefix, _, ok := strings.Cut(filepath.Base(path), "_")
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func modTime(path string) time.Time {
	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}
