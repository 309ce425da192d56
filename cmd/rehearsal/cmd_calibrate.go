package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/pkg/templates"
)

var calibrateDelay time.Duration

func newCalibrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate <start|skip|end>",
		Short: "Store the current look of a button as its reference",
		Long: `Capture the configured region of a button and store it as the reference
template used to detect that page.

Bring the game to the page showing the button before the delay runs out.
Without a start or skip reference the matching wait is skipped; without an
end reference a fixed capture delay is used instead.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{templates.StartButton, templates.SkipButton, templates.EndButton},
		RunE:      calibrateE,
	}

	cmd.Flags().DurationVar(&calibrateDelay, "delay", 3*time.Second, "Time to wait before capturing")

	return cmd
}

func elementRegion(c config.Config, name string) (cv.Rect, error) {
	switch name {
	case templates.StartButton:
		return c.Regions.StartButton, nil
	case templates.SkipButton:
		return c.Regions.SkipButton, nil
	case templates.EndButton:
		return c.Regions.EndButton, nil
	}
	return cv.Rect{}, fmt.Errorf("unknown element %q (want start, skip or end)", name)
}

func calibrateE(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	name := args[0]
	region, err := elementRegion(cfg, name)
	if err != nil {
		return err
	}

	v, err := newVision(cfg)
	if err != nil {
		return err
	}
	target, err := v.findTarget(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if calibrateDelay > 0 {
		fmt.Fprintf(out, "Capturing %s in %s...\n", name, calibrateDelay)
		time.Sleep(calibrateDelay)
	}

	img, err := v.capturer.CaptureRegion(target, region)
	if err != nil {
		return fmt.Errorf("capturing %s region: %w", name, err)
	}

	ref, err := v.registry.Save(name, img, region)
	if err != nil {
		return fmt.Errorf("saving %s reference: %w", name, err)
	}

	fmt.Fprintf(out, "Saved %s reference to %s (brightness %.1f)\n", name, ref.Path, cv.Brightness(img))
	return nil
}
