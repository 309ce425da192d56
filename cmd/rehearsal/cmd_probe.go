package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/pkg/templates"
)

func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Measure every configured region once",
		Long: `Capture each configured region of the game window and print its
brightness and, where a reference exists, its similarity to the reference.
Use it to tune detection thresholds on the page currently shown.`,
		Args: cobra.NoArgs,
		RunE: probeE,
	}
}

type probeRegion struct {
	name      string
	reference string
	region    cv.Rect
}

func probeE(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
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

	regions := []probeRegion{
		{"start_button", templates.StartButton, cfg.Regions.StartButton},
		{"skip_button", templates.SkipButton, cfg.Regions.SkipButton},
		{"end_button", templates.EndButton, cfg.Regions.EndButton},
	}
	for i, r := range cfg.Regions.Scores {
		regions = append(regions, probeRegion{name: fmt.Sprintf("scores[%d]", i), region: r})
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tRECT\tBRIGHTNESS\tENABLED\tSIMILARITY\tMATCH")
	for _, r := range regions {
		m, err := v.detector.Measure(target, r.region)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\terror: %v\t\t\t\n", r.name, r.region, err)
			continue
		}

		similarity, match := "-", "-"
		if r.reference != "" {
			if score, ok := v.detector.SimilarityTo(r.reference, m.Histogram); ok {
				similarity = fmt.Sprintf("%.3f", score)
				match = fmt.Sprint(score >= cfg.Detection.HistogramThreshold)
			} else {
				similarity = "no reference"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%v\t%s\t%s\n",
			r.name, r.region, m.Brightness, m.Brightness > cfg.Detection.BrightnessThreshold, similarity, match)
	}
	return tw.Flush()
}
