package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/window"
	"jordanella.com/rehearsal-bot/pkg/templates"
)

var version = "dev"

var (
	configPath string
	debug      bool
	cfg        config.Config
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rehearsal",
		Short: "Rehearsal - automate rehearsal runs and record their scores",
		Long: `Rehearsal drives the rehearsal screen of the game window: it waits for
each page, clicks through, captures the result screen and extracts the 3x3
score grid into CSV files while the next run is already in progress.

Press Ctrl+Shift+Q (Windows) or Ctrl+C to abort a run.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./config.yaml or ./config/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Logging.Level
		if debug {
			level = string(logging.LogLevelDebug)
		}
		logging.Init(level)
		return nil
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCalibrateCommand())
	cmd.AddCommand(newOCRCommand())
	cmd.AddCommand(newProbeCommand())
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// vision bundles the window, capture and detection collaborators
type vision struct {
	windows  window.Manager
	capturer *cv.ScreenCapturer
	registry *templates.Registry
	detector *cv.Service
}

func newVision(c config.Config) (*vision, error) {
	registry := templates.NewRegistry(c.Output.TemplatesDir)
	if err := registry.Load(); err != nil {
		return nil, err
	}

	windows := window.NewManager()
	capturer := cv.NewScreenCapturer(windows)
	detector := cv.NewService(capturer,
		cv.WithReferences(registry),
		cv.WithPollInterval(c.Detection.PollInterval),
		cv.WithHistogramThreshold(c.Detection.HistogramThreshold),
		cv.WithBrightnessThreshold(c.Detection.BrightnessThreshold),
	)

	return &vision{
		windows:  windows,
		capturer: capturer,
		registry: registry,
		detector: detector,
	}, nil
}

func (v *vision) findTarget(c config.Config) (window.Target, error) {
	target, err := v.windows.Find(c.Window.Query)
	if err != nil {
		return window.Target{}, fmt.Errorf("failed to find target window %s: %w", c.Window.Query, err)
	}
	return target, nil
}
