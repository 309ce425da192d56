package config

import (
	"fmt"
	"strings"
	"time"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/ocr"
	"jordanella.com/rehearsal-bot/internal/window"
)

// Input methods
const (
	InputSendInput = "sendinput"
	InputSerial    = "serial"
)

// Config is the read-only snapshot handed to the controller and the worker
type Config struct {
	Iterations int             `mapstructure:"iterations" yaml:"iterations"`
	Window     WindowConfig    `mapstructure:"window" yaml:"window"`
	Buttons    ButtonsConfig   `mapstructure:"buttons" yaml:"buttons"`
	Regions    RegionsConfig   `mapstructure:"regions" yaml:"regions"`
	Detection  DetectionConfig `mapstructure:"detection" yaml:"detection"`
	OCR        OCRConfig       `mapstructure:"ocr" yaml:"ocr"`
	Input      InputConfig     `mapstructure:"input" yaml:"input"`
	Hotkey     HotkeyConfig    `mapstructure:"hotkey" yaml:"hotkey"`
	Output     OutputConfig    `mapstructure:"output" yaml:"output"`
	History    HistoryConfig   `mapstructure:"history" yaml:"history"`
	Logging    LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// WindowConfig selects the target window
type WindowConfig struct {
	window.Query `mapstructure:",squash" yaml:",inline"`
	FocusDelay   time.Duration `mapstructure:"focus_delay" yaml:"focus_delay"`
}

// ButtonsConfig holds normalized click positions
type ButtonsConfig struct {
	Start cv.Point `mapstructure:"start" yaml:"start"`
	Skip  cv.Point `mapstructure:"skip" yaml:"skip"`
	End   cv.Point `mapstructure:"end" yaml:"end"`
}

// RegionsConfig holds normalized detection and extraction regions
type RegionsConfig struct {
	StartButton cv.Rect   `mapstructure:"start_button" yaml:"start_button"`
	SkipButton  cv.Rect   `mapstructure:"skip_button" yaml:"skip_button"`
	EndButton   cv.Rect   `mapstructure:"end_button" yaml:"end_button"`
	Scores      []cv.Rect `mapstructure:"scores" yaml:"scores"`
}

// DetectionConfig holds thresholds, poll interval and per-phase timeouts
type DetectionConfig struct {
	HistogramThreshold  float64       `mapstructure:"histogram_threshold" yaml:"histogram_threshold"`
	BrightnessThreshold float64       `mapstructure:"brightness_threshold" yaml:"brightness_threshold"`
	PollInterval        time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	StartPageTimeout    time.Duration `mapstructure:"start_page_timeout" yaml:"start_page_timeout"`
	LoadingTimeout      time.Duration `mapstructure:"loading_timeout" yaml:"loading_timeout"`
	ResultTimeout       time.Duration `mapstructure:"result_timeout" yaml:"result_timeout"`
	CaptureDelay        time.Duration `mapstructure:"capture_delay" yaml:"capture_delay"`
	EndClickDelay       time.Duration `mapstructure:"end_click_delay" yaml:"end_click_delay"`
}

// OCRConfig configures the recognizer, preprocessing and extraction rules
type OCRConfig struct {
	TesseractPath    string  `mapstructure:"tesseract_path" yaml:"tesseract_path"`
	TessdataDir      string  `mapstructure:"tessdata_dir" yaml:"tessdata_dir"`
	Language         string  `mapstructure:"language" yaml:"language"`
	PageSegmentation int     `mapstructure:"page_segmentation" yaml:"page_segmentation"`
	Threshold        int     `mapstructure:"threshold" yaml:"threshold"`
	Scale            float64 `mapstructure:"scale" yaml:"scale"`
	ocr.Rules        `mapstructure:",squash" yaml:",inline"`
}

// InputConfig selects how clicks are injected
type InputConfig struct {
	Method     string        `mapstructure:"method" yaml:"method"`
	SerialPort string        `mapstructure:"serial_port" yaml:"serial_port"`
	BaudRate   int           `mapstructure:"baud_rate" yaml:"baud_rate"`
	AckTimeout time.Duration `mapstructure:"ack_timeout" yaml:"ack_timeout"`
}

// HotkeyConfig names the key that aborts a run together with Ctrl+Shift
type HotkeyConfig struct {
	Abort string `mapstructure:"abort" yaml:"abort"`
}

// OutputConfig locates session output and reference templates
type OutputConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
}

// HistoryConfig configures the session history database
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver  string `mapstructure:"driver" yaml:"driver"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the documented defaults for every field
func Default() Config {
	return Config{
		Iterations: 10,
		Window: WindowConfig{
			Query:      window.Query{Process: "gakumas.exe"},
			FocusDelay: 50 * time.Millisecond,
		},
		Buttons: ButtonsConfig{
			Start: cv.Point{X: 0.5, Y: 0.85},
			Skip:  cv.Point{X: 0.9, Y: 0.95},
			End:   cv.Point{X: 0.5, Y: 0.9},
		},
		Regions: RegionsConfig{
			StartButton: cv.NewRect(0.40, 0.80, 0.20, 0.10),
			SkipButton:  cv.NewRect(0.85, 0.90, 0.10, 0.10),
			EndButton:   cv.NewRect(0.40, 0.85, 0.20, 0.10),
		},
		Detection: DetectionConfig{
			HistogramThreshold:  cv.DefaultHistogramThreshold,
			BrightnessThreshold: cv.DefaultBrightnessThreshold,
			PollInterval:        cv.DefaultPollInterval,
			StartPageTimeout:    60 * time.Second,
			LoadingTimeout:      30 * time.Second,
			ResultTimeout:       30 * time.Second,
			CaptureDelay:        500 * time.Millisecond,
			EndClickDelay:       500 * time.Millisecond,
		},
		OCR: OCRConfig{
			TesseractPath:    "tesseract",
			Language:         "eng",
			PageSegmentation: 6,
			Threshold:        190,
			Scale:            1,
			Rules:            ocr.DefaultRules(),
		},
		Input: InputConfig{
			Method:     InputSendInput,
			SerialPort: "COM3",
			BaudRate:   9600,
			AckTimeout: 2 * time.Second,
		},
		Hotkey: HotkeyConfig{Abort: "Q"},
		Output: OutputConfig{
			Dir:          "output",
			TemplatesDir: "resources/template/rehearsal",
		},
		History: HistoryConfig{
			Enabled: true,
			Driver:  "sqlite3",
			DSN:     "output/history.db",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validate checks ranges and cross-field constraints
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Iterations < 1 {
		add("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Window.Process == "" && c.Window.Title == "" {
		add("window.process or window.title must be set")
	}

	for name, p := range map[string]cv.Point{"start": c.Buttons.Start, "skip": c.Buttons.Skip, "end": c.Buttons.End} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			add("buttons.%s must be inside the window, got (%.3f, %.3f)", name, p.X, p.Y)
		}
	}

	for name, r := range map[string]cv.Rect{
		"start_button": c.Regions.StartButton,
		"skip_button":  c.Regions.SkipButton,
		"end_button":   c.Regions.EndButton,
	} {
		if err := r.Validate(); err != nil {
			add("regions.%s: %v", name, err)
		}
	}
	if n := len(c.Regions.Scores); n != 0 && n != 3 {
		add("regions.scores must list 0 or 3 regions, got %d", n)
	}
	for i, r := range c.Regions.Scores {
		if err := r.Validate(); err != nil {
			add("regions.scores[%d]: %v", i, err)
		}
	}

	d := c.Detection
	if d.HistogramThreshold <= 0 || d.HistogramThreshold > 1 {
		add("detection.histogram_threshold must be in (0, 1], got %v", d.HistogramThreshold)
	}
	if d.BrightnessThreshold < 0 || d.BrightnessThreshold >= 255 {
		add("detection.brightness_threshold must be in [0, 255), got %v", d.BrightnessThreshold)
	}
	if d.PollInterval <= 0 {
		add("detection.poll_interval must be positive")
	}
	if d.StartPageTimeout <= 0 || d.LoadingTimeout <= 0 || d.ResultTimeout <= 0 {
		add("detection timeouts must be positive")
	}

	if c.OCR.Threshold < 0 || c.OCR.Threshold > 255 {
		add("ocr.threshold must be in [0, 255], got %d", c.OCR.Threshold)
	}

	switch strings.ToLower(c.Input.Method) {
	case InputSendInput:
	case InputSerial:
		if c.Input.SerialPort == "" || c.Input.BaudRate <= 0 {
			add("input.serial_port and input.baud_rate are required for serial input")
		}
	default:
		add("input.method must be %q or %q, got %q", InputSendInput, InputSerial, c.Input.Method)
	}

	if c.History.Enabled {
		switch strings.ToLower(c.History.Driver) {
		case "sqlite3", "mysql":
		default:
			add("history.driver must be sqlite3 or mysql, got %q", c.History.Driver)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RegionMode reports whether per-stage score regions are configured
func (c Config) RegionMode() bool {
	return len(c.Regions.Scores) == 3
}
