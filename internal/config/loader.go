package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. REHEARSAL_ITERATIONS
const EnvPrefix = "REHEARSAL"

// Load reads config.yaml over the defaults. An empty path searches the
// working directory and ./config. A missing file is not an error.
func Load(path string) (Config, error) {
	logger := logging.NewLogger("Config")
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			logger.Warn("No config file found, using defaults")
		default:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		logger.InfoWithContext("Loaded config", map[string]interface{}{
			"path": v.ConfigFileUsed(),
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func setPoint(v *viper.Viper, key string, p cv.Point) {
	v.SetDefault(key+".x", p.X)
	v.SetDefault(key+".y", p.Y)
}

func setRect(v *viper.Viper, key string, r cv.Rect) {
	v.SetDefault(key+".x", r.X)
	v.SetDefault(key+".y", r.Y)
	v.SetDefault(key+".w", r.W)
	v.SetDefault(key+".h", r.H)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("iterations", d.Iterations)

	v.SetDefault("window.process", d.Window.Process)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.focus_delay", d.Window.FocusDelay)

	setPoint(v, "buttons.start", d.Buttons.Start)
	setPoint(v, "buttons.skip", d.Buttons.Skip)
	setPoint(v, "buttons.end", d.Buttons.End)

	setRect(v, "regions.start_button", d.Regions.StartButton)
	setRect(v, "regions.skip_button", d.Regions.SkipButton)
	setRect(v, "regions.end_button", d.Regions.EndButton)
	v.SetDefault("regions.scores", []interface{}{})

	v.SetDefault("detection.histogram_threshold", d.Detection.HistogramThreshold)
	v.SetDefault("detection.brightness_threshold", d.Detection.BrightnessThreshold)
	v.SetDefault("detection.poll_interval", d.Detection.PollInterval)
	v.SetDefault("detection.start_page_timeout", d.Detection.StartPageTimeout)
	v.SetDefault("detection.loading_timeout", d.Detection.LoadingTimeout)
	v.SetDefault("detection.result_timeout", d.Detection.ResultTimeout)
	v.SetDefault("detection.capture_delay", d.Detection.CaptureDelay)
	v.SetDefault("detection.end_click_delay", d.Detection.EndClickDelay)

	v.SetDefault("ocr.tesseract_path", d.OCR.TesseractPath)
	v.SetDefault("ocr.tessdata_dir", d.OCR.TessdataDir)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.page_segmentation", d.OCR.PageSegmentation)
	v.SetDefault("ocr.threshold", d.OCR.Threshold)
	v.SetDefault("ocr.scale", d.OCR.Scale)
	v.SetDefault("ocr.dash_chars", d.OCR.DashChars)
	v.SetDefault("ocr.confusable_chars", d.OCR.ConfusableChars)
	v.SetDefault("ocr.max_garbled_len", d.OCR.MaxGarbledLen)
	v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)
	v.SetDefault("ocr.min_region_value", d.OCR.MinRegionValue)

	v.SetDefault("input.method", d.Input.Method)
	v.SetDefault("input.serial_port", d.Input.SerialPort)
	v.SetDefault("input.baud_rate", d.Input.BaudRate)
	v.SetDefault("input.ack_timeout", d.Input.AckTimeout)

	v.SetDefault("hotkey.abort", d.Hotkey.Abort)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.templates_dir", d.Output.TemplatesDir)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.dsn", d.History.DSN)

	v.SetDefault("logging.level", d.Logging.Level)
}

// Save writes cfg as YAML, refusing to overwrite unless force is set
func Save(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(toDocument(reflect.ValueOf(cfg)))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

var durationType = reflect.TypeOf(time.Duration(0))

// toDocument converts a config value into plain maps keyed by yaml tag, with
// durations rendered as strings such as "500ms" so the file stays editable.
func toDocument(v reflect.Value) interface{} {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]interface{})
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			name, opts, _ := strings.Cut(field.Tag.Get("yaml"), ",")
			if opts == "inline" {
				if nested, ok := toDocument(v.Field(i)).(map[string]interface{}); ok {
					for k, val := range nested {
						out[k] = val
					}
				}
				continue
			}
			if name == "" {
				name = strings.ToLower(field.Name)
			}
			out[name] = toDocument(v.Field(i))
		}
		return out
	case reflect.Slice:
		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = toDocument(v.Index(i))
		}
		return out
	default:
		return v.Interface()
	}
}
