package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"jordanella.com/rehearsal-bot/internal/logging"
)

// TesseractConfig locates the engine and selects its mode
type TesseractConfig struct {
	Path             string
	TessdataDir      string
	Language         string
	PageSegmentation int
}

// Tesseract runs the tesseract CLI once per image and parses its TSV output
type Tesseract struct {
	cfg    TesseractConfig
	logger *logging.Logger
}

// NewTesseract creates a recognizer backed by the tesseract executable
func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PageSegmentation == 0 {
		cfg.PageSegmentation = 6
	}
	return &Tesseract{cfg: cfg, logger: logging.NewLogger("Tesseract")}
}

// Available reports whether the executable can be found
func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.cfg.Path); err != nil {
		return fmt.Errorf("tesseract not found at %q: %w", t.cfg.Path, err)
	}
	return nil
}

func (t *Tesseract) args(input string) []string {
	args := []string{input, "stdout", "--psm", strconv.Itoa(t.cfg.PageSegmentation), "-l", t.cfg.Language}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return append(args, "tsv")
}

// Recognize writes img to a temporary PNG and runs tesseract on it
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Line, error) {
	tmp, err := os.CreateTemp("", "rehearsal-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.cfg.Path, t.args(tmp.Name())...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	hideWindow(cmd)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		t.logger.DebugWithContext("Tesseract stderr", map[string]interface{}{"stderr": msg})
	}

	return ParseTSV(&stdout)
}

type lineKey struct {
	page, block, par, line int
}

// ParseTSV reads tesseract TSV output and groups word rows into lines.
// Words with negative confidence or empty text are dropped.
func ParseTSV(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		lines   []Line
		words   []Word
		current lineKey
		started bool
		header  = true
	)

	flush := func() {
		if len(words) > 0 {
			lines = append(lines, NewLine(words))
		}
		words = nil
	}

	for scanner.Scan() {
		if header {
			header = false
			continue
		}

		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 12 {
			continue
		}

		level, err := strconv.Atoi(fields[0])
		if err != nil || level != 5 {
			continue
		}

		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		key := lineKey{atoi(fields[1]), atoi(fields[2]), atoi(fields[3]), atoi(fields[4])}
		if started && key != current {
			flush()
		}
		current = key
		started = true

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		words = append(words, Word{Text: text, Confidence: conf})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tesseract output: %w", err)
	}

	flush()
	return lines, nil
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return v
}
