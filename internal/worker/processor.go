package worker

import (
	"context"
	"errors"
	"fmt"
	"image"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/ocr"
)

// ErrNoRegionTokens is returned when every score region came back empty
var ErrNoRegionTokens = errors.New("no score region produced tokens")

// ProcessorConfig controls preprocessing and extraction granularity
type ProcessorConfig struct {
	Threshold uint8
	Scale     float64
	// Regions, when exactly three are given, are cropped and read one
	// stage per region instead of reading the whole frame
	Regions []cv.Rect
}

// Processor turns one result screenshot into a score grid
type Processor struct {
	recognizer ocr.Recognizer
	extractor  *ocr.Extractor
	cfg        ProcessorConfig
	logger     *logging.Logger
}

// NewProcessor creates a processor
func NewProcessor(recognizer ocr.Recognizer, extractor *ocr.Extractor, cfg ProcessorConfig) *Processor {
	return &Processor{
		recognizer: recognizer,
		extractor:  extractor,
		cfg:        cfg,
		logger:     logging.NewLogger("Processor"),
	}
}

// RegionMode reports whether the processor reads per-stage regions
func (p *Processor) RegionMode() bool {
	return len(p.cfg.Regions) == ocr.Stages
}

// ProcessFile loads a PNG and extracts its scores
func (p *Processor) ProcessFile(ctx context.Context, path string) (ocr.Grid, error) {
	img, err := cv.LoadPNG(path)
	if err != nil {
		return ocr.Grid{}, err
	}
	return p.Process(ctx, img)
}

// Process extracts the score grid from a full-window screenshot
func (p *Processor) Process(ctx context.Context, img image.Image) (ocr.Grid, error) {
	if p.RegionMode() {
		return p.processRegions(ctx, img)
	}

	lines, err := p.recognize(ctx, img)
	if err != nil {
		return ocr.Grid{}, err
	}
	return p.extractor.ExtractGrid(lines)
}

// processRegions reads one stage per region. An empty region is recorded as
// zeros; the frame fails only when all regions are empty.
func (p *Processor) processRegions(ctx context.Context, img image.Image) (ocr.Grid, error) {
	var grid ocr.Grid
	empty := 0

	for i, region := range p.cfg.Regions {
		lines, err := p.recognize(ctx, cv.Crop(img, region))
		if err != nil {
			return ocr.Grid{}, fmt.Errorf("stage %d: %w", i+1, err)
		}

		row, err := p.extractor.ExtractRow(lines)
		if errors.Is(err, ocr.ErrNoTokens) {
			empty++
			p.logger.WarnWithContext("Score region produced no tokens", map[string]interface{}{
				"stage":  i + 1,
				"region": region.String(),
			})
			continue
		}
		if err != nil {
			return ocr.Grid{}, fmt.Errorf("stage %d: %w", i+1, err)
		}
		grid[i] = row
	}

	if empty == len(p.cfg.Regions) {
		return ocr.Grid{}, ErrNoRegionTokens
	}
	return grid, nil
}

func (p *Processor) recognize(ctx context.Context, img image.Image) ([]ocr.Line, error) {
	prepared := cv.PrepareForOCR(img, p.cfg.Threshold, p.cfg.Scale)
	lines, err := p.recognizer.Recognize(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("recognition failed: %w", err)
	}
	return lines, nil
}
