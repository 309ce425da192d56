package ocr

import (
	"context"
	"image"
	"strings"
)

// Word is one recognized token with its confidence in [0, 100]
type Word struct {
	Text       string
	Confidence float64
}

// Line is a run of words the recognizer grouped together
type Line struct {
	Text       string
	Words      []Word
	Confidence float64 // mean of word confidences
}

// NewLine builds a line from words, deriving text and mean confidence
func NewLine(words []Word) Line {
	line := Line{Words: words}
	if len(words) == 0 {
		return line
	}

	texts := make([]string, len(words))
	var sum float64
	for i, w := range words {
		texts[i] = w.Text
		sum += w.Confidence
	}
	line.Text = strings.Join(texts, " ")
	line.Confidence = sum / float64(len(words))
	return line
}

// Recognizer turns an image into recognized lines
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Line, error)
}
