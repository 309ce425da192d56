package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsvRow(fields ...string) string {
	return strings.Join(fields, "\t")
}

func TestParseTSVGroupsWordsByLine(t *testing.T) {
	input := strings.Join([]string{
		tsvRow("level", "page_num", "block_num", "par_num", "line_num", "word_num", "left", "top", "width", "height", "conf", "text"),
		tsvRow("1", "1", "0", "0", "0", "0", "0", "0", "800", "600", "-1", ""),
		tsvRow("4", "1", "1", "1", "1", "0", "10", "10", "300", "20", "-1", ""),
		tsvRow("5", "1", "1", "1", "1", "1", "10", "10", "90", "20", "96.5", "50,339"),
		tsvRow("5", "1", "1", "1", "1", "2", "110", "10", "90", "20", "91.5", "50796"),
		tsvRow("5", "1", "1", "1", "1", "3", "210", "10", "90", "20", "-1", "junk"),
		tsvRow("5", "1", "1", "1", "2", "1", "10", "40", "90", "20", "80", "64997"),
		tsvRow("5", "1", "1", "1", "2", "2", "110", "40", "90", "20", "70", " "),
		tsvRow("5", "1", "1", "1", "2", "3", "110", "40", "90", "20", "60", "—"),
		"short\trow",
	}, "\n")

	lines, err := ParseTSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "50,339 50796", lines[0].Text)
	assert.InDelta(t, 94.0, lines[0].Confidence, 1e-9)
	require.Len(t, lines[0].Words, 2)

	assert.Equal(t, "64997 —", lines[1].Text)
	assert.InDelta(t, 70.0, lines[1].Confidence, 1e-9)
}

func TestParseTSVEmpty(t *testing.T) {
	lines, err := ParseTSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestTesseractArgs(t *testing.T) {
	tess := NewTesseract(TesseractConfig{TessdataDir: "/data"})
	assert.Equal(t,
		[]string{"in.png", "stdout", "--psm", "6", "-l", "eng", "--tessdata-dir", "/data", "tsv"},
		tess.args("in.png"))
}

func TestNewLineMeanConfidence(t *testing.T) {
	line := NewLine([]Word{{Text: "a", Confidence: 50}, {Text: "b", Confidence: 100}})
	assert.Equal(t, "a b", line.Text)
	assert.Equal(t, 75.0, line.Confidence)

	assert.Equal(t, Line{}, NewLine(nil))
}
