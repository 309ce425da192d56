package ocr

import (
	"errors"
	"fmt"
	"sort"

	"jordanella.com/rehearsal-bot/internal/logging"
)

// Stages and Criteria are the dimensions of a score grid
const (
	Stages   = 3
	Criteria = 3
)

var (
	// ErrNotEnoughRows is returned when fewer than three rows are recovered
	ErrNotEnoughRows = errors.New("could not find all stage scores")
	// ErrNoTokens is returned when a single region yields no usable token
	ErrNoTokens = errors.New("no score tokens found")
)

// Row holds the three sub-criterion scores of one stage
type Row [Criteria]int

// Grid holds one row per stage, stage-major
type Grid [Stages]Row

// Flatten returns the nine cells in stage-major order
func (g Grid) Flatten() []int {
	out := make([]int, 0, Stages*Criteria)
	for _, row := range g {
		out = append(out, row[:]...)
	}
	return out
}

// Pass identifies which extraction pass accepted a row
type Pass int

const (
	PassStrict Pass = iota + 1
	PassGarbledDash
	PassDroppedDash
)

func (p Pass) String() string {
	switch p {
	case PassStrict:
		return "strict"
	case PassGarbledDash:
		return "garbled-dash"
	case PassDroppedDash:
		return "dropped-dash"
	default:
		return fmt.Sprintf("pass(%d)", int(p))
	}
}

// RowMatch records where a row came from
type RowMatch struct {
	Line   int
	Pass   Pass
	Values Row
}

// Extractor recovers score rows from recognized lines
type Extractor struct {
	tokens *Tokenizer
	rules  Rules
	logger *logging.Logger
}

// NewExtractor creates an extractor using rules
func NewExtractor(rules Rules) *Extractor {
	return &Extractor{
		tokens: NewTokenizer(rules),
		rules:  rules,
		logger: logging.NewLogger("Extractor"),
	}
}

// Tokenizer returns the token classifier in use
func (e *Extractor) Tokenizer() *Tokenizer {
	return e.tokens
}

// filterWords returns the words of line accepted by keep, in order
func filterWords(line Line, keep func(string) bool) []string {
	var out []string
	for _, w := range line.Words {
		if keep(w.Text) {
			out = append(out, w.Text)
		}
	}
	return out
}

// parseRow parses up to three tokens left to right, zero-filling the rest
func (e *Extractor) parseRow(tokens []string) (Row, bool) {
	var row Row
	for i, tok := range tokens {
		if i >= Criteria {
			break
		}
		v, err := e.tokens.Parse(tok)
		if err != nil {
			return Row{}, false
		}
		row[i] = v
	}
	return row, true
}

func (e *Extractor) scoreOrGarbled(s string) bool {
	return e.tokens.IsScore(s) || e.tokens.IsGarbled(s)
}

// MatchRows runs the three passes and returns the accepted rows sorted by
// line index. Fewer than three matches is not an error here.
func (e *Extractor) MatchRows(lines []Line) []RowMatch {
	matches := make([]RowMatch, 0, Stages)
	used := make(map[int]bool)

	accept := func(i int, pass Pass, tokens []string) {
		row, ok := e.parseRow(tokens)
		if !ok {
			return
		}
		matches = append(matches, RowMatch{Line: i, Pass: pass, Values: row})
		used[i] = true
	}

	for i, line := range lines {
		if len(matches) == Stages {
			break
		}
		if line.Confidence < e.rules.MinConfidence {
			continue
		}
		if tokens := filterWords(line, e.tokens.IsScore); len(tokens) == Criteria {
			accept(i, PassStrict, tokens)
		}
	}

	for i, line := range lines {
		if len(matches) == Stages {
			break
		}
		if used[i] {
			continue
		}
		if tokens := filterWords(line, e.scoreOrGarbled); len(tokens) == Criteria {
			accept(i, PassGarbledDash, tokens)
		}
	}

	if len(matches) < Stages {
		start := 0
		for _, m := range matches {
			if m.Line+1 > start {
				start = m.Line + 1
			}
		}
		for i := start; i < len(lines) && len(matches) < Stages; i++ {
			if used[i] {
				continue
			}
			tokens := filterWords(lines[i], e.tokens.IsScore)
			if len(tokens) >= 1 && len(tokens) < Criteria {
				accept(i, PassDroppedDash, tokens)
			}
		}
	}

	sort.Slice(matches, func(a, b int) bool {
		return matches[a].Line < matches[b].Line
	})
	return matches
}

// ExtractGrid recovers the full 3x3 score grid from one frame
func (e *Extractor) ExtractGrid(lines []Line) (Grid, error) {
	matches := e.MatchRows(lines)
	if len(matches) < Stages {
		return Grid{}, fmt.Errorf("%w: found %d of %d", ErrNotEnoughRows, len(matches), Stages)
	}

	var grid Grid
	for i, m := range matches {
		grid[i] = m.Values
		e.logger.DebugWithContext("Matched score row", map[string]interface{}{
			"line":   m.Line,
			"pass":   m.Pass.String(),
			"values": m.Values,
		})
	}
	return grid, nil
}

// ExtractRow recovers one stage's three scores from a region cropped to a
// single row. Numbers below the configured minimum are recognizer noise.
func (e *Extractor) ExtractRow(lines []Line) (Row, error) {
	var tokens []string
	for _, line := range lines {
		for _, tok := range filterWords(line, e.scoreOrGarbled) {
			if e.tokens.IsNumeric(tok) {
				v, err := e.tokens.Parse(tok)
				if err != nil || v < e.rules.MinRegionValue {
					continue
				}
			}
			tokens = append(tokens, tok)
		}
	}

	if len(tokens) == 0 {
		return Row{}, ErrNoTokens
	}

	row, ok := e.parseRow(tokens)
	if !ok {
		return Row{}, fmt.Errorf("failed to parse region tokens %v", tokens)
	}
	return row, nil
}
