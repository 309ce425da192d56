package ocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultDashChars are rendered or recognized in place of a blank score
	DefaultDashChars = "-—–‐‑‒―−ー一"
	// DefaultConfusableChars are what the recognizer tends to emit for a
	// faint or clipped dash
	DefaultConfusableChars = "|Il!i_=~/\\丨｜"

	maxDashRun = 4
)

var numericPattern = regexp.MustCompile(`^(\d+[,.])*\d+$`)

// Rules tune token classification and the extraction gates
type Rules struct {
	DashChars       string  `mapstructure:"dash_chars" yaml:"dash_chars"`
	ConfusableChars string  `mapstructure:"confusable_chars" yaml:"confusable_chars"`
	MaxGarbledLen   int     `mapstructure:"max_garbled_len" yaml:"max_garbled_len"`
	MinConfidence   float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MinRegionValue  int     `mapstructure:"min_region_value" yaml:"min_region_value"`
}

// DefaultRules returns the rules tuned for Tesseract on the result screen
func DefaultRules() Rules {
	return Rules{
		DashChars:       DefaultDashChars,
		ConfusableChars: DefaultConfusableChars,
		MaxGarbledLen:   3,
		MinConfidence:   60,
		MinRegionValue:  100,
	}
}

// Tokenizer classifies and parses recognized words
type Tokenizer struct {
	dashes        map[rune]bool
	confusables   map[rune]bool
	maxGarbledLen int
}

// NewTokenizer builds a tokenizer from rules. Empty character sets fall back
// to the defaults.
func NewTokenizer(rules Rules) *Tokenizer {
	dashChars := rules.DashChars
	if dashChars == "" {
		dashChars = DefaultDashChars
	}
	confusables := rules.ConfusableChars
	if confusables == "" {
		confusables = DefaultConfusableChars
	}
	maxLen := rules.MaxGarbledLen
	if maxLen <= 0 {
		maxLen = 3
	}

	return &Tokenizer{
		dashes:        runeSet(dashChars),
		confusables:   runeSet(confusables),
		maxGarbledLen: maxLen,
	}
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, utf8.RuneCountInString(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}

func allIn(s string, set map[rune]bool, maxLen int) bool {
	n := utf8.RuneCountInString(s)
	if n == 0 || n > maxLen {
		return false
	}
	for _, r := range s {
		if !set[r] {
			return false
		}
	}
	return true
}

// IsNumeric reports digits with optional comma or period group separators
func (t *Tokenizer) IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// IsDash reports a short run of dash-like characters
func (t *Tokenizer) IsDash(s string) bool {
	return allIn(s, t.dashes, maxDashRun)
}

// IsScore reports whether s is a number or a dash placeholder
func (t *Tokenizer) IsScore(s string) bool {
	return t.IsNumeric(s) || t.IsDash(s)
}

// IsGarbled reports a short token made only of characters commonly
// substituted for a dash
func (t *Tokenizer) IsGarbled(s string) bool {
	return allIn(s, t.confusables, t.maxGarbledLen)
}

// Parse converts a score-like or garbled token to its value. Dash and garbled
// tokens are 0; numbers lose their separators.
func (t *Tokenizer) Parse(s string) (int, error) {
	if t.IsDash(s) || t.IsGarbled(s) {
		return 0, nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, fmt.Errorf("no digits found in score %q", s)
	}

	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("failed to parse score %q: %w", s, err)
	}
	return v, nil
}
