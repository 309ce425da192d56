package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScore(t *testing.T) {
	tok := NewTokenizer(DefaultRules())

	cases := map[string]int{
		"12345":     12345,
		"12,345":    12345,
		"1,234,567": 1234567,
		"12.345":    12345,
		"--":        0,
		"—":         0,
		"–":         0,
		"ー":         0,
		"|":         0,
	}
	for in, want := range cases {
		got, err := tok.Parse(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := tok.Parse("Pt")
	assert.Error(t, err)
}

func TestCommaGroupedEqualsPlain(t *testing.T) {
	tok := NewTokenizer(DefaultRules())
	a, _ := tok.Parse("50,339")
	b, _ := tok.Parse("50339")
	assert.Equal(t, b, a)
}

func TestTokenClassification(t *testing.T) {
	tok := NewTokenizer(DefaultRules())

	assert.True(t, tok.IsScore("50339"))
	assert.True(t, tok.IsScore("50,339"))
	assert.True(t, tok.IsScore("--"))
	assert.True(t, tok.IsScore("−"))
	assert.False(t, tok.IsScore("-----"), "long dash runs are separators")
	assert.False(t, tok.IsScore("1,2,"))
	assert.False(t, tok.IsScore("total:"))
	assert.False(t, tok.IsScore(""))

	assert.True(t, tok.IsGarbled("|"))
	assert.True(t, tok.IsGarbled("Il"))
	assert.True(t, tok.IsGarbled("_=~"))
	assert.False(t, tok.IsGarbled("||||"), "longer than max garbled length")
	assert.False(t, tok.IsGarbled("Pt"))
}

func TestConfigurableCharacterSets(t *testing.T) {
	rules := DefaultRules()
	rules.ConfusableChars = "#"
	rules.DashChars = "~"
	tok := NewTokenizer(rules)

	assert.True(t, tok.IsGarbled("##"))
	assert.False(t, tok.IsGarbled("|"))
	assert.True(t, tok.IsDash("~~"))
	assert.False(t, tok.IsDash("--"))
}
