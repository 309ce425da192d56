package window

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenPoint(t *testing.T) {
	bounds := image.Rect(100, 50, 1100, 650)

	assert.Equal(t, image.Pt(600, 200), ScreenPoint(bounds, 0.5, 0.25))
	assert.Equal(t, image.Pt(100, 50), ScreenPoint(bounds, 0, 0))
}

func TestTargetValid(t *testing.T) {
	assert.False(t, Target{}.Valid())
	assert.True(t, Target{Handle: 0x1234, Title: "Game"}.Valid())
	assert.Contains(t, Target{Handle: 0x1234, Title: "Game"}.String(), "0x1234")
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, "gakumas.exe", Query{Process: "gakumas.exe"}.String())
	assert.Equal(t, `"Game"`, Query{Title: "Game"}.String())
	assert.Equal(t, `gakumas.exe "Game"`, Query{Process: "gakumas.exe", Title: "Game"}.String())
}
