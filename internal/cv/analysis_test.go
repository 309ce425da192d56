package cv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: v / 2, A: 255})
		}
	}
	return img
}

func TestBrightnessOfGrayEqualsValue(t *testing.T) {
	for _, v := range []uint8{0, 1, 37, 95, 128, 200, 255} {
		img := solid(4, 3, color.RGBA{R: v, G: v, B: v, A: 255})
		assert.Equal(t, float64(v), Brightness(img), "value %d", v)
	}
}

func TestBrightnessUsesLumaWeights(t *testing.T) {
	red := solid(2, 2, color.RGBA{R: 255, A: 255})
	assert.InDelta(t, 0.299*255, Brightness(red), 1e-9)

	green := solid(2, 2, color.RGBA{G: 255, A: 255})
	assert.InDelta(t, 0.587*255, Brightness(green), 1e-9)
}

func TestBrightnessEmptyImage(t *testing.T) {
	assert.Equal(t, 0.0, Brightness(image.NewRGBA(image.Rectangle{})))
}

func TestHistogramIsNormalized(t *testing.T) {
	h := NewHistogram(gradient(40, 30))
	assert.InDelta(t, 1.0, h.Total(), 1e-9)

	single := NewHistogram(solid(5, 5, color.RGBA{R: 10, G: 10, B: 10, A: 255}))
	assert.Equal(t, 1.0, single[10])
}

func TestSimilarityProperties(t *testing.T) {
	a := NewHistogram(gradient(40, 30))
	b := NewHistogram(solid(10, 10, color.RGBA{R: 200, G: 180, B: 20, A: 255}))

	assert.InDelta(t, 1.0, Similarity(a, a), 1e-9)
	assert.Equal(t, Similarity(a, b), Similarity(b, a))

	s := Similarity(a, b)
	assert.GreaterOrEqual(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestSimilarityDisjoint(t *testing.T) {
	black := NewHistogram(solid(3, 3, color.RGBA{A: 255}))
	white := NewHistogram(solid(3, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255}))
	assert.Equal(t, 0.0, Similarity(black, white))
}

func TestRectPixels(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 500)

	px := NewRect(0.5, 0.5, 0.25, 0.25).Pixels(bounds)
	assert.Equal(t, image.Rect(500, 250, 750, 375), px)

	offset := image.Rect(100, 100, 1100, 600)
	assert.Equal(t, image.Rect(600, 350, 850, 475), NewRect(0.5, 0.5, 0.25, 0.25).Pixels(offset))

	clamped := NewRect(0.75, 0.75, 0.5, 0.5).Pixels(bounds)
	assert.Equal(t, image.Rect(750, 375, 1000, 500), clamped)

	tiny := NewRect(0.5, 0.5, 0.0001, 0.0001).Pixels(bounds)
	assert.Equal(t, 1, tiny.Dx())
	assert.Equal(t, 1, tiny.Dy())
}

func TestRectValidate(t *testing.T) {
	assert.NoError(t, NewRect(0.85, 0.9, 0.1, 0.1).Validate())
	assert.Error(t, NewRect(0.5, 0.5, 0, 0.1).Validate())
	assert.Error(t, NewRect(0.95, 0.5, 0.1, 0.1).Validate())
}

func TestCropCopiesRegion(t *testing.T) {
	img := solid(10, 10, color.RGBA{A: 255})
	img.SetRGBA(5, 5, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	out := CropPixels(img, image.Rect(5, 5, 7, 7))
	assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	assert.Equal(t, uint8(255), out.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(0), out.RGBAAt(1, 1).R)
}
