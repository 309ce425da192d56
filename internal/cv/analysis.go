package cv

import (
	"image"
	"image/draw"
	"math"
)

// HistogramBins is the number of gray levels tracked by a Histogram
const HistogramBins = 256

// Histogram is a normalized grayscale distribution; bins sum to 1 for a
// non-empty image.
type Histogram [HistogramBins]float64

// luma weights scaled by 1000 so whole-image sums stay integral
const (
	lumaR = 299
	lumaG = 587
	lumaB = 114
)

func luma1000(r, g, b uint8) uint64 {
	return lumaR*uint64(r) + lumaG*uint64(g) + lumaB*uint64(b)
}

// Luma returns the weighted gray value of one pixel
func Luma(r, g, b uint8) float64 {
	return float64(luma1000(r, g, b)) / 1000
}

// toRGBA returns img as *image.RGBA, converting only when needed
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// CropPixels copies rect out of img into a new image anchored at (0,0)
func CropPixels(img image.Image, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

func forEachPixel(img *image.RGBA, fn func(r, g, b uint8)) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[img.PixOffset(bounds.Min.X, y):]
		for x := 0; x < bounds.Dx(); x++ {
			i := x * 4
			fn(row[i], row[i+1], row[i+2])
		}
	}
}

// Brightness returns the mean luma of img, or 0 for an empty image
func Brightness(img image.Image) float64 {
	rgba := toRGBA(img)
	n := uint64(rgba.Bounds().Dx() * rgba.Bounds().Dy())
	if n == 0 {
		return 0
	}

	var sum uint64
	forEachPixel(rgba, func(r, g, b uint8) {
		sum += luma1000(r, g, b)
	})
	return float64(sum) / float64(n*1000)
}

// NewHistogram builds the normalized 256-bin luma histogram of img
func NewHistogram(img image.Image) Histogram {
	var h Histogram
	rgba := toRGBA(img)
	n := rgba.Bounds().Dx() * rgba.Bounds().Dy()
	if n == 0 {
		return h
	}

	var counts [HistogramBins]int
	forEachPixel(rgba, func(r, g, b uint8) {
		counts[luma1000(r, g, b)/1000]++
	})

	for i, c := range counts {
		h[i] = float64(c) / float64(n)
	}
	return h
}

// Similarity returns the Bhattacharyya coefficient of two histograms,
// clamped to [0, 1].
func Similarity(a, b Histogram) float64 {
	var sum float64
	for i := range a {
		sum += math.Sqrt(a[i] * b[i])
	}
	return math.Max(0, math.Min(1, sum))
}

// Total returns the sum of all bins
func (h Histogram) Total() float64 {
	var sum float64
	for _, v := range h {
		sum += v
	}
	return sum
}
