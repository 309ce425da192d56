package cv

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Binarize keeps only bright pixels: a pixel whose three channels all exceed
// threshold becomes black text, everything else becomes white background.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	rgba := toRGBA(img)
	bounds := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := rgba.RGBAAt(bounds.Min.X+x, bounds.Min.Y+y)
			v := uint8(255)
			if c.R > threshold && c.G > threshold && c.B > threshold {
				v = 0
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

// Upscale enlarges img by factor using Catmull-Rom resampling. Factors at or
// below 1 return img unchanged.
func Upscale(img image.Image, factor float64) image.Image {
	if factor <= 1 {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0,
		int(float64(bounds.Dx())*factor),
		int(float64(bounds.Dy())*factor),
	))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// PrepareForOCR binarizes and optionally upscales a captured region
func PrepareForOCR(img image.Image, threshold uint8, scale float64) image.Image {
	return Upscale(Binarize(img, threshold), scale)
}
