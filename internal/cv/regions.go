package cv

import (
	"fmt"
	"image"
)

// Rect is a region expressed as fractions of the window client area, so it
// survives window resizes.
type Rect struct {
	X float64 `mapstructure:"x" yaml:"x"`
	Y float64 `mapstructure:"y" yaml:"y"`
	W float64 `mapstructure:"w" yaml:"w"`
	H float64 `mapstructure:"h" yaml:"h"`
}

// Point is a normalized coordinate inside the window client area
type Point struct {
	X float64 `mapstructure:"x" yaml:"x"`
	Y float64 `mapstructure:"y" yaml:"y"`
}

// NewRect creates a new normalized region
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Validate checks that the region lies inside the unit square and has area
func (r Rect) Validate() error {
	if r.W <= 0 || r.H <= 0 {
		return fmt.Errorf("region %v has no area", r)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > 1.0001 || r.Y+r.H > 1.0001 {
		return fmt.Errorf("region %v exceeds the window", r)
	}
	return nil
}

// Pixels converts the region to absolute pixels inside bounds. The result is
// clamped to bounds and is never smaller than one pixel.
func (r Rect) Pixels(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())

	px := image.Rect(
		bounds.Min.X+int(r.X*w),
		bounds.Min.Y+int(r.Y*h),
		bounds.Min.X+int((r.X+r.W)*w),
		bounds.Min.Y+int((r.Y+r.H)*h),
	).Intersect(bounds)

	if px.Empty() && !bounds.Empty() {
		px = image.Rect(px.Min.X, px.Min.Y, px.Min.X+1, px.Min.Y+1).Intersect(bounds)
	}
	return px
}

func (r Rect) String() string {
	return fmt.Sprintf("{x=%.3f y=%.3f w=%.3f h=%.3f}", r.X, r.Y, r.W, r.H)
}

// Crop copies the region of img described by r into a new zero-origin image
func Crop(img image.Image, r Rect) *image.RGBA {
	return CropPixels(img, r.Pixels(img.Bounds()))
}
