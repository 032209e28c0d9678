package effects

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// Vignette darkens the frame edges with a radial gradient drawn once per
// frame size.
type Vignette struct {
	Strength float64 // alpha at pulse 1
	Inner    float64 // clear radius as a fraction of the half-diagonal

	cached *image.RGBA
}

func NewVignette() *Vignette {
	return &Vignette{Strength: 0.85, Inner: 0.35}
}

// Mask returns the gradient raster for a w×h frame.
func (v *Vignette) Mask(w, h int) *image.RGBA {
	if v.cached != nil && v.cached.Rect.Dx() == w && v.cached.Rect.Dy() == h {
		return v.cached
	}

	dc := gg.NewContext(w, h)
	cx, cy := float64(w)/2, float64(h)/2
	outer := math.Hypot(cx, cy)
	grad := gg.NewRadialGradient(cx, cy, outer*v.Inner, cx, cy, outer)
	grad.AddColorStop(0, color.RGBA{0, 0, 0, 0})
	grad.AddColorStop(1, color.RGBA{0, 0, 0, 255})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	v.cached = dc.Image().(*image.RGBA)
	return v.cached
}

// Apply overlays the vignette scaled by pulse.
func (v *Vignette) Apply(frame *image.RGBA, pulse float64) {
	if pulse <= 0 {
		return
	}
	Blend(frame, v.Mask(frame.Rect.Dx(), frame.Rect.Dy()), Normal, v.Strength*pulse, Neutral)
}
