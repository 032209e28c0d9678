package effects

import (
	"image"
	"math"
)

// Whirlpool twists the frame around its centre. The twist angle falls off
// quadratically with radius and is modulated by a sine over Segments lobes.
// The mapping is not affine, so it is resampled by hand.
type Whirlpool struct {
	MaxTwist float64 // radians at the centre for pulse 1
	Segments int

	scratch *image.RGBA
}

func NewWhirlpool() *Whirlpool {
	return &Whirlpool{MaxTwist: 0.9, Segments: 6}
}

// Apply resamples frame in place. A zero pulse leaves it untouched.
func (wp *Whirlpool) Apply(frame *image.RGBA, pulse float64) {
	if pulse <= 0 {
		return
	}
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	if wp.scratch == nil || wp.scratch.Rect != frame.Rect {
		wp.scratch = image.NewRGBA(frame.Rect)
	}
	src := wp.scratch
	copy(src.Pix, frame.Pix)

	cx, cy := float64(w)/2, float64(h)/2
	radius := math.Hypot(cx, cy)
	segs := float64(wp.Segments)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			r := math.Hypot(dx, dy)
			falloff := 1 - r/radius
			if falloff <= 0 {
				continue
			}
			theta := math.Atan2(dy, dx)
			twist := pulse * wp.MaxTwist * falloff * falloff * (1 + 0.25*math.Sin(segs*theta))
			sx := cx + r*math.Cos(theta+twist) - 0.5
			sy := cy + r*math.Sin(theta+twist) - 0.5
			off := y*frame.Stride + x*4
			bilinear(src, sx, sy, frame.Pix[off:off+4])
		}
	}
}

// bilinear samples src at (x, y) into out; outside samples are transparent.
func bilinear(src *image.RGBA, x, y float64, out []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)

	var acc [4]float64
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			px, py := x0+i, y0+j
			if px < 0 || py < 0 || px >= w || py >= h {
				continue
			}
			wx := fx
			if i == 0 {
				wx = 1 - fx
			}
			wy := fy
			if j == 0 {
				wy = 1 - fy
			}
			wgt := wx * wy
			o := py*src.Stride + px*4
			for c := 0; c < 4; c++ {
				acc[c] += wgt * float64(src.Pix[o+c])
			}
		}
	}
	for c := 0; c < 4; c++ {
		out[c] = uint8(math.Min(255, acc[c]+0.5))
	}
}
