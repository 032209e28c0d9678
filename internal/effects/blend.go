package effects

import "image"

// Mode is a compositing operator.
type Mode int

const (
	Normal  Mode = iota // source-over
	Screen              // 1-(1-d)(1-s)
	Lighter             // additive, saturating
)

func (m Mode) String() string {
	switch m {
	case Screen:
		return "screen"
	case Lighter:
		return "lighter"
	default:
		return "normal"
	}
}

// Tint scales the red, green and blue channels of the source.
type Tint [3]float64

var Neutral = Tint{1, 1, 1}

// Blend composites src onto dst in place. Both must have the same bounds.
// alpha scales the whole source.
func Blend(dst, src *image.RGBA, mode Mode, alpha float64, tint Tint) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	w, h = min(w, src.Rect.Dx()), min(h, src.Rect.Dy())

	var k [4]float64
	for c := 0; c < 3; c++ {
		k[c] = alpha * tint[c] / 255
	}
	k[3] = alpha / 255

	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for i := 0; i < len(srow); i += 4 {
			if srow[i+3] == 0 && srow[i] == 0 && srow[i+1] == 0 && srow[i+2] == 0 {
				continue
			}
			sa := float64(srow[i+3]) * k[3]
			for c := 0; c < 4; c++ {
				s := float64(srow[i+c]) * k[c]
				d := float64(drow[i+c]) / 255
				var o float64
				switch mode {
				case Screen:
					o = d + s - d*s
				case Lighter:
					o = d + s
				default:
					o = s + d*(1-sa)
				}
				drow[i+c] = to8(o)
			}
			// Premultiplied invariant.
			a := drow[i+3]
			drow[i] = min(drow[i], a)
			drow[i+1] = min(drow[i+1], a)
			drow[i+2] = min(drow[i+2], a)
		}
	}
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
