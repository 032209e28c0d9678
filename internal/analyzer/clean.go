package analyzer

import (
	"context"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Disk color is pulled this far toward white in Lab space so synthetic
	// cores keep their hue without looking muddy.
	coreWhitening = 0.35
	maxHalfWidth  = 16
)

// CleanWeight is the share of the synthetic raster in the clean-core mix:
// rising from 0 to 1 over intensity 0..50, then falling back to 0 at 100.
func CleanWeight(intensity float64) float64 {
	intensity = math.Max(0, math.Min(100, intensity))
	if intensity <= 50 {
		return intensity / 50
	}
	return 1 - (intensity-50)/50
}

type coreMax struct {
	x, y  int
	peak  float64
	sigma float64
	color colorful.Color
}

// CleanCore redraws star cores as Gaussian disks centred on local luminance
// maxima and mixes the result with the original, suppressing halo noise.
// The returned raster is new; img is not modified.
func CleanCore(ctx context.Context, img *image.RGBA, intensity float64) (*image.RGBA, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	// img may be a sub-image with a wider stride.
	for y := 0; y < h; y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}

	wgt := CleanWeight(intensity)
	if wgt == 0 {
		return out, nil
	}

	th := ThresholdsFor(intensity)
	lum := Luminance(img)

	var maxima []coreMax
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			l := lum[y*w+x]
			if float64(l) <= th.Core || !isLocalMax(lum, w, h, x, y) {
				continue
			}
			off := y*img.Stride + x*4
			peakColor := colorful.Color{
				R: float64(img.Pix[off]) / 255,
				G: float64(img.Pix[off+1]) / 255,
				B: float64(img.Pix[off+2]) / 255,
			}
			maxima = append(maxima, coreMax{
				x:     x,
				y:     y,
				peak:  float64(l),
				sigma: coreSigma(lum, w, x, y),
				color: peakColor.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, coreWhitening).Clamped(),
			})
		}
	}

	synth := make([]float64, w*h*3)
	for _, m := range maxima {
		radius := int(math.Ceil(3 * m.sigma))
		twoSigma2 := 2 * m.sigma * m.sigma
		for dy := -radius; dy <= radius; dy++ {
			py := m.y + dy
			if py < 0 || py >= h {
				continue
			}
			for dx := -radius; dx <= radius; dx++ {
				px := m.x + dx
				if px < 0 || px >= w {
					continue
				}
				f := math.Exp(-float64(dx*dx+dy*dy) / twoSigma2)
				i := (py*w + px) * 3
				synth[i] = math.Max(synth[i], m.color.R*255*f)
				synth[i+1] = math.Max(synth[i+1], m.color.G*255*f)
				synth[i+2] = math.Max(synth[i+2], m.color.B*255*f)
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			so := y*img.Stride + x*4
			do := y*out.Stride + x*4
			i := (y*w + x) * 3
			// Premultiplied storage: color may not exceed alpha.
			a := img.Pix[so+3]
			for c := 0; c < 3; c++ {
				v := (1-wgt)*float64(img.Pix[so+c]) + wgt*synth[i+c]
				out.Pix[do+c] = min(uint8(math.Min(255, math.Round(v))), a)
			}
		}
	}

	return out, nil
}

// isLocalMax treats plateaus by scan order: earlier neighbours must be
// strictly darker, later ones no brighter. A flat core yields one maximum.
func isLocalMax(lum []float32, w, h, x, y int) bool {
	c := lum[y*w+x]
	for i, n := range neighbors8 {
		nx, ny := x+n[0], y+n[1]
		if nx < 0 || ny < 0 || nx >= w || ny >= h {
			continue
		}
		v := lum[ny*w+nx]
		if i < 4 && v >= c {
			return false
		}
		if i >= 4 && v > c {
			return false
		}
	}
	return true
}

// coreSigma estimates the Gaussian width from the half-maximum distance
// along the row.
func coreSigma(lum []float32, w, x, y int) float64 {
	half := lum[y*w+x] / 2
	hw := 0
	for hw < maxHalfWidth && x+hw+1 < w && lum[y*w+x+hw+1] > half {
		hw++
	}
	// FWHM = 2.3548σ
	return math.Max(0.6, (float64(hw)+0.5)/1.1774)
}
