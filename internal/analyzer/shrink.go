package analyzer

import (
	"image"
	"math"
)

// Shrink rescales every region whose Size exceeds the intensity-scaled cap
// toward its centroid. Offsets are multiplied by (cap-2)/(Size-1) and
// rounded, so the rescaled bbox never exceeds cap. When two pixels land on
// the same spot the brighter source wins. Regions are updated in place;
// the number of shrunk regions is returned.
func Shrink(regions []StarRegion, img *image.RGBA, intensity float64) int {
	limit := ThresholdsFor(intensity).ShrinkCap
	w, h := img.Rect.Dx(), img.Rect.Dy()

	shrunk := 0
	for i := range regions {
		r := &regions[i]
		if r.Size <= limit {
			continue
		}
		shrinkRegion(r, img, w, h, float64(limit-2)/float64(r.Size-1))
		shrunk++
	}
	return shrunk
}

func shrinkRegion(r *StarRegion, img *image.RGBA, w, h int, f float64) {
	cx, cy := r.Centroid.X, r.Centroid.Y
	ccx, ccy := math.Round(cx), math.Round(cy)

	pos := make(map[int]int, len(r.Pixels))
	pixels := make([]int, 0, len(r.Pixels))
	source := make([]int, 0, len(r.Pixels))

	for k, p := range r.Pixels {
		x, y := float64(p%w), float64(p/w)
		// Offsets are taken from the rounded centroid so the mapping is
		// a pure integer-grid scale and the span bound holds exactly.
		nx := int(ccx + math.Round((x-ccx)*f))
		ny := int(ccy + math.Round((y-ccy)*f))
		nx = min(max(nx, 0), w-1)
		ny = min(max(ny, 0), h-1)
		dst := ny*w + nx
		src := r.Source[k]

		if j, ok := pos[dst]; ok {
			if pixelLuma(img, src, w) > pixelLuma(img, source[j], w) {
				source[j] = src
			}
			continue
		}
		pos[dst] = len(pixels)
		pixels = append(pixels, dst)
		source = append(source, src)
	}

	minX, minY, maxX, maxY := w, h, -1, -1
	for _, p := range pixels {
		x, y := p%w, p/w
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	r.Pixels = pixels
	r.Source = source
	r.PixelCount = len(pixels)
	r.Bounds = image.Rect(minX, minY, maxX+1, maxY+1)
	r.Size = max(r.Bounds.Dx(), r.Bounds.Dy())
}

func pixelLuma(img *image.RGBA, idx, w int) float32 {
	off := (idx/w)*img.Stride + (idx%w)*4
	return luma(img.Pix[off], img.Pix[off+1], img.Pix[off+2])
}
