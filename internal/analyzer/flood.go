package analyzer

import (
	"context"
	"image"
)

// FloodDetector grows 8-connected regions from bright seed pixels.
type FloodDetector struct {
	Intensity float64 // preservation intensity, 0..100
	CleanCore bool    // redraw star cores before segmentation
}

// NewFloodDetector creates a flood-fill detector for the given preservation intensity
func NewFloodDetector(intensity float64) *FloodDetector {
	return &FloodDetector{Intensity: intensity}
}

var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Detect scans img row by row and returns every region of at least
// MinRegionPixels pixels. An image without bright pixels yields no regions
// and no error.
func (d *FloodDetector) Detect(ctx context.Context, img *image.RGBA) (*Segmentation, error) {
	th := ThresholdsFor(d.Intensity)

	raster := img
	if d.CleanCore {
		var err error
		if raster, err = CleanCore(ctx, img, d.Intensity); err != nil {
			return nil, err
		}
	}

	w, h := raster.Rect.Dx(), raster.Rect.Dy()
	lum := Luminance(raster)
	visited := make([]bool, w*h)
	queue := make([]int, 0, th.MaxRegion)

	seg := &Segmentation{Raster: raster, Luminance: lum, Thresholds: th}

	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || float64(lum[idx]) <= th.Core {
				continue
			}

			queue = queue[:0]
			queue = append(queue, idx)
			visited[idx] = true
			region := grow(queue, visited, lum, w, h, th)
			if region.PixelCount >= MinRegionPixels {
				seg.Regions = append(seg.Regions, region)
			}
		}
	}

	return seg, nil
}

// grow runs the breadth-first fill seeded with queue[0]. Pixels are marked
// visited when enqueued, so no pixel ever joins two regions.
func grow(queue []int, visited []bool, lum []float32, w, h int, th Thresholds) StarRegion {
	var (
		sumW, sumX, sumY float64
		peak             float64
		minX, minY       = w, h
		maxX, maxY       = -1, -1
	)

	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		x, y := idx%w, idx/w
		l := float64(lum[idx])

		wgt := l * l
		sumW += wgt
		sumX += wgt * float64(x)
		sumY += wgt * float64(y)
		if l > peak {
			peak = l
		}
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		for _, n := range neighbors8 {
			if len(queue) >= th.MaxRegion {
				break
			}
			nx, ny := x+n[0], y+n[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			nidx := ny*w + nx
			if visited[nidx] || float64(lum[nidx]) <= th.Expansion {
				continue
			}
			visited[nidx] = true
			queue = append(queue, nidx)
		}
	}

	pixels := make([]int, len(queue))
	copy(pixels, queue)
	source := make([]int, len(queue))
	copy(source, queue)

	bounds := image.Rect(minX, minY, maxX+1, maxY+1)
	return StarRegion{
		Pixels:        pixels,
		Source:        source,
		PixelCount:    len(pixels),
		Centroid:      Point{X: sumX / sumW, Y: sumY / sumW},
		PeakLuminance: peak,
		Bounds:        bounds,
		Size:          max(bounds.Dx(), bounds.Dy()),
	}
}
