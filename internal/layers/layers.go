// Package layers turns a segmented stars image into depth-ordered layer
// rasters plus a background raster.
package layers

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/star2video/internal/analyzer"
	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/system"
)

// DepthLayer is one depth bucket. Index 0 is the closest.
type DepthLayer struct {
	Index   int
	Regions []analyzer.StarRegion
	MinSize float64 // size threshold; 0 for the farthest layer
	Raster  *image.RGBA
}

// LayerSet is the immutable output of Build.
type LayerSet struct {
	Layers     []DepthLayer
	Background *image.RGBA
	Width      int
	Height     int
	Shrunk     int // regions rescaled by the shrink step
}

// Ready reports whether every layer raster and the background exist.
func (s *LayerSet) Ready() bool {
	if s == nil || s.Background == nil || len(s.Layers) == 0 {
		return false
	}
	for _, l := range s.Layers {
		if l.Raster == nil {
			return false
		}
	}
	return true
}

// RegionCount is the total number of stars across all layers.
func (s *LayerSet) RegionCount() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Regions)
	}
	return n
}

// Release returns all rasters to the image pool. The set is unusable afterwards.
func (s *LayerSet) Release() {
	if s == nil {
		return
	}
	for i := range s.Layers {
		system.PutImage(s.Layers[i].Raster)
		s.Layers[i].Raster = nil
	}
	system.PutImage(s.Background)
	s.Background = nil
}

// Options control a layer build.
type Options struct {
	LayerCount int
	Intensity  float64 // preservation intensity, 0..100
	Detector   analyzer.Detector
}

// EstimateBytes approximates the peak memory of a build: N+1 RGBA rasters,
// the luminance and visited maps and the ownership maps.
func EstimateBytes(w, h, layers int) uint64 {
	px := uint64(w) * uint64(h)
	return px*4*uint64(layers+1) + px*(4+1) + px*(4+4+4)
}

// Build segments stars, classifies the regions into depth layers and renders
// every layer raster. Input problems come back as fault.InputError (including
// fault.ErrNoStars), allocation problems as fault.ResourceError. On failure
// no partially built raster survives.
func Build(ctx context.Context, stars, background *image.RGBA, opts Options) (*LayerSet, error) {
	if stars == nil || background == nil {
		return nil, fault.Inputf("stars and background rasters are required")
	}
	w, h := stars.Rect.Dx(), stars.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, fault.Inputf("empty stars raster")
	}
	if background.Rect.Dx() != w || background.Rect.Dy() != h {
		return nil, fault.Inputf("dimension mismatch: stars %dx%d, background %dx%d",
			w, h, background.Rect.Dx(), background.Rect.Dy())
	}
	n := max(opts.LayerCount, 1)

	if err := system.CheckMemory(EstimateBytes(w, h, n)); err != nil {
		return nil, &fault.ResourceError{Op: "layer build", Err: err}
	}

	det := opts.Detector
	if det == nil {
		det = analyzer.NewFloodDetector(opts.Intensity)
	}
	seg, err := det.Detect(ctx, stars)
	if err != nil {
		return nil, fmt.Errorf("segmentation: %w", err)
	}
	if len(seg.Regions) == 0 {
		return nil, fault.ErrNoStars
	}

	shrunk := analyzer.Shrink(seg.Regions, seg.Raster, opts.Intensity)
	set := &LayerSet{
		Layers: Classify(seg.Regions, n),
		Width:  w,
		Height: h,
		Shrunk: shrunk,
	}

	if err := composite(ctx, set, seg, background); err != nil {
		set.Release()
		return nil, err
	}
	return set, nil
}

// composite resolves pixel ownership across all layers (the brightest claim
// on a coordinate wins) and then fills every layer raster concurrently.
func composite(ctx context.Context, set *LayerSet, seg *analyzer.Segmentation, background *image.RGBA) error {
	w, h := set.Width, set.Height
	rect := image.Rect(0, 0, w, h)

	owner := make([]int32, w*h)
	ownerSrc := make([]int32, w*h)
	ownerLum := make([]float32, w*h)
	for i := range owner {
		owner[i] = -1
	}
	src := seg.Raster
	lum := seg.Luminance
	if len(lum) != w*h {
		// детектор не отдал карту яркости
		lum = analyzer.Luminance(src)
	}

	for li, layer := range set.Layers {
		for _, r := range layer.Regions {
			for k, dst := range r.Pixels {
				s := r.Source[k]
				if owner[dst] == -1 || lum[s] > ownerLum[dst] {
					owner[dst] = int32(li)
					ownerSrc[dst] = int32(s)
					ownerLum[dst] = lum[s]
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range set.Layers {
		set.Layers[i].Raster = system.GetImage(rect)
	}
	set.Background = system.GetImage(rect)
	draw.Draw(set.Background, rect, background, background.Rect.Min, draw.Src)

	g, gctx := errgroup.WithContext(ctx)
	for i := range set.Layers {
		layer := &set.Layers[i]
		g.Go(func() error {
			dst := layer.Raster
			for _, r := range layer.Regions {
				if err := gctx.Err(); err != nil {
					return err
				}
				for k, p := range r.Pixels {
					if owner[p] != int32(layer.Index) || ownerSrc[p] != int32(r.Source[k]) {
						continue
					}
					so := (r.Source[k]/w)*src.Stride + (r.Source[k]%w)*4
					do := (p/w)*dst.Stride + (p%w)*4
					copy(dst.Pix[do:do+4], src.Pix[so:so+4])
				}
			}
			return nil
		})
	}
	return g.Wait()
}
