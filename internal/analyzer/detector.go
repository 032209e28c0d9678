package analyzer

import (
	"context"
	"image"
)

// Point is a sub-pixel position.
type Point struct {
	X, Y float64
}

// StarRegion is one segmented star: core, halo and spikes.
type StarRegion struct {
	// Pixels are linear indices (y*width + x) of the pixels the region
	// occupies. Source holds, in parallel, the indices whose color each pixel
	// takes; the two differ only after Shrink.
	Pixels []int
	Source []int

	PixelCount    int
	Centroid      Point // luminance²-weighted
	PeakLuminance float64
	Bounds        image.Rectangle
	Size          int // max(bbox width, bbox height)
}

// Segmentation is the result of one detector pass. Raster is the image the
// region indices refer to; it differs from the input when a prefilter ran.
// Luminance is the per-pixel luma of Raster, row-major.
type Segmentation struct {
	Regions    []StarRegion
	Raster     *image.RGBA
	Luminance  []float32
	Thresholds Thresholds
}

// Detector is the interface for star segmentation strategies
type Detector interface {
	Detect(ctx context.Context, img *image.RGBA) (*Segmentation, error)
}
