package motion

import (
	"math"

	"github.com/ivlev/star2video/internal/config"
)

// Descriptor is the declarative form of a motion type.
type Descriptor struct {
	Zoom         int     // +1 zoom in, -1 zoom out, 0 none
	PanX, PanY   float64 // unit direction of content translation
	Diagonal     bool
	ConstantZoom bool // pure pans hold a half-amplification zoom
}

var panDirections = map[config.MotionType][2]float64{
	config.PanLeft:      {-1, 0},
	config.PanRight:     {1, 0},
	config.PanUp:        {0, -1},
	config.PanDown:      {0, 1},
	config.PanUpLeft:    {-1, -1},
	config.PanUpRight:   {1, -1},
	config.PanDownLeft:  {-1, 1},
	config.PanDownRight: {1, 1},
}

var descriptors = buildDescriptors()

func buildDescriptors() map[config.MotionType]Descriptor {
	out := map[config.MotionType]Descriptor{
		config.ZoomIn:  {Zoom: 1},
		config.ZoomOut: {Zoom: -1},
	}
	for _, pan := range config.Pans {
		dir := panDirections[pan]
		d := Descriptor{PanX: dir[0], PanY: dir[1]}
		if dir[0] != 0 && dir[1] != 0 {
			d.Diagonal = true
			d.PanX *= math.Sqrt2 / 2
			d.PanY *= math.Sqrt2 / 2
		}

		pure := d
		pure.ConstantZoom = true
		out[pan] = pure

		in, outZoom := d, d
		in.Zoom, outZoom.Zoom = 1, -1
		out[config.Combine(config.ZoomIn, pan)] = in
		out[config.Combine(config.ZoomOut, pan)] = outZoom
	}
	return out
}

// Describe returns the descriptor for m.
func Describe(m config.MotionType) (Descriptor, bool) {
	d, ok := descriptors[m]
	return d, ok
}

func (d Descriptor) pans() bool {
	return d.PanX != 0 || d.PanY != 0
}
