// Package motion maps animation progress to per-layer transforms. Every
// function here is pure; a Frame is computed fresh for each rendered frame.
package motion

import (
	"fmt"
	"math"

	"github.com/ivlev/star2video/internal/config"
)

// Background addresses the background layer in Transform.
const Background = -1

const (
	// PanRate is the pan distance in pixels at speed 1 and 100% amplification.
	PanRate = 250.0
	// BackgroundPanFactor makes the nebula pan faster than the nearest stars.
	BackgroundPanFactor = 1.5

	FadeThreshold  = 0.7
	FadeStartAlpha = 0.85
	FadeScaleBoost = 0.15
)

// LayerTransform places one layer for one frame: scale about the canvas
// centre followed by a translation in pixels.
type LayerTransform struct {
	TranslateX float64
	TranslateY float64
	Scale      float64
}

// Frame is everything the renderer needs for one frame.
type Frame struct {
	Progress        float64 // 0..1
	Background      LayerTransform
	BackgroundAlpha float64
	Layers          []LayerTransform // index 0 is the closest layer
	Rotation        float64          // radians
	CoverScale      float64
}

// Model is the precomputed parallax model for one run.
type Model struct {
	settings    config.AnimationSettings
	desc        Descriptor
	layers      int
	multipliers []float64
	amp         float64
}

// NewModel prepares a model for the given settings and layer count using
// DefaultDepthSchedule.
func NewModel(s config.AnimationSettings, layers int) (*Model, error) {
	return NewModelWithSchedule(s, layers, DefaultDepthSchedule)
}

func NewModelWithSchedule(s config.AnimationSettings, layers int, schedule DepthSchedule) (*Model, error) {
	desc, ok := Describe(s.MotionType)
	if !ok {
		return nil, fmt.Errorf("unknown motion type %q", s.MotionType)
	}
	if layers < 1 {
		return nil, fmt.Errorf("layer count must be positive, got %d", layers)
	}
	return &Model{
		settings:    s,
		desc:        desc,
		layers:      layers,
		multipliers: schedule.Multipliers(layers, s.DisplacementRatio(), s.DepthIntensity),
		amp:         s.Amplification / 100,
	}, nil
}

// Layers returns the number of star layers the model was built for.
func (m *Model) Layers() int { return m.layers }

// Multiplier returns the parallax multiplier of star layer i.
func (m *Model) Multiplier(i int) float64 { return m.multipliers[i] }

// Transform returns the transform of layer (or Background) at progress p in
// [0,1]. Fade-out is not applied here; see Fade.
func (m *Model) Transform(layer int, p float64) LayerTransform {
	p = clamp01(p)
	e := EaseInOutCubic(p)
	t := LayerTransform{Scale: 1}

	switch {
	case m.desc.ConstantZoom:
		t.Scale = 1 + m.amp/2
	case m.desc.Zoom != 0:
		ez := e
		if m.desc.Zoom < 0 {
			ez = EaseInOutCubic(1 - p)
		}
		if layer == Background {
			t.Scale = 1 + m.amp*ez
		} else {
			depthShare := float64(m.layers-layer) / float64(m.layers)
			t.Scale = 1 + m.amp*ez*(1+m.multipliers[layer]*depthShare)
		}
	}

	if m.desc.pans() {
		rate := e * m.settings.Speed * PanRate * m.amp
		if layer == Background {
			rate *= BackgroundPanFactor
		} else {
			rate *= m.multipliers[layer]
		}
		t.TranslateX = m.desc.PanX * rate
		t.TranslateY = m.desc.PanY * rate
	}
	return t
}

// Rotation returns the global rotation in radians at progress p.
func (m *Model) Rotation(p float64) float64 {
	deg := m.settings.SpinDegrees * clamp01(p) * m.settings.SpinDirection.Sign()
	return deg * math.Pi / 180
}

// CoverScale is the smallest uniform scale at which a w×h rectangle rotated
// by angle still covers the unrotated w×h canvas. It is always >= 1.
func CoverScale(angle, w, h float64) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	c := math.Abs(math.Cos(angle))
	s := math.Abs(math.Sin(angle))
	return math.Max(1, math.Max(c+(h/w)*s, (w/h)*s+c))
}

// PanCover is the smallest background scale at which a w×h image shifted by
// t still covers the w×h canvas: the shifted edge must stay outside the
// canvas on both axes. The result is never below t.Scale.
func PanCover(t LayerTransform, w, h float64) float64 {
	if w <= 0 || h <= 0 {
		return t.Scale
	}
	need := math.Max(1+2*math.Abs(t.TranslateX)/w, 1+2*math.Abs(t.TranslateY)/h)
	return math.Max(t.Scale, need)
}

// Fade returns the background alpha and the extra background scale factor at
// progress p. Without FadeOut the result is (1, 1).
func (m *Model) Fade(p float64) (alpha, boost float64) {
	if !m.settings.FadeOut {
		return 1, 1
	}
	e := EaseInOutCubic(clamp01(p))
	if e < FadeThreshold {
		return 1, 1
	}

	// The fade completes when one second of animation remains.
	end := EaseInOutCubic(clamp01(1 - 1/m.settings.Duration))
	t := 1.0
	if end > FadeThreshold {
		t = clamp01((e - FadeThreshold) / (end - FadeThreshold))
	}
	return FadeStartAlpha * (1 - t), 1 + FadeScaleBoost*t*t
}

// Plan computes the complete frame at progress p for a w×h canvas.
func (m *Model) Plan(p float64, w, h int) Frame {
	p = clamp01(p)
	f := Frame{
		Progress: p,
		Layers:   make([]LayerTransform, m.layers),
		Rotation: m.Rotation(p),
	}
	f.CoverScale = CoverScale(f.Rotation, float64(w), float64(h))

	f.Background = m.Transform(Background, p)
	// Pan offsets are absolute pixels; the nebula grows just enough that a
	// long pan on a small canvas never exposes an edge. Star layers are
	// transparent outside stars and are left alone.
	f.Background.Scale = PanCover(f.Background, float64(w), float64(h))
	alpha, boost := m.Fade(p)
	f.BackgroundAlpha = alpha
	f.Background.Scale *= boost

	for i := range f.Layers {
		f.Layers[i] = m.Transform(i, p)
	}
	return f
}
