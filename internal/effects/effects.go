// Package effects holds the per-pixel blend modes and the hyperspeed post
// effects. Everything works on premultiplied *image.RGBA buffers.
package effects

import (
	"image"
	"math"
)

// Effect is a full-frame process driven by the hyperspeed pulse.
type Effect interface {
	Apply(frame *image.RGBA, pulse float64)
}

const (
	pulseStart   = 0.05
	pulseFullIn  = 0.2
	pulseFullOut = 0.8
	pulseEnd     = 0.95
)

// Pulse is the hyperspeed strength at progress p in [0,1]: sin²(πp) shaped by
// an envelope that is zero before 5% and after 95%, so the first and last
// frames stay undistorted.
func Pulse(p float64) float64 {
	return math.Pow(math.Sin(math.Pi*p), 2) * envelope(p)
}

func envelope(p float64) float64 {
	switch {
	case p <= pulseStart || p >= pulseEnd:
		return 0
	case p < pulseFullIn:
		return (p - pulseStart) / (pulseFullIn - pulseStart)
	case p > pulseFullOut:
		return (pulseEnd - p) / (pulseEnd - pulseFullOut)
	default:
		return 1
	}
}

// Pass is one extra draw of a star layer: an additional scale about the
// canvas centre, an opacity and a color tint.
type Pass struct {
	Scale float64
	Alpha float64
	Tint  Tint
}

const (
	TrailSteps      = 3
	trailSpacing    = 0.035
	trailAlpha      = 0.45
	chromaticOffset = 0.012
	chromaticAlpha  = 0.55
)

var (
	RedShift  = Tint{1, 0.35, 0.35}
	BlueShift = Tint{0.35, 0.35, 1}
)

// Trails returns the motion-trail copies for the given pulse: each step sits
// further back toward the centre with a lower alpha.
func Trails(pulse float64) []Pass {
	if pulse <= 0 {
		return nil
	}
	passes := make([]Pass, TrailSteps)
	for k := range passes {
		step := float64(k + 1)
		passes[k] = Pass{
			Scale: 1 - trailSpacing*step*pulse,
			Alpha: trailAlpha * pulse * (1 - step/float64(TrailSteps+1)),
			Tint:  Neutral,
		}
	}
	return passes
}

// Chromatic returns the red (outward) and blue (inward) Doppler passes.
func Chromatic(pulse float64) []Pass {
	if pulse <= 0 {
		return nil
	}
	d := chromaticOffset * pulse
	return []Pass{
		{Scale: 1 + d, Alpha: chromaticAlpha * pulse, Tint: RedShift},
		{Scale: 1 - d, Alpha: chromaticAlpha * pulse, Tint: BlueShift},
	}
}
