package analyzer

import "math"

// MinRegionPixels is the smallest region kept; anything below is noise.
const MinRegionPixels = 3

// Thresholds derived from the preservation intensity. Low intensity keeps
// only bright cores; high intensity admits full halos and spikes.
type Thresholds struct {
	Core      float64 // seed luminance
	Expansion float64 // growth admission luminance
	MaxRegion int     // pixels per region
	ShrinkCap int     // largest Size kept by Shrink
}

// ThresholdsFor maps intensity in [0,100] to segmentation thresholds.
func ThresholdsFor(intensity float64) Thresholds {
	t := math.Max(0, math.Min(100, intensity)) / 100
	return Thresholds{
		Core:      lerp(200, 120, t),
		Expansion: lerp(90, 25, t),
		MaxRegion: int(math.Round(lerp(40, 4000, t))),
		ShrinkCap: int(math.Round(lerp(8, 64, t))),
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
