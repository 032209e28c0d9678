package motion

import "math"

// DepthSchedule assigns each star layer a nominal depth Near*Growth^i. The
// constants were tuned by eye against the stereo generator; they are
// exported so they can be recalibrated.
type DepthSchedule struct {
	Near   float64
	Growth float64
}

var DefaultDepthSchedule = DepthSchedule{Near: 1.0, Growth: 1.22}

// MinMultiplier keeps the farthest layers from freezing or reversing.
const MinMultiplier = 0.02

// Depths returns the perturbed depth of each of n layers. ratio is the
// stereo displacement ratio; the farthest layer is pushed back by (1+ratio).
func (s DepthSchedule) Depths(n int, ratio float64) []float64 {
	d := make([]float64, n)
	for i := range d {
		d[i] = s.Near * math.Pow(s.Growth, float64(i))
		if n > 1 {
			d[i] *= 1 + ratio*float64(i)/float64(n-1)
		}
	}
	return d
}

// Multipliers returns the parallax multiplier of each layer: inverse depth,
// with its spread around 1 scaled by depthIntensity/50.
func (s DepthSchedule) Multipliers(n int, ratio, depthIntensity float64) []float64 {
	depths := s.Depths(n, ratio)
	m := make([]float64, n)
	k := depthIntensity / 50
	for i, d := range depths {
		m[i] = math.Max(MinMultiplier, 1+(1/d-1)*k)
	}
	return m
}
