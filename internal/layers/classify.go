package layers

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ivlev/star2video/internal/analyzer"
)

// SizeThresholds returns the n-1 size cut points, closest layer first. Cut k
// is the empirical quantile of the ascending sizes at 1-(k+1)/n.
func SizeThresholds(ascending []float64, n int) []float64 {
	if n <= 1 || len(ascending) == 0 {
		return nil
	}
	cuts := make([]float64, n-1)
	for k := range cuts {
		p := 1 - float64(k+1)/float64(n)
		cuts[k] = stat.Quantile(p, stat.Empirical, ascending, nil)
	}
	return cuts
}

// Classify buckets regions into n depth layers by apparent size. Layer 0 is
// the largest (closest). The result depends only on the region sizes, peak
// luminances and order, so it is deterministic.
func Classify(regions []analyzer.StarRegion, n int) []DepthLayer {
	if n < 1 {
		n = 1
	}
	layers := make([]DepthLayer, n)
	for i := range layers {
		layers[i].Index = i
	}
	if len(regions) == 0 {
		return layers
	}

	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := &regions[order[a]], &regions[order[b]]
		if ra.Size != rb.Size {
			return ra.Size > rb.Size
		}
		if ra.PeakLuminance != rb.PeakLuminance {
			return ra.PeakLuminance > rb.PeakLuminance
		}
		return order[a] < order[b]
	})

	ascending := make([]float64, len(order))
	for i, idx := range order {
		ascending[len(order)-1-i] = float64(regions[idx].Size)
	}
	cuts := SizeThresholds(ascending, n)

	for k := range layers {
		if k < len(cuts) {
			layers[k].MinSize = cuts[k]
		}
	}

	for _, idx := range order {
		r := regions[idx]
		layer := n - 1
		for k, cut := range cuts {
			if float64(r.Size) >= cut {
				layer = k
				break
			}
		}
		layers[layer].Regions = append(layers[layer].Regions, r)
	}
	return layers
}
