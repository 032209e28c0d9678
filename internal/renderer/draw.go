package renderer

import (
	"image"

	"github.com/ivlev/star2video/internal/effects"
	"github.com/ivlev/star2video/internal/motion"
)

// drawLocked renders progress p in [0,1] onto the canvas. r.mu must be held.
func (r *Renderer) drawLocked(p float64) {
	w, h := r.set.Width, r.set.Height
	plan := r.model.Plan(p, w, h)
	r.plan = plan

	fillBlack(r.canvas)

	pulse := 0.0
	if r.settings.Hyperspeed {
		pulse = effects.Pulse(plan.Progress)
	}

	if plan.BackgroundAlpha > 0 {
		r.project(r.set.Background, plan, plan.Background, 1)
		r.whirlpool.Apply(r.scratch, pulse)
		effects.Blend(r.canvas, r.scratch, effects.Normal, plan.BackgroundAlpha, effects.Neutral)
	}

	n := len(r.set.Layers)
	for i := n - 1; i >= 0; i-- {
		layer := r.set.Layers[i]
		if len(layer.Regions) == 0 {
			continue
		}
		t := plan.Layers[i]
		mode, alpha := LayerMode(i), LayerAlpha(i, n)

		for _, pass := range effects.Trails(pulse) {
			r.project(layer.Raster, plan, t, pass.Scale)
			effects.Blend(r.canvas, r.scratch, mode, alpha*pass.Alpha, pass.Tint)
		}

		r.project(layer.Raster, plan, t, 1)
		effects.Blend(r.canvas, r.scratch, mode, alpha, effects.Neutral)

		for _, pass := range effects.Chromatic(pulse) {
			r.project(layer.Raster, plan, t, pass.Scale)
			effects.Blend(r.canvas, r.scratch, effects.Lighter, alpha*pass.Alpha, pass.Tint)
		}
	}

	r.vignette.Apply(r.canvas, pulse)
}

// project draws img into the cleared scratch buffer through the global view
// (rotation about the centre plus cover scale), an optional extra scale about
// the centre, and the layer transform.
func (r *Renderer) project(img *image.RGBA, plan motion.Frame, t motion.LayerTransform, extra float64) {
	clear(r.scratch.Pix)

	dc := r.dc
	cx, cy := float64(r.set.Width)/2, float64(r.set.Height)/2

	dc.Push()
	dc.Translate(cx, cy)
	dc.Rotate(plan.Rotation)
	dc.Scale(plan.CoverScale*extra, plan.CoverScale*extra)
	dc.Translate(t.TranslateX, t.TranslateY)
	dc.Scale(t.Scale, t.Scale)
	dc.Translate(-cx, -cy)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

func fillBlack(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 255
	}
}
