package renderer

import (
	"context"
	"image"
	"time"
)

// DefaultRefreshRate approximates a display refresh.
const DefaultRefreshRate = 60

// Player drives a Renderer from a ticker, the way a display refresh
// callback would. Ticks while layers are not ready are skipped and the last
// good frame stays on the canvas.
type Player struct {
	Renderer    *Renderer
	RefreshRate int // Hz

	// OnFrame receives the live canvas after every drawn frame. It must not
	// keep the image past the call.
	OnFrame func(frame *image.RGBA, progress float64)
}

// Run plays until the animation completes or ctx is cancelled. Cancellation
// pauses the renderer so a later Run resumes where it stopped.
func (p *Player) Run(ctx context.Context) error {
	rate := p.RefreshRate
	if rate <= 0 {
		rate = DefaultRefreshRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	r := p.Renderer
	r.Start(time.Now())

	for {
		select {
		case <-ctx.Done():
			r.Pause(time.Now())
			return ctx.Err()
		case now := <-ticker.C:
			if r.Tick(now) && p.OnFrame != nil {
				p.OnFrame(r.Frame(), r.Progress())
			}
			if r.State() == Complete {
				return nil
			}
		}
	}
}
