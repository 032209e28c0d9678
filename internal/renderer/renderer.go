// Package renderer draws animation frames from a layer set and drives the
// Idle/Running/Complete state machine for interactive playback.
package renderer

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/ivlev/star2video/internal/config"
	"github.com/ivlev/star2video/internal/effects"
	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/layers"
	"github.com/ivlev/star2video/internal/motion"
)

type State int

const (
	Idle State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "idle"
	}
}

const (
	// DefaultProgressInterval limits progress callbacks to about 30 per second.
	DefaultProgressInterval = time.Second / 30

	// The nearest layers are drawn additively; farther ones with screen.
	lighterLayers = 3
	baseAlpha     = 0.85
)

// LayerAlpha is the target opacity of star layer i out of n; nearer layers
// are slightly more opaque.
func LayerAlpha(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return baseAlpha + (1-baseAlpha)*(1-float64(i)/float64(n-1))
}

// LayerMode is the blend mode of star layer i.
func LayerMode(i int) effects.Mode {
	if i < lighterLayers {
		return effects.Lighter
	}
	return effects.Screen
}

// Renderer owns the canvas and the current layer set. All methods are safe
// for concurrent use; frames and layer swaps are serialized.
type Renderer struct {
	// OnProgress receives progress in [0,100] at most once per
	// ProgressInterval; the final 100 is always delivered.
	OnProgress       func(progress float64)
	OnComplete       func()
	ProgressInterval time.Duration

	mu       sync.Mutex
	settings config.AnimationSettings
	set      *layers.LayerSet
	model    *motion.Model

	canvas  *image.RGBA
	scratch *image.RGBA
	dc      *gg.Context

	// Post effects driven by the hyperspeed pulse.
	whirlpool effects.Effect // background only
	vignette  effects.Effect // whole frame

	state     State
	clock     AnimationClock
	plan      motion.Frame
	lastEmit  time.Time
	completed bool
}

// New creates a renderer with no layers; it is not Ready until SetLayers.
func New(settings config.AnimationSettings) *Renderer {
	return &Renderer{
		ProgressInterval: DefaultProgressInterval,
		settings:         settings,
		clock:            NewClock(time.Duration(settings.Duration * float64(time.Second))),
		whirlpool:        effects.NewWhirlpool(),
		vignette:         effects.NewVignette(),
	}
}

// SetLayers installs a new layer set, replacing the previous one between
// frames. The previous set is released.
func (r *Renderer) SetLayers(set *layers.LayerSet) error {
	if !set.Ready() {
		return fault.ErrNotReady
	}
	model, err := motion.NewModel(r.settings, len(set.Layers))
	if err != nil {
		return fmt.Errorf("motion model: %w", err)
	}

	r.mu.Lock()
	old := r.set
	r.set = set
	r.model = model
	if r.canvas == nil || r.canvas.Rect.Dx() != set.Width || r.canvas.Rect.Dy() != set.Height {
		rect := image.Rect(0, 0, set.Width, set.Height)
		r.canvas = image.NewRGBA(rect)
		r.scratch = image.NewRGBA(rect)
		r.dc = gg.NewContextForRGBA(r.scratch)
	}
	r.mu.Unlock()

	if old != nil && old != set {
		old.Release()
	}
	return nil
}

// Close releases the layer set.
func (r *Renderer) Close() {
	r.mu.Lock()
	set := r.set
	r.set, r.model = nil, nil
	r.mu.Unlock()
	set.Release()
}

// Ready reports whether all layer rasters and the background are available.
func (r *Renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readyLocked()
}

func (r *Renderer) readyLocked() bool {
	return r.model != nil && r.set.Ready()
}

func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Progress is the last wall-clock progress in [0,100].
func (r *Renderer) Progress() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.Progress()
}

// Start moves Idle to Running. A completed animation must be Reset first.
func (r *Renderer) Start(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Idle {
		return
	}
	r.state = Running
	r.clock = r.clock.Start(now)
}

// Pause moves Running back to Idle, keeping progress.
func (r *Renderer) Pause(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != Running {
		return
	}
	r.state = Idle
	r.clock = r.clock.Pause(now)
}

// Reset returns to Idle at progress 0 and forgets the last frame plan.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Idle
	r.clock = r.clock.Reset()
	r.plan = motion.Frame{}
	r.lastEmit = time.Time{}
	r.completed = false
}

// Tick advances the wall clock and draws one frame. It reports whether a
// frame was drawn; ticks while not Running or not Ready are skipped.
func (r *Renderer) Tick(now time.Time) bool {
	r.mu.Lock()
	if r.state != Running || !r.readyLocked() {
		r.mu.Unlock()
		return false
	}

	var progress float64
	r.clock, progress = r.clock.Advance(now)
	r.drawLocked(progress / 100)

	emit := progress >= 100 || r.lastEmit.IsZero() || now.Sub(r.lastEmit) >= r.ProgressInterval
	if emit {
		r.lastEmit = now
	}
	finished := false
	if progress >= 100 {
		r.state = Complete
		r.clock = r.clock.Pause(now)
		if !r.completed {
			r.completed = true
			finished = true
		}
	}
	onProgress, onComplete := r.OnProgress, r.OnComplete
	r.mu.Unlock()

	if emit && onProgress != nil {
		onProgress(progress)
	}
	if finished && onComplete != nil {
		onComplete()
	}
	return true
}

// RenderAt draws the frame at an explicit progress in [0,100], independent
// of the wall clock and the state machine. The returned canvas is reused by
// the next frame; callers that keep it must copy it.
func (r *Renderer) RenderAt(progress float64) (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.readyLocked() {
		return nil, fault.ErrNotReady
	}
	r.drawLocked(progress / 100)
	return r.canvas, nil
}

// Frame returns the live canvas, or nil before the first SetLayers.
func (r *Renderer) Frame() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canvas
}

// Snapshot copies the current canvas into a new image.
func (r *Renderer) Snapshot() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.canvas == nil {
		return nil
	}
	out := image.NewRGBA(r.canvas.Rect)
	copy(out.Pix, r.canvas.Pix)
	return out
}

// Plan returns the motion plan of the last drawn frame.
func (r *Renderer) Plan() motion.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plan
}
