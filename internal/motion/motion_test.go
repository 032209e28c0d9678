package motion

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ivlev/star2video/internal/config"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func settings(m config.MotionType) config.AnimationSettings {
	s := config.Defaults()
	s.MotionType = m
	return s
}

func newModel(t *testing.T, s config.AnimationSettings, n int) *Model {
	t.Helper()
	m, err := NewModel(s, n)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func TestEaseInOutCubic(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0}, {0.25, 0.0625}, {0.5, 0.5}, {0.75, 0.9375}, {1, 1},
	}
	for _, tt := range tests {
		if got := EaseInOutCubic(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("EaseInOutCubic(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEveryMotionTypeHasDescriptor(t *testing.T) {
	for _, mt := range config.MotionTypes() {
		d, ok := Describe(mt)
		if !ok {
			t.Errorf("no descriptor for %s", mt)
			continue
		}
		if d.Diagonal && math.Abs(math.Hypot(d.PanX, d.PanY)-1) > 1e-12 {
			t.Errorf("%s: diagonal direction is not unit length", mt)
		}
	}
}

func TestMultipliers(t *testing.T) {
	m := DefaultDepthSchedule.Multipliers(12, 0, 50)
	if m[0] != 1 {
		t.Errorf("nearest multiplier = %v, want 1", m[0])
	}
	for i := 1; i < len(m); i++ {
		if m[i] >= m[i-1] {
			t.Errorf("multiplier %d (%v) should be below %d (%v)", i, m[i], i-1, m[i-1])
		}
	}

	flat := DefaultDepthSchedule.Multipliers(12, 0.25, 0)
	for i, v := range flat {
		if v != 1 {
			t.Errorf("depth intensity 0: multiplier %d = %v, want 1", i, v)
		}
	}

	wide := DefaultDepthSchedule.Multipliers(12, 0.25, 100)
	for i, v := range wide {
		if v < MinMultiplier {
			t.Errorf("multiplier %d = %v below floor", i, v)
		}
	}
	if wide[11] >= m[11] {
		t.Error("higher depth intensity should spread multipliers further")
	}
}

func TestZoomInScenario(t *testing.T) {
	s := settings(config.ZoomIn)
	s.Amplification = 150
	s.Duration = 10
	s.FadeOut = false
	m := newModel(t, s, 12)

	start := m.Plan(0, 1920, 1080)
	end := m.Plan(1, 1920, 1080)
	if diff := cmp.Diff(1.0, start.Background.Scale, approx); diff != "" {
		t.Errorf("background scale at 0 (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2.5, end.Background.Scale, approx); diff != "" {
		t.Errorf("background scale at 100 (-want +got):\n%s", diff)
	}
	if end.BackgroundAlpha != 1 {
		t.Errorf("alpha without fade = %v", end.BackgroundAlpha)
	}
	// The closest layer grows fastest.
	if !(end.Layers[0].Scale > end.Layers[11].Scale && end.Layers[11].Scale > 1) {
		t.Errorf("unexpected layer scales %v .. %v", end.Layers[0].Scale, end.Layers[11].Scale)
	}
}

func TestZoomMirror(t *testing.T) {
	s := settings(config.ZoomIn)
	s.Amplification = 120
	in := newModel(t, s, 12)
	s.MotionType = config.ZoomOut
	out := newModel(t, s, 12)

	for _, p := range []float64{0, 0.1, 0.33, 0.5, 0.72, 0.9, 1} {
		for layer := Background; layer < 12; layer++ {
			got := in.Transform(layer, p)
			want := out.Transform(layer, 1-p)
			if diff := cmp.Diff(want, got, approx); diff != "" {
				t.Errorf("p=%v layer=%d (-zoom_out +zoom_in):\n%s", p, layer, diff)
			}
		}
	}
}

func TestPan(t *testing.T) {
	s := settings(config.PanRight)
	s.Amplification = 100
	s.Speed = 2
	m := newModel(t, s, 4)

	start := m.Transform(0, 0)
	if diff := cmp.Diff(LayerTransform{Scale: 1.5}, start, approx); diff != "" {
		t.Errorf("start (-want +got):\n%s", diff)
	}

	near := m.Transform(0, 1)
	want := LayerTransform{TranslateX: 2 * PanRate * m.Multiplier(0), Scale: 1.5}
	if diff := cmp.Diff(want, near, approx); diff != "" {
		t.Errorf("near layer (-want +got):\n%s", diff)
	}

	bg := m.Transform(Background, 1)
	if diff := cmp.Diff(2*PanRate*BackgroundPanFactor, bg.TranslateX, approx); diff != "" {
		t.Errorf("background pan (-want +got):\n%s", diff)
	}
	if far := m.Transform(3, 1); far.TranslateX >= near.TranslateX {
		t.Errorf("far layer should pan less: %v vs %v", far.TranslateX, near.TranslateX)
	}
}

func TestDiagonalPan(t *testing.T) {
	s := settings(config.PanUpLeft)
	m := newModel(t, s, 3)
	got := m.Transform(Background, 1)
	k := PanRate * BackgroundPanFactor / math.Sqrt2
	want := LayerTransform{TranslateX: -k, TranslateY: -k, Scale: 1.5}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("diagonal (-want +got):\n%s", diff)
	}
}

func TestCombinedZoomPan(t *testing.T) {
	s := settings(config.Combine(config.ZoomIn, config.PanDown))
	m := newModel(t, s, 3)
	got := m.Transform(Background, 1)
	want := LayerTransform{TranslateY: PanRate * BackgroundPanFactor, Scale: 2}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("combined (-want +got):\n%s", diff)
	}
}

func TestRotation(t *testing.T) {
	s := settings(config.ZoomIn)
	s.SpinDegrees = 90
	m := newModel(t, s, 2)
	if got := m.Rotation(0.5); math.Abs(got-math.Pi/4) > 1e-12 {
		t.Errorf("clockwise rotation = %v", got)
	}
	s.SpinDirection = config.CounterClockwise
	m = newModel(t, s, 2)
	if got := m.Rotation(1); math.Abs(got+math.Pi/2) > 1e-12 {
		t.Errorf("counterclockwise rotation = %v", got)
	}
}

// corners of the canvas, mapped back through the inverse of
// rotate(angle)·scale(k) about the centre, must land inside the source.
func uncovered(angle, k, w, h float64) bool {
	cx, cy := w/2, h/2
	cos, sin := math.Cos(-angle), math.Sin(-angle)
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		dx, dy := c[0]-cx, c[1]-cy
		x := (dx*cos-dy*sin)/k + cx
		y := (dx*sin+dy*cos)/k + cy
		if x < -1e-9 || y < -1e-9 || x > w+1e-9 || y > h+1e-9 {
			return true
		}
	}
	return false
}

func TestCoverScale(t *testing.T) {
	sizes := [][2]float64{{1920, 1080}, {1080, 1920}, {500, 500}}
	for _, sz := range sizes {
		for deg := 0.0; deg <= 360; deg += 7.5 {
			angle := deg * math.Pi / 180
			k := CoverScale(angle, sz[0], sz[1])
			if k < 1 {
				t.Fatalf("%vx%v at %v°: scale %v < 1", sz[0], sz[1], deg, k)
			}
			if uncovered(angle, k, sz[0], sz[1]) {
				t.Errorf("%vx%v at %v°: uncovered corner with scale %v", sz[0], sz[1], deg, k)
			}
		}
	}

	// At 90° a 16:9 canvas needs the full aspect ratio.
	if got := CoverScale(math.Pi/2, 1920, 1080); math.Abs(got-1920.0/1080) > 1e-9 {
		t.Errorf("CoverScale(90°) = %v", got)
	}
	if !uncovered(math.Pi/2, 1, 1920, 1080) {
		t.Error("an unscaled 90° rotation must leave corners uncovered")
	}
}

func TestFade(t *testing.T) {
	s := settings(config.ZoomIn)
	s.FadeOut = true
	s.Duration = 10
	m := newModel(t, s, 4)

	if a, b := m.Fade(0.3); a != 1 || b != 1 {
		t.Errorf("before threshold: alpha %v boost %v", a, b)
	}

	// Just past the threshold the nebula drops to 0.85 and starts fading.
	p := 0.6 // ease = 0.744
	a, b := m.Fade(p)
	if a > FadeStartAlpha || a <= 0 || b <= 1 {
		t.Errorf("mid fade: alpha %v boost %v", a, b)
	}

	end, boost := m.Fade(0.9)
	if end != 0 || math.Abs(boost-1.15) > 1e-12 {
		t.Errorf("fade should be complete with one second left: alpha %v boost %v", end, boost)
	}

	plan := m.Plan(0.95, 100, 100)
	if plan.BackgroundAlpha != 0 {
		t.Errorf("plan alpha = %v", plan.BackgroundAlpha)
	}
	if diff := cmp.Diff(m.Transform(Background, 0.95).Scale*1.15, plan.Background.Scale, approx); diff != "" {
		t.Errorf("boosted scale (-want +got):\n%s", diff)
	}
}

func TestNewModelErrors(t *testing.T) {
	if _, err := NewModel(settings("spiral"), 3); err == nil {
		t.Error("expected unknown motion error")
	}
	if _, err := NewModel(settings(config.ZoomIn), 0); err == nil {
		t.Error("expected layer count error")
	}
}

// backgroundUncovered reports whether the background placed by tr leaves a
// canvas edge exposed (rotation aside, which CoverScale handles).
func backgroundUncovered(tr LayerTransform, w, h float64) bool {
	return tr.Scale*w/2-math.Abs(tr.TranslateX) < w/2-1e-9 ||
		tr.Scale*h/2-math.Abs(tr.TranslateY) < h/2-1e-9
}

func TestPanKeepsBackgroundCovered(t *testing.T) {
	sizes := [][2]float64{{1920, 1080}, {1080, 1920}, {320, 240}}
	for _, m := range config.MotionTypes() {
		s := settings(m)
		s.Speed = 2
		s.Amplification = 200
		model := newModel(t, s, 6)
		for _, sz := range sizes {
			for p := 0.0; p <= 1; p += 0.05 {
				f := model.Plan(p, int(sz[0]), int(sz[1]))
				if backgroundUncovered(f.Background, sz[0], sz[1]) {
					t.Errorf("%s %vx%v at %.2f: background %+v leaves an edge", m, sz[0], sz[1], p, f.Background)
				}
			}
		}
	}

	// Default pan_up at 1080p used to end with a band at the bottom edge.
	model := newModel(t, settings(config.PanUp), 12)
	f := model.Plan(1, 1920, 1080)
	if raw := model.Transform(Background, 1); !backgroundUncovered(raw, 1920, 1080) {
		t.Fatalf("expected the raw pan to overshoot, got %+v", raw)
	}
	if diff := cmp.Diff(1+2*math.Abs(f.Background.TranslateY)/1080, f.Background.Scale, approx); diff != "" {
		t.Errorf("cover scale (-want +got):\n%s", diff)
	}
}

func TestPanCoverKeepsLargerScale(t *testing.T) {
	tr := LayerTransform{TranslateX: 10, Scale: 3}
	if got := PanCover(tr, 1000, 1000); got != 3 {
		t.Errorf("PanCover = %v, want 3", got)
	}
	if got := PanCover(LayerTransform{Scale: 1}, 100, 100); got != 1 {
		t.Errorf("PanCover without offset = %v, want 1", got)
	}
}
