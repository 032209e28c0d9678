package config

import (
	"fmt"
	"math"
	"strings"
)

// MotionType is one member of the closed set of camera motions.
type MotionType string

const (
	ZoomIn  MotionType = "zoom_in"
	ZoomOut MotionType = "zoom_out"

	PanLeft      MotionType = "pan_left"
	PanRight     MotionType = "pan_right"
	PanUp        MotionType = "pan_up"
	PanDown      MotionType = "pan_down"
	PanUpLeft    MotionType = "pan_up_left"
	PanUpRight   MotionType = "pan_up_right"
	PanDownLeft  MotionType = "pan_down_left"
	PanDownRight MotionType = "pan_down_right"
)

// Pans lists the eight pan directions in a stable order.
var Pans = []MotionType{
	PanLeft, PanRight, PanUp, PanDown,
	PanUpLeft, PanUpRight, PanDownLeft, PanDownRight,
}

// MotionTypes returns every supported motion type: the two zooms, eight pans
// and each zoom combined with each pan.
func MotionTypes() []MotionType {
	out := []MotionType{ZoomIn, ZoomOut}
	out = append(out, Pans...)
	for _, z := range []MotionType{ZoomIn, ZoomOut} {
		for _, p := range Pans {
			out = append(out, Combine(z, p))
		}
	}
	return out
}

// Combine builds a zoom+pan motion type, e.g. zoom_in_pan_left.
func Combine(zoom, pan MotionType) MotionType {
	return MotionType(string(zoom) + "_" + string(pan))
}

// ParseMotionType accepts both snake_case and dash-separated names.
func ParseMotionType(s string) (MotionType, error) {
	norm := MotionType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, m := range MotionTypes() {
		if m == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown motion type %q", s)
}

type SpinDirection string

const (
	Clockwise        SpinDirection = "clockwise"
	CounterClockwise SpinDirection = "counterclockwise"
)

// Sign is +1 for clockwise and -1 otherwise.
func (d SpinDirection) Sign() float64 {
	if d == CounterClockwise {
		return -1
	}
	return 1
}

// AnimationSettings: неизменяемые на время прогона параметры анимации.
type AnimationSettings struct {
	MotionType    MotionType    `yaml:"motion_type"`
	Speed         float64       `yaml:"speed"`
	Duration      float64       `yaml:"duration"`      // секунды
	Amplification float64       `yaml:"amplification"` // проценты
	SpinDegrees   float64       `yaml:"spin_degrees"`
	SpinDirection SpinDirection `yaml:"spin_direction"`

	DepthIntensity float64 `yaml:"depth_intensity"`
	FadeOut        bool    `yaml:"fade_out"`
	Hyperspeed     bool    `yaml:"hyperspeed"`

	// Stereo calibration inputs: the parallax schedule is perturbed by
	// StarShiftAmount / HorizontalDisplace.
	HorizontalDisplace float64 `yaml:"horizontal_displace"`
	StarShiftAmount    float64 `yaml:"star_shift_amount"`

	LayerCount            int     `yaml:"layer_count"`
	PreservationIntensity float64 `yaml:"preservation_intensity"`
	CleanCore             bool    `yaml:"clean_core"`
}

// Допустимые диапазоны числовых параметров.
const (
	MinSpeed, MaxSpeed                 = 0.1, 5.0
	MinDuration, MaxDuration           = 1.0, 120.0
	MinAmplification, MaxAmplification = 0.0, 300.0
	MaxSpinDegrees                     = 360.0
	MinLayers, MaxLayers               = 1, 32
)

func Defaults() AnimationSettings {
	return AnimationSettings{
		MotionType:            ZoomIn,
		Speed:                 1,
		Duration:              10,
		Amplification:         100,
		SpinDirection:         Clockwise,
		DepthIntensity:        50,
		HorizontalDisplace:    20,
		StarShiftAmount:       5,
		LayerCount:            12,
		PreservationIntensity: 50,
	}
}

// Clamp pulls every numeric field into its supported range. Unknown enum
// values fall back to the defaults.
func (s AnimationSettings) Clamp() AnimationSettings {
	d := Defaults()
	if _, err := ParseMotionType(string(s.MotionType)); err != nil {
		s.MotionType = d.MotionType
	}
	if s.SpinDirection != Clockwise && s.SpinDirection != CounterClockwise {
		s.SpinDirection = d.SpinDirection
	}
	s.Speed = clamp(s.Speed, MinSpeed, MaxSpeed)
	s.Duration = clamp(s.Duration, MinDuration, MaxDuration)
	s.Amplification = clamp(s.Amplification, MinAmplification, MaxAmplification)
	s.SpinDegrees = clamp(s.SpinDegrees, 0, MaxSpinDegrees)
	s.DepthIntensity = clamp(s.DepthIntensity, 0, 100)
	s.PreservationIntensity = clamp(s.PreservationIntensity, 0, 100)
	s.HorizontalDisplace = math.Max(0, nanTo(s.HorizontalDisplace, 0))
	s.StarShiftAmount = math.Max(0, nanTo(s.StarShiftAmount, 0))
	if s.LayerCount < MinLayers {
		s.LayerCount = MinLayers
	}
	if s.LayerCount > MaxLayers {
		s.LayerCount = MaxLayers
	}
	return s
}

// Validate rejects settings that Clamp would have to alter.
func (s AnimationSettings) Validate() error {
	if _, err := ParseMotionType(string(s.MotionType)); err != nil {
		return err
	}
	if s.SpinDirection != Clockwise && s.SpinDirection != CounterClockwise {
		return fmt.Errorf("unknown spin direction %q", s.SpinDirection)
	}
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"speed", s.Speed, MinSpeed, MaxSpeed},
		{"duration", s.Duration, MinDuration, MaxDuration},
		{"amplification", s.Amplification, MinAmplification, MaxAmplification},
		{"spin_degrees", s.SpinDegrees, 0, MaxSpinDegrees},
		{"depth_intensity", s.DepthIntensity, 0, 100},
		{"preservation_intensity", s.PreservationIntensity, 0, 100},
		{"layer_count", float64(s.LayerCount), MinLayers, MaxLayers},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || c.v < c.min || c.v > c.max {
			return fmt.Errorf("%s = %v is outside [%v, %v]", c.name, c.v, c.min, c.max)
		}
	}
	if s.HorizontalDisplace < 0 || s.StarShiftAmount < 0 {
		return fmt.Errorf("stereo calibration values must be non-negative")
	}
	return nil
}

// DisplacementRatio is StarShiftAmount/HorizontalDisplace, or 0 when the
// displacement is unset.
func (s AnimationSettings) DisplacementRatio() float64 {
	if s.HorizontalDisplace <= 0 {
		return 0
	}
	return s.StarShiftAmount / s.HorizontalDisplace
}

func clamp(v, lo, hi float64) float64 {
	v = nanTo(v, lo)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nanTo(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return v
}
