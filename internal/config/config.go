package config

// Config: параметры запуска CLI. Настройки анимации живут отдельно
// в AnimationSettings, чтобы их можно было хранить в YAML-пресетах.
type Config struct {
	StarsPath      string
	BackgroundPath string
	OutputVideo    string
	SettingsPath   string
	FPS            int
	MaxLongEdge    int
	VideoEncoder   string
	Quality        int
	Preset         string
	Detector       string
	StillAt        float64
	StillPath      string
	Preview        bool
	DebugDir       string
	CreditURL      string
	ShowStats      bool
	BuildVersion   string
}

const (
	DefaultFPS         = 30
	DefaultMaxLongEdge = 4096
)
