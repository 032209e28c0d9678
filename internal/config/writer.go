package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// WriteSettings writes settings to a YAML preset file.
func WriteSettings(s AnimationSettings, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadSettings reads a YAML preset on top of Defaults, so a preset only needs
// the fields it changes. The result is clamped.
func LoadSettings(path string) (AnimationSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AnimationSettings{}, err
	}

	s := Defaults()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return AnimationSettings{}, err
	}

	return s.Clamp(), nil
}
