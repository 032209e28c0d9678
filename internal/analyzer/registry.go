package analyzer

import "fmt"

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, intensity float64) (Detector, error) {
	switch variant {
	case "flood", "":
		return NewFloodDetector(intensity), nil
	case "clean":
		d := NewFloodDetector(intensity)
		d.CleanCore = true
		return d, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
