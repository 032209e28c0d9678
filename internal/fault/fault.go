// Package fault defines the error taxonomy shared by the build, render and
// export stages.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStars is returned when segmentation finds nothing to animate.
	ErrNoStars = &InputError{Reason: "no stars detected in the stars-only image"}

	// ErrNotReady marks a render request issued before every layer raster and
	// the background are available. Interactive callers skip the frame silently.
	ErrNotReady = errors.New("layers are not ready")
)

// InputError reports a missing or unusable input: empty rasters, mismatched
// dimensions, invalid settings or an image without stars.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "input: " + e.Reason
}

// Inputf builds an InputError with a formatted reason.
func Inputf(format string, args ...any) error {
	return &InputError{Reason: fmt.Sprintf(format, args...)}
}

// ResourceError reports an allocation or memory budget failure while building
// large rasters.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	if e.Err == nil {
		return "resource: " + e.Op
	}
	return fmt.Sprintf("resource: %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// EncodingError reports a video encoder that rejected a frame or failed to
// finalize the container.
type EncodingError struct {
	Stage string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding (%s): %v", e.Stage, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// IsInput reports whether err is, or wraps, an InputError.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsResource reports whether err is, or wraps, a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

// IsEncoding reports whether err is, or wraps, an EncodingError.
func IsEncoding(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}
