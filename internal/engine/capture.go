package engine

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"
)

// FrameRenderer renders a frame at an explicit progress in [0,100].
type FrameRenderer interface {
	RenderAt(progress float64) (*image.RGBA, error)
}

// FrameSink receives captured frames in order.
type FrameSink interface {
	Append(img *image.RGBA) error
}

// FrameCount is ceil(duration·fps). The product is nudged down by a tiny
// epsilon so that float noise (0.1·30 = 3.0000000000000004) does not add a
// frame.
func FrameCount(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Ceil(duration*float64(fps) - 1e-9))
}

// FrameProgress is the explicit progress of frame i out of total: evenly
// spaced from 0 to exactly 100 on the last frame.
func FrameProgress(i, total int) float64 {
	if total <= 1 || i >= total-1 {
		return 100
	}
	return float64(i) / float64(total-1) * 100
}

// CaptureOptions tune the capture loop.
type CaptureOptions struct {
	// SettlePerMegapixel waits after each render, scaled by frame size.
	SettlePerMegapixel time.Duration
	Watermark          *Watermark
	Stats              *Stats
	OnFrame            func(i, total int, progress float64)
}

// Capture renders total frames at explicit progress values and appends a
// copy of each to sink. The first failing frame aborts the capture.
func Capture(ctx context.Context, r FrameRenderer, total int, sink FrameSink, opts CaptureOptions) error {
	if total <= 0 {
		return fmt.Errorf("nothing to capture: %d frames", total)
	}

	var snapshot *image.RGBA
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress := FrameProgress(i, total)

		start := time.Now()
		frame, err := r.RenderAt(progress)
		if err != nil {
			return fmt.Errorf("frame %d/%d (%.2f%%): %w", i+1, total, progress, err)
		}
		opts.Stats.RecordFrame(time.Since(start))

		if opts.SettlePerMegapixel > 0 {
			mp := float64(frame.Rect.Dx()*frame.Rect.Dy()) / 1e6
			if err := sleepCtx(ctx, time.Duration(mp*float64(opts.SettlePerMegapixel))); err != nil {
				return err
			}
		}

		if snapshot == nil || snapshot.Rect != frame.Rect {
			snapshot = image.NewRGBA(frame.Rect)
		}
		copy(snapshot.Pix, frame.Pix)
		if opts.Watermark != nil {
			opts.Watermark.Stamp(snapshot)
		}
		if err := sink.Append(snapshot); err != nil {
			return fmt.Errorf("frame %d/%d: %w", i+1, total, err)
		}

		if opts.OnFrame != nil {
			opts.OnFrame(i, total, progress)
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
