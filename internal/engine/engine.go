// Package engine ties the pipeline together: it builds layers from a
// stars/starless pair, captures frames at explicit progress values and hands
// them to the video encoder.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ivlev/star2video/internal/analyzer"
	"github.com/ivlev/star2video/internal/config"
	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/layers"
	"github.com/ivlev/star2video/internal/renderer"
	"github.com/ivlev/star2video/internal/source"
	"github.com/ivlev/star2video/internal/system"
	"github.com/ivlev/star2video/internal/video"
)

type Project struct {
	Config   *config.Config
	Settings config.AnimationSettings
	Encoder  video.VideoEncoder
	Detector analyzer.Detector
	Renderer *renderer.Renderer

	// SettlePerMegapixel is an extra pause after each exported frame.
	SettlePerMegapixel time.Duration

	JobID string
	Stats *Stats
}

func NewProject(cfg *config.Config, settings config.AnimationSettings, ve video.VideoEncoder, det analyzer.Detector) *Project {
	return &Project{
		Config:   cfg,
		Settings: settings,
		Encoder:  ve,
		Detector: det,
		Renderer: renderer.New(settings),
		JobID:    uuid.NewString(),
		Stats:    NewStats(),
	}
}

// Load decodes the configured input pair and builds layers from it.
func (p *Project) Load(ctx context.Context) error {
	pair, err := source.LoadPair(ctx, p.Config.StarsPath, p.Config.BackgroundPath, p.Config.MaxLongEdge)
	if err != nil {
		return err
	}
	return p.Build(ctx, pair)
}

// Build segments the pair into depth layers and installs them into the
// renderer. With Config.DebugDir set the layer rasters are dumped there too.
func (p *Project) Build(ctx context.Context, pair source.Pair) error {
	start := time.Now()
	w, h := pair.Size()
	fmt.Printf("[*] Анализ звезд: %dx%d, слоев: %d, сохранение: %.0f%%\n",
		w, h, p.Settings.LayerCount, p.Settings.PreservationIntensity)

	det := p.Detector
	if det == nil && p.Settings.CleanCore {
		var err error
		if det, err = analyzer.NewDetector("clean", p.Settings.PreservationIntensity); err != nil {
			return err
		}
	}

	set, err := layers.Build(ctx, pair.Stars, pair.Background, layers.Options{
		LayerCount: p.Settings.LayerCount,
		Intensity:  p.Settings.PreservationIntensity,
		Detector:   det,
	})
	if err != nil {
		return err
	}
	if err := p.Renderer.SetLayers(set); err != nil {
		set.Release()
		return err
	}
	if p.Stats != nil {
		p.Stats.BuildTime = time.Since(start)
	}

	fmt.Printf("[*] Найдено звезд: %d (сжато: %d) за %v\n", set.RegionCount(), set.Shrunk, time.Since(start).Round(time.Millisecond))
	for _, l := range set.Layers {
		system.Logf("[*] Слой %02d: звезд %d, порог размера %.1f", l.Index, len(l.Regions), l.MinSize)
	}

	if p.Config.DebugDir != "" {
		if err := layers.WriteReport(set, p.Config.DebugDir); err != nil {
			fmt.Printf("[!] Не удалось сохранить отладочные слои: %v\n", err)
		} else {
			fmt.Printf("[*] Отладочные слои сохранены в %s\n", p.Config.DebugDir)
		}
	}
	return nil
}

// TotalFrames for the configured duration and frame rate.
func (p *Project) TotalFrames() int {
	return FrameCount(p.Settings.Duration, p.fps())
}

func (p *Project) fps() int {
	if p.Config.FPS <= 0 {
		return config.DefaultFPS
	}
	return p.Config.FPS
}

// Export captures every frame and encodes them into out. Nothing is written
// to out unless encoding succeeds.
func (p *Project) Export(ctx context.Context, out io.Writer) error {
	if !p.Renderer.Ready() {
		return fault.ErrNotReady
	}
	total := p.TotalFrames()
	if total == 0 {
		return fault.Inputf("duration %.2fs at %d fps gives no frames", p.Settings.Duration, p.fps())
	}
	frame := p.Renderer.Frame()
	w, h := frame.Rect.Dx(), frame.Rect.Dy()

	tempDir, err := os.MkdirTemp("", "star2video_"+p.JobID+"_")
	if err != nil {
		return &fault.ResourceError{Op: "temp dir", Err: err}
	}
	defer os.RemoveAll(tempDir)

	fb, err := video.NewFrameBuffer(w, h, total, tempDir)
	if err != nil {
		return &fault.ResourceError{Op: "frame buffer", Err: err}
	}
	defer fb.Close()

	opts := CaptureOptions{
		SettlePerMegapixel: p.SettlePerMegapixel,
		Stats:              p.Stats,
		OnFrame:            progressPrinter(),
	}
	if p.Config.CreditURL != "" {
		wm, err := NewWatermark(p.Config.CreditURL, WatermarkSize(w, h))
		if err != nil {
			fmt.Printf("[!] Водяной знак отключен: %v\n", err)
		} else {
			opts.Watermark = wm
		}
	}

	fmt.Printf("[*] Рендеринг %d кадров (%dx%d, %d fps)...\n", total, w, h, p.fps())
	renderStart := time.Now()
	if err := Capture(ctx, p.Renderer, total, fb, opts); err != nil {
		fmt.Println()
		return fmt.Errorf("capture: %w", err)
	}
	fmt.Println()
	if p.Stats != nil {
		p.Stats.RenderTime = time.Since(renderStart)
	}

	ext := filepath.Ext(p.Config.OutputVideo)
	if ext == "" {
		ext = ".mp4"
	}
	tmpOut := filepath.Join(tempDir, "video"+ext)

	fmt.Printf("[*] Кодирование (%s)...\n", p.Config.VideoEncoder)
	encodeStart := time.Now()
	err = p.Encoder.Encode(ctx, fb, video.EncodeParams{
		Width:   w,
		Height:  h,
		FPS:     p.fps(),
		Encoder: p.Config.VideoEncoder,
		Quality: p.Config.Quality,
	}, tmpOut)
	if err != nil {
		return err
	}
	if p.Stats != nil {
		p.Stats.EncodeTime = time.Since(encodeStart)
	}

	if _, err := video.CopyFile(out, tmpOut); err != nil {
		return &fault.EncodingError{Stage: "copy", Err: err}
	}

	if p.Config.ShowStats && p.Stats != nil {
		p.Stats.Report(p.Config.BuildVersion, p.Config.StarsPath)
	}
	return nil
}

// ExportFile is Export into a file at path. A failed export leaves no file.
func (p *Project) ExportFile(ctx context.Context, path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return p.Export(ctx, f)
}

// Still renders one frame at progress (0..100) into a PNG file.
func (p *Project) Still(progress float64, path string) error {
	frame, err := p.Renderer.RenderAt(min(max(progress, 0), 100))
	if err != nil {
		return err
	}
	snap := image.NewRGBA(frame.Rect)
	copy(snap.Pix, frame.Pix)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, snap); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Preview plays the animation in real time and hands every drawn frame to
// onFrame. It returns when the animation completes or ctx is cancelled.
func (p *Project) Preview(ctx context.Context, onFrame func(frame *image.RGBA, progress float64)) error {
	if !p.Renderer.Ready() {
		return fault.ErrNotReady
	}
	p.Renderer.Reset()
	player := &renderer.Player{Renderer: p.Renderer, OnFrame: onFrame}
	err := player.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Printf("\n[!] Просмотр прерван на %.1f%%\n", p.Renderer.Progress())
	}
	return err
}

// Close releases the layer rasters.
func (p *Project) Close() {
	p.Renderer.Close()
}

func progressPrinter() func(i, total int, progress float64) {
	last := -1
	return func(i, total int, progress float64) {
		pct := int(progress)
		if pct == last && i != total-1 {
			return
		}
		last = pct
		fmt.Printf("\r[*] Кадры: %d/%d (%3d%%)", i+1, total, pct)
	}
}
