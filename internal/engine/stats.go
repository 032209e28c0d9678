package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codahale/hdrhistogram"
)

const maxLatencyUS = 60_000_000

// Stats collects per-frame render latency and stage timings for the
// performance report.
type Stats struct {
	Start      time.Time
	BuildTime  time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
	Frames     int

	latency *hdrhistogram.Histogram // microseconds
}

func NewStats() *Stats {
	return &Stats{
		Start:   time.Now(),
		latency: hdrhistogram.New(1, maxLatencyUS, 3),
	}
}

// RecordFrame adds one frame render latency. A nil Stats ignores it.
func (s *Stats) RecordFrame(d time.Duration) {
	if s == nil {
		return
	}
	s.Frames++
	us := min(max(d.Microseconds(), 1), maxLatencyUS)
	s.latency.RecordValue(us)
}

// Latency returns the p50, p95 and max frame render time.
func (s *Stats) Latency() (p50, p95, maxLatency time.Duration) {
	us := func(v int64) time.Duration { return time.Duration(v) * time.Microsecond }
	return us(s.latency.ValueAtQuantile(50)), us(s.latency.ValueAtQuantile(95)), us(s.latency.Max())
}

// Report prints the performance report and appends a line to benchmark.log.
func (s *Stats) Report(build, input string) {
	total := time.Since(s.Start)
	p50, p95, maxLatency := s.Latency()
	fps := 0.0
	if total > 0 {
		fps = float64(s.Frames) / total.Seconds()
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Layers (CPU): %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding (GPU/CPU): %.2fs\n"+
			"Frame latency p50/p95/max: %s / %s / %s\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		build, total.Seconds(), s.BuildTime.Seconds(), s.RenderTime.Seconds(), s.EncodeTime.Seconds(),
		p50, p95, maxLatency, fps,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | p95: %s | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(input),
		s.Frames,
		total.Seconds(),
		s.RenderTime.Seconds(),
		s.EncodeTime.Seconds(),
		p95,
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
