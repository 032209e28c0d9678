package video

import (
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/system"
)

func init() {
	system.SetLogger(nil)
}

func frame(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestBuildFFmpegArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality []string
	}{
		{"libx264", []string{"-crf", "20", "-preset", "medium"}},
		{"h264_nvenc", []string{"-cq", "20"}},
		{"h264_videotoolbox", []string{"-b:v", "2000k"}},
	}

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			args := buildFFmpegArgs(EncodeParams{Width: 640, Height: 360, FPS: 30, Encoder: tt.encoder, Quality: 20}, "out.mp4")
			joined := strings.Join(args, " ")

			for _, want := range []string{
				"-f rawvideo", "-pixel_format rgba", "-video_size 640x360",
				"-framerate 30", "-i -", "-r 30", "-pix_fmt yuv420p", "-c:v " + tt.encoder,
				strings.Join(tt.quality, " "),
			} {
				if !strings.Contains(joined, want) {
					t.Errorf("args %q missing %q", joined, want)
				}
			}
			if args[len(args)-1] != "out.mp4" {
				t.Errorf("output must be last, got %q", args[len(args)-1])
			}
		})
	}
}

func TestFrameBufferOrder(t *testing.T) {
	for _, budget := range []uint64{1 << 30, 0} {
		fb, err := NewFrameBufferWithBudget(3, 2, 5, t.TempDir(), budget)
		if err != nil {
			t.Fatal(err)
		}
		if fb.Spilled() != (budget == 0) {
			t.Fatalf("budget %d: spilled = %v", budget, fb.Spilled())
		}

		for i := 0; i < 5; i++ {
			if err := fb.Append(frame(3, 2, uint8(i*10))); err != nil {
				t.Fatal(err)
			}
		}
		if fb.Len() != 5 {
			t.Fatalf("Len = %d", fb.Len())
		}

		var got []uint8
		err = fb.Each(func(i int, pix []byte) error {
			if len(pix) != 3*2*4 {
				t.Fatalf("frame %d has %d bytes", i, len(pix))
			}
			got = append(got, pix[0])
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, []uint8{0, 10, 20, 30, 40}) {
			t.Errorf("budget %d: frames out of order: %v", budget, got)
		}

		if err := fb.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestFrameBufferPacksStride(t *testing.T) {
	fb, err := NewFrameBufferWithBudget(2, 2, 1, "", 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	defer fb.Close()

	big := frame(4, 2, 0)
	sub := big.SubImage(image.Rect(1, 0, 3, 2)).(*image.RGBA)
	sub.Pix[0] = 7 // (1,0) red
	if err := fb.Append(sub); err != nil {
		t.Fatal(err)
	}
	fb.Each(func(_ int, pix []byte) error {
		if pix[0] != 7 || len(pix) != 16 {
			t.Errorf("packed frame = %v", pix)
		}
		return nil
	})

	if err := fb.Append(frame(3, 3, 0)); err == nil {
		t.Error("expected a size mismatch error")
	}
}

func TestFrameBufferSpillCleanup(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFrameBufferWithBudget(2, 2, 3, dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	fb.Append(frame(2, 2, 1))
	if err := fb.Close(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("spill file left behind: %v", entries)
	}
}

func TestEncodeMissingBinary(t *testing.T) {
	fb, _ := NewFrameBufferWithBudget(2, 2, 1, "", 1<<20)
	defer fb.Close()
	fb.Append(frame(2, 2, 0))

	out := filepath.Join(t.TempDir(), "out.mp4")
	enc := &FFmpegEncoder{Binary: "ffmpeg-that-does-not-exist"}
	err := enc.Encode(context.Background(), fb, EncodeParams{Width: 2, Height: 2, FPS: 30, Encoder: "libx264", Quality: 20}, out)
	if !fault.IsEncoding(err) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no output may be left behind")
	}
}

func TestEncodeNoFrames(t *testing.T) {
	fb, _ := NewFrameBufferWithBudget(2, 2, 1, "", 1<<20)
	defer fb.Close()
	err := (&FFmpegEncoder{}).Encode(context.Background(), fb, EncodeParams{Width: 2, Height: 2, FPS: 30}, "x.mp4")
	if !fault.IsEncoding(err) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
}

func TestEncodeWithFFmpeg(t *testing.T) {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil || !strings.Contains(string(out), "libx264") {
		t.Skip("ffmpeg with libx264 not installed")
	}

	fb, _ := NewFrameBufferWithBudget(32, 18, 10, "", 1<<20)
	defer fb.Close()
	for i := 0; i < 10; i++ {
		fb.Append(frame(32, 18, uint8(i*20)))
	}

	path := filepath.Join(t.TempDir(), "out.mp4")
	err = (&FFmpegEncoder{}).Encode(context.Background(), fb, EncodeParams{Width: 32, Height: 18, FPS: 10, Encoder: "libx264", Quality: 23}, path)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("empty output: %v", err)
	}
}
