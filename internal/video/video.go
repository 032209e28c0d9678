package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ivlev/star2video/internal/fault"
)

// EncodeParams describe the output stream.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Encoder       string // ffmpeg codec name, e.g. libx264
	Quality       int
}

type VideoEncoder interface {
	Encode(ctx context.Context, frames Frames, params EncodeParams, outPath string) error
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	Binary string // defaults to "ffmpeg"
}

// Encode writes frames to outPath at exactly params.FPS. On failure the
// partial output is removed and a fault.EncodingError is returned.
func (e *FFmpegEncoder) Encode(ctx context.Context, frames Frames, params EncodeParams, outPath string) error {
	if frames.Len() == 0 {
		return &fault.EncodingError{Stage: "start", Err: errors.New("no frames to encode")}
	}
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin, buildFFmpegArgs(params, outPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &fault.EncodingError{Stage: "start", Err: fmt.Errorf("stdin pipe error: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return &fault.EncodingError{Stage: "start", Err: fmt.Errorf("ffmpeg start error: %w", err)}
	}

	// Запись raw RGBA данных
	writeErr := frames.Each(func(i int, pix []byte) error {
		if _, err := stdin.Write(pix); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		return nil
	})
	stdin.Close()
	waitErr := cmd.Wait()

	if writeErr != nil || waitErr != nil {
		os.Remove(outPath)
		stage, cause := "finalize", waitErr
		if writeErr != nil {
			stage, cause = "write", writeErr
		}
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		if tail := lastLines(stderr.String(), 5); tail != "" {
			cause = fmt.Errorf("%w: %s", cause, tail)
		}
		return &fault.EncodingError{Stage: stage, Err: cause}
	}
	return nil
}

func buildFFmpegArgs(p EncodeParams, videoPath string) []string {
	fps := fmt.Sprintf("%d", p.FPS)
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fps,
		"-i", "-",
		// yuv420p требует чётных размеров
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-r", fps,
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}

	// Качество в зависимости от энкодера
	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

// DefaultQuality returns the quality value that suits the encoder.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // ~7.5 Мбит/с
	case "h264_nvenc":
		return 24
	default:
		return 20
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// CopyFile copies src into w.
func CopyFile(w io.Writer, src string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
