package video

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ivlev/star2video/internal/system"
)

// Frames is an ordered sequence of tightly packed RGBA frames.
type Frames interface {
	Len() int
	Each(fn func(i int, pix []byte) error) error
}

// FrameBuffer stores captured frames in order. Frames stay in memory while
// the expected total fits the memory budget; otherwise they are appended to
// a single temporary file.
type FrameBuffer struct {
	width, height int
	frameSize     int
	count         int

	mem  [][]byte
	file *os.File
	bw   *bufio.Writer
}

// NewFrameBuffer sizes the buffer for expected frames of w×h using half of
// the currently available memory as the in-memory budget.
func NewFrameBuffer(w, h, expected int, spillDir string) (*FrameBuffer, error) {
	return NewFrameBufferWithBudget(w, h, expected, spillDir, system.AvailableMemory()/2)
}

// NewFrameBufferWithBudget is NewFrameBuffer with an explicit budget in bytes.
// A zero budget always spills to disk.
func NewFrameBufferWithBudget(w, h, expected int, spillDir string, budget uint64) (*FrameBuffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	fb := &FrameBuffer{width: w, height: h, frameSize: w * h * 4}

	need := uint64(fb.frameSize) * uint64(max(expected, 1))
	if budget > 0 && need <= budget {
		fb.mem = make([][]byte, 0, expected)
		return fb, nil
	}

	f, err := os.CreateTemp(spillDir, "frames_*.rgba")
	if err != nil {
		return nil, fmt.Errorf("frame spill file: %w", err)
	}
	system.Logf("[*] Кадры (%d MiB) не помещаются в память, буферизуем на диск: %s", need>>20, f.Name())
	fb.file = f
	fb.bw = bufio.NewWriterSize(f, 1<<20)
	return fb, nil
}

// Spilled reports whether frames go to disk.
func (fb *FrameBuffer) Spilled() bool { return fb.file != nil }

func (fb *FrameBuffer) Len() int { return fb.count }

func (fb *FrameBuffer) Size() (int, int) { return fb.width, fb.height }

// Append copies img as the next frame.
func (fb *FrameBuffer) Append(img *image.RGBA) error {
	if img.Rect.Dx() != fb.width || img.Rect.Dy() != fb.height {
		return fmt.Errorf("frame %d is %dx%d, want %dx%d", fb.count, img.Rect.Dx(), img.Rect.Dy(), fb.width, fb.height)
	}

	rowLen := fb.width * 4
	if fb.file == nil {
		pix := make([]byte, fb.frameSize)
		for y := 0; y < fb.height; y++ {
			copy(pix[y*rowLen:(y+1)*rowLen], img.Pix[y*img.Stride:y*img.Stride+rowLen])
		}
		fb.mem = append(fb.mem, pix)
	} else {
		for y := 0; y < fb.height; y++ {
			if _, err := fb.bw.Write(img.Pix[y*img.Stride : y*img.Stride+rowLen]); err != nil {
				return fmt.Errorf("spill frame %d: %w", fb.count, err)
			}
		}
	}
	fb.count++
	return nil
}

// Each calls fn for every frame in order. pix is only valid during the call.
func (fb *FrameBuffer) Each(fn func(i int, pix []byte) error) error {
	if fb.file == nil {
		for i, pix := range fb.mem {
			if err := fn(i, pix); err != nil {
				return err
			}
		}
		return nil
	}

	if err := fb.bw.Flush(); err != nil {
		return err
	}
	if _, err := fb.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := bufio.NewReaderSize(fb.file, 1<<20)
	pix := make([]byte, fb.frameSize)
	for i := 0; i < fb.count; i++ {
		if _, err := io.ReadFull(r, pix); err != nil {
			return fmt.Errorf("read frame %d: %w", i, err)
		}
		if err := fn(i, pix); err != nil {
			return err
		}
	}
	// Further appends continue at the end.
	_, err := fb.file.Seek(0, io.SeekEnd)
	return err
}

// Close drops all frames and removes the spill file.
func (fb *FrameBuffer) Close() error {
	fb.mem = nil
	if fb.file == nil {
		return nil
	}
	name := fb.file.Name()
	err := fb.file.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	fb.file, fb.bw = nil, nil
	return err
}
