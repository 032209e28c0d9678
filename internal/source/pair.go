package source

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/system"
)

// Pair holds the stars-only and starless rasters at one common resolution.
type Pair struct {
	Stars      *image.RGBA
	Background *image.RGBA
}

func (p Pair) Size() (int, int) {
	return p.Stars.Rect.Dx(), p.Stars.Rect.Dy()
}

// LoadPair decodes both inputs concurrently and normalizes them: the stars
// image defines the target resolution (long edge capped at maxLongEdge) and
// the background is resampled to match.
func LoadPair(ctx context.Context, starsPath, backgroundPath string, maxLongEdge int) (Pair, error) {
	var stars, bg image.Image

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := Load(starsPath)
		if err != nil {
			return fmt.Errorf("stars: %w", err)
		}
		stars = img
		return nil
	})
	g.Go(func() error {
		img, err := Load(backgroundPath)
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		bg = img
		return nil
	})
	if err := g.Wait(); err != nil {
		return Pair{}, err
	}
	if err := ctx.Err(); err != nil {
		return Pair{}, err
	}

	if exp, err := ReadExposure(starsPath); err == nil {
		system.Logf("[*] EXIF: %s", exp)
	}

	return Normalize(stars, bg, maxLongEdge)
}

// Load decodes the file at path into an image.
func Load(path string) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Render(DefaultDPI)
}

// Normalize converts both images to RGBA at the target resolution.
func Normalize(stars, bg image.Image, maxLongEdge int) (Pair, error) {
	if stars == nil || bg == nil {
		return Pair{}, fault.Inputf("both images are required")
	}
	sb, bb := stars.Bounds(), bg.Bounds()
	if sb.Empty() || bb.Empty() {
		return Pair{}, fault.Inputf("empty raster (stars %dx%d, background %dx%d)", sb.Dx(), sb.Dy(), bb.Dx(), bb.Dy())
	}

	w, h := FitLongEdge(sb.Dx(), sb.Dy(), maxLongEdge)
	if w != sb.Dx() || h != sb.Dy() {
		system.Logf("[*] Уменьшаем входные изображения %dx%d -> %dx%d", sb.Dx(), sb.Dy(), w, h)
	}
	if bb.Dx() != sb.Dx() || bb.Dy() != sb.Dy() {
		system.Logf("[!] Размер фона %dx%d отличается от звёзд %dx%d, фон будет масштабирован", bb.Dx(), bb.Dy(), sb.Dx(), sb.Dy())
	}

	return Pair{
		Stars:      resize(stars, w, h),
		Background: resize(bg, w, h),
	}, nil
}

// FitLongEdge scales w×h down so neither side exceeds maxLongEdge. A
// non-positive limit disables the cap.
func FitLongEdge(w, h, maxLongEdge int) (int, int) {
	long := max(w, h)
	if maxLongEdge <= 0 || long <= maxLongEdge {
		return w, h
	}
	scale := float64(maxLongEdge) / float64(long)
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return nw, nh
}

func resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst
}

// Exposure is the subset of EXIF data worth reporting for a stars frame.
type Exposure struct {
	ISO          int64
	FNumber      float64
	ExposureTime string
}

func (e Exposure) String() string {
	return fmt.Sprintf("ISO %d, f/%.1f, %s s", e.ISO, e.FNumber, e.ExposureTime)
}

// ReadExposure extracts ISO, aperture and shutter speed. Missing tags are an
// error; most processed astro images carry no EXIF at all.
func ReadExposure(path string) (Exposure, error) {
	var e Exposure

	f, err := os.Open(path)
	if err != nil {
		return e, fmt.Errorf("open+r exif '%s': %w", path, err)
	}
	defer f.Close()

	ex, err := exif.Decode(f)
	if err != nil {
		return e, fmt.Errorf("exif parsing '%s': %w", path, err)
	}

	if tag, err := ex.Get(exif.ISOSpeedRatings); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %w", path, err)
	} else if val, err := tag.Int64(0); err != nil {
		return e, fmt.Errorf("exif ISO '%s': %w", path, err)
	} else {
		e.ISO = val
	}

	if tag, err := ex.Get(exif.FNumber); err != nil {
		return e, fmt.Errorf("exif FNumber '%s': %w", path, err)
	} else if num, denom, err := tag.Rat2(0); err != nil || denom == 0 {
		return e, fmt.Errorf("exif FNumber '%s': %v", path, err)
	} else {
		e.FNumber = float64(num) / float64(denom)
	}

	if tag, err := ex.Get(exif.ExposureTime); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %w", path, err)
	} else if num, denom, err := tag.Rat2(0); err != nil {
		return e, fmt.Errorf("exif ExposureTime '%s': %w", path, err)
	} else if denom == 1 {
		e.ExposureTime = fmt.Sprintf("%d", num)
	} else {
		e.ExposureTime = fmt.Sprintf("%d/%d", num, denom)
	}

	return e, nil
}
