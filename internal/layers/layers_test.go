package layers

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/star2video/internal/analyzer"
	"github.com/ivlev/star2video/internal/fault"
	"github.com/ivlev/star2video/internal/system"
)

func init() {
	system.SetLogger(nil)
}

func blackImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func region(size int, peak float64) analyzer.StarRegion {
	return analyzer.StarRegion{Size: size, PeakLuminance: peak}
}

func TestSingleSquareScenario(t *testing.T) {
	stars := blackImage(200, 200)
	fillRect(stars, image.Rect(90, 90, 95, 95), color.RGBA{255, 255, 255, 255})
	bg := blackImage(200, 200)

	set, err := Build(context.Background(), stars, bg, Options{LayerCount: 12, Intensity: 50})
	require.NoError(t, err)
	defer set.Release()

	require.True(t, set.Ready())
	require.Len(t, set.Layers, 12)
	assert.Equal(t, 1, set.RegionCount())
	require.Len(t, set.Layers[0].Regions, 1, "the only star is the largest, so it is closest")
	for _, l := range set.Layers[1:] {
		assert.Empty(t, l.Regions)
	}

	assert.Equal(t, bg.Pix, set.Background.Pix, "background must be the all-black raster")

	got := set.Layers[0].Raster
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, got.RGBAAt(92, 92))
	assert.Equal(t, color.RGBA{}, got.RGBAAt(10, 10), "layer rasters are transparent outside stars")
	assert.Equal(t, color.RGBA{}, set.Layers[5].Raster.RGBAAt(92, 92))
}

func TestBuildNoStars(t *testing.T) {
	_, err := Build(context.Background(), blackImage(50, 50), blackImage(50, 50), Options{LayerCount: 12, Intensity: 50})
	require.ErrorIs(t, err, fault.ErrNoStars)
	assert.True(t, fault.IsInput(err))
}

func TestBuildInputErrors(t *testing.T) {
	tests := []struct {
		name      string
		stars, bg *image.RGBA
	}{
		{"nil background", blackImage(10, 10), nil},
		{"empty stars", image.NewRGBA(image.Rect(0, 0, 0, 0)), blackImage(10, 10)},
		{"mismatch", blackImage(10, 10), blackImage(12, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(context.Background(), tt.stars, tt.bg, Options{LayerCount: 4})
			assert.True(t, fault.IsInput(err), "got %v", err)
		})
	}
}

func TestBuildCancelled(t *testing.T) {
	stars := blackImage(64, 64)
	fillRect(stars, image.Rect(10, 10, 14, 14), color.RGBA{255, 255, 255, 255})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set, err := Build(ctx, stars, blackImage(64, 64), Options{LayerCount: 3, Intensity: 50})
	require.Error(t, err)
	assert.Nil(t, set)
}

func TestLayerOwnershipIsExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	stars := blackImage(160, 120)
	for i := 0; i < 60; i++ {
		x, y := rng.Intn(150), rng.Intn(110)
		s := 1 + rng.Intn(9)
		v := uint8(180 + rng.Intn(76))
		fillRect(stars, image.Rect(x, y, x+s, y+s), color.RGBA{v, v, v, 255})
	}

	set, err := Build(context.Background(), stars, blackImage(160, 120), Options{LayerCount: 6, Intensity: 70})
	require.NoError(t, err)
	defer set.Release()

	for i := 0; i < len(stars.Pix); i += 4 {
		owners := 0
		for _, l := range set.Layers {
			if l.Raster.Pix[i+3] != 0 {
				owners++
			}
		}
		require.LessOrEqual(t, owners, 1, "pixel %d copied into %d layers", i/4, owners)
	}
}

func TestClassify(t *testing.T) {
	var regions []analyzer.StarRegion
	for s := 1; s <= 24; s++ {
		regions = append(regions, region(s, float64(s)))
	}

	layers := Classify(regions, 12)
	require.Len(t, layers, 12)

	total := 0
	prevMin := 1 << 30
	for i, l := range layers {
		total += len(l.Regions)
		for _, r := range l.Regions {
			assert.GreaterOrEqual(t, float64(r.Size), l.MinSize, "layer %d", i)
			assert.LessOrEqual(t, r.Size, prevMin, "layer %d holds a star larger than a closer layer", i)
		}
		for _, r := range l.Regions {
			prevMin = min(prevMin, r.Size)
		}
	}
	assert.Equal(t, 24, total, "every region belongs to exactly one layer")
	assert.Equal(t, 24, layers[0].Regions[0].Size)
	assert.Equal(t, 1, layers[11].Regions[len(layers[11].Regions)-1].Size)

	again := Classify(regions, 12)
	assert.Equal(t, layers, again, "classification is deterministic")
}

func TestClassifyTieBreak(t *testing.T) {
	regions := []analyzer.StarRegion{region(5, 100), region(5, 200), region(2, 50)}
	layers := Classify(regions, 1)
	require.Len(t, layers[0].Regions, 3)
	assert.Equal(t, 200.0, layers[0].Regions[0].PeakLuminance)
	assert.Equal(t, 100.0, layers[0].Regions[1].PeakLuminance)
	assert.Equal(t, 2, layers[0].Regions[2].Size)
}

func TestClassifyEmpty(t *testing.T) {
	layers := Classify(nil, 4)
	require.Len(t, layers, 4)
	for _, l := range layers {
		assert.Empty(t, l.Regions)
	}
}

func TestReleaseClearsSet(t *testing.T) {
	stars := blackImage(40, 40)
	fillRect(stars, image.Rect(5, 5, 9, 9), color.RGBA{255, 255, 255, 255})
	set, err := Build(context.Background(), stars, blackImage(40, 40), Options{LayerCount: 2, Intensity: 50})
	require.NoError(t, err)

	set.Release()
	assert.False(t, set.Ready())
}

func TestWriteReport(t *testing.T) {
	stars := blackImage(120, 80)
	for i, s := range []int{2, 3, 4, 6, 8} {
		x := 10 + i*20
		fillRect(stars, image.Rect(x, 30, x+s, 30+s), color.RGBA{255, 255, 255, 255})
	}
	set, err := Build(context.Background(), stars, blackImage(120, 80), Options{LayerCount: 3, Intensity: 50})
	require.NoError(t, err)
	defer set.Release()

	dir := t.TempDir()
	require.NoError(t, WriteReport(set, dir))
	for _, name := range []string{"layer_00.png", "layer_02.png", "background.png", "sizes.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestBuildSubImageMatchesPacked(t *testing.T) {
	frame := blackImage(120, 80)
	fillRect(frame, image.Rect(40, 30, 44, 34), color.RGBA{240, 230, 220, 255})
	fillRect(frame, image.Rect(70, 50, 72, 52), color.RGBA{255, 255, 255, 255})
	bgFrame := blackImage(120, 80)
	fillRect(bgFrame, image.Rect(0, 0, 120, 80), color.RGBA{10, 20, 40, 255})

	view := image.Rect(30, 20, 90, 70)
	stars := frame.SubImage(view).(*image.RGBA)
	bg := bgFrame.SubImage(view).(*image.RGBA)

	packedStars := blackImage(view.Dx(), view.Dy())
	draw.Draw(packedStars, packedStars.Rect, stars, view.Min, draw.Src)
	packedBg := blackImage(view.Dx(), view.Dy())
	draw.Draw(packedBg, packedBg.Rect, bg, view.Min, draw.Src)

	for _, variant := range []string{"flood", "clean"} {
		t.Run(variant, func(t *testing.T) {
			det, err := analyzer.NewDetector(variant, 40)
			require.NoError(t, err)
			opts := Options{LayerCount: 3, Intensity: 40, Detector: det}

			got, err := Build(context.Background(), stars, bg, opts)
			require.NoError(t, err)
			defer got.Release()
			want, err := Build(context.Background(), packedStars, packedBg, opts)
			require.NoError(t, err)
			defer want.Release()

			assert.Equal(t, want.RegionCount(), got.RegionCount())
			assert.Equal(t, want.Background.Pix, got.Background.Pix)
			for i := range want.Layers {
				assert.Equal(t, want.Layers[i].Raster.Pix, got.Layers[i].Raster.Pix, "layer %d", i)
			}
		})
	}
}
