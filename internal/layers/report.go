package layers

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// WriteReport dumps every layer raster, the background and a histogram of
// star sizes into dir. It is a tuning aid for preservation intensity and
// layer count.
func WriteReport(set *LayerSet, dir string) error {
	if !set.Ready() {
		return fmt.Errorf("layer set is not ready")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, l := range set.Layers {
		if err := writePNG(l.Raster, filepath.Join(dir, fmt.Sprintf("layer_%02d.png", l.Index))); err != nil {
			return err
		}
	}
	if err := writePNG(set.Background, filepath.Join(dir, "background.png")); err != nil {
		return err
	}

	return writeSizeHistogram(set, filepath.Join(dir, "sizes.png"))
}

func writePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func writeSizeHistogram(set *LayerSet, path string) error {
	var sizes plotter.Values
	for _, l := range set.Layers {
		for _, r := range l.Regions {
			sizes = append(sizes, float64(r.Size))
		}
	}
	if len(sizes) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Star sizes (%d stars, %d layers)", len(sizes), len(set.Layers))
	p.X.Label.Text = "Size (px)"
	p.Y.Label.Text = "Stars"

	bins := min(max(len(sizes)/4, 1), 64)
	hist, err := plotter.NewHist(sizes, bins)
	if err != nil {
		return err
	}
	p.Add(hist)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
