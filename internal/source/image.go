package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/tmo"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSource decodes a single raster file. Radiance HDR inputs are tone
// mapped to 8 bits with Reinhard05.
type ImageSource struct {
	path string
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &ImageSource{path: path}, nil
}

func (s *ImageSource) Dimensions() (int, int, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config %s: %w", s.path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Render ignores dpi; raster files have a fixed resolution.
func (s *ImageSource) Render(int) (image.Image, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	if m, ok := img.(hdr.Image); ok {
		// Немного приглушаем свет, иначе яркие ядра звёзд пересвечиваются.
		op := tmo.NewDefaultReinhard05(m)
		op.Light = 0.005
		op.Chromatic = 0.005
		img = op.Perform()
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
