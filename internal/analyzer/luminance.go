package analyzer

import "image"

// Luminance returns BT.601 luma for every pixel of img, row-major.
func Luminance(img *image.RGBA) []float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	lum := make([]float32, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			lum[y*w+x] = luma(row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return lum
}

func luma(r, g, b uint8) float32 {
	return 0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)
}
