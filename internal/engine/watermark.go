package engine

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/skip2/go-qrcode"
)

// Watermark is a credit QR code stamped into the bottom-right corner of
// exported frames.
type Watermark struct {
	img    *image.RGBA
	mask   *image.Uniform
	margin int
}

// NewWatermark encodes url as a QR code size pixels wide.
func NewWatermark(url string, size int) (*Watermark, error) {
	q, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("credit qr code: %w", err)
	}
	q.ForegroundColor = color.White
	q.BackgroundColor = color.Transparent

	src := q.Image(size)
	img := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(img, img.Rect, src, src.Bounds().Min, draw.Src)

	return &Watermark{
		img:    img,
		mask:   image.NewUniform(color.Alpha{A: 200}),
		margin: size / 8,
	}, nil
}

// WatermarkSize picks a QR code size for a w×h frame.
func WatermarkSize(w, h int) int {
	return max(64, min(w, h)/8)
}

// Bounds is where the code lands in a w×h frame.
func (wm *Watermark) Bounds(w, h int) image.Rectangle {
	s := wm.img.Rect.Size()
	at := image.Pt(w-wm.margin-s.X, h-wm.margin-s.Y)
	return image.Rectangle{Min: at, Max: at.Add(s)}
}

// Stamp draws the code onto frame in place.
func (wm *Watermark) Stamp(frame *image.RGBA) {
	r := wm.Bounds(frame.Rect.Dx(), frame.Rect.Dy()).Add(frame.Rect.Min)
	draw.DrawMask(frame, r, wm.img, image.Point{}, wm.mask, image.Point{}, draw.Over)
}
