package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source: открытый входной файл, из которого можно получить растр.
type Source interface {
	Dimensions() (width, height int, err error)
	Render(dpi int) (image.Image, error)
	Close() error
}

// DefaultDPI is used for document inputs (PDF, XPS, CBZ, JPEG 2000).
const DefaultDPI = 300

var documentExtensions = map[string]bool{
	".pdf": true, ".xps": true, ".cbz": true, ".jp2": true, ".jpx": true,
}

// Open picks a decoder from the file extension. Documents go through MuPDF,
// everything else through the registered image codecs.
func Open(path string) (Source, error) {
	if documentExtensions[strings.ToLower(filepath.Ext(path))] {
		return NewFitzSource(path)
	}
	return NewImageSource(path)
}

// FitzSource renders the first page of a document through MuPDF.
type FitzSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzSource(path string) (*FitzSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if doc.NumPage() < 1 {
		doc.Close()
		return nil, fmt.Errorf("open %s: document has no pages", path)
	}
	return &FitzSource{doc: doc, path: path}, nil
}

func (f *FitzSource) Dimensions() (int, int, error) {
	rect, err := f.doc.Bound(0)
	if err != nil {
		return 0, 0, err
	}
	return rect.Dx(), rect.Dy(), nil
}

func (f *FitzSource) Render(dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return f.doc.ImageDPI(0, float64(dpi))
}

func (f *FitzSource) Close() error {
	return f.doc.Close()
}
