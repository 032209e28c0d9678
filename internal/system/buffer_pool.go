package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool хранит растры слоёв и фона между пересборками LayerSet.
// Пересборка с теми же размерами (новый detector, другое число слоёв)
// забирает буферы, которые отпустил предыдущий набор через Release, и
// не держит в памяти два поколения многомегапиксельных RGBA.
type ImagePool struct {
	mu    sync.RWMutex
	sizes map[image.Point]*sync.Pool

	allocated atomic.Int64
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{sizes: make(map[image.Point]*sync.Pool)}
}

// GetImage берёт прозрачный растр из общего пула.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage отдаёт растр освобождённого слоя обратно в общий пул.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) bucket(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool := p.sizes[size]
	p.mu.RUnlock()
	if pool != nil {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool = p.sizes[size]; pool == nil {
		pool = &sync.Pool{New: func() any {
			p.allocated.Add(1)
			return image.NewRGBA(image.Rectangle{Max: size})
		}}
		p.sizes[size] = pool
	}
	return pool
}

// Get returns a zeroed raster of rect's size anchored at rect.Min. Pooled
// buffers still hold the previous layer's stars, so they are cleared here.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.bucket(rect.Size()).Get().(*image.RGBA)
	clear(img.Pix)
	img.Rect = image.Rectangle{Min: rect.Min, Max: rect.Min.Add(rect.Size())}
	return img
}

// Put accepts only rasters that own their whole pixel slice; sub-images
// share memory with a parent and are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	size := img.Rect.Size()
	if img.Stride != size.X*4 || len(img.Pix) != size.X*size.Y*4 {
		return
	}
	p.mu.RLock()
	pool := p.sizes[size]
	p.mu.RUnlock()
	if pool != nil {
		pool.Put(img)
	}
}

// Allocated is the number of rasters the pool had to create.
func (p *ImagePool) Allocated() int64 {
	return p.allocated.Load()
}
