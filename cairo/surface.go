// Package cairo is a minimal binding of the libcairo surface and context
// calls needed to give poppler something to draw on. Surfaces and contexts
// are not safe for concurrent use.
package cairo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"unsafe"
)

// ErrClosed is returned when a Surface or Context is used after Close.
var ErrClosed = errors.New("cairo: use of closed handle")

// Format is a cairo_format_t.
type Format int32

const (
	FormatARGB32 Format = 0
	FormatRGB24  Format = 1
)

// Surface owns a cairo_surface_t.
type Surface struct {
	ptr uintptr
}

func newSurface(op string, ptr uintptr) (*Surface, error) {
	// cairo returns an inert error surface rather than NULL
	if err := statusError(op, cairoSurfaceStatus(ptr)); err != nil {
		cairoSurfaceDestroy(ptr)
		return nil, err
	}
	s := &Surface{ptr: ptr}
	runtime.SetFinalizer(s, (*Surface).Close)
	return s, nil
}

// NewImageSurface creates an in-memory raster surface of the given pixel size.
func NewImageSurface(format Format, width, height int) (*Surface, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cairo: invalid surface size %dx%d", width, height)
	}
	return newSurface("image surface", cairoImageSurfaceCreate(int32(format), int32(width), int32(height)))
}

// NewPDFSurface creates a surface that writes a PDF to path. Sizes are in
// points. The file is complete only after Finish or Close.
func NewPDFSurface(path string, width, height float64) (*Surface, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	if strings.IndexByte(path, 0) >= 0 {
		return nil, fmt.Errorf("cairo: path contains NUL")
	}
	name := append([]byte(path), 0)
	ptr := cairoPDFSurfaceCreate(&name[0], width, height)
	runtime.KeepAlive(name)
	return newSurface("pdf surface", ptr)
}

// Status returns the surface's error status.
func (s *Surface) Status() error {
	if s.ptr == 0 {
		return ErrClosed
	}
	return statusError("surface", cairoSurfaceStatus(s.ptr))
}

// Flush completes pending drawing so the pixel data can be read.
func (s *Surface) Flush() error {
	if s.ptr == 0 {
		return ErrClosed
	}
	cairoSurfaceFlush(s.ptr)
	return s.Status()
}

// Finish writes out any pending output (for PDF surfaces, the file trailer).
// The surface can no longer be drawn on afterwards.
func (s *Surface) Finish() error {
	if s.ptr == 0 {
		return ErrClosed
	}
	cairoSurfaceFinish(s.ptr)
	return s.Status()
}

// WriteToPNG writes an image surface to a PNG file.
func (s *Surface) WriteToPNG(path string) error {
	if s.ptr == 0 {
		return ErrClosed
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("cairo: path contains NUL")
	}
	name := append([]byte(path), 0)
	status := cairoSurfaceWriteToPNG(s.ptr, &name[0])
	runtime.KeepAlive(name)
	return statusError("write png", status)
}

// Image copies an ARGB32 or RGB24 image surface into an *image.RGBA. Both
// cairo and image.RGBA store premultiplied alpha, so only the channel order
// changes.
func (s *Surface) Image() (*image.RGBA, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	format := Format(cairoImageSurfaceGetFormat(s.ptr))
	if format != FormatARGB32 && format != FormatRGB24 {
		return nil, fmt.Errorf("cairo: unsupported image format %d", format)
	}
	width := int(cairoImageSurfaceGetWidth(s.ptr))
	height := int(cairoImageSurfaceGetHeight(s.ptr))
	stride := int(cairoImageSurfaceGetStride(s.ptr))
	data := cairoImageSurfaceGetData(s.ptr)
	if data == nil || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cairo: surface has no pixel data")
	}
	src := unsafe.Slice(data, stride*height)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := src[y*stride : y*stride+width*4]
		out := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			px := binary.NativeEndian.Uint32(row[x*4:])
			a := byte(px >> 24)
			if format == FormatRGB24 {
				a = 0xff
			}
			out[x*4+0] = byte(px >> 16)
			out[x*4+1] = byte(px >> 8)
			out[x*4+2] = byte(px)
			out[x*4+3] = a
		}
	}
	runtime.KeepAlive(s)
	return img, nil
}

// Close finishes and destroys the surface. It is safe to call more than once.
func (s *Surface) Close() error {
	if s.ptr == 0 {
		return nil
	}
	cairoSurfaceFinish(s.ptr)
	err := statusError("surface", cairoSurfaceStatus(s.ptr))
	cairoSurfaceDestroy(s.ptr)
	s.ptr = 0
	runtime.SetFinalizer(s, nil)
	return err
}
