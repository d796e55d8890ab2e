package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
)

// Logger is injected from main; it discards until then.
var Logger = slog.New(slog.DiscardHandler)

// ErrPageRange is returned when a requested page does not exist.
var ErrPageRange = errors.New("page out of range")

// DefaultDPI is used when a renderer is created with a non-positive DPI.
const DefaultDPI = 150

// Renderer defines the interface for PDF to image conversion
type Renderer interface {
	// RenderPDF rasterizes the given zero-based pages of an in-memory PDF,
	// or every page when none are given.
	RenderPDF(data []byte, pages ...int) ([]image.Image, error)

	// Name identifies the backend, e.g. "poppler"
	Name() string

	// Close cleans up any resources used by the renderer
	Close() error
}

// PasswordRenderer is implemented by backends that can open encrypted
// documents. WithPassword returns a renderer that uses password and leaves
// the receiver unchanged.
type PasswordRenderer interface {
	Renderer
	WithPassword(password string) Renderer
}

// NewRenderer creates the renderer backend called name. An empty name
// selects poppler.
func NewRenderer(name string, dpi float64) (Renderer, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch strings.ToLower(name) {
	case "", "poppler":
		return NewPopplerRenderer(dpi, false)
	case "poppler-print":
		return NewPopplerRenderer(dpi, true)
	case "fitz", "mupdf":
		return NewFitzRenderer(dpi)
	case "pdfium":
		return NewPDFiumRenderer(int(dpi))
	default:
		return nil, fmt.Errorf("unknown render backend %q", name)
	}
}

// selectPages returns pages, or 0..n-1 when pages is empty, rejecting
// out-of-range indices.
func selectPages(n int, pages []int) ([]int, error) {
	if len(pages) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, p := range pages {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: page %d of %d", ErrPageRange, p, n)
		}
	}
	return pages, nil
}

// pixels converts a length in points to device pixels at dpi.
func pixels(points, dpi float64) int {
	px := int(points*dpi/72 + 0.5)
	if px < 1 {
		return 1
	}
	return px
}
