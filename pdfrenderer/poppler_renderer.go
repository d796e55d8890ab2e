package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/drummonds/gopoppler/cairo"
	"github.com/drummonds/gopoppler/poppler"
)

// PopplerRenderer rasterizes pages with poppler onto cairo image surfaces.
type PopplerRenderer struct {
	DPI      float64
	Printing bool   // use poppler's print rendering path
	Password string // for encrypted documents
}

// NewPopplerRenderer checks that poppler and cairo can be loaded.
func NewPopplerRenderer(dpi float64, printing bool) (*PopplerRenderer, error) {
	if err := poppler.Init(); err != nil {
		return nil, err
	}
	if err := cairo.Init(); err != nil {
		return nil, err
	}
	return &PopplerRenderer{DPI: dpi, Printing: printing}, nil
}

func (r *PopplerRenderer) Name() string {
	if r.Printing {
		return "poppler-print"
	}
	return "poppler"
}

// WithPassword returns a copy of r that opens documents with password.
func (r *PopplerRenderer) WithPassword(password string) Renderer {
	clone := *r
	clone.Password = password
	return &clone
}

// RenderPDF renders the selected pages on a white background
func (r *PopplerRenderer) RenderPDF(data []byte, pages ...int) ([]image.Image, error) {
	doc, err := poppler.NewFromData(data, r.Password)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	indices, err := selectPages(doc.NPages(), pages)
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(indices))
	for _, index := range indices {
		img, err := r.renderPage(doc, index)
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", index, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (r *PopplerRenderer) renderPage(doc *poppler.Document, index int) (image.Image, error) {
	page, ok := doc.Page(index)
	if !ok {
		return nil, fmt.Errorf("page %d not available", index)
	}
	defer page.Close()

	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w, h := page.Size()
	surface, err := cairo.NewImageSurface(cairo.FormatARGB32, pixels(w, dpi), pixels(h, dpi))
	if err != nil {
		return nil, err
	}
	defer surface.Close()
	cr, err := cairo.NewContext(surface)
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	cr.Save()
	cr.SetSourceRGB(1, 1, 1)
	cr.Paint()
	cr.Restore()

	cr.Save()
	cr.Scale(dpi/72, dpi/72)
	if r.Printing {
		err = page.RenderForPrinting(cr)
	} else {
		err = page.Render(cr)
	}
	cr.Restore()
	if err != nil {
		return nil, err
	}
	if err := cr.Status(); err != nil {
		return nil, err
	}
	Logger.Debug("Rendered page", "backend", r.Name(), "page", index, "width", w, "height", h, "dpi", dpi)
	return surface.Image()
}

// Close is a no-op; documents are opened and closed per call.
func (r *PopplerRenderer) Close() error {
	return nil
}
