package pdfrenderer

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
	DPI float64
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer(dpi float64) (*FitzRenderer, error) {
	return &FitzRenderer{DPI: dpi}, nil
}

func (r *FitzRenderer) Name() string { return "fitz" }

// RenderPDF converts the selected pages to images using go-fitz
func (r *FitzRenderer) RenderPDF(data []byte, pages ...int) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	defer doc.Close()

	indices, err := selectPages(doc.NumPage(), pages)
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(indices))
	for _, pageNum := range indices {
		img, err := doc.ImageDPI(pageNum, r.DPI)
		if err != nil {
			return nil, fmt.Errorf("unable to render page %d: %w", pageNum, err)
		}
		images = append(images, img)
	}

	return images, nil
}

// Close cleans up resources (no-op for Fitz renderer as doc is closed per-render)
func (r *FitzRenderer) Close() error {
	return nil
}
