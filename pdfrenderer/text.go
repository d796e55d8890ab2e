package pdfrenderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/drummonds/gopoppler/poppler"
	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls the plain text out of an in-memory PDF.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
	Name() string
}

// NewTextExtractor creates the extractor backend called name. An empty name
// selects poppler.
func NewTextExtractor(name string) (TextExtractor, error) {
	switch strings.ToLower(name) {
	case "", "poppler":
		if err := poppler.Init(); err != nil {
			return nil, err
		}
		return &PopplerExtractor{}, nil
	case "plain", "ledongthuc":
		return &PlainExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown text backend %q", name)
	}
}

// PopplerExtractor extracts text page by page with poppler. Pages are
// separated by a form feed.
type PopplerExtractor struct {
	Password string
}

func (e *PopplerExtractor) Name() string { return "poppler" }

func (e *PopplerExtractor) ExtractText(data []byte) (string, error) {
	doc, err := poppler.NewFromData(data, e.Password)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := doc.NPages()
	texts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		page, ok := doc.Page(i)
		if !ok {
			Logger.Warn("Skipping unavailable page", "page", i)
			texts = append(texts, "")
			continue
		}
		text, _ := page.Text()
		page.Close()
		texts = append(texts, text)
	}
	return strings.Join(texts, "\f"), nil
}

// PlainExtractor uses the pure Go ledongthuc/pdf reader and needs no native
// libraries. It copes with fewer documents than poppler.
type PlainExtractor struct{}

func (e *PlainExtractor) Name() string { return "plain" }

func (e *PlainExtractor) ExtractText(data []byte) (string, error) {
	reader := bytes.NewReader(data)

	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPages := pdfReader.NumPage()
	texts := make([]string, 0, totalPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			Logger.Warn("Failed to extract text from page", "page", pageNum, "error", err)
			text = ""
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, "\f"), nil
}
