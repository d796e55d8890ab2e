package poppler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/drummonds/gopoppler/cairo"
)

func firstPage(t *testing.T, doc *Document) *Page {
	t.Helper()
	page, ok := doc.Page(0)
	if !ok {
		t.Fatal("Expected page 0")
	}
	t.Cleanup(func() { page.Close() })
	return page
}

func requireCairo(t *testing.T) {
	t.Helper()
	if err := cairo.Init(); err != nil {
		t.Skipf("cairo not available: %v", err)
	}
}

func TestPageSize(t *testing.T) {
	page := firstPage(t, openFixture(t, textFixture))
	w, h := page.Size()
	if w != 595 || h != 842 {
		t.Errorf("Expected 595x842, got %gx%g", w, h)
	}
}

func TestPageText(t *testing.T) {
	page := firstPage(t, openFixture(t, textFixture))
	text, ok := page.Text()
	if !ok || text != "TEST" {
		t.Errorf("Expected TEST, got %q (ok=%v)", text, ok)
	}
}

func TestPageText_Empty(t *testing.T) {
	f := textFixture
	f.Pages = []string{""}
	page := firstPage(t, openFixture(t, f))
	if text, ok := page.Text(); ok {
		t.Errorf("Expected no text, got %q", text)
	}
}

func TestPageIndex(t *testing.T) {
	f := textFixture
	f.Pages = []string{"ONE", "TWO", "THREE"}
	doc := openFixture(t, f)
	for i, want := range f.Pages {
		page, ok := doc.Page(i)
		if !ok {
			t.Fatalf("Expected page %d", i)
		}
		if page.Document() != doc {
			t.Errorf("Page %d: expected its owning document", i)
		}
		if page.Index() != i {
			t.Errorf("Expected index %d, got %d", i, page.Index())
		}
		if text, _ := page.Text(); text != want {
			t.Errorf("Page %d: expected %q, got %q", i, want, text)
		}
		page.Close()
	}
}

func TestPage_AfterDocumentClose(t *testing.T) {
	doc := openFixture(t, textFixture)
	page := firstPage(t, doc)
	doc.Close()

	if w, h := page.Size(); w != 0 || h != 0 {
		t.Errorf("Expected zero size after close, got %gx%g", w, h)
	}
	if _, ok := page.Text(); ok {
		t.Error("Expected no text after document close")
	}
	if page.Index() != -1 {
		t.Errorf("Expected -1 index after close, got %d", page.Index())
	}
	if err := page.Close(); err != nil {
		t.Errorf("Page close after document close failed: %v", err)
	}
}

func TestPageRender_NilContext(t *testing.T) {
	page := firstPage(t, openFixture(t, textFixture))
	if err := page.Render(nil); err == nil {
		t.Error("Expected error for nil context")
	}
}

func TestPageRender_Image(t *testing.T) {
	requireCairo(t)
	page := firstPage(t, openFixture(t, textFixture))

	surface, err := cairo.NewImageSurface(cairo.FormatARGB32, 595, 842)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer surface.Close()
	cr, err := cairo.NewContext(surface)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	defer cr.Close()

	cr.SetSourceRGB(1, 1, 1)
	cr.Paint()
	if err := page.Render(cr); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	img, err := surface.Image()
	if err != nil {
		t.Fatalf("Failed to read image: %v", err)
	}

	dark := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 128 && img.Pix[i+1] < 128 && img.Pix[i+2] < 128 {
			dark++
		}
	}
	if dark == 0 {
		t.Error("Expected rendered text to produce dark pixels")
	}
}

func TestPageRender_ClosedPage(t *testing.T) {
	requireCairo(t)
	page := firstPage(t, openFixture(t, textFixture))
	surface, err := cairo.NewImageSurface(cairo.FormatARGB32, 10, 10)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer surface.Close()
	cr, err := cairo.NewContext(surface)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	defer cr.Close()

	page.Close()
	if err := page.RenderForPrinting(cr); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// Rendering a page into a new PDF and reopening it must preserve its text.
func TestPageRender_RoundTrip(t *testing.T) {
	requireCairo(t)
	for _, tt := range []struct {
		name     string
		printing bool
	}{{"screen", false}, {"print", true}} {
		t.Run(tt.name, func(t *testing.T) {
			page := firstPage(t, openFixture(t, textFixture))
			want, _ := page.Text()
			w, h := page.Size()

			out := filepath.Join(t.TempDir(), "out.pdf")
			surface, err := cairo.NewPDFSurface(out, w, h)
			if err != nil {
				t.Fatalf("Failed to create PDF surface: %v", err)
			}
			cr, err := cairo.NewContext(surface)
			if err != nil {
				t.Fatalf("Failed to create context: %v", err)
			}
			if tt.printing {
				err = page.RenderForPrinting(cr)
			} else {
				err = page.Render(cr)
			}
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			cr.ShowPage()
			if err := cr.Close(); err != nil {
				t.Fatalf("Context error: %v", err)
			}
			if err := surface.Close(); err != nil {
				t.Fatalf("Surface error: %v", err)
			}

			doc, err := NewFromFile(out, "")
			if err != nil {
				t.Fatalf("Failed to reopen rendered PDF: %v", err)
			}
			defer doc.Close()
			got := firstPage(t, doc)
			text, _ := got.Text()
			if text != want {
				t.Errorf("Expected text %q after round trip, got %q", want, text)
			}
		})
	}
}
