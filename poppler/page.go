package poppler

import (
	"errors"
	"runtime"

	"github.com/drummonds/gopoppler/cairo"
)

// Page owns one reference to a native PopplerPage and keeps its Document
// reachable. It becomes unusable once either the page or its document is
// closed.
type Page struct {
	doc *Document
	ptr uintptr
}

func newPage(doc *Document, ptr uintptr) *Page {
	p := &Page{doc: doc, ptr: ptr}
	runtime.SetFinalizer(p, (*Page).Close)
	return p
}

// Close releases the native page. It is safe to call more than once and
// after the document has been closed.
func (p *Page) Close() error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if p.ptr == 0 {
		return nil
	}
	// the native page holds its own document reference, so this is valid
	// even when the Document wrapper has already been closed
	gObjectUnref(p.ptr)
	p.ptr = 0
	runtime.SetFinalizer(p, nil)
	return nil
}

// with runs fn under the document lock. It returns false when the page or
// its document is closed.
func (p *Page) with(fn func(ptr uintptr)) bool {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	if p.ptr == 0 || p.doc.ptr == 0 {
		return false
	}
	fn(p.ptr)
	return true
}

// Document returns the document the page belongs to.
func (p *Page) Document() *Document {
	return p.doc
}

// Size returns the page size in points. A closed page reports 0x0.
func (p *Page) Size() (width, height float64) {
	p.with(func(ptr uintptr) {
		popplerPageGetSize(ptr, &width, &height)
	})
	return width, height
}

// Index returns the zero-based page index, or -1 for a closed page.
func (p *Page) Index() int {
	index := -1
	p.with(func(ptr uintptr) {
		index = int(popplerPageGetIndex(ptr))
	})
	return index
}

// Label returns the page label, for example "iv", if the document defines one.
func (p *Page) Label() (label string, ok bool) {
	p.with(func(ptr uintptr) {
		label, ok = takeString(popplerPageGetLabel(ptr))
	})
	return label, ok
}

var errNilContext = errors.New("poppler: nil cairo context")

func (p *Page) render(cr *cairo.Context, fn func(page, cr uintptr)) error {
	if cr == nil {
		return errNilContext
	}
	target := cr.Pointer()
	if target == 0 {
		return cairo.ErrClosed
	}
	if !p.with(func(ptr uintptr) { fn(ptr, target) }) {
		return ErrClosed
	}
	runtime.KeepAlive(cr)
	return nil
}

// Render draws the page onto cr using the screen rendering path. Poppler does
// not report rendering failures; the returned error only covers a closed page
// or context.
func (p *Page) Render(cr *cairo.Context) error {
	return p.render(cr, popplerPageRender)
}

// RenderForPrinting draws the page onto cr using the print rendering path.
func (p *Page) RenderForPrinting(cr *cairo.Context) error {
	return p.render(cr, popplerPageRenderForPrinting)
}

// Text returns the text on the page. A page without extractable text
// reports ok == false.
func (p *Page) Text() (text string, ok bool) {
	p.with(func(ptr uintptr) {
		text, ok = takeString(popplerPageGetText(ptr))
	})
	// poppler hands back "" rather than NULL for empty pages
	if text == "" {
		return "", false
	}
	return text, ok
}
