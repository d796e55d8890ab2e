// Package poppler binds the document loading, metadata, rendering and text
// extraction parts of the poppler-glib C API.
//
// The library is loaded at runtime; Init reports whether it is available.
// A Document serializes every native call made through it and through the
// Pages obtained from it, so both may be shared between goroutines. Pages
// must not be used after their Document is closed; doing so yields ErrClosed
// or zero values rather than touching freed memory.
package poppler

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"
	"unsafe"
)

// Logger receives debug output from the binding. It discards by default.
var Logger = slog.New(slog.DiscardHandler)

// Document owns one reference to a native PopplerDocument.
type Document struct {
	mu  sync.Mutex
	ptr uintptr
}

func checkPassword(password string) error {
	if i := strings.IndexByte(password, 0); i >= 0 {
		return &NulError{Field: "password", Pos: i}
	}
	return nil
}

func newDocument(ptr uintptr) *Document {
	d := &Document{ptr: ptr}
	runtime.SetFinalizer(d, (*Document).Close)
	return d
}

// NewFromFile opens the PDF file at path. An empty password is passed to
// poppler as the empty string.
func NewFromFile(path, password string) (*Document, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	uri, err := FileURI(path)
	if err != nil {
		return nil, err
	}
	if err := Init(); err != nil {
		return nil, err
	}
	pass := cString(password)

	ptr, err := call(func(ge **gError) uintptr {
		return popplerDocumentNewFromFile(&uri[0], &pass[0], ge)
	})
	runtime.KeepAlive(uri)
	runtime.KeepAlive(pass)
	if err != nil {
		Logger.Debug("open from file failed", "path", path, "error", err)
		return nil, err
	}
	return newDocument(ptr), nil
}

// NewFromData opens a PDF held in memory. The bytes are copied into native
// memory, so data may be reused once NewFromData returns.
func NewFromData(data []byte, password string) (*Document, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	// poppler misbehaves on zero-length buffers
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if err := Init(); err != nil {
		return nil, err
	}
	pass := cString(password)

	gbytes := gBytesNew(unsafe.Pointer(&data[0]), uintptr(len(data)))
	runtime.KeepAlive(data)
	// the document takes its own reference on gbytes
	defer gBytesUnref(gbytes)

	ptr, err := call(func(ge **gError) uintptr {
		return popplerDocumentNewFromBytes(gbytes, &pass[0], ge)
	})
	runtime.KeepAlive(pass)
	if err != nil {
		Logger.Debug("open from data failed", "size", len(data), "error", err)
		return nil, err
	}
	return newDocument(ptr), nil
}

// Close releases the native document. It is safe to call more than once.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ptr == 0 {
		return nil
	}
	gObjectUnref(d.ptr)
	d.ptr = 0
	runtime.SetFinalizer(d, nil)
	return nil
}

// with runs fn under the document lock with the live native pointer. It
// returns false when the document is closed.
func (d *Document) with(fn func(ptr uintptr)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ptr == 0 {
		return false
	}
	fn(d.ptr)
	return true
}

// ownedString calls a poppler accessor whose result is transfer-full.
func (d *Document) ownedString(get func(uintptr) *byte) (s string, ok bool) {
	d.with(func(ptr uintptr) {
		s, ok = takeString(get(ptr))
	})
	return s, ok
}

// Title returns the document title. Poppler allocates a fresh copy that is
// freed here; a missing or non-UTF-8 title is reported as absent.
func (d *Document) Title() (string, bool) {
	return d.ownedString(popplerDocumentGetTitle)
}

// Metadata returns the XMP metadata stream, if any.
func (d *Document) Metadata() (string, bool) {
	return d.ownedString(popplerDocumentGetMetadata)
}

// PDFVersion returns the version string, for example "PDF-1.3".
func (d *Document) PDFVersion() (string, bool) {
	return d.ownedString(popplerDocumentGetPDFVersionString)
}

// Author, Subject, Keywords, Creator and Producer return the matching
// information dictionary entries, each reported absent when missing.
func (d *Document) Author() (string, bool)   { return d.ownedString(popplerDocumentGetAuthor) }
func (d *Document) Subject() (string, bool)  { return d.ownedString(popplerDocumentGetSubject) }
func (d *Document) Keywords() (string, bool) { return d.ownedString(popplerDocumentGetKeywords) }
func (d *Document) Creator() (string, bool)  { return d.ownedString(popplerDocumentGetCreator) }
func (d *Document) Producer() (string, bool) { return d.ownedString(popplerDocumentGetProducer) }

func (d *Document) date(get func(uintptr) int64) (t time.Time, ok bool) {
	d.with(func(ptr uintptr) {
		// -1 means the entry is missing or unparsable
		if v := get(ptr); v != -1 {
			t, ok = time.Unix(v, 0).UTC(), true
		}
	})
	return t, ok
}

// CreationDate returns the document's creation date.
func (d *Document) CreationDate() (time.Time, bool) {
	return d.date(popplerDocumentGetCreationDate)
}

// ModificationDate returns the document's last modification date.
func (d *Document) ModificationDate() (time.Time, bool) {
	return d.date(popplerDocumentGetModificationDate)
}

// Permissions returns the permission mask. The binding does not interpret
// it; see the Perm* constants for the bits poppler defines.
func (d *Document) Permissions() Permissions {
	var p Permissions
	d.with(func(ptr uintptr) {
		p = Permissions(popplerDocumentGetPermissions(ptr))
	})
	return p
}

// NPages returns the number of pages, which may be zero.
func (d *Document) NPages() int {
	var n int
	d.with(func(ptr uintptr) {
		n = int(popplerDocumentGetNPages(ptr))
	})
	if n < 0 {
		return 0
	}
	return n
}

// Page returns the page at the zero-based index. Out-of-range indices are
// caught before calling into poppler; a NULL from poppler is also reported
// as absent.
func (d *Document) Page(index int) (*Page, bool) {
	var page *Page
	d.with(func(ptr uintptr) {
		n := int(popplerDocumentGetNPages(ptr))
		if index < 0 || index >= n {
			Logger.Debug("page index out of range", "index", index, "pages", n)
			return
		}
		p := popplerDocumentGetPage(ptr, int32(index))
		if p == 0 {
			Logger.Debug("poppler returned no page", "index", index)
			return
		}
		page = newPage(d, p)
	})
	return page, page != nil
}

// Info collects the document information dictionary.
type Info struct {
	Title            string    `json:"title,omitempty"`
	Author           string    `json:"author,omitempty"`
	Subject          string    `json:"subject,omitempty"`
	Keywords         string    `json:"keywords,omitempty"`
	Creator          string    `json:"creator,omitempty"`
	Producer         string    `json:"producer,omitempty"`
	PDFVersion       string    `json:"pdfVersion,omitempty"`
	CreationDate     time.Time `json:"creationDate,omitzero"`
	ModificationDate time.Time `json:"modificationDate,omitzero"`
	Permissions      uint8     `json:"permissions"`
	Pages            int       `json:"pages"`
}

// Info returns every metadata field at once. Missing entries are left empty.
func (d *Document) Info() Info {
	info := Info{
		Permissions: uint8(d.Permissions()),
		Pages:       d.NPages(),
	}
	info.Title, _ = d.Title()
	info.Author, _ = d.Author()
	info.Subject, _ = d.Subject()
	info.Keywords, _ = d.Keywords()
	info.Creator, _ = d.Creator()
	info.Producer, _ = d.Producer()
	info.PDFVersion, _ = d.PDFVersion()
	info.CreationDate, _ = d.CreationDate()
	info.ModificationDate, _ = d.ModificationDate()
	return info
}
