package poppler

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// LibraryEnv names an environment variable that, when set, overrides the
// shared object searched for poppler-glib.
const LibraryEnv = "POPPLER_GLIB_LIBRARY"

// gError mirrors the layout of GLib's GError.
type gError struct {
	domain  uint32
	code    int32
	message *byte
}

// Native entry points, populated by load. Everything returned as *byte is
// either a static string or a transfer-full allocation; which one is decided
// at each call site in document.go and page.go.
var (
	gFree          func(unsafe.Pointer)
	gErrorFree     func(*gError)
	gObjectUnref   func(uintptr)
	gBytesNew      func(data unsafe.Pointer, size uintptr) uintptr
	gBytesUnref    func(uintptr)
	gQuarkToString func(uint32) *byte

	popplerGetVersion func() *byte

	popplerDocumentNewFromFile  func(uri *byte, password *byte, err **gError) uintptr
	popplerDocumentNewFromBytes func(bytes uintptr, password *byte, err **gError) uintptr

	popplerDocumentGetTitle            func(uintptr) *byte
	popplerDocumentGetAuthor           func(uintptr) *byte
	popplerDocumentGetSubject          func(uintptr) *byte
	popplerDocumentGetKeywords         func(uintptr) *byte
	popplerDocumentGetCreator          func(uintptr) *byte
	popplerDocumentGetProducer         func(uintptr) *byte
	popplerDocumentGetMetadata         func(uintptr) *byte
	popplerDocumentGetPDFVersionString func(uintptr) *byte
	popplerDocumentGetCreationDate     func(uintptr) int64
	popplerDocumentGetModificationDate func(uintptr) int64
	popplerDocumentGetPermissions      func(uintptr) uint32
	popplerDocumentGetNPages           func(uintptr) int32
	popplerDocumentGetPage             func(uintptr, int32) uintptr

	popplerPageGetSize           func(page uintptr, width *float64, height *float64)
	popplerPageRender            func(page uintptr, cr uintptr)
	popplerPageRenderForPrinting func(page uintptr, cr uintptr)
	popplerPageGetText           func(uintptr) *byte
	popplerPageGetIndex          func(uintptr) int32
	popplerPageGetLabel          func(uintptr) *byte
)

type symbol struct {
	name string
	fn   any
}

var symbols = []symbol{
	{"g_free", &gFree},
	{"g_error_free", &gErrorFree},
	{"g_object_unref", &gObjectUnref},
	{"g_bytes_new", &gBytesNew},
	{"g_bytes_unref", &gBytesUnref},
	{"g_quark_to_string", &gQuarkToString},

	{"poppler_get_version", &popplerGetVersion},

	{"poppler_document_new_from_file", &popplerDocumentNewFromFile},
	{"poppler_document_new_from_bytes", &popplerDocumentNewFromBytes},

	{"poppler_document_get_title", &popplerDocumentGetTitle},
	{"poppler_document_get_author", &popplerDocumentGetAuthor},
	{"poppler_document_get_subject", &popplerDocumentGetSubject},
	{"poppler_document_get_keywords", &popplerDocumentGetKeywords},
	{"poppler_document_get_creator", &popplerDocumentGetCreator},
	{"poppler_document_get_producer", &popplerDocumentGetProducer},
	{"poppler_document_get_metadata", &popplerDocumentGetMetadata},
	{"poppler_document_get_pdf_version_string", &popplerDocumentGetPDFVersionString},
	{"poppler_document_get_creation_date", &popplerDocumentGetCreationDate},
	{"poppler_document_get_modification_date", &popplerDocumentGetModificationDate},
	{"poppler_document_get_permissions", &popplerDocumentGetPermissions},
	{"poppler_document_get_n_pages", &popplerDocumentGetNPages},
	{"poppler_document_get_page", &popplerDocumentGetPage},

	{"poppler_page_get_size", &popplerPageGetSize},
	{"poppler_page_render", &popplerPageRender},
	{"poppler_page_render_for_printing", &popplerPageRenderForPrinting},
	{"poppler_page_get_text", &popplerPageGetText},
	{"poppler_page_get_index", &popplerPageGetIndex},
	{"poppler_page_get_label", &popplerPageGetLabel},
}

var (
	loadOnce sync.Once
	loadErr  error
)

// LoadError reports that poppler-glib could not be opened or lacks a symbol.
type LoadError struct {
	Library string
	Symbol  string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("poppler: symbol %s not found in %s: %v", e.Symbol, e.Library, e.Err)
	}
	return fmt.Sprintf("poppler: unable to load %s: %v", e.Library, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Init loads poppler-glib and resolves every entry point. It is safe to call
// from multiple goroutines; only the first call does any work and later calls
// return the same result.
func Init() error {
	loadOnce.Do(func() {
		loadErr = load()
		if loadErr != nil {
			Logger.Warn("poppler-glib unavailable", "error", loadErr)
			return
		}
		Logger.Debug("poppler-glib loaded", "version", unix.BytePtrToString(popplerGetVersion()))
	})
	return loadErr
}

func libraryNames() []string {
	if name := os.Getenv(LibraryEnv); name != "" {
		return []string{name}
	}
	if runtime.GOOS == "darwin" {
		return []string{"libpoppler-glib.dylib", "libpoppler-glib.8.dylib"}
	}
	return []string{"libpoppler-glib.so.8", "libpoppler-glib.so"}
}

func load() error {
	names := libraryNames()
	var (
		lib uintptr
		err error
	)
	for _, name := range names {
		lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			break
		}
	}
	if lib == 0 {
		return &LoadError{Library: strings.Join(names, ", "), Err: err}
	}
	for _, s := range symbols {
		addr, err := purego.Dlsym(lib, s.name)
		if err != nil {
			return &LoadError{Library: strings.Join(names, ", "), Symbol: s.name, Err: err}
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return nil
}

// Version returns the version of the loaded poppler library, or "" when the
// library is not available.
func Version() string {
	if Init() != nil {
		return ""
	}
	// static string owned by poppler
	return unix.BytePtrToString(popplerGetVersion())
}

// cString returns s as a NUL-terminated buffer. Callers must have rejected
// embedded NULs already.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// takeString copies a transfer-full native string and releases it with
// g_free. ok is false when p is nil or the bytes are not valid UTF-8; the
// allocation is released either way.
func takeString(p *byte) (string, bool) {
	if p == nil {
		return "", false
	}
	s := unix.BytePtrToString(p)
	gFree(unsafe.Pointer(p))
	return validString(s)
}
