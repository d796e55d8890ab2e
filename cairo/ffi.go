package cairo

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// LibraryEnv overrides the shared object searched for cairo.
const LibraryEnv = "CAIRO_LIBRARY"

var (
	cairoStatusToString func(int32) *byte

	cairoImageSurfaceCreate    func(format int32, width, height int32) uintptr
	cairoImageSurfaceGetData   func(uintptr) *byte
	cairoImageSurfaceGetWidth  func(uintptr) int32
	cairoImageSurfaceGetHeight func(uintptr) int32
	cairoImageSurfaceGetStride func(uintptr) int32
	cairoImageSurfaceGetFormat func(uintptr) int32
	cairoPDFSurfaceCreate      func(filename *byte, width, height float64) uintptr
	cairoSurfaceFinish         func(uintptr)
	cairoSurfaceFlush          func(uintptr)
	cairoSurfaceStatus         func(uintptr) int32
	cairoSurfaceDestroy        func(uintptr)
	cairoSurfaceWriteToPNG     func(surface uintptr, filename *byte) int32

	cairoCreate       func(surface uintptr) uintptr
	cairoDestroy      func(uintptr)
	cairoStatus       func(uintptr) int32
	cairoSave         func(uintptr)
	cairoRestore      func(uintptr)
	cairoScale        func(cr uintptr, sx, sy float64)
	cairoSetSourceRGB func(cr uintptr, r, g, b float64)
	cairoPaint        func(uintptr)
	cairoShowPage     func(uintptr)
)

var symbols = []struct {
	name string
	fn   any
}{
	{"cairo_status_to_string", &cairoStatusToString},
	{"cairo_image_surface_create", &cairoImageSurfaceCreate},
	{"cairo_image_surface_get_data", &cairoImageSurfaceGetData},
	{"cairo_image_surface_get_width", &cairoImageSurfaceGetWidth},
	{"cairo_image_surface_get_height", &cairoImageSurfaceGetHeight},
	{"cairo_image_surface_get_stride", &cairoImageSurfaceGetStride},
	{"cairo_image_surface_get_format", &cairoImageSurfaceGetFormat},
	{"cairo_pdf_surface_create", &cairoPDFSurfaceCreate},
	{"cairo_surface_finish", &cairoSurfaceFinish},
	{"cairo_surface_flush", &cairoSurfaceFlush},
	{"cairo_surface_status", &cairoSurfaceStatus},
	{"cairo_surface_destroy", &cairoSurfaceDestroy},
	{"cairo_surface_write_to_png", &cairoSurfaceWriteToPNG},
	{"cairo_create", &cairoCreate},
	{"cairo_destroy", &cairoDestroy},
	{"cairo_status", &cairoStatus},
	{"cairo_save", &cairoSave},
	{"cairo_restore", &cairoRestore},
	{"cairo_scale", &cairoScale},
	{"cairo_set_source_rgb", &cairoSetSourceRGB},
	{"cairo_paint", &cairoPaint},
	{"cairo_show_page", &cairoShowPage},
}

var (
	loadOnce sync.Once
	loadErr  error
)

// Init loads libcairo once per process.
func Init() error {
	loadOnce.Do(func() {
		loadErr = load()
	})
	return loadErr
}

func load() error {
	names := []string{"libcairo.so.2", "libcairo.so"}
	if name := os.Getenv(LibraryEnv); name != "" {
		names = []string{name}
	} else if runtime.GOOS == "darwin" {
		names = []string{"libcairo.2.dylib", "libcairo.dylib"}
	}
	var (
		lib uintptr
		err error
	)
	for _, name := range names {
		if lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
			break
		}
	}
	if lib == 0 {
		return fmt.Errorf("cairo: unable to load %s: %w", strings.Join(names, ", "), err)
	}
	for _, s := range symbols {
		addr, err := purego.Dlsym(lib, s.name)
		if err != nil {
			return fmt.Errorf("cairo: symbol %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fn, addr)
	}
	return nil
}

// Status is a cairo_status_t.
type Status int32

const StatusSuccess Status = 0

func (s Status) String() string {
	if Init() != nil {
		return fmt.Sprintf("status %d", int32(s))
	}
	// static string owned by cairo
	return unix.BytePtrToString(cairoStatusToString(int32(s)))
}

// Error wraps a non-success cairo status.
type Error struct {
	Op     string
	Status Status
}

func (e *Error) Error() string {
	return fmt.Sprintf("cairo: %s: %s", e.Op, e.Status)
}

func statusError(op string, status int32) error {
	if Status(status) == StatusSuccess {
		return nil
	}
	return &Error{Op: op, Status: Status(status)}
}
