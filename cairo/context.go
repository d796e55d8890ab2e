package cairo

import "runtime"

// Context owns a cairo_t drawing on a Surface.
type Context struct {
	ptr     uintptr
	surface *Surface
}

// NewContext creates a drawing context targeting s. The context keeps s
// reachable for its own lifetime.
func NewContext(s *Surface) (*Context, error) {
	if s == nil || s.ptr == 0 {
		return nil, ErrClosed
	}
	ptr := cairoCreate(s.ptr)
	if err := statusError("create", cairoStatus(ptr)); err != nil {
		cairoDestroy(ptr)
		return nil, err
	}
	c := &Context{ptr: ptr, surface: s}
	runtime.SetFinalizer(c, (*Context).Close)
	return c, nil
}

// Pointer returns the raw cairo_t for passing to other native libraries, or
// 0 once the context is closed. The Context must be kept alive while the
// pointer is in use.
func (c *Context) Pointer() uintptr {
	return c.ptr
}

func (c *Context) Save() {
	if c.ptr != 0 {
		cairoSave(c.ptr)
	}
}

func (c *Context) Restore() {
	if c.ptr != 0 {
		cairoRestore(c.ptr)
	}
}

func (c *Context) Scale(sx, sy float64) {
	if c.ptr != 0 {
		cairoScale(c.ptr, sx, sy)
	}
}

func (c *Context) SetSourceRGB(r, g, b float64) {
	if c.ptr != 0 {
		cairoSetSourceRGB(c.ptr, r, g, b)
	}
}

// Paint fills the current clip with the current source.
func (c *Context) Paint() {
	if c.ptr != 0 {
		cairoPaint(c.ptr)
	}
}

// ShowPage emits the current page; on PDF surfaces this starts a new page.
func (c *Context) ShowPage() {
	if c.ptr != 0 {
		cairoShowPage(c.ptr)
	}
}

// Status returns the context's sticky error status.
func (c *Context) Status() error {
	if c.ptr == 0 {
		return ErrClosed
	}
	return statusError("context", cairoStatus(c.ptr))
}

// Close destroys the context. The surface is left open.
func (c *Context) Close() error {
	if c.ptr == 0 {
		return nil
	}
	err := statusError("context", cairoStatus(c.ptr))
	cairoDestroy(c.ptr)
	c.ptr = 0
	c.surface = nil
	runtime.SetFinalizer(c, nil)
	return err
}
