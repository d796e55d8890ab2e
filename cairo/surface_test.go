package cairo

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func requireCairo(t *testing.T) {
	t.Helper()
	if err := Init(); err != nil {
		t.Skipf("cairo not available: %v", err)
	}
}

func TestImageSurface_Paint(t *testing.T) {
	requireCairo(t)
	s, err := NewImageSurface(FormatARGB32, 4, 3)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer s.Close()
	cr, err := NewContext(s)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	defer cr.Close()

	cr.SetSourceRGB(1, 0, 0)
	cr.Paint()
	if err := cr.Status(); err != nil {
		t.Fatalf("Context error: %v", err)
	}

	img, err := s.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("Unexpected bounds %v", img.Bounds())
	}
	c := img.RGBAAt(2, 1)
	if c.R != 0xff || c.G != 0 || c.B != 0 || c.A != 0xff {
		t.Errorf("Expected opaque red, got %+v", c)
	}
}

func TestImageSurface_InvalidSize(t *testing.T) {
	requireCairo(t)
	if _, err := NewImageSurface(FormatARGB32, 0, 10); err == nil {
		t.Error("Expected error for zero width")
	}
}

func TestSurface_WriteToPNG(t *testing.T) {
	requireCairo(t)
	s, err := NewImageSurface(FormatRGB24, 8, 8)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer s.Close()
	cr, err := NewContext(s)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	cr.SetSourceRGB(0, 0, 1)
	cr.Paint()
	cr.Close()

	path := filepath.Join(t.TempDir(), "out.png")
	if err := s.WriteToPNG(path); err != nil {
		t.Fatalf("WriteToPNG failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open PNG: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}
	if _, _, b, _ := img.At(4, 4).RGBA(); b != 0xffff {
		t.Errorf("Expected blue pixel, got blue=%#x", b)
	}
}

func TestPDFSurface_WritesFile(t *testing.T) {
	requireCairo(t)
	path := filepath.Join(t.TempDir(), "out.pdf")
	s, err := NewPDFSurface(path, 595, 842)
	if err != nil {
		t.Fatalf("Failed to create PDF surface: %v", err)
	}
	cr, err := NewContext(s)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	cr.SetSourceRGB(1, 1, 1)
	cr.Paint()
	cr.ShowPage()
	cr.Close()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if len(data) < 5 || string(data[:5]) != "%PDF-" {
		t.Errorf("Expected a PDF header, got %q", data[:min(len(data), 8)])
	}
}

func TestClosedHandles(t *testing.T) {
	requireCairo(t)
	s, err := NewImageSurface(FormatARGB32, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	s.Close()
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
	if _, err := s.Image(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, err := NewContext(s); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed for context on closed surface, got %v", err)
	}
}

func TestContext_SaveRestore(t *testing.T) {
	requireCairo(t)
	s, err := NewImageSurface(FormatARGB32, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer s.Close()
	cr, err := NewContext(s)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	defer cr.Close()

	cr.SetSourceRGB(0, 0, 1)
	cr.Save()
	cr.SetSourceRGB(1, 0, 0)
	cr.Scale(0.5, 0.5)
	cr.Restore()
	cr.Paint()
	if err := cr.Status(); err != nil {
		t.Fatalf("Context error: %v", err)
	}

	img, err := s.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if c := img.RGBAAt(1, 1); c.B != 0xff || c.R != 0 {
		t.Errorf("Expected the saved blue source after Restore, got %+v", c)
	}
}

func TestSurface_WriteToPNG_NulPath(t *testing.T) {
	requireCairo(t)
	s, err := NewImageSurface(FormatRGB24, 2, 2)
	if err != nil {
		t.Fatalf("Failed to create surface: %v", err)
	}
	defer s.Close()

	dir := t.TempDir()
	if err := s.WriteToPNG(filepath.Join(dir, "a.png\x00b")); err == nil {
		t.Error("Expected error for path containing NUL")
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); !os.IsNotExist(err) {
		t.Errorf("Expected no file to be written, stat returned %v", err)
	}
}
