package poppler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// fixture describes a small PDF built in-test.
type fixture struct {
	Version  string   // e.g. "1.3"
	Title    string   // Info /Title, omitted when empty
	Pages    []string // one entry per page; the text drawn on it, may be empty
	Width    float64
	Height   float64
	Metadata bool // attach an XMP metadata stream to the catalog
}

var textFixture = fixture{
	Version:  "1.3",
	Title:    "This is a test PDF file",
	Pages:    []string{"TEST"},
	Width:    595,
	Height:   842,
	Metadata: true,
}

const xmpPacket = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
<rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title><rdf:Alt><rdf:li xml:lang="x-default">This is a test PDF file</rdf:li></rdf:Alt></dc:title>
</rdf:Description>
</rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

// bytes renders the fixture with a correct cross-reference table.
func (f fixture) bytes() []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}
	stream := func(dict, data string) string {
		return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
	}

	catalog := add("") // filled in below
	pages := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids bytes.Buffer
	for _, text := range f.Pages {
		content := ""
		if text != "" {
			content = fmt.Sprintf("BT /F1 24 Tf 72 %g Td (%s) Tj ET", f.Height-144, text)
		}
		contents := add(stream("", content))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pages, f.Width, f.Height, font, contents))
		fmt.Fprintf(&kids, "%d 0 R ", page)
	}
	objects[pages-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(f.Pages))

	catalogDict := fmt.Sprintf("/Type /Catalog /Pages %d 0 R", pages)
	if f.Metadata {
		meta := add(stream("/Type /Metadata /Subtype /XML", xmpPacket))
		catalogDict += fmt.Sprintf(" /Metadata %d 0 R", meta)
	}
	objects[catalog-1] = "<< " + catalogDict + " >>"

	info := 0
	if f.Title != "" {
		info = add(fmt.Sprintf("<< /Title (%s) /Producer (gopoppler tests) /CreationDate (D:20240102030405Z) >>", f.Title))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", f.Version)
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", len(objects)+1, catalog)
	if info != 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", info)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// write stores the fixture under a fresh temp dir and returns its path.
func (f fixture) write(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, f.bytes(), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

// requirePoppler skips the test when poppler-glib cannot be loaded.
func requirePoppler(t *testing.T) {
	t.Helper()
	if err := Init(); err != nil {
		t.Skipf("poppler-glib not available: %v", err)
	}
}

// openFixture loads f from memory and closes it at test end.
func openFixture(t *testing.T, f fixture) *Document {
	t.Helper()
	requirePoppler(t)
	doc, err := NewFromData(f.bytes(), "")
	if err != nil {
		t.Fatalf("Failed to open fixture: %v", err)
	}
	t.Cleanup(func() { doc.Close() })
	return doc
}
