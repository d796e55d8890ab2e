package poppler

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileURI resolves path to a canonical absolute file and returns it as a
// NUL-terminated file:// URI ready for the native loader.
func FileURI(path string) ([]byte, error) {
	if i := strings.IndexByte(path, 0); i >= 0 {
		return nil, &Error{Kind: KindInval, Message: "Path invalid (contains NUL characters)"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Kind: KindNoent, Message: "Could not turn path into canonical path. Maybe it does not exist?"}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, &Error{Kind: KindNoent, Message: "Could not turn path into canonical path. Maybe it does not exist?"}
	}
	if !utf8.ValidString(canonical) {
		return nil, &Error{Kind: KindInval, Message: "Path invalid (contains non-utf8 characters)"}
	}

	// Escaped so the glib loader unescapes back to the exact filename.
	slashed := filepath.ToSlash(canonical)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	uri := (&url.URL{Scheme: "file", Path: slashed}).String()
	if strings.IndexByte(uri, 0) >= 0 {
		return nil, &Error{Kind: KindInval, Message: "Path invalid (contains NUL characters)"}
	}
	return cString(uri), nil
}
