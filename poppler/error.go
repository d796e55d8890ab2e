package poppler

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// Kind classifies an Error. The values follow GLib's GFileError codes, which
// is the enumeration native error codes are mapped onto.
type Kind int

const (
	KindExist Kind = iota
	KindIsdir
	KindAcces
	KindNametoolong
	KindNoent
	KindNotdir
	KindNxio
	KindNodev
	KindRofs
	KindTxtbsy
	KindFault
	KindLoop
	KindNospc
	KindNomem
	KindMfile
	KindNfile
	KindBadf
	KindInval
	KindPipe
	KindAgain
	KindIntr
	KindIO
	KindPerm
	KindNosys
	KindFailed
)

var kindNames = [...]string{
	"exist", "isdir", "acces", "nametoolong", "noent", "notdir", "nxio", "nodev",
	"rofs", "txtbsy", "fault", "loop", "nospc", "nomem", "mfile", "nfile", "badf",
	"inval", "pipe", "again", "intr", "io", "perm", "nosys", "failed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// kindFromCode maps a native error code onto a Kind, falling back to
// KindFailed for anything outside the known range.
func kindFromCode(code int) Kind {
	if code < 0 || code >= int(KindFailed) {
		return KindFailed
	}
	return Kind(code)
}

const (
	nullErrorMessage    = "Error is null"
	invalidErrorMessage = "Invalid error message"
)

// Error is a failure reported by, or on behalf of, the native library.
type Error struct {
	Kind    Kind
	Domain  string // GLib quark name, empty for synthesized errors
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Domain != "" {
		return fmt.Sprintf("poppler: %s (%s %d)", e.Message, e.Domain, e.Code)
	}
	return "poppler: " + e.Message
}

// Is reports whether target is an *Error of the same Kind, so the exported
// Err* values below can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Domain == ""
}

// Kind-only errors for use with errors.Is.
var (
	ErrNotFound = &Error{Kind: KindNoent}
	ErrInvalid  = &Error{Kind: KindInval}
	ErrFailed   = &Error{Kind: KindFailed}
)

var (
	// ErrEmptyData is returned when a document is loaded from a zero-length buffer.
	ErrEmptyData = errors.New("poppler: given data is empty")
	// ErrClosed is returned when a Document or Page is used after Close.
	ErrClosed = errors.New("poppler: use of closed handle")
)

// NulError reports a string argument that cannot cross into C because it
// contains a NUL byte.
type NulError struct {
	Field string
	Pos   int
}

func (e *NulError) Error() string {
	return fmt.Sprintf("poppler: nul byte found in %s at position %d", e.Field, e.Pos)
}

// translateError converts a possibly-nil GError into an *Error. It never
// frees the record.
func translateError(ge *gError) *Error {
	if ge == nil {
		return &Error{Kind: KindFailed, Message: nullErrorMessage}
	}
	e := &Error{
		Kind:    kindFromCode(int(ge.code)),
		Code:    int(ge.code),
		Message: invalidErrorMessage,
	}
	if ge.message != nil {
		if msg := unix.BytePtrToString(ge.message); utf8.ValidString(msg) {
			e.Message = msg
		}
	}
	if gQuarkToString != nil && ge.domain != 0 {
		if q := gQuarkToString(ge.domain); q != nil {
			e.Domain = unix.BytePtrToString(q)
		}
	}
	return e
}

// call runs a native constructor that reports failure through a NULL return
// and a GError out-parameter. The out-parameter is only read when the return
// value is NULL, and is freed exactly once after translation.
func call(fn func(err **gError) uintptr) (uintptr, error) {
	var ge *gError
	ptr := fn(&ge)
	if ptr != 0 {
		return ptr, nil
	}
	err := translateError(ge)
	if ge != nil {
		gErrorFree(ge)
	}
	return 0, err
}

func validString(s string) (string, bool) {
	if !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}
