package poppler

// Permissions is the 8-bit permission mask poppler reports for a document.
type Permissions uint8

// Bits defined by PopplerPermissions.
const (
	PermPrint Permissions = 1 << iota
	PermModify
	PermCopy
	PermAddNotes
	PermFillForm
	PermExtractContents
	PermAssemble
	PermPrintHighResolution

	PermFull Permissions = 0xff
)

// Has reports whether every bit in flag is set.
func (p Permissions) Has(flag Permissions) bool {
	return p&flag == flag
}
