package dot

import "strconv"

// DefaultScheme opens files in the Cursor editor.
const DefaultScheme = "cursor://file"

// Linker builds deep-link addresses that open a file, optionally at a line,
// in an external editor. Paths are used as given.
type Linker struct {
	Scheme string
}

// NewLinker returns a Linker for scheme, falling back to DefaultScheme when
// scheme is empty.
func NewLinker(scheme string) Linker {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return Linker{Scheme: scheme}
}

// File returns the address of path with no line.
func (l Linker) File(path string) string {
	return l.Scheme + path
}

// Line returns the address of path at line.
func (l Linker) Line(path string, line int) string {
	return l.Scheme + path + ":" + strconv.Itoa(line)
}
