// Package outline holds the structural model of a parsed repository: the
// modules (source files) it contains, their classes and methods, and their
// top-level functions, each with the source lines it spans.
package outline

import "strings"

// Owner tells whether a Symbol belongs directly to a module or to a class.
type Owner int

const (
	OwnerModule Owner = iota
	OwnerClass
)

func (o Owner) String() string {
	if o == OwnerClass {
		return "method"
	}
	return "function"
}

// Symbol is a function or a method. Both have the same shape; Owner records
// which container the symbol was declared in.
type Symbol struct {
	Name    string `json:"name"`
	Line    int    `json:"line_number"`
	EndLine int    `json:"end_line_number"`
	Owner   Owner  `json:"-"`
}

// Class is a class (or named type) with its methods in declaration order.
type Class struct {
	Name    string   `json:"name"`
	Line    int      `json:"line_number"`
	EndLine int      `json:"end_line_number"`
	Methods []Symbol `json:"methods"`
}

// Module is the outline of one source file.
type Module struct {
	Filename  string   `json:"filename"`
	Classes   []Class  `json:"classes"`
	Functions []Symbol `json:"functions"`
}

// Base returns the text after the final '/' in Filename, or the whole
// filename if it has no separator.
func (m Module) Base() string {
	if i := strings.LastIndexByte(m.Filename, '/'); i >= 0 {
		return m.Filename[i+1:]
	}
	return m.Filename
}

// SymbolCount returns the number of classes, methods and functions in m.
func (m Module) SymbolCount() int {
	n := len(m.Classes) + len(m.Functions)
	for _, c := range m.Classes {
		n += len(c.Methods)
	}
	return n
}

// NewFunction returns a module-level symbol.
func NewFunction(name string, line, endLine int) Symbol {
	return Symbol{Name: name, Line: line, EndLine: endLine, Owner: OwnerModule}
}

// NewMethod returns a class-level symbol.
func NewMethod(name string, line, endLine int) Symbol {
	return Symbol{Name: name, Line: line, EndLine: endLine, Owner: OwnerClass}
}
