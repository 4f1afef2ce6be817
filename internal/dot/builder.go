// Package dot renders a repository outline as a Graphviz DOT document.
//
// Each module becomes a cluster labelled with its file name, each class a
// nested cluster, and each method or function a box node. Every cluster and
// node carries a URL attribute pointing back at the source line, so a DOT
// viewer that supports links can open the code in an editor.
//
// The output is a pure function of the input: the same outline always yields
// byte-identical text, and identifiers are derived only from positions.
package dot

import (
	"strings"

	"repoviewer/internal/outline"
)

const (
	header = "digraph G {\n  rankdir=TB;\n  node [shape=box];\n"
	footer = "}"
)

// Builder turns outlines into DOT documents. A Builder holds only
// configuration and may be shared between goroutines.
type Builder struct {
	links       Linker
	moduleColor string
	classColor  string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLinker sets how deep-link addresses are built.
func WithLinker(l Linker) Option {
	return func(b *Builder) { b.links = l }
}

// WithModuleColor sets the border color of module clusters.
func WithModuleColor(c string) Option {
	return func(b *Builder) {
		if c != "" {
			b.moduleColor = c
		}
	}
}

// WithClassColor sets the border color of class clusters.
func WithClassColor(c string) Option {
	return func(b *Builder) {
		if c != "" {
			b.classColor = c
		}
	}
}

// New returns a Builder with the default scheme and colors.
func New(opts ...Option) *Builder {
	b := &Builder{
		links:       NewLinker(""),
		moduleColor: "blue",
		classColor:  "red",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders modules in input order at every level.
func (b *Builder) Build(modules []outline.Module) string {
	w := &writer{}
	w.raw(header)
	for i, m := range modules {
		b.module(w, Root(i), m)
	}
	w.raw(footer)
	return w.String()
}

func (b *Builder) module(w *writer, pos Position, m outline.Module) {
	w.open(1, pos.ID(KindCluster))
	w.attr(2, "label", m.Base())
	w.attr(2, "URL", b.links.File(m.Filename))
	w.plain(2, "color", b.moduleColor)

	for i, c := range m.Classes {
		b.class(w, pos.Child(i), m.Filename, c)
	}
	for i, fn := range m.Functions {
		w.node(2, pos.Child(i).ID(KindFunction), fn.Name, b.links.Line(m.Filename, fn.Line))
	}
	w.close(1)
}

func (b *Builder) class(w *writer, pos Position, filename string, c outline.Class) {
	w.open(2, pos.ID(KindCluster))
	w.attr(3, "label", c.Name)
	w.attr(3, "URL", b.links.Line(filename, c.Line))
	w.plain(3, "color", b.classColor)

	for i, method := range c.Methods {
		w.node(3, pos.Child(i).ID(KindMethod), method.Name, b.links.Line(filename, method.Line))
	}
	w.close(2)
}

// writer accumulates one document. It is never shared between calls.
type writer struct {
	strings.Builder
}

func (w *writer) raw(s string) {
	w.WriteString(s)
}

func (w *writer) indent(depth int) {
	for range depth {
		w.WriteString("  ")
	}
}

func (w *writer) open(depth int, id string) {
	w.indent(depth)
	w.WriteString("subgraph ")
	w.WriteString(id)
	w.WriteString(" {\n")
}

func (w *writer) close(depth int) {
	w.indent(depth)
	w.WriteString("}\n")
}

// attr writes a quoted attribute statement.
func (w *writer) attr(depth int, key, value string) {
	w.indent(depth)
	w.WriteString(key)
	w.WriteString(`="`)
	w.WriteString(Escape(value))
	w.WriteString("\";\n")
}

// plain writes an unquoted attribute statement.
func (w *writer) plain(depth int, key, value string) {
	w.indent(depth)
	w.WriteString(key)
	w.WriteByte('=')
	w.WriteString(value)
	w.WriteString(";\n")
}

func (w *writer) node(depth int, id, label, url string) {
	w.indent(depth)
	w.WriteString(id)
	w.WriteString(` [label="`)
	w.WriteString(Escape(label))
	w.WriteString(`", URL="`)
	w.WriteString(Escape(url))
	w.WriteString("\"];\n")
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// Escape makes s safe to place between double quotes in a DOT document.
// Strings without backslashes, quotes or line breaks are returned unchanged.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\\"\r\n") {
		return s
	}
	return escaper.Replace(s)
}
