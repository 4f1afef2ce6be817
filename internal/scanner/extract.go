package scanner

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"repoviewer/internal/outline"
)

// ErrSyntax marks a file whose syntax tree contains errors.
var ErrSyntax = errors.New("syntax error")

type defKind int

const (
	defClass defKind = iota
	defFunction
	defMethod
)

type definition struct {
	kind     defKind
	node     tree_sitter.Node
	name     string
	receiver string
}

// extract parses src and builds the outline of filename.
func extract(lang *language, filename string, src []byte) (outline.Module, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang.grammar); err != nil {
		return outline.Module{}, fmt.Errorf("setting %s grammar: %w", lang.name, err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return outline.Module{}, fmt.Errorf("parsing %s: no tree produced", filename)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return outline.Module{}, fmt.Errorf("%w in %s", ErrSyntax, filename)
	}

	defs := collect(lang, root, src)
	return build(lang, filename, defs), nil
}

func collect(lang *language, root *tree_sitter.Node, src []byte) []definition {
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	names := lang.query.CaptureNames()
	var defs []definition

	matches := cursor.Matches(lang.query, root, src)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var def definition
		found := false
		for _, c := range match.Captures {
			switch names[c.Index] {
			case "class":
				def.kind, def.node, found = defClass, c.Node, true
			case "function":
				def.kind, def.node, found = defFunction, c.Node, true
			case "method":
				def.kind, def.node, found = defMethod, c.Node, true
			case "name":
				def.name = c.Node.Utf8Text(src)
			case "receiver":
				def.receiver = receiverType(c.Node.Utf8Text(src))
			}
		}
		if found && def.name != "" {
			defs = append(defs, def)
		}
	}

	slices.SortStableFunc(defs, func(a, b definition) int {
		return int(a.node.StartByte()) - int(b.node.StartByte())
	})
	return defs
}

// build arranges definitions into classes and functions. Methods and
// functions keep document order within their container. Classes are in
// document order, or in the order their bodies end when the language lists
// nested classes first.
func build(lang *language, filename string, defs []definition) outline.Module {
	m := outline.Module{
		Filename:  filename,
		Classes:   []outline.Class{},
		Functions: []outline.Symbol{},
	}

	var classes []definition
	for _, d := range defs {
		if d.kind == defClass && !local(lang, &d.node) {
			classes = append(classes, d)
		}
	}
	if lang.classesAfterBody {
		slices.SortStableFunc(classes, func(a, b definition) int {
			if a.node.EndByte() != b.node.EndByte() {
				return int(a.node.EndByte()) - int(b.node.EndByte())
			}
			// an inner class ending with its outer class comes first
			return int(b.node.StartByte()) - int(a.node.StartByte())
		})
	}

	byNode := make(map[uintptr]int)
	byName := make(map[string]int)
	for _, d := range classes {
		start, end := lines(&d.node)
		byNode[d.node.Id()] = len(m.Classes)
		if _, dup := byName[d.name]; !dup {
			byName[d.name] = len(m.Classes)
		}
		m.Classes = append(m.Classes, outline.Class{
			Name:    d.name,
			Line:    start,
			EndLine: end,
			Methods: []outline.Symbol{},
		})
	}

	for _, d := range defs {
		if d.kind == defClass || isTransparent(lang, &d.node) {
			continue
		}
		start, end := lines(&d.node)

		if lang.byReceiver && d.kind == defMethod {
			if local(lang, &d.node) {
				continue
			}
			idx, ok := byName[d.receiver]
			if !ok {
				idx = len(m.Classes)
				byName[d.receiver] = idx
				m.Classes = append(m.Classes, outline.Class{
					Name:    d.receiver,
					Line:    start,
					EndLine: end,
					Methods: []outline.Symbol{},
				})
			}
			m.Classes[idx].Methods = append(m.Classes[idx].Methods, outline.NewMethod(d.name, start, end))
			continue
		}

		owner, nested := enclosingClass(lang, &d.node)
		switch {
		case nested:
			continue
		case owner != nil:
			idx, ok := byNode[owner.Id()]
			if !ok {
				// anonymous class expression or a class hidden in a function
				continue
			}
			m.Classes[idx].Methods = append(m.Classes[idx].Methods, outline.NewMethod(d.name, start, end))
		case d.kind == defFunction:
			m.Functions = append(m.Functions, outline.NewFunction(d.name, start, end))
		}
	}
	return m
}

func isTransparent(lang *language, n *tree_sitter.Node) bool {
	return lang.transparent != nil && lang.transparent(n)
}

// isScope reports whether n hides the definitions in its body.
func isScope(lang *language, n *tree_sitter.Node) bool {
	return lang.scopeKinds[n.Kind()] && !isTransparent(lang, n)
}

// enclosingClass returns the nearest class ancestor of n. nested reports
// that a function-like scope was reached first.
func enclosingClass(lang *language, n *tree_sitter.Node) (owner *tree_sitter.Node, nested bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isScope(lang, p) {
			return nil, true
		}
		if lang.classKinds[p.Kind()] {
			return p, false
		}
	}
	return nil, false
}

// local reports whether n sits inside any function-like scope.
func local(lang *language, n *tree_sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if isScope(lang, p) {
			return true
		}
	}
	return false
}

func lines(n *tree_sitter.Node) (int, int) {
	return int(n.StartPosition().Row) + 1, int(n.EndPosition().Row) + 1
}

// receiverType extracts the type name from a Go receiver such as
// "(s *Server)" or "(Cache[K, V])".
func receiverType(recv string) string {
	recv = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(recv), "("), ")"))
	if i := strings.IndexByte(recv, '['); i >= 0 {
		recv = recv[:i]
	}
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimLeft(fields[len(fields)-1], "*")
}
