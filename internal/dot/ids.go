package dot

import (
	"strconv"
	"strings"
)

// Kind is the tag that prefixes a graph identifier.
type Kind string

const (
	// KindCluster is shared by module and class clusters; the number of
	// indices tells them apart.
	KindCluster  Kind = "cluster"
	KindMethod   Kind = "method"
	KindFunction Kind = "func"
)

// Position is the index path of an entity in the outline: module index,
// then class or function index, then method index.
type Position struct {
	indices []int
}

// Root returns the position of the module at index i.
func Root(i int) Position {
	return Position{indices: []int{i}}
}

// Child returns the position one level below p at index i. p is not
// modified and the result never shares storage with it.
func (p Position) Child(i int) Position {
	next := make([]int, len(p.indices)+1)
	copy(next, p.indices)
	next[len(p.indices)] = i
	return Position{indices: next}
}

// Depth is the number of indices in p.
func (p Position) Depth() int {
	return len(p.indices)
}

// ID returns the identifier for the entity of the given kind at p, e.g.
// "cluster_0_1" or "method_0_1_2".
func (p Position) ID(kind Kind) string {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, i := range p.indices {
		b.WriteByte('_')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}
