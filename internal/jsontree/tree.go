package jsontree

import (
	"strings"

	"github.com/dgallion1/jsonlens/internal/jsonvalue"
)

// Tree is a built display tree with an index from JSON Pointer path to node.
type Tree struct {
	Root  *Node
	index map[string]*Node
}

// NewTree builds a tree for v and indexes every node by path.
func NewTree(v jsonvalue.Value) *Tree {
	t := &Tree{Root: Build(v), index: make(map[string]*Node)}
	t.Walk(func(n *Node) bool {
		t.index[n.Path] = n
		return true
	})
	return t
}

// Walk visits nodes depth-first in document order. Returning false from fn
// skips the node's children.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func(*Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// Find returns the node at path.
func (t *Tree) Find(path string) (*Node, bool) {
	n, ok := t.index[path]
	return n, ok
}

// Toggle flips the container at path. It returns false when path does not
// name a container.
func (t *Tree) Toggle(path string) bool {
	n, ok := t.index[path]
	if !ok || !n.IsContainer() {
		return false
	}
	n.Toggle()
	return true
}

// State returns the containers whose state differs from the default, keyed
// by path.
func (t *Tree) State() map[string]bool {
	state := make(map[string]bool)
	for path, n := range t.index {
		if n.IsContainer() && n.Expanded() != n.DefaultExpanded() {
			state[path] = n.Expanded()
		}
	}
	return state
}

// Apply sets explicit states by path. Unknown paths and non-containers are
// ignored.
func (t *Tree) Apply(state map[string]bool) {
	for path, expanded := range state {
		if n, ok := t.index[path]; ok {
			n.SetExpanded(expanded)
		}
	}
}

// LineKind says what a rendered line shows.
type LineKind string

const (
	LineValue     LineKind = "value"     // scalar or empty container
	LineOpen      LineKind = "open"      // expanded container, opening bracket
	LineClose     LineKind = "close"     // expanded container, closing bracket
	LineCollapsed LineKind = "collapsed" // collapsed container on one line
)

// Line is one visible row of the rendered tree.
type Line struct {
	Kind  LineKind `json:"kind"`
	Depth int      `json:"depth"`
	Path  string   `json:"path"`
	Text  string   `json:"text"`
}

const (
	toggleExpanded  = "▼ "
	toggleCollapsed = "▶ "
	indentUnit      = "  "
)

// Lines renders the currently visible rows.
func (t *Tree) Lines() []Line {
	var lines []Line
	var render func(n *Node)
	render = func(n *Node) {
		var b strings.Builder
		if n.HasKey {
			b.WriteString(jsonvalue.Quote(n.Key))
			b.WriteString(": ")
		}
		sep := ""
		if n.Trailing {
			sep = ","
		}
		open, closing := n.brackets()

		switch {
		case n.IsEmpty():
			b.WriteString(open + closing + sep)
			lines = append(lines, Line{Kind: LineValue, Depth: n.Depth, Path: n.Path, Text: b.String()})
		case !n.IsContainer():
			b.WriteString(n.Value.Scalar() + sep)
			lines = append(lines, Line{Kind: LineValue, Depth: n.Depth, Path: n.Path, Text: b.String()})
		case !n.Expanded():
			b.WriteString(toggleCollapsed + open + n.Summary() + closing + sep)
			lines = append(lines, Line{Kind: LineCollapsed, Depth: n.Depth, Path: n.Path, Text: b.String()})
		default:
			b.WriteString(toggleExpanded + open)
			lines = append(lines, Line{Kind: LineOpen, Depth: n.Depth, Path: n.Path, Text: b.String()})
			for _, c := range n.Children {
				render(c)
			}
			lines = append(lines, Line{Kind: LineClose, Depth: n.Depth, Path: n.Path, Text: closing + sep})
		}
	}
	render(t.Root)
	return lines
}

// String renders the visible rows, indented relative to the root.
func (t *Tree) String() string {
	var b strings.Builder
	for i, l := range t.Lines() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat(indentUnit, l.Depth-t.Root.Depth))
		b.WriteString(l.Text)
	}
	return b.String()
}
