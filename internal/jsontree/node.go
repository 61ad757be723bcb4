// Package jsontree turns a parsed JSON value into a collapsible display tree.
//
// Containers nested less than DefaultExpandDepth levels deep start expanded,
// deeper ones start collapsed. After construction only Toggle (or an explicit
// SetExpanded) changes a node's state. Rebuilding a tree always starts from
// the default policy again.
package jsontree

import (
	"strconv"
	"strings"

	"github.com/dgallion1/jsonlens/internal/jsonvalue"
)

// DefaultExpandDepth is the number of outer nesting levels visible by default.
const DefaultExpandDepth = 2

// Node is one entry of the display tree.
type Node struct {
	Key    string
	HasKey bool // false for the root and for array elements
	Kind   jsonvalue.Kind
	Value  jsonvalue.Value // the scalar, for leaves

	Children []*Node
	Count    int // entries in the source container, fixed at build time
	Depth    int
	Path     string // JSON Pointer from the root, "" for the root itself

	// Trailing is true when a separator follows this node, i.e. it is not
	// the last of its siblings.
	Trailing bool

	expanded bool
}

// Build builds the tree for v with the root at depth 0.
func Build(v jsonvalue.Value) *Node {
	return BuildAt(v, 0)
}

// BuildAt builds the tree for v with the root at the given depth.
func BuildAt(v jsonvalue.Value, depth int) *Node {
	return build(v, depth, "")
}

func build(v jsonvalue.Value, depth int, path string) *Node {
	n := &Node{
		Kind:  v.Kind(),
		Depth: depth,
		Path:  path,
		Count: v.Len(),
	}
	switch v.Kind() {
	case jsonvalue.Object:
		members := v.Members()
		n.Children = make([]*Node, len(members))
		for i, m := range members {
			child := build(m.Value, depth+1, path+"/"+escapePointer(m.Key))
			child.Key = m.Key
			child.HasKey = true
			child.Trailing = i < len(members)-1
			n.Children[i] = child
		}
	case jsonvalue.Array:
		items := v.Items()
		n.Children = make([]*Node, len(items))
		for i, item := range items {
			child := build(item, depth+1, path+"/"+strconv.Itoa(i))
			child.Trailing = i < len(items)-1
			n.Children[i] = child
		}
	default:
		n.Value = v
	}
	n.expanded = n.IsContainer() && n.DefaultExpanded()
	return n
}

// IsContainer reports whether n is an object or array with at least one
// entry. Only containers have an expansion state.
func (n *Node) IsContainer() bool {
	return (n.Kind == jsonvalue.Object || n.Kind == jsonvalue.Array) && n.Count > 0
}

// IsEmpty reports whether n is an object or array with no entries.
func (n *Node) IsEmpty() bool {
	return (n.Kind == jsonvalue.Object || n.Kind == jsonvalue.Array) && n.Count == 0
}

func (n *Node) IsLeaf() bool { return !n.IsContainer() }

// DefaultExpanded is the state a container starts in.
func (n *Node) DefaultExpanded() bool {
	return n.Depth < DefaultExpandDepth
}

// Expanded reports whether a container currently shows its children.
// Leaves and empty containers are never expanded.
func (n *Node) Expanded() bool {
	return n.IsContainer() && n.expanded
}

// Toggle flips a container between expanded and collapsed and returns the
// new state. It is a no-op on leaves and empty containers.
func (n *Node) Toggle() bool {
	if !n.IsContainer() {
		return false
	}
	n.expanded = !n.expanded
	return n.expanded
}

// SetExpanded sets a container's state. It is a no-op on leaves.
func (n *Node) SetExpanded(expanded bool) {
	if n.IsContainer() {
		n.expanded = expanded
	}
}

// Summary is the placeholder shown for a collapsed container.
func (n *Node) Summary() string {
	if n.Kind == jsonvalue.Array {
		return "..." + strconv.Itoa(n.Count) + " items"
	}
	return "..." + strconv.Itoa(n.Count) + " keys"
}

func (n *Node) brackets() (string, string) {
	if n.Kind == jsonvalue.Array {
		return "[", "]"
	}
	return "{", "}"
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(key string) string {
	return pointerEscaper.Replace(key)
}
