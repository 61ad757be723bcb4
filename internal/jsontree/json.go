package jsontree

import (
	"encoding/json"

	"github.com/dgallion1/jsonlens/internal/jsonvalue"
)

type nodeJSON struct {
	Key      *string          `json:"key,omitempty"`
	Kind     string           `json:"kind"`
	Value    *jsonvalue.Value `json:"value,omitempty"`
	Count    int              `json:"count"`
	Depth    int              `json:"depth"`
	Path     string           `json:"path"`
	Trailing bool             `json:"trailing"`
	Expanded *bool            `json:"expanded,omitempty"`
	Children []*Node          `json:"children,omitempty"`
}

// MarshalJSON encodes a node for external renderers. Leaves carry their
// value, containers their expansion state and children.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		Kind:     n.Kind.String(),
		Count:    n.Count,
		Depth:    n.Depth,
		Path:     n.Path,
		Trailing: n.Trailing,
	}
	if n.HasKey {
		key := n.Key
		out.Key = &key
	}
	switch {
	case n.IsContainer():
		expanded := n.Expanded()
		out.Expanded = &expanded
		out.Children = n.Children
	case !n.IsEmpty():
		v := n.Value
		out.Value = &v
	}
	return json.Marshal(out)
}
