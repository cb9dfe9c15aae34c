package tree

import (
	"github.com/aretw0/canopy/pkg/domain"
)

// Clone deep-copies node. Every node of the copy, root included, receives a
// fresh id from gen that is absent from taken; the new ids are added to taken.
// Attribute values are copied by value, nested maps and slices included.
// A nil taken set clones against an empty scope.
func Clone(node domain.Node, gen IDGenerator, taken map[string]struct{}) domain.Node {
	if taken == nil {
		taken = make(map[string]struct{})
	}
	return cloneWith(node, func(n domain.Node) string {
		return FreshID(gen, n.Kind, taken)
	})
}

// Rekey deep-copies node, keeping ids that are free in taken and replacing the
// ones that collide (including collisions inside the subtree itself).
// It enforces scope uniqueness for subtrees coming from outside the scope.
func Rekey(node domain.Node, gen IDGenerator, taken map[string]struct{}) domain.Node {
	if taken == nil {
		taken = make(map[string]struct{})
	}
	return cloneWith(node, func(n domain.Node) string {
		if _, used := taken[n.ID]; n.ID != "" && n.ID != domain.RootTarget && !used {
			taken[n.ID] = struct{}{}
			return n.ID
		}
		return FreshID(gen, n.Kind, taken)
	})
}

func cloneWith(n domain.Node, idFor func(domain.Node) string) domain.Node {
	out := domain.Node{
		ID:         idFor(n),
		Kind:       n.Kind,
		Label:      n.Label,
		Attributes: CopyAttributes(n.Attributes),
	}
	if n.Children != nil {
		out.Children = make([]domain.Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = cloneWith(c, idFor)
		}
	}
	return out
}

// CopyAttributes returns a deep copy of an attribute map.
func CopyAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies an attribute value. Maps and slices are duplicated,
// scalars are returned as is.
func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyAttributes(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CopyValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = CopyAttributes(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}

// Copy deep-copies node keeping every id.
func Copy(node domain.Node) domain.Node {
	return cloneWith(node, func(n domain.Node) string { return n.ID })
}

// CopyDocument deep-copies a whole document keeping every id.
func CopyDocument(doc *domain.Document) *domain.Document {
	out := domain.NewDocument()
	for _, n := range doc.RootNodes {
		out.RootNodes = append(out.RootNodes, Copy(n))
	}
	for _, tpl := range doc.Templates {
		tpl.RootNode = Copy(tpl.RootNode)
		out.Templates = append(out.Templates, tpl)
	}
	return out
}
