package tree

import (
	"maps"

	"github.com/aretw0/canopy/pkg/domain"
)

// Locate returns the first node matching id in depth-first, left-to-right order.
func Locate(nodes []domain.Node, id string) (domain.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
		if found, ok := Locate(n.Children, id); ok {
			return found, true
		}
	}
	return domain.Node{}, false
}

// Update returns a new scope where the first node matching id has fn applied.
// Every ancestor on the path is replaced; untouched siblings are shared.
// fn receives the node with a private shallow copy of its attribute map, so it
// may write attributes without affecting earlier snapshots.
// If id is absent the input is returned as is.
func Update(nodes []domain.Node, id string, fn func(domain.Node) domain.Node) []domain.Node {
	out, _ := update(nodes, id, fn)
	return out
}

func update(nodes []domain.Node, id string, fn func(domain.Node) domain.Node) ([]domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			n.Attributes = maps.Clone(n.Attributes)
			return replaceAt(nodes, i, fn(n)), true
		}
		if children, ok := update(n.Children, id, fn); ok {
			n.Children = children
			return replaceAt(nodes, i, n), true
		}
	}
	return nodes, false
}

// Replace swaps the first node matching id for replacement, subtree included.
func Replace(nodes []domain.Node, id string, replacement domain.Node) []domain.Node {
	return Update(nodes, id, func(domain.Node) domain.Node { return replacement })
}

// Remove detaches the first node matching id anywhere in the tree.
// It returns the new scope and the removed node with its subtree, or nil if not found.
// At most one node is removed even if ids are duplicated.
func Remove(nodes []domain.Node, id string) ([]domain.Node, *domain.Node) {
	for i, n := range nodes {
		if n.ID == id {
			removed := n
			out := make([]domain.Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			if len(out) == 0 {
				out = nil
			}
			return out, &removed
		}
		if children, removed := Remove(n.Children, id); removed != nil {
			n.Children = children
			return replaceAt(nodes, i, n), removed
		}
	}
	return nodes, nil
}

// Insert places node relative to targetID.
//
// For before/after the current level is searched first and, failing that,
// each node's children in order; the first container holding the target wins.
// For inside the node is appended to the target's children. Inside on a leaf
// kind is allowed here; callers demote it when they care.
// The RootTarget sentinel always appends to the top level.
// A missing target returns the input unchanged.
func Insert(nodes []domain.Node, targetID string, pos domain.Position, node domain.Node) []domain.Node {
	if targetID == domain.RootTarget {
		return appendNode(nodes, node)
	}
	switch pos {
	case domain.PositionInside:
		return Update(nodes, targetID, func(n domain.Node) domain.Node {
			n.Children = appendNode(n.Children, node)
			return n
		})
	case domain.PositionBefore, domain.PositionAfter:
		out, _ := insertAdjacent(nodes, targetID, pos == domain.PositionAfter, node)
		return out
	default:
		return nodes
	}
}

func insertAdjacent(nodes []domain.Node, targetID string, after bool, node domain.Node) ([]domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == targetID {
			at := i
			if after {
				at = i + 1
			}
			out := make([]domain.Node, 0, len(nodes)+1)
			out = append(out, nodes[:at]...)
			out = append(out, node)
			out = append(out, nodes[at:]...)
			return out, true
		}
	}
	for i, n := range nodes {
		if children, ok := insertAdjacent(n.Children, targetID, after, node); ok {
			n.Children = children
			return replaceAt(nodes, i, n), true
		}
	}
	return nodes, false
}

// SetChildren replaces the children of the node matching id.
// Leaf kinds are rejected with ErrLeafChildren and the scope is returned unchanged.
func SetChildren(nodes []domain.Node, id string, children []domain.Node) ([]domain.Node, error) {
	target, ok := Locate(nodes, id)
	if !ok {
		return nodes, nil
	}
	if !target.Kind.IsContainer() && len(children) > 0 {
		return nodes, domain.ErrLeafChildren
	}
	return Update(nodes, id, func(n domain.Node) domain.Node {
		n.Children = children
		return n
	}), nil
}

func replaceAt(nodes []domain.Node, i int, n domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

func appendNode(nodes []domain.Node, n domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(nodes)+1)
	out = append(out, nodes...)
	return append(out, n)
}
