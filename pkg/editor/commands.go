package editor

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/dropzone"
	"github.com/aretw0/canopy/pkg/tree"
)

// Select focuses a node of the active scope. An empty id clears the selection.
// Unknown ids are ignored and the previous selection is kept.
func (e *Editor) Select(id string) bool {
	if id == "" {
		e.selected = ""
		return true
	}
	if !tree.CheckCollision(id, e.activeScope()) {
		return false
	}
	e.selected = id
	return true
}

// UpdateID renames a node. The new id must be non-empty, must not be the
// root sentinel and must be free in the active scope; otherwise the prior id
// is kept and ErrInvalidID or ErrDuplicateID is returned.
func (e *Editor) UpdateID(oldID, newID string) error {
	_, err := e.mutate("update_id", oldID, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if newID == "" || newID == domain.RootTarget {
			return scope, false, fmt.Errorf("rename %s to %q: %w", oldID, newID, domain.ErrInvalidID)
		}
		if oldID == newID || !tree.CheckCollision(oldID, scope) {
			return scope, false, nil
		}
		if tree.CheckCollision(newID, scope) {
			return scope, false, fmt.Errorf("rename %s to %s: %w", oldID, newID, domain.ErrDuplicateID)
		}
		return tree.Update(scope, oldID, func(n domain.Node) domain.Node {
			n.ID = newID
			return n
		}), true, nil
	})
	if err == nil && e.selected == oldID && oldID != newID {
		e.selected = newID
	}
	return err
}

// UpdateLabel changes the display name of a node.
func (e *Editor) UpdateLabel(id, label string) bool {
	changed, _ := e.mutate("update_label", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		n, ok := tree.Locate(scope, id)
		if !ok || n.Label == label {
			return scope, false, nil
		}
		return tree.Update(scope, id, func(n domain.Node) domain.Node {
			n.Label = label
			return n
		}), true, nil
	})
	return changed
}

// UpdateAttributes merges attrs into the node's attributes. A nil value removes the key.
func (e *Editor) UpdateAttributes(id string, attrs map[string]any) bool {
	changed, _ := e.mutate("update_attributes", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if len(attrs) == 0 || !tree.CheckCollision(id, scope) {
			return scope, false, nil
		}
		return tree.Update(scope, id, func(n domain.Node) domain.Node {
			n.Attributes = mergeAttributes(n.Attributes, attrs)
			return n
		}), true, nil
	})
	return changed
}

// UpdateStyleAttribute sets one key of the node's "style" map. A nil value removes it.
func (e *Editor) UpdateStyleAttribute(id, key string, value any) bool {
	changed, _ := e.mutate("update_style", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if key == "" || !tree.CheckCollision(id, scope) {
			return scope, false, nil
		}
		return tree.Update(scope, id, func(n domain.Node) domain.Node {
			style, _ := n.Attributes[domain.AttrStyle].(map[string]any)
			style = mergeAttributes(style, map[string]any{key: value})
			if n.Attributes == nil {
				n.Attributes = make(map[string]any)
			}
			if len(style) == 0 {
				delete(n.Attributes, domain.AttrStyle)
			} else {
				n.Attributes[domain.AttrStyle] = style
			}
			return n
		}), true, nil
	})
	return changed
}

// Delete removes a node and its subtree from the active scope.
// Templates referenced by stubs inside the subtree are not touched.
func (e *Editor) Delete(id string) error {
	var removed *domain.Node
	_, err := e.mutate("delete", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		var out []domain.Node
		out, removed = tree.Remove(scope, id)
		return out, removed != nil, nil
	})
	if err == nil && removed != nil && tree.Contains(*removed, e.selected) {
		e.selected = ""
	}
	return err
}

// Duplicate inserts a fresh-id copy of the node right after the original and returns its id.
// An unknown id returns "".
func (e *Editor) Duplicate(id string) (string, error) {
	var newID string
	_, err := e.mutate("duplicate", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		n, ok := tree.Locate(scope, id)
		if !ok {
			return scope, false, nil
		}
		clone := tree.Clone(n, e.gen, tree.CollectIDs(scope))
		newID = clone.ID
		return tree.Insert(scope, id, domain.PositionAfter, clone), true, nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// Insert pastes node at pos relative to targetID and returns the id it was given.
// Every node of the payload receives a fresh id in the active scope. Inside on a
// leaf kind is demoted to after. A missing target returns "".
func (e *Editor) Insert(targetID string, pos domain.Position, node domain.Node) (string, error) {
	var newID string
	_, err := e.mutate("insert", targetID, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if !pos.Valid() {
			return scope, false, fmt.Errorf("insert at %q: invalid position", pos)
		}
		if targetID != domain.RootTarget {
			target, ok := tree.Locate(scope, targetID)
			if !ok {
				return scope, false, nil
			}
			if pos == domain.PositionInside && !target.Kind.IsContainer() {
				pos = domain.PositionAfter
			}
		}
		clone := tree.Clone(node, e.gen, tree.CollectIDs(scope))
		newID = clone.ID
		return tree.Insert(scope, targetID, pos, clone), true, nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// DropPayload is what is being dragged: an existing node of the active scope
// (a move) or a new node (a create).
type DropPayload struct {
	NodeID string       `json:"nodeId,omitempty" yaml:"nodeId,omitempty"`
	Node   *domain.Node `json:"node,omitempty" yaml:"node,omitempty"`
}

// Drop resolves zone against the target kind and places the payload there.
// A move removes the node first and re-inserts its subtree; dropping a node on
// itself or into its own subtree is a no-op. The root sentinel appends at the top.
// It returns the id of the dropped node, or "" when nothing happened.
func (e *Editor) Drop(targetID string, zone domain.Zone, payload DropPayload) (string, error) {
	if payload.NodeID == "" && payload.Node == nil {
		return "", nil
	}
	if payload.NodeID == "" {
		pos := domain.PositionInside
		if targetID != domain.RootTarget {
			target, ok := tree.Locate(e.activeScope(), targetID)
			if !ok {
				return "", nil
			}
			pos = dropzone.Resolve(zone, target.Kind)
		}
		return e.Insert(targetID, pos, *payload.Node)
	}

	moved := payload.NodeID
	changed, err := e.mutate("move", moved, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if moved == targetID {
			return scope, false, nil
		}
		dragged, ok := tree.Locate(scope, moved)
		if !ok {
			return scope, false, nil
		}
		pos := domain.PositionInside
		if targetID != domain.RootTarget {
			target, ok := tree.Locate(scope, targetID)
			if !ok || tree.Contains(dragged, targetID) {
				return scope, false, nil
			}
			pos = dropzone.Resolve(zone, target.Kind)
		}
		out, removed := tree.Remove(scope, moved)
		return tree.Insert(out, targetID, pos, *removed), true, nil
	})
	if err != nil || !changed {
		return "", err
	}
	return moved, nil
}

// SetChildren replaces a container's children. Ids that would collide with
// the rest of the scope are re-keyed. Leaf kinds yield ErrLeafChildren.
func (e *Editor) SetChildren(id string, children []domain.Node) error {
	_, err := e.mutate("set_children", id, func(scope []domain.Node) ([]domain.Node, bool, error) {
		if !tree.CheckCollision(id, scope) {
			return scope, false, nil
		}
		cleared, err := tree.SetChildren(scope, id, nil)
		if err != nil {
			return scope, false, err
		}
		taken := tree.CollectIDs(cleared)
		keyed := make([]domain.Node, len(children))
		for i, c := range children {
			keyed[i] = tree.Rekey(c, e.gen, taken)
		}
		out, err := tree.SetChildren(scope, id, keyed)
		if err != nil {
			return scope, false, fmt.Errorf("set children of %s: %w", id, err)
		}
		return out, true, nil
	})
	return err
}

func mergeAttributes(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = tree.CopyValue(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
