package domain

import (
	"reflect"
	"sort"
)

// DocumentDiff represents the changes between two document snapshots.
// It is designed to be serialized to JSON and streamed to renderers.
type DocumentDiff struct {
	// Added, Removed and Changed hold page node ids.
	// A node is "changed" when its kind, label, attributes or child order differ.
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`

	TemplatesAdded   []string `json:"templates_added,omitempty"`
	TemplatesRemoved []string `json:"templates_removed,omitempty"`
	TemplatesChanged []string `json:"templates_changed,omitempty"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, every node and template of newDoc is reported as added (initial load).
// Returns nil when nothing changed.
func Diff(oldDoc, newDoc *Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}
	if oldDoc == nil {
		oldDoc = &Document{}
	}

	diff := &DocumentDiff{}
	diff.Added, diff.Removed, diff.Changed = diffNodes(flatten(oldDoc.RootNodes), flatten(newDoc.RootNodes))
	diff.TemplatesAdded, diff.TemplatesRemoved, diff.TemplatesChanged = diffTemplates(oldDoc.Templates, newDoc.Templates)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		len(d.TemplatesAdded) == 0 &&
		len(d.TemplatesRemoved) == 0 &&
		len(d.TemplatesChanged) == 0
}

// shape is the part of a node compared by Diff: everything but the children themselves.
type shape struct {
	kind     Kind
	label    string
	attrs    map[string]any
	childIDs []string
}

func flatten(nodes []Node) map[string]shape {
	out := make(map[string]shape)
	var walk func([]Node)
	walk = func(list []Node) {
		for _, n := range list {
			if _, seen := out[n.ID]; !seen {
				ids := make([]string, len(n.Children))
				for i, c := range n.Children {
					ids[i] = c.ID
				}
				out[n.ID] = shape{kind: n.Kind, label: n.Label, attrs: n.Attributes, childIDs: ids}
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

func diffNodes(old, new map[string]shape) (added, removed, changed []string) {
	for id, n := range new {
		o, exists := old[id]
		if !exists {
			added = append(added, id)
			continue
		}
		if o.kind != n.kind || o.label != n.label ||
			!equalAttrs(o.attrs, n.attrs) || !reflect.DeepEqual(o.childIDs, n.childIDs) {
			changed = append(changed, id)
		}
	}
	for id := range old {
		if _, exists := new[id]; !exists {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}

func diffTemplates(old, new []Template) (added, removed, changed []string) {
	oldByID := make(map[string]Template, len(old))
	for _, t := range old {
		oldByID[t.TemplateID] = t
	}
	newByID := make(map[string]Template, len(new))
	for _, t := range new {
		newByID[t.TemplateID] = t
		o, exists := oldByID[t.TemplateID]
		if !exists {
			added = append(added, t.TemplateID)
			continue
		}
		if !reflect.DeepEqual(o, t) {
			changed = append(changed, t.TemplateID)
		}
	}
	for id := range oldByID {
		if _, exists := newByID[id]; !exists {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}

// equalAttrs treats nil and empty maps as equal.
func equalAttrs(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
