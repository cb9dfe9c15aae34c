package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	button := Node{ID: "b1", Kind: KindButton, Label: "Buy"}
	section := Node{ID: "s1", Kind: KindSection, Children: []Node{button}}
	tpl := Template{TemplateID: "tpl-1", Name: "Hero", RootNode: Node{ID: "r1", Kind: KindSection}}

	tests := []struct {
		name     string
		old      *Document
		new      *Document
		wantDiff *DocumentDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  &Document{RootNodes: []Node{section}, Templates: []Template{tpl}},
			wantDiff: &DocumentDiff{
				Added:          []string{"b1", "s1"},
				TemplatesAdded: []string{"tpl-1"},
			},
		},
		{
			name:     "No Changes",
			old:      &Document{RootNodes: []Node{section}, Templates: []Template{tpl}},
			new:      &Document{RootNodes: []Node{section}, Templates: []Template{tpl}},
			wantDiff: nil,
		},
		{
			name: "Label Change",
			old:  &Document{RootNodes: []Node{section}},
			new: &Document{RootNodes: []Node{{ID: "s1", Kind: KindSection, Children: []Node{
				{ID: "b1", Kind: KindButton, Label: "Sell"},
			}}}},
			wantDiff: &DocumentDiff{Changed: []string{"b1"}},
		},
		{
			name: "Child Appended",
			old:  &Document{RootNodes: []Node{section}},
			new: &Document{RootNodes: []Node{{ID: "s1", Kind: KindSection, Children: []Node{
				button, {ID: "b2", Kind: KindButton},
			}}}},
			wantDiff: &DocumentDiff{Added: []string{"b2"}, Changed: []string{"s1"}},
		},
		{
			name:     "Node Removed",
			old:      &Document{RootNodes: []Node{section}},
			new:      &Document{RootNodes: []Node{{ID: "s1", Kind: KindSection}}},
			wantDiff: &DocumentDiff{Removed: []string{"b1"}, Changed: []string{"s1"}},
		},
		{
			name: "Template Edited",
			old:  &Document{Templates: []Template{tpl}},
			new: &Document{Templates: []Template{{TemplateID: "tpl-1", Name: "Hero v2", RootNode: tpl.RootNode}}},
			wantDiff: &DocumentDiff{TemplatesChanged: []string{"tpl-1"}},
		},
		{
			name:     "Nil And Empty Attributes Are Equal",
			old:      &Document{RootNodes: []Node{{ID: "t1", Kind: KindText}}},
			new:      &Document{RootNodes: []Node{{ID: "t1", Kind: KindText, Attributes: map[string]any{}}}},
			wantDiff: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Diff() = nil, want %+v", tt.wantDiff)
			}
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %+v, want %+v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Fields Omitted", func(t *testing.T) {
		old := &Document{RootNodes: []Node{{ID: "a", Kind: KindText}}}
		new := &Document{RootNodes: []Node{{ID: "a", Kind: KindText}, {ID: "b", Kind: KindText}}}
		diff := Diff(old, new)
		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"removed"`) {
			t.Errorf("JSON should not contain 'removed' when empty, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"added":["b"]`) {
			t.Errorf("JSON should contain added id, got: %s", string(bytes))
		}
	})
}

func TestNode_TemplateRef(t *testing.T) {
	stub := NewStub("s1", "tpl-9", "Hero")
	id, ok := stub.TemplateRef()
	if !ok || id != "tpl-9" {
		t.Errorf("TemplateRef() = %q, %v; want tpl-9, true", id, ok)
	}

	plain := Node{ID: "x", Kind: KindSection, Attributes: map[string]any{AttrTemplateID: "tpl-9"}}
	if _, ok := plain.TemplateRef(); ok {
		t.Error("non-global node must not report a template reference")
	}

	if _, ok := (Node{ID: "g", Kind: KindGlobal}).TemplateRef(); ok {
		t.Error("stub without templateId must not report a reference")
	}
}

func TestKind_IsContainer(t *testing.T) {
	for _, k := range Kinds() {
		if !k.Valid() {
			t.Errorf("kind %q should be valid", k)
		}
	}
	if !KindSection.IsContainer() || !KindForm.IsContainer() {
		t.Error("section and form are containers")
	}
	if KindButton.IsContainer() || KindGlobal.IsContainer() {
		t.Error("button and global stubs never own children")
	}
	if Kind("widget").Valid() {
		t.Error("unknown kinds are invalid")
	}
}
