package domain

// Kind identifies the variant of a node. The set is closed.
type Kind string

// Container-like kinds may own children.
const (
	KindSection   Kind = "section"
	KindContainer Kind = "container"
	KindColumns   Kind = "columns"
	KindNavbar    Kind = "navbar"
	KindSlider    Kind = "slider"
	KindCard      Kind = "card"
	KindForm      Kind = "form"
)

// Leaf-like kinds never own children.
const (
	KindText         Kind = "text"
	KindHeading      Kind = "heading"
	KindImage        Kind = "image"
	KindButton       Kind = "button"
	KindVideo        Kind = "video"
	KindList         Kind = "list"
	KindMap          Kind = "map"
	KindGallery      Kind = "gallery"
	KindTestimonial  Kind = "testimonial"
	KindLogo         Kind = "logo"
	KindMenu         Kind = "menu"
	KindCustomCode   Kind = "custom-code"
	KindCustomScript Kind = "custom-script"
	KindFormField    Kind = "form-field"
)

// KindGlobal is the stub kind: a node that defers its whole subtree to a template.
const KindGlobal Kind = "global"

var containerKinds = map[Kind]bool{
	KindSection:   true,
	KindContainer: true,
	KindColumns:   true,
	KindNavbar:    true,
	KindSlider:    true,
	KindCard:      true,
	KindForm:      true,
}

var leafKinds = map[Kind]bool{
	KindText:         true,
	KindHeading:      true,
	KindImage:        true,
	KindButton:       true,
	KindVideo:        true,
	KindList:         true,
	KindMap:          true,
	KindGallery:      true,
	KindTestimonial:  true,
	KindLogo:         true,
	KindMenu:         true,
	KindCustomCode:   true,
	KindCustomScript: true,
	KindFormField:    true,
}

// IsContainer reports whether nodes of this kind may own children.
func (k Kind) IsContainer() bool {
	return containerKinds[k]
}

// Valid reports whether k belongs to the closed set of kinds.
func (k Kind) Valid() bool {
	return containerKinds[k] || leafKinds[k] || k == KindGlobal
}

// Kinds returns every known kind, containers first.
func Kinds() []Kind {
	return []Kind{
		KindSection, KindContainer, KindColumns, KindNavbar, KindSlider, KindCard, KindForm,
		KindText, KindHeading, KindImage, KindButton, KindVideo, KindList, KindMap, KindGallery,
		KindTestimonial, KindLogo, KindMenu, KindCustomCode, KindCustomScript, KindFormField,
		KindGlobal,
	}
}

// Node is one element of the document tree.
//
// Attributes is an open mapping of kind-specific properties; the engine never
// interprets it except for the few keys listed in constants.go. A nil and an
// empty Children slice both mean "no children".
type Node struct {
	ID         string         `json:"id" yaml:"id"`
	Kind       Kind           `json:"type" yaml:"type"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children   []Node         `json:"children,omitempty" yaml:"children,omitempty"`
}

// HasChildren reports whether the node owns at least one child.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// IsGlobal reports whether the node is a template stub.
func (n Node) IsGlobal() bool {
	return n.Kind == KindGlobal
}

// TemplateRef returns the template id a global stub points to.
func (n Node) TemplateRef() (string, bool) {
	if n.Kind != KindGlobal || n.Attributes == nil {
		return "", false
	}
	id, ok := n.Attributes[AttrTemplateID].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Attr returns a string attribute, or "" when absent or not a string.
func (n Node) Attr(key string) string {
	if n.Attributes == nil {
		return ""
	}
	s, _ := n.Attributes[key].(string)
	return s
}

// NewStub builds a global stub that keeps id and references templateID.
func NewStub(id, templateID, label string) Node {
	return Node{
		ID:         id,
		Kind:       KindGlobal,
		Label:      label,
		Attributes: map[string]any{AttrTemplateID: templateID},
	}
}
