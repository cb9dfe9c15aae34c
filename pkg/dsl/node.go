package dsl

import "github.com/aretw0/canopy/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     domain.Node
	children []*NodeBuilder
}

// Node starts a node of any kind.
func Node(kind domain.Kind, id string) *NodeBuilder {
	return &NodeBuilder{node: domain.Node{ID: id, Kind: kind}}
}

func Section(id string) *NodeBuilder   { return Node(domain.KindSection, id) }
func Container(id string) *NodeBuilder { return Node(domain.KindContainer, id) }
func Columns(id string) *NodeBuilder   { return Node(domain.KindColumns, id) }
func Navbar(id string) *NodeBuilder    { return Node(domain.KindNavbar, id) }
func Form(id string) *NodeBuilder      { return Node(domain.KindForm, id) }
func Text(id string) *NodeBuilder      { return Node(domain.KindText, id) }
func Heading(id string) *NodeBuilder   { return Node(domain.KindHeading, id) }
func Button(id string) *NodeBuilder    { return Node(domain.KindButton, id) }
func Image(id string) *NodeBuilder     { return Node(domain.KindImage, id) }

// Stub starts a global stub referencing templateID.
func Stub(id, templateID string) *NodeBuilder {
	return Node(domain.KindGlobal, id).Attr(domain.AttrTemplateID, templateID)
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Attr sets one attribute.
func (n *NodeBuilder) Attr(key string, value any) *NodeBuilder {
	if n.node.Attributes == nil {
		n.node.Attributes = make(map[string]any)
	}
	n.node.Attributes[key] = value
	return n
}

// Style sets one key of the style attribute.
func (n *NodeBuilder) Style(key string, value any) *NodeBuilder {
	style, _ := n.node.Attributes[domain.AttrStyle].(map[string]any)
	if style == nil {
		style = make(map[string]any)
	}
	style[key] = value
	return n.Attr(domain.AttrStyle, style)
}

// Popup makes the node open targetID as a popup.
func (n *NodeBuilder) Popup(targetID string) *NodeBuilder {
	return n.Attr(domain.AttrAction, domain.ActionPopup).Attr(domain.AttrTargetID, targetID)
}

// Link appends a plain navigation link.
func (n *NodeBuilder) Link(label, url string) *NodeBuilder {
	return n.appendLink(map[string]any{"label": label, "url": url})
}

// MegaMenu appends a navigation link that opens targetID as a mega menu.
func (n *NodeBuilder) MegaMenu(label, targetID string) *NodeBuilder {
	return n.appendLink(map[string]any{
		"label":             label,
		domain.AttrLinkType: domain.LinkTypeMegaMenu,
		domain.AttrTargetID: targetID,
	})
}

func (n *NodeBuilder) appendLink(link map[string]any) *NodeBuilder {
	links, _ := n.node.Attributes[domain.AttrLinks].([]any)
	return n.Attr(domain.AttrLinks, append(links, link))
}

// Children appends child nodes.
func (n *NodeBuilder) Children(children ...*NodeBuilder) *NodeBuilder {
	n.children = append(n.children, children...)
	return n
}

// Build returns the node with its built children.
func (n *NodeBuilder) Build() domain.Node {
	out := n.node
	out.Children = nil
	for _, c := range n.children {
		out.Children = append(out.Children, c.Build())
	}
	return out
}
