package dsl

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
)

// Builder manages the document construction.
type Builder struct {
	page      []*NodeBuilder
	templates []domain.Template
	roots     []*NodeBuilder
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{}
}

// Page appends top-level page nodes.
func (b *Builder) Page(nodes ...*NodeBuilder) *Builder {
	b.page = append(b.page, nodes...)
	return b
}

// Template adds a template with a single root node.
func (b *Builder) Template(id, name string, global bool, root *NodeBuilder) *Builder {
	b.templates = append(b.templates, domain.Template{TemplateID: id, Name: name, IsGlobal: global})
	b.roots = append(b.roots, root)
	return b
}

// Build assembles the document. It fails on ids repeated within one scope
// and on leaf kinds given children.
func (b *Builder) Build() (*domain.Document, error) {
	doc := domain.NewDocument()
	for _, nb := range b.page {
		doc.RootNodes = append(doc.RootNodes, nb.Build())
	}
	if err := check("page", doc.RootNodes); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(b.templates))
	for i, tpl := range b.templates {
		if seen[tpl.TemplateID] {
			return nil, fmt.Errorf("template %q: %w", tpl.TemplateID, domain.ErrDuplicateID)
		}
		seen[tpl.TemplateID] = true

		tpl.RootNode = b.roots[i].Build()
		if err := check("template "+tpl.TemplateID, []domain.Node{tpl.RootNode}); err != nil {
			return nil, err
		}
		doc.Templates = append(doc.Templates, tpl)
	}
	return doc, nil
}

func check(scope string, nodes []domain.Node) error {
	if dups := tree.Duplicates(nodes); len(dups) > 0 {
		return fmt.Errorf("%s: %w: %s", scope, domain.ErrDuplicateID, strings.Join(dups, ", "))
	}
	var err error
	tree.Walk(nodes, func(n domain.Node, _ int) bool {
		if err == nil && n.HasChildren() && !n.Kind.IsContainer() {
			err = fmt.Errorf("%s: %s %q: %w", scope, n.Kind, n.ID, domain.ErrLeafChildren)
		}
		return err == nil
	})
	return err
}
