package editor

import (
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
)

// SaveAsTemplate stores a fresh-id deep copy of the node as a new template.
// With makeGlobal the original node is replaced in place by a global stub that
// keeps its id and references the new template.
// ErrNodeNotFound is returned when the node is not in the active scope.
func (e *Editor) SaveAsTemplate(nodeID, name string, makeGlobal bool) (domain.Template, error) {
	var tpl domain.Template
	_, err := e.record("save_as_template", nodeID, func() (bool, error) {
		scope := e.activeScope()
		n, ok := tree.Locate(scope, nodeID)
		if !ok {
			return false, fmt.Errorf("save %s as template: %w", nodeID, domain.ErrNodeNotFound)
		}
		tpl = e.templates.Create(name, makeGlobal, tree.Clone(n, e.gen, nil))
		if !makeGlobal {
			return true, nil
		}
		stub := domain.NewStub(n.ID, tpl.TemplateID, name)
		return true, e.setActiveScope(tree.Replace(scope, nodeID, stub))
	})
	if err != nil {
		return domain.Template{}, err
	}
	e.logger.Info("Template saved", "template_id", tpl.TemplateID, "name", name, "global", makeGlobal)
	return tpl, nil
}

// RenameTemplate changes the display name of a template.
func (e *Editor) RenameTemplate(templateID, name string) error {
	_, err := e.record("rename_template", "", func() (bool, error) {
		tpl, ok := e.templates.Get(templateID)
		if !ok {
			return false, fmt.Errorf("rename template %s: %w", templateID, domain.ErrTemplateNotFound)
		}
		if tpl.Name == name {
			return false, nil
		}
		tpl.Name = name
		return true, e.templates.Put(tpl)
	})
	return err
}

// EditMaster redirects every following command to the template's root node
// and selects that root. Stubs observe the edits on their next resolution.
func (e *Editor) EditMaster(templateID string) error {
	tpl, ok := e.templates.Get(templateID)
	if !ok {
		return fmt.Errorf("edit master %s: %w", templateID, domain.ErrTemplateNotFound)
	}
	e.editing = templateID
	e.selected = tpl.RootNode.ID
	e.emitScope(templateID, true)
	return nil
}

// EditMasterFromStub enters master edit for the template a stub of the active scope references.
func (e *Editor) EditMasterFromStub(stubID string) error {
	stub, ok := tree.Locate(e.activeScope(), stubID)
	if !ok {
		return fmt.Errorf("edit master from %s: %w", stubID, domain.ErrNodeNotFound)
	}
	templateID, ok := stub.TemplateRef()
	if !ok {
		return fmt.Errorf("edit master from %s: %w", stubID, domain.ErrNotGlobal)
	}
	return e.EditMaster(templateID)
}

// FinishEditingMaster returns to the live page and clears the selection.
// Template edits were already written through, so there is nothing to commit.
func (e *Editor) FinishEditingMaster() error {
	if e.editing == "" {
		return domain.ErrNotEditingMaster
	}
	left := e.editing
	e.editing = ""
	e.selected = ""
	e.emitScope(left, false)
	return nil
}

// Detach replaces a global stub with a fresh-id copy of its template's current
// root. The copy no longer tracks the template. The copy is selected and returned.
func (e *Editor) Detach(stubID string) (domain.Node, error) {
	var clone domain.Node
	_, err := e.mutate("detach", stubID, func(scope []domain.Node) ([]domain.Node, bool, error) {
		stub, ok := tree.Locate(scope, stubID)
		if !ok {
			return scope, false, fmt.Errorf("detach %s: %w", stubID, domain.ErrNodeNotFound)
		}
		templateID, ok := stub.TemplateRef()
		if !ok {
			return scope, false, fmt.Errorf("detach %s: %w", stubID, domain.ErrNotGlobal)
		}
		root, ok := e.templates.Resolve(stub)
		if !ok {
			return scope, false, fmt.Errorf("detach %s from %s: %w", stubID, templateID, domain.ErrTemplateNotFound)
		}
		clone = tree.Clone(root, e.gen, tree.CollectIDs(scope))
		return tree.Replace(scope, stubID, clone), true, nil
	})
	if err != nil {
		return domain.Node{}, err
	}
	e.selected = clone.ID
	return clone, nil
}

// DeleteTemplate removes a template. Stubs that reference it are left dangling
// and resolve to nothing. Master edit on that template is left first.
// It reports whether a template was removed.
func (e *Editor) DeleteTemplate(templateID string) bool {
	if e.editing == templateID {
		_ = e.FinishEditingMaster()
	}
	changed, _ := e.record("delete_template", "", func() (bool, error) {
		return e.templates.Delete(templateID), nil
	})
	return changed
}
