/*
Package editor implements an editing session over a Canopy document.

It owns the live page and the template registry and routes every command to
the active scope: the page, or the single root node of one template while it
is under master edit. Commands are synchronous; each one reads the active
scope, computes a new snapshot with package tree and writes it back whole.

Not-found ids are absorbed as no-ops. The conditions reported to the caller
are duplicate ids on rename, children assigned to a leaf kind, dangling stub
references on detach, and template scopes losing their single root.

	ed := editor.New()
	id, _ := ed.Insert(domain.RootTarget, domain.PositionInside, domain.Node{Kind: domain.KindSection})
	tpl, _ := ed.SaveAsTemplate(id, "Hero", true)
	_ = ed.EditMaster(tpl.TemplateID)
*/
package editor
