package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/aretw0/canopy/pkg/tree"
)

// Severity grades an issue. Errors break editor invariants; warnings are legal but suspicious.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a document.
type Issue struct {
	Severity Severity `json:"severity"`
	Scope    string   `json:"scope"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("[%s] %s", i.Scope, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Scope, i.NodeID, i.Message)
}

// Report collects the issues of one document.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors returns the error-level issues.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r Report) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the error-level issues, or returns nil when there are none.
func (r Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, issue := range errs {
		lines[i] = issue.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

func (r *Report) add(s Severity, scope, nodeID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: s,
		Scope:    scope,
		NodeID:   nodeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// ValidateDocument checks a document against the editor's structural rules:
// unique non-empty ids per scope, known kinds, childless leaves and stubs,
// resolvable template references and well-typed core attributes.
func ValidateDocument(doc *domain.Document) Report {
	var r Report
	if doc == nil {
		return r
	}

	templates := make(map[string]bool, len(doc.Templates))
	for _, tpl := range doc.Templates {
		scope := "template:" + tpl.TemplateID
		if tpl.TemplateID == "" {
			r.add(SeverityError, "templates", "", "template %q has an empty id", tpl.Name)
			continue
		}
		if templates[tpl.TemplateID] {
			r.add(SeverityError, "templates", "", "template id %q is used twice", tpl.TemplateID)
		}
		templates[tpl.TemplateID] = true

		checkScope(&r, scope, []domain.Node{tpl.RootNode})
		tree.Walk([]domain.Node{tpl.RootNode}, func(n domain.Node, _ int) bool {
			if ref, ok := n.TemplateRef(); ok && ref == tpl.TemplateID {
				r.add(SeverityError, scope, n.ID, "stub references its own template")
			}
			return true
		})
	}

	checkScope(&r, domain.ScopePage, doc.RootNodes)

	checkStubs(&r, domain.ScopePage, doc.RootNodes, templates)
	for _, tpl := range doc.Templates {
		checkStubs(&r, "template:"+tpl.TemplateID, []domain.Node{tpl.RootNode}, templates)
	}

	checkTargets(&r, doc.RootNodes)
	return r
}

func checkScope(r *Report, scope string, nodes []domain.Node) {
	for _, id := range tree.Duplicates(nodes) {
		if id == "" {
			continue
		}
		r.add(SeverityError, scope, id, "id is used more than once")
	}

	tree.Walk(nodes, func(n domain.Node, _ int) bool {
		switch {
		case n.ID == "":
			r.add(SeverityError, scope, "", "%s node has an empty id", n.Kind)
		case n.ID == domain.RootTarget:
			r.add(SeverityError, scope, n.ID, "id is reserved")
		}
		if !n.Kind.Valid() {
			r.add(SeverityError, scope, n.ID, "unknown kind %q", n.Kind)
		}
		if n.Kind.Valid() && n.Kind != domain.KindGlobal && !n.Kind.IsContainer() && len(n.Children) > 0 {
			r.add(SeverityError, scope, n.ID, "%s cannot have children", n.Kind)
		}
		checkAttributes(r, scope, n)
		return true
	})
}

func checkStubs(r *Report, scope string, nodes []domain.Node, templates map[string]bool) {
	tree.Walk(nodes, func(n domain.Node, _ int) bool {
		if n.Kind != domain.KindGlobal {
			return true
		}
		ref, ok := n.TemplateRef()
		switch {
		case !ok:
			r.add(SeverityError, scope, n.ID, "stub has no %s", domain.AttrTemplateID)
		case !templates[ref]:
			r.add(SeverityWarning, scope, n.ID, "stub references missing template %q", ref)
		}
		if len(n.Children) > 0 {
			r.add(SeverityWarning, scope, n.ID, "stub children are ignored")
		}
		return true
	})
}

func checkTargets(r *Report, nodes []domain.Node) {
	ids := tree.CollectIDs(nodes)
	targets := scanner.Scan(nodes)
	for _, id := range targets.PopupIDs() {
		if _, ok := ids[id]; !ok {
			r.add(SeverityWarning, domain.ScopePage, id, "popup target does not exist")
		}
	}
	for _, id := range targets.MegaMenuIDs() {
		if _, ok := ids[id]; !ok {
			r.add(SeverityWarning, domain.ScopePage, id, "mega-menu target does not exist")
		}
	}
}
