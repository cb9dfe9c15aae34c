package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
)

// GenerateOutline renders the document as a nested Markdown list:
// the page first, then one section per template.
func GenerateOutline(doc *domain.Document) string {
	var sb strings.Builder
	targets := scanner.Scan(doc.RootNodes)

	sb.WriteString("# Page\n\n")
	if len(doc.RootNodes) == 0 {
		sb.WriteString("_empty_\n")
	}
	writeOutline(&sb, doc, doc.RootNodes, 0, &targets)

	if len(doc.Templates) > 0 {
		sb.WriteString("\n# Templates\n")
		for _, tpl := range doc.Templates {
			kind := "local"
			if tpl.IsGlobal {
				kind = "global"
			}
			sb.WriteString(fmt.Sprintf("\n## %s (`%s`, %s)\n\n", tpl.Name, tpl.TemplateID, kind))
			writeOutline(&sb, doc, []domain.Node{tpl.RootNode}, 0, nil)
		}
	}
	return sb.String()
}

func writeOutline(sb *strings.Builder, doc *domain.Document, nodes []domain.Node, depth int, targets *scanner.Targets) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		line := fmt.Sprintf("%s- **%s** `%s`", indent, n.Kind, n.ID)
		if n.Label != "" {
			line += " " + n.Label
		}
		if ref, ok := n.TemplateRef(); ok {
			if tpl, found := findTemplate(doc, ref); found {
				line += fmt.Sprintf(" → %s (`%s`)", tpl.Name, ref)
			} else {
				line += fmt.Sprintf(" → missing template `%s`", ref)
			}
		}
		if n.Attr(domain.AttrAction) == domain.ActionPopup && n.Attr(domain.AttrTargetID) != "" {
			line += fmt.Sprintf(" (opens `%s`)", n.Attr(domain.AttrTargetID))
		}
		if targets != nil {
			switch {
			case targets.IsPopup(n.ID):
				line += " _(popup)_"
			case targets.IsMegaMenu(n.ID):
				line += " _(mega menu)_"
			}
		}
		sb.WriteString(line + "\n")
		writeOutline(sb, doc, n.Children, depth+1, targets)
	}
}
