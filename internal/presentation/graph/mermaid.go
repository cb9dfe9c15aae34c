package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/scanner"
	"github.com/aretw0/canopy/pkg/tree"
)

// Overlay contains editor state to visualize on the graph.
type Overlay struct {
	Selected string
	// EditingTemplate highlights the template under master edit.
	EditingTemplate string
}

// GenerateMermaid produces a Mermaid flowchart of the page tree and the template registry.
// It applies semantic styling:
// - Container kinds: [Rectangle]
// - Leaf kinds: (Rounded)
// - Global stubs: [[Subroutine]], with a dotted edge to the template root
// - Popup and mega-menu targets get the "hidden" class
// Ids are scope-local, so page and template nodes get distinct mermaid ids.
func GenerateMermaid(doc *domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    page((\"page\"))\n")

	targets := scanner.Scan(doc.RootNodes)
	var hidden []string

	writeNodes(&sb, "p", "page", doc.RootNodes, func(n domain.Node, safeID string) {
		if targets.Hidden(n.ID) {
			hidden = append(hidden, safeID)
		}
	})

	for _, tpl := range doc.Templates {
		prefix := "t_" + sanitizeMermaidID(tpl.TemplateID)
		scope := "Template: " + tpl.Name
		if tpl.IsGlobal {
			scope += " (global)"
		}
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", prefix, escape(scope)))
		writeNodes(&sb, prefix, "", []domain.Node{tpl.RootNode}, nil)
		sb.WriteString("    end\n")
	}

	// Stub references, drawn last so every template subgraph exists.
	tree.Walk(doc.RootNodes, func(n domain.Node, _ int) bool {
		if ref, ok := n.TemplateRef(); ok {
			if tpl, found := findTemplate(doc, ref); found {
				sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", nodeID("p", n.ID), nodeID("t_"+sanitizeMermaidID(ref), tpl.RootNode.ID)))
			}
		}
		return true
	})

	if len(hidden) > 0 || overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef hidden stroke-dasharray:4 4,color:#666;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef editing fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		for _, id := range hidden {
			sb.WriteString(fmt.Sprintf("    class %s hidden;\n", id))
		}
	}

	if overlay != nil {
		if overlay.EditingTemplate != "" {
			sb.WriteString(fmt.Sprintf("    class t_%s editing;\n", sanitizeMermaidID(overlay.EditingTemplate)))
		}
		if overlay.Selected != "" {
			prefix := "p"
			if overlay.EditingTemplate != "" {
				prefix = "t_" + sanitizeMermaidID(overlay.EditingTemplate)
			}
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", nodeID(prefix, overlay.Selected)))
		}
	}

	return sb.String()
}

// writeNodes emits the nodes and their parent edges. A non-empty parent
// links the top level to that mermaid id.
func writeNodes(sb *strings.Builder, prefix, parent string, nodes []domain.Node, visit func(domain.Node, string)) {
	for _, n := range nodes {
		safeID := nodeID(prefix, n.ID)

		opener, closer := "(", ")"
		switch {
		case n.IsGlobal():
			opener, closer = "[[", "]]"
		case n.Kind.IsContainer():
			opener, closer = "[", "]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(label(n)), closer))
		if parent != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parent, safeID))
		}
		if visit != nil {
			visit(n, safeID)
		}
		writeNodes(sb, prefix, safeID, n.Children, visit)
	}
}

func label(n domain.Node) string {
	text := fmt.Sprintf("%s: %s", n.Kind, n.ID)
	if n.Label != "" {
		text += "<br/>" + n.Label
	}
	return text
}

func findTemplate(doc *domain.Document, id string) (domain.Template, bool) {
	for _, tpl := range doc.Templates {
		if tpl.TemplateID == id {
			return tpl, true
		}
	}
	return domain.Template{}, false
}

func nodeID(prefix, id string) string {
	return prefix + "_" + sanitizeMermaidID(id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
