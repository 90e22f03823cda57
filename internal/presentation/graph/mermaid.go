package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedTemplates []string
	CurrentTemplate  string
}

// GenerateMermaid produces a Mermaid flowchart of templates linked by their
// next-template mappings. Shapes:
// - Entry (no incoming link): ((Circle))
// - Branch (more than one possible successor): {Rhombus}
// - Default: [Rectangle]
// Links to unknown templates are drawn dotted to a missing node.
func GenerateMermaid(templates []domain.Template, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(templates))
	incoming := make(map[string]bool)
	for _, t := range templates {
		known[t.ID] = true
		for _, targets := range t.Next {
			for _, to := range targets {
				incoming[to] = true
			}
		}
	}

	sorted := append([]domain.Template(nil), templates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var missing []string
	for _, t := range sorted {
		safeID := sanitizeMermaidID(t.ID)

		opener, closer := "[", "]"
		switch {
		case !incoming[t.ID]:
			opener, closer = "((", "))"
		case successors(t) > 1:
			opener, closer = "{", "}"
		}

		label := t.ID
		if t.Name != "" {
			label = fmt.Sprintf("%s <br/> %s", t.ID, escape(t.Name))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		fields := make([]string, 0, len(t.Next))
		for field := range t.Next {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			for _, to := range t.Next[field] {
				safeTo := sanitizeMermaidID(to)
				arrow := fmt.Sprintf("-- \"%s\" -->", escape(field))
				if !known[to] {
					arrow = fmt.Sprintf("-. \"%s\" .->", escape(field))
					missing = append(missing, to)
				}
				fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
			}
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    classDef missing stroke-dasharray: 5 5,stroke:#b71c1c,color:#b71c1c;\n")
		seen := make(map[string]bool)
		for _, id := range missing {
			safeID := sanitizeMermaidID(id)
			if seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    %s[\"%s (missing)\"]\n", safeID, id)
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// black text stays readable on both themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedTemplates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentTemplate != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentTemplate))
		}
	}

	return sb.String()
}

func successors(t domain.Template) int {
	n := 0
	for _, targets := range t.Next {
		n += len(targets)
	}
	return n
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
	return s
}
