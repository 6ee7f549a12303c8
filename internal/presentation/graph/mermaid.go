package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Overlay carries the last recorded status of nodes to colour the chart.
type Overlay struct {
	States map[domain.NodeID]domain.Status
}

// OverlayFromEvents builds an overlay from the NewState events of a run.
func OverlayFromEvents(events []domain.Event) *Overlay {
	o := &Overlay{States: make(map[domain.NodeID]domain.Status)}
	for _, e := range events {
		if e.Kind == domain.EventNewState {
			o.States[e.NodeID] = e.State.Status
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a compiled graph.
// It applies semantic styling:
// - Root: ((Circle))
// - Action: [[Subroutine]]
// - Decorator: {{Hexagon}}
// - Parallel: [/Parallelogram/]
// - Other flows: [Rectangle]
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.IDs() {
		node := g.Nodes[id]
		opener, closer := "[", "]"
		switch {
		case node.Kind == domain.KindRoot:
			opener, closer = "((", "))"
		case node.Kind == domain.KindAction:
			opener, closer = "[[", "]]"
		case node.Kind == domain.KindDecorator:
			opener, closer = "{{", "}}"
		case node.Flow == domain.FlowParallel:
			opener, closer = "[/", "/]"
		}

		label := escape(node.Label())
		if node.Kind == domain.KindFlow && len(node.Args) > 0 {
			label = fmt.Sprintf("%s <br/> %s", label, escape(node.Args.String()))
		}
		fmt.Fprintf(&sb, "    n%d%s\"%s\"%s\n", id, opener, label, closer)

		for _, child := range node.Children {
			fmt.Fprintf(&sb, "    n%d --> n%d\n", id, child)
		}
	}

	if overlay != nil && len(overlay.States) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef running fill:#ffeb3b,stroke:#fbc02d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef success fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failure fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")
		for _, id := range g.IDs() {
			status, ok := overlay.States[id]
			if !ok || status == domain.StatusReady {
				continue
			}
			fmt.Fprintf(&sb, "    class n%d %s;\n", id, status)
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
