package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/donorline/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	// Answered marks steps whose field already has a value.
	Answered    []domain.Step
	CurrentStep domain.Step
	// Waiting marks a session that finished a donation and awaits "New".
	Waiting bool
}

// NewOverlay builds an overlay from a stored session.
func NewOverlay(s *domain.Session) *GraphOverlay {
	o := &GraphOverlay{CurrentStep: s.Step, Waiting: s.WaitingForNewEntry}
	for _, f := range domain.Fields {
		if s.Has(f) {
			o.Answered = append(o.Answered, f.Step())
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the donation flow.
// Shapes:
// - Greeting: ((Circle))
// - Field steps: [/Parallelogram/]
// - Confirmation: {Rhombus}
// Edit paths from confirmation are drawn dotted; commands available from
// every step are grouped under a single "any" node.
func GenerateMermaid(overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range domain.Steps {
		id := nodeID(step)
		label := step.String()
		if f, ok := step.Field(); ok {
			label = fmt.Sprintf("%d. %s <br/> %s", int(step), step, f)
		}

		opener, closer := "[/", "/]"
		switch step {
		case domain.StepGreeting:
			opener, closer = "((", "))"
		case domain.StepConfirmation:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
	}

	for _, step := range domain.Steps {
		if step == domain.StepConfirmation {
			continue
		}
		arrow := "-->"
		if _, ok := step.Field(); ok {
			arrow = "-- \"valid\" -->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(step), arrow, nodeID(step.Next()))
	}

	confirm := nodeID(domain.StepConfirmation)
	greeting := nodeID(domain.StepGreeting)
	fmt.Fprintf(&sb, "    %s -- \"yes: save\" --> %s\n", confirm, greeting)
	for i, f := range domain.Fields {
		fmt.Fprintf(&sb, "    %s -. \"%d. value\" .-> %s\n", confirm, i+1, confirm)
		fmt.Fprintf(&sb, "    %s -. \"change %s\" .-> %s\n", confirm, f, nodeID(f.Step()))
	}

	sb.WriteString("    any[[\"any step\"]]\n")
	fmt.Fprintf(&sb, "    any -. \"cancel\" .-> %s\n", greeting)
	fmt.Fprintf(&sb, "    any -. \"start over / new\" .-> %s\n", nodeID(domain.StepCongregation))
	fmt.Fprintf(&sb, "    any -. \"%s idle\" .-> any\n", "⏱️")

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Step]bool)
		for _, step := range overlay.Answered {
			if !seen[step] && step.Valid() {
				seen[step] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(step))
			}
		}
		current := overlay.CurrentStep
		if overlay.Waiting {
			current = domain.StepGreeting
		}
		if current.Valid() {
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(current))
		}
	}

	return sb.String()
}

func nodeID(step domain.Step) string {
	return fmt.Sprintf("s%d_%s", int(step), step)
}
