package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/pollfsm/internal/primitives"
)

// DefaultVisualizer renders transition tables.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the table, filling the
// current state (when non-empty) and double-circling the initial one.
func (v *DefaultVisualizer) ExportDOT(config primitives.MachineConfig, current string) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Machine {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	initial := config.Initial
	if initial == "" && len(config.States) > 0 {
		initial = config.States[0]
	}

	for i, name := range config.States {
		attrs := fmt.Sprintf(`label="%d: %s"`, i, name)
		if name == initial {
			attrs += ` peripheries=2`
		}
		if name == current {
			attrs += ` style="rounded,filled" fillcolor=lightgreen`
		}
		buf.WriteString(fmt.Sprintf("  %q [%s];\n", name, attrs))
	}

	for _, t := range config.Transitions {
		buf.WriteString(fmt.Sprintf("  %q -> %q [label=%q];\n", t.From, t.To, t.Event))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the table definition to JSON.
func (v *DefaultVisualizer) ExportJSON(config primitives.MachineConfig) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}
