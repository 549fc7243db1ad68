package grammar

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteDOT writes the states and transitions of a rule as a Graphviz graph. States in highlight are drawn
// in red. An invocation of another rule is drawn as a dashed edge to the state the invocation returns to.
func (a *Automaton) WriteDOT(w io.Writer, r *Rule, highlight map[StateID]bool) error {
	var states []*State
	{
		visited := map[StateID]bool{r.Start.ID: true}
		queue := []*State{r.Start}
		for len(queue) > 0 {
			s := queue[0]
			queue = queue[1:]
			states = append(states, s)
			for _, t := range s.Transitions {
				next := t.Target
				if t.Kind == TransitionRule {
					next = t.Follow
				}
				if visited[next.ID] {
					continue
				}
				visited[next.ID] = true
				queue = append(queue, next)
			}
		}
		sort.Slice(states, func(i, j int) bool {
			return states[i].ID < states[j].ID
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", r.Name)
	fmt.Fprintf(&b, "\trankdir=LR;\n")
	fmt.Fprintf(&b, "\tnode [shape=circle];\n")
	for _, s := range states {
		var attrs []string
		label := fmt.Sprintf("%v", s.ID)
		if s.IsDecision() {
			label = fmt.Sprintf("%v\\nd%v", s.ID, s.Decision.Number)
		}
		attrs = append(attrs, fmt.Sprintf("label=\"%v\"", label))
		if s.IsStop() {
			attrs = append(attrs, "shape=doublecircle")
		}
		if highlight[s.ID] {
			attrs = append(attrs, "color=red", "style=bold")
		}
		fmt.Fprintf(&b, "\ts%v [%v];\n", s.ID, strings.Join(attrs, " "))
	}
	for _, s := range states {
		for i, t := range s.Transitions {
			switch t.Kind {
			case TransitionEpsilon:
				if s.IsDecision() {
					fmt.Fprintf(&b, "\ts%v -> s%v [label=\"%v\"];\n", s.ID, t.Target.ID, i+1)
					continue
				}
				fmt.Fprintf(&b, "\ts%v -> s%v [label=\"ε\"];\n", s.ID, t.Target.ID)
			case TransitionSymbol:
				fmt.Fprintf(&b, "\ts%v -> s%v [label=%q];\n", s.ID, t.Target.ID, a.DisplayLabel(t.Label))
			case TransitionRule:
				fmt.Fprintf(&b, "\ts%v -> s%v [label=%q style=dashed];\n", s.ID, t.Follow.ID, t.Target.Rule.Name)
			}
		}
	}
	fmt.Fprintf(&b, "}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
