package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/nihei9/decisive/grammar"
)

type DiagnosticKind string

const (
	DiagnosticKindNonDeterminism          = DiagnosticKind("non-determinism")
	DiagnosticKindUnreachableAlternatives = DiagnosticKind("unreachable-alternatives")
)

func (k DiagnosticKind) String() string {
	return string(k)
}

type Diagnostic struct {
	Kind      DiagnosticKind
	Automaton grammar.AutomatonKind
	Decision  int

	// Line is the 0-based line of the construct the decision originates from.
	Line    int
	Message string

	Alternatives            []int
	DisabledAlternatives    []int
	UnreachableAlternatives []int

	// States is the set of states the diagnostic involves, and Rules is the set of rules enclosing them.
	// Both are sorted.
	States []*grammar.State
	Rules  []string

	Sample     []int
	SampleText string
	Paths      []*Path
}

// BuildDiagnostics converts messages into diagnostics keeping their order.
func BuildDiagnostics(msgs []Message) []*Diagnostic {
	var diags []*Diagnostic
	for _, msg := range msgs {
		switch m := msg.(type) {
		case *NonDeterminismMessage:
			diags = append(diags, buildNonDeterminism(m))
		case *UnreachableAltsMessage:
			diags = append(diags, buildUnreachable(m))
		}
	}
	return diags
}

func buildNonDeterminism(m *NonDeterminismMessage) *Diagnostic {
	a := m.Probe.Automaton
	d := m.Probe.Decision
	c := m.Conflict

	states := newStateSet()
	for _, p := range c.Paths {
		for _, s := range p.States {
			states.Add(s)
		}
	}
	sample := a.DisplaySample(c.Sample)
	return &Diagnostic{
		Kind:                 DiagnosticKindNonDeterminism,
		Automaton:            a.Kind,
		Decision:             d.Number,
		Line:                 d.Line(),
		Message:              fmt.Sprintf("Decision can match input such as \"%v\" using multiple alternatives", sample),
		Alternatives:         c.Alternatives,
		DisabledAlternatives: c.Disabled,
		States:               statesOf(states),
		Rules:                rulesOf(states),
		Sample:               c.Sample,
		SampleText:           sample,
		Paths:                c.Paths,
	}
}

func buildUnreachable(m *UnreachableAltsMessage) *Diagnostic {
	d := m.Probe.Decision

	states := newStateSet()
	states.Add(d.State)
	return &Diagnostic{
		Kind:                    DiagnosticKindUnreachableAlternatives,
		Automaton:               m.Probe.Automaton.Kind,
		Decision:                d.Number,
		Line:                    d.Line(),
		Message:                 fmt.Sprintf("The following alternatives are unreachable: %v", formatAlts(m.Alternatives)),
		Alternatives:            m.Alternatives,
		UnreachableAlternatives: m.Alternatives,
		States:                  statesOf(states),
		Rules:                   rulesOf(states),
	}
}

func newStateSet() *treeset.Set {
	return treeset.NewWith(func(a, b interface{}) int {
		return utils.IntComparator(a.(*grammar.State).ID.Int(), b.(*grammar.State).ID.Int())
	})
}

func statesOf(set *treeset.Set) []*grammar.State {
	states := make([]*grammar.State, 0, set.Size())
	for _, v := range set.Values() {
		states = append(states, v.(*grammar.State))
	}
	return states
}

func rulesOf(states *treeset.Set) []string {
	names := treeset.NewWithStringComparator()
	for _, v := range states.Values() {
		names.Add(v.(*grammar.State).Rule.Name)
	}
	rules := make([]string, 0, names.Size())
	for _, v := range names.Values() {
		rules = append(rules, v.(string))
	}
	return rules
}

func formatAlts(alts []int) string {
	var b strings.Builder
	b.WriteString("[")
	for i, alt := range alts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(alt))
	}
	b.WriteString("]")
	return b.String()
}
