package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/nihei9/decisive/grammar"
	"github.com/nihei9/decisive/spec"
)

func buildModel(t *testing.T, src string) *grammar.Model {
	t.Helper()

	ast, err := spec.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func analyze(t *testing.T, m *grammar.Model, k int) []*Diagnostic {
	t.Helper()

	opts := DefaultOptions()
	opts.LookaheadDepth = k
	c := &Collector{}
	err := Analyze(context.Background(), m, opts, c)
	if err != nil {
		t.Fatal(err)
	}
	return BuildDiagnostics(c.Messages())
}

func decisionOf(t *testing.T, a *grammar.Automaton, rule string) *grammar.Decision {
	t.Helper()

	for _, d := range a.Decisions {
		if d.State.Rule.Name == rule {
			return d
		}
	}
	t.Fatalf("decision was not found in rule %v", rule)
	return nil
}

func equalIntSlices(a, b []int) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return equalInts(a, b)
}
