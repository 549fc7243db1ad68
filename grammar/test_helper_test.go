package grammar

import (
	"strings"
	"testing"

	"github.com/nihei9/decisive/spec"
)

func buildModel(t *testing.T, src string) *Model {
	t.Helper()

	ast, err := spec.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := GrammarBuilder{
		AST: ast,
	}
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func findRule(t *testing.T, a *Automaton, name string) *Rule {
	t.Helper()

	r, ok := a.Rule(name)
	if !ok {
		t.Fatalf("rule was not found: %v", name)
	}
	return r
}

func decisionsOf(a *Automaton, r *Rule) []*Decision {
	var ds []*Decision
	for _, d := range a.Decisions {
		if d.State.Rule == r {
			ds = append(ds, d)
		}
	}
	return ds
}
