package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/npillmayer/schuko/testconfig"
)

func TestAnalyze(t *testing.T) {
	teardown := testconfig.QuickConfig(t)
	defer teardown()

	m := buildModel(t, `
grammar test;
s : r | t ;
r : 'a' 'b' | 'a' 'c' ;
t : 'a' 'd' ;
ID : 'd'..'f' ;
`)
	opts := DefaultOptions()
	opts.LookaheadDepth = 1
	c := &Collector{}
	err := Analyze(context.Background(), m, opts, c)
	if err != nil {
		t.Fatal(err)
	}

	type message struct {
		automaton   string
		decision    int
		conflict    []int
		unreachable []int
	}
	expected := []message{
		{automaton: "parser", decision: 1, conflict: []int{1, 2}},
		{automaton: "parser", decision: 1, unreachable: []int{2}},
		{automaton: "parser", decision: 2, conflict: []int{1, 2}},
		{automaton: "parser", decision: 2, unreachable: []int{2}},
		{automaton: "lexer", decision: 1, conflict: []int{4, 5}},
	}
	msgs := c.Messages()
	if len(msgs) != len(expected) {
		t.Fatalf("unexpected message count; want: %v, got: %v", len(expected), len(msgs))
	}
	for i, msg := range msgs {
		e := expected[i]
		switch m := msg.(type) {
		case *NonDeterminismMessage:
			if e.conflict == nil {
				t.Fatalf("#%v: unexpected non-determinism", i)
			}
			if m.Probe.Automaton.Kind.String() != e.automaton || m.Probe.Decision.Number != e.decision {
				t.Fatalf("#%v: unexpected decision; want: %v %v, got: %v %v", i, e.automaton, e.decision, m.Probe.Automaton.Kind, m.Probe.Decision.Number)
			}
			if !equalIntSlices(m.Conflict.Alternatives, e.conflict) {
				t.Fatalf("#%v: unexpected alternatives; want: %v, got: %v", i, e.conflict, m.Conflict.Alternatives)
			}
		case *UnreachableAltsMessage:
			if e.unreachable == nil {
				t.Fatalf("#%v: unexpected unreachable alternatives", i)
			}
			if m.Probe.Automaton.Kind.String() != e.automaton || m.Probe.Decision.Number != e.decision {
				t.Fatalf("#%v: unexpected decision; want: %v %v, got: %v %v", i, e.automaton, e.decision, m.Probe.Automaton.Kind, m.Probe.Decision.Number)
			}
			if !equalIntSlices(m.Alternatives, e.unreachable) {
				t.Fatalf("#%v: unexpected alternatives; want: %v, got: %v", i, e.unreachable, m.Alternatives)
			}
		default:
			t.Fatalf("#%v: unexpected message: %T", i, msg)
		}
	}
}

func TestAnalyze_NoOverlap(t *testing.T) {
	m := buildModel(t, `
grammar test;
s : 'a' s 'b' | 'c' ( 'd' | 'e' )* ;
NUM : ('0'..'9')+ ;
ID : ('a'..'z')+ ;
`)
	for _, k := range []int{2, 3} {
		diags := analyze(t, m, k)
		for _, d := range diags {
			if d.Kind == DiagnosticKindNonDeterminism && d.Automaton == "parser" {
				t.Fatalf("unexpected non-determinism: %v", d.Message)
			}
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	src := `
grammar test;
s : a | b | 'x' 'y'? | 'x' 'y' ;
a : 'x' 'z'* ;
b : 'x' 'w'+ ;
`
	first := analyze(t, buildModel(t, src), 2)
	second := analyze(t, buildModel(t, src), 2)
	if len(first) == 0 {
		t.Fatal("diagnostics were expected")
	}
	if len(first) != len(second) {
		t.Fatalf("unexpected diagnostic count; want: %v, got: %v", len(first), len(second))
	}
	for i := range first {
		d1 := first[i]
		d2 := second[i]
		if d1.Message != d2.Message || d1.Line != d2.Line {
			t.Fatalf("#%v: diagnostics differ; first: %v %v, second: %v %v", i, d1.Line, d1.Message, d2.Line, d2.Message)
		}
		if len(d1.Rules) != len(d2.Rules) {
			t.Fatalf("#%v: rules differ; first: %v, second: %v", i, d1.Rules, d2.Rules)
		}
		for j := range d1.Rules {
			if d1.Rules[j] != d2.Rules[j] {
				t.Fatalf("#%v: rules differ; first: %v, second: %v", i, d1.Rules, d2.Rules)
			}
		}
		if len(d1.States) != len(d2.States) {
			t.Fatalf("#%v: states differ; first: %v, second: %v", i, d1.States, d2.States)
		}
		for j := range d1.States {
			if d1.States[j].ID != d2.States[j].ID {
				t.Fatalf("#%v: states differ; first: %v, second: %v", i, d1.States, d2.States)
			}
		}
	}
}

func TestAnalyze_Failure(t *testing.T) {
	m := buildModel(t, `
parser grammar test;
s : r 'a' | r 'b' ;
r : 'x' 'y' | 'x' 'z' ;
`)

	opts := DefaultOptions()
	opts.LookaheadDepth = 3
	opts.MaxDFAStates = 1
	c := &Collector{}
	err := Analyze(context.Background(), m, opts, c)
	var fail *InternalFailure
	if !errors.As(err, &fail) {
		t.Fatalf("an internal failure was expected; got: %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Fatalf("a failed analysis must report nothing; got: %v messages", len(c.Messages()))
	}
}
