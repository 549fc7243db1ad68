package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nihei9/decisive/grammar"
)

func TestProbe(t *testing.T) {
	type conflict struct {
		alts     []int
		disabled []int
		sample   string
	}

	tests := []struct {
		caption     string
		src         string
		rule        string
		k           int
		conflicts   []conflict
		unreachable []int
	}{
		{
			caption: "alternatives having a common prefix conflict when the lookahead is too short",
			src: `
parser grammar test;
r : 'a' 'b' | 'a' 'c' ;
`,
			rule: "r",
			k:    1,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "alternatives having a common prefix are distinguished with enough lookahead",
			src: `
parser grammar test;
r : 'a' 'b' | 'a' 'c' ;
`,
			rule: "r",
			k:    2,
		},
		{
			caption: "a short alternative is distinguished from a longer one by the end of input",
			src: `
parser grammar test;
r : 'x' | 'x' 'y' ;
`,
			rule: "r",
			k:    2,
		},
		{
			caption: "the first alternative wins when the lookahead ends within a common prefix",
			src: `
parser grammar test;
r : 'x' | 'x' 'y' ;
`,
			rule: "r",
			k:    1,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "x",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "an alternative accepting a subset of an earlier alternative is unreachable",
			src: `
parser grammar test;
r : 'x' 'y'? | 'x' 'y' ;
`,
			rule: "r",
			k:    3,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "x y",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "identical alternatives conflict at any lookahead depth",
			src: `
parser grammar test;
r : 'a' | 'a' ;
`,
			rule: "r",
			k:    5,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "alternatives starting with different terminals never conflict",
			src: `
parser grammar test;
r : 'a' | 'b' | 'c' ;
`,
			rule: "r",
			k:    1,
		},
		{
			caption: "the conflict of three alternatives disables all but the first one",
			src: `
parser grammar test;
r : 'a' | 'b' | 'a' | 'a' ;
`,
			rule: "r",
			k:    2,
			conflicts: []conflict{
				{
					alts:     []int{1, 3, 4},
					disabled: []int{3, 4},
					sample:   "a",
				},
			},
			unreachable: []int{3, 4},
		},
		{
			caption: "an optional element conflicting with what follows the rule",
			src: `
parser grammar test;
s : r 'a' ;
r : 'a'? ;
`,
			rule: "r",
			k:    1,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "an optional element followed by the same terminal is distinguished by the next terminal",
			src: `
parser grammar test;
s : r 'a' ;
r : 'a'? ;
`,
			rule: "r",
			k:    2,
		},
		{
			caption: "a conflict through invoked rules",
			src: `
parser grammar test;
s : a | b ;
a : 'x' 'y' ;
b : 'x' 'z' ;
`,
			rule: "s",
			k:    1,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "x",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "a loop exits at the end of input",
			src: `
parser grammar test;
r : 'a'* ;
`,
			rule: "r",
			k:    1,
		},
		{
			caption: "left recursion is a non-determinism",
			src: `
parser grammar test;
e : e '+' 'a' | 'a' ;
`,
			rule: "e",
			k:    3,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "a nullable rule invoked twice conflicts on its first terminal",
			src: `
parser grammar test;
r : s s ;
s : 'a'? ;
`,
			rule: "s",
			k:    1,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
		{
			caption: "a nullable rule invoked twice conflicts regardless of the lookahead depth",
			src: `
parser grammar test;
r : s s ;
s : 'a'? ;
`,
			rule: "s",
			k:    3,
			conflicts: []conflict{
				{
					alts:     []int{1, 2},
					disabled: []int{2},
					sample:   "a",
				},
			},
			unreachable: []int{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			m := buildModel(t, tt.src)
			a := m.Variant.Primary()
			d := decisionOf(t, a, tt.rule)
			opts := DefaultOptions()
			opts.LookaheadDepth = tt.k
			res, err := Probe(context.Background(), a, d, opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Conflicts) != len(tt.conflicts) {
				t.Fatalf("unexpected conflict count; want: %v, got: %v", len(tt.conflicts), len(res.Conflicts))
			}
			for i, c := range res.Conflicts {
				expected := tt.conflicts[i]
				if !equalIntSlices(c.Alternatives, expected.alts) {
					t.Errorf("unexpected alternatives; want: %v, got: %v", expected.alts, c.Alternatives)
				}
				if !equalIntSlices(c.Disabled, expected.disabled) {
					t.Errorf("unexpected disabled alternatives; want: %v, got: %v", expected.disabled, c.Disabled)
				}
				if c.Resolved != expected.alts[0] {
					t.Errorf("unexpected resolved alternative; want: %v, got: %v", expected.alts[0], c.Resolved)
				}
				sample := a.DisplaySample(c.Sample)
				if sample != expected.sample {
					t.Errorf("unexpected sample; want: %#v, got: %#v", expected.sample, sample)
				}
				if len(c.Paths) != len(c.Alternatives) {
					t.Fatalf("every conflicting alternative must have a path; want: %v, got: %v", len(c.Alternatives), len(c.Paths))
				}
				for j, p := range c.Paths {
					testPath(t, a, d, p, c.Alternatives[j], c.Sample)
					if p.Disabled != (p.Alternative != c.Resolved) {
						t.Errorf("unexpected disabled flag of alternative %v: %v", p.Alternative, p.Disabled)
					}
				}
			}
			if !equalIntSlices(res.Unreachable, tt.unreachable) {
				t.Errorf("unexpected unreachable alternatives; want: %v, got: %v", tt.unreachable, res.Unreachable)
			}
		})
	}
}

func testPath(t *testing.T, a *grammar.Automaton, d *grammar.Decision, p *Path, alt int, sample []int) {
	t.Helper()

	if p.Alternative != alt {
		t.Fatalf("unexpected alternative of a path; want: %v, got: %v", alt, p.Alternative)
	}
	if len(p.States) < 2 {
		t.Fatalf("a path must contain the decision state and the alternative; got: %v", p.States)
	}
	if p.States[0] != d.State {
		t.Fatalf("a path must begin with the decision state; want: %v, got: %v", d.State, p.States[0])
	}
	if p.States[1] != d.Alternative(alt).Target {
		t.Fatalf("a path must go through its alternative; want: %v, got: %v", d.Alternative(alt).Target, p.States[1])
	}

	// Count the symbols the path consumes. End of input consumes no state.
	consumed := 0
	for i := 1; i < len(p.States)-1 && consumed < len(sample); i++ {
		for _, tr := range p.States[i].Transitions {
			if tr.Kind == grammar.TransitionSymbol && tr.Target == p.States[i+1] && tr.Label.Contains(sample[consumed]) {
				consumed++
				break
			}
		}
	}
	symbols := 0
	for _, sym := range sample {
		if sym != grammar.LabelEOF {
			symbols++
		}
	}
	if consumed < symbols {
		t.Fatalf("a path must consume the sample; want: %v symbols, got: %v", symbols, consumed)
	}
}

func TestProbe_ConflictBeforeInputHasSample(t *testing.T) {
	tests := []struct {
		caption string
		src     string
	}{
		{
			caption: "a nullable rule invoked twice",
			src: `
parser grammar test;
r : s s ;
s : 'a'? ;
`,
		},
		{
			caption: "a loop over a nullable block",
			src: `
parser grammar test;
r : ('a'?)* 'b' ;
`,
		},
		{
			caption: "left recursion",
			src: `
parser grammar test;
e : e '+' 'a' | 'a' ;
`,
		},
	}
	for _, tt := range tests {
		for _, k := range []int{1, 3} {
			t.Run(fmt.Sprintf("%v, k=%v", tt.caption, k), func(t *testing.T) {
				m := buildModel(t, tt.src)
				a := m.Variant.Primary()
				opts := DefaultOptions()
				opts.LookaheadDepth = k
				conflicts := 0
				for _, d := range a.Decisions {
					res, err := Probe(context.Background(), a, d, opts)
					if err != nil {
						t.Fatal(err)
					}
					for _, c := range res.Conflicts {
						conflicts++
						if len(c.Sample) == 0 {
							t.Fatalf("decision %v: a conflict must have a sample; alternatives: %v", d.Number, c.Alternatives)
						}
						if len(c.Sample) > k {
							t.Fatalf("decision %v: a sample must not exceed the lookahead depth; got: %v", d.Number, a.DisplaySample(c.Sample))
						}
						for j, p := range c.Paths {
							testPath(t, a, d, p, c.Alternatives[j], c.Sample)
						}
					}
				}
				if conflicts == 0 {
					t.Fatal("a conflict was expected")
				}
			})
		}
	}
}

func TestProbe_LexerTokens(t *testing.T) {
	m := buildModel(t, `
lexer grammar test;
A : 'x' ;
B : 'x' ;
C : 'x' 'y' ;
`)
	a := m.Variant.Primary()
	d := decisionOf(t, a, "Tokens")
	if d.Kind != grammar.DecisionKindTokens {
		t.Fatalf("unexpected decision kind; want: %v, got: %v", grammar.DecisionKindTokens, d.Kind)
	}
	res, err := Probe(context.Background(), a, d, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Conflicts) != 1 {
		t.Fatalf("unexpected conflict count; want: 1, got: %v", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if !equalIntSlices(c.Alternatives, []int{1, 2}) {
		t.Fatalf("unexpected alternatives; want: %v, got: %v", []int{1, 2}, c.Alternatives)
	}
	if sample := a.DisplaySample(c.Sample); sample != "x" {
		t.Fatalf("unexpected sample; want: %#v, got: %#v", "x", sample)
	}
	if !equalIntSlices(res.Unreachable, []int{2}) {
		t.Fatalf("unexpected unreachable alternatives; want: %v, got: %v", []int{2}, res.Unreachable)
	}
}

func TestProbe_Failure(t *testing.T) {
	m := buildModel(t, `
parser grammar test;
r : 'a' 'b' | 'a' 'c' ;
`)
	a := m.Variant.Primary()
	d := decisionOf(t, a, "r")

	t.Run("too many lookahead states", func(t *testing.T) {
		opts := DefaultOptions()
		opts.LookaheadDepth = 2
		opts.MaxDFAStates = 1
		_, err := Probe(context.Background(), a, d, opts)
		var fail *InternalFailure
		if !errors.As(err, &fail) {
			t.Fatalf("an internal failure was expected; got: %v", err)
		}
		if fail.Decision != d.Number {
			t.Fatalf("unexpected decision; want: %v, got: %v", d.Number, fail.Decision)
		}
		if !errors.Is(err, ErrStateLimit) {
			t.Fatalf("unexpected cause: %v", fail.Cause)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Probe(ctx, a, d, DefaultOptions())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("context.Canceled was expected; got: %v", err)
		}
		var fail *InternalFailure
		if errors.As(err, &fail) {
			t.Fatalf("cancellation must not be an internal failure: %v", err)
		}
	})
}
