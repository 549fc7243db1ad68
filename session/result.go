package session

import (
	"github.com/nihei9/decisive/analysis"
	"github.com/nihei9/decisive/grammar"
	"github.com/nihei9/decisive/spec"
)

// Result is a committed analysis pass. It is never modified once committed.
type Result struct {
	Version        uint64
	Name           string
	Kind           grammar.Kind
	FileName       string
	LookaheadDepth int

	Diagnostics     []*analysis.Diagnostic
	RuleDiagnostics map[string][]*analysis.Diagnostic
	Rules           []RuleSpan
}

// Report converts the result into its persisted form.
func (r *Result) Report() *spec.Report {
	index := make(map[*analysis.Diagnostic]int, len(r.Diagnostics))
	diags := make([]*spec.Diagnostic, 0, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		index[d] = i
		diags = append(diags, reportDiagnostic(d))
	}

	rules := make([]*spec.Rule, 0, len(r.Rules))
	for _, span := range r.Rules {
		ds := []int{}
		for _, d := range r.RuleDiagnostics[span.Name] {
			ds = append(ds, index[d])
		}
		rules = append(rules, &spec.Rule{
			Name:        span.Name,
			Start:       span.Start,
			End:         span.End,
			Diagnostics: ds,
		})
	}

	return &spec.Report{
		Name:           r.Name,
		Kind:           r.Kind.String(),
		FilePath:       r.FileName,
		LookaheadDepth: r.LookaheadDepth,
		Diagnostics:    diags,
		Rules:          rules,
	}
}

func reportDiagnostic(d *analysis.Diagnostic) *spec.Diagnostic {
	var paths []*spec.Path
	for _, p := range d.Paths {
		paths = append(paths, &spec.Path{
			Alternative: p.Alternative,
			States:      stateIDs(p.States),
			Disabled:    p.Disabled,
		})
	}
	return &spec.Diagnostic{
		Kind:                    d.Kind.String(),
		Automaton:               d.Automaton.String(),
		Decision:                d.Decision,
		Line:                    d.Line,
		Message:                 d.Message,
		Alternatives:            d.Alternatives,
		DisabledAlternatives:    d.DisabledAlternatives,
		UnreachableAlternatives: d.UnreachableAlternatives,
		States:                  stateIDs(d.States),
		Rules:                   d.Rules,
		Sample:                  d.SampleText,
		Paths:                   paths,
	}
}

func stateIDs(states []*grammar.State) []int {
	ids := make([]int, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.ID.Int())
	}
	return ids
}
