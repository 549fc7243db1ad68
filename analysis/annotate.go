package analysis

// RuleSpan is the range of 0-based lines a rule occupies in the source.
type RuleSpan struct {
	Name  string
	Start int
	End   int
}

func (s RuleSpan) Contains(line int) bool {
	return line >= s.Start && line <= s.End
}

// Invalidator discards the cached visual representation of a rule.
type Invalidator interface {
	InvalidateRule(name string)
}

// Annotate attaches to every rule the diagnostics whose line is within the rule's span, keeping the order
// of diags. Every rule in rules is a key of the result, even when no diagnostic is attached to it, and is
// invalidated through inv when inv is non-nil. A diagnostic outside every span is attached to no rule.
func Annotate(rules []RuleSpan, diags []*Diagnostic, inv Invalidator) map[string][]*Diagnostic {
	attached := make(map[string][]*Diagnostic, len(rules))
	for _, r := range rules {
		var ds []*Diagnostic
		for _, d := range diags {
			if r.Contains(d.Line) {
				ds = append(ds, d)
			}
		}
		attached[r.Name] = ds
		if inv != nil {
			inv.InvalidateRule(r.Name)
		}
	}
	return attached
}
