package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nihei9/decisive/grammar/symbol"
	"github.com/nihei9/decisive/spec"
)

type StateID int

func (id StateID) Int() int {
	return int(id)
}

const (
	// LabelEOF is the input symbol that follows the last symbol: EOF for parser automata and the end of a
	// token for lexer automata.
	LabelEOF = -1

	codePointMin = 0
	codePointMax = unicode.MaxRune
)

// Label is a closed interval of input symbols. Parser automata label transitions with terminal numbers,
// lexer automata with code points.
type Label struct {
	Lo int
	Hi int
}

func newLabel(lo, hi int) Label {
	return Label{
		Lo: lo,
		Hi: hi,
	}
}

func (l Label) Contains(sym int) bool {
	return sym >= l.Lo && sym <= l.Hi
}

type TransitionKind int

const (
	TransitionEpsilon TransitionKind = iota
	TransitionSymbol
	TransitionRule
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionEpsilon:
		return "epsilon"
	case TransitionSymbol:
		return "symbol"
	case TransitionRule:
		return "rule"
	}
	return "?"
}

type Transition struct {
	Kind   TransitionKind
	Target *State

	// Label is the set of input symbols a symbol transition consumes.
	Label Label

	// Follow is the state a rule invocation returns to.
	Follow *State
}

type State struct {
	ID          StateID
	Rule        *Rule
	Transitions []*Transition

	// Decision is non-nil when the state is a decision point. Alternative i of the decision is the i-th
	// transition.
	Decision *Decision

	stop bool
}

func (s *State) IsStop() bool {
	return s.stop
}

func (s *State) IsDecision() bool {
	return s.Decision != nil
}

func (s *State) String() string {
	return fmt.Sprintf("s%v", s.ID)
}

type DecisionKind string

const (
	DecisionKindRule     = DecisionKind("rule")
	DecisionKindBlock    = DecisionKind("block")
	DecisionKindOptional = DecisionKind("optional")
	DecisionKindLoop     = DecisionKind("loop")
	DecisionKindLoopBack = DecisionKind("loop-back")
	DecisionKindTokens   = DecisionKind("tokens")
)

type Decision struct {
	Number int
	Kind   DecisionKind
	State  *State

	// Pos is the position of the construct the decision originates from.
	Pos spec.Position
}

func (d *Decision) Alternatives() int {
	return len(d.State.Transitions)
}

// Alternative returns the transition that begins the alternative alt (1-based).
func (d *Decision) Alternative(alt int) *Transition {
	return d.State.Transitions[alt-1]
}

// Line returns the 0-based line of the construct the decision originates from.
func (d *Decision) Line() int {
	return d.Pos.Row - 1
}

type Rule struct {
	Name     string
	Fragment bool
	Start    *State
	Stop     *State

	// Pos is the position of the rule in the source. It is zero for rules the builder synthesizes.
	Pos spec.Position

	invokers []*Transition
}

// Invokers returns the transitions invoking the rule. A rule having no invoker is a start rule.
func (r *Rule) Invokers() []*Transition {
	return r.invokers
}

func (r *Rule) Synthesized() bool {
	return r.Pos.Row == 0
}

type AutomatonKind string

const (
	AutomatonKindParser = AutomatonKind("parser")
	AutomatonKindLexer  = AutomatonKind("lexer")
)

func (k AutomatonKind) String() string {
	return string(k)
}

type Automaton struct {
	Kind      AutomatonKind
	States    []*State
	Rules     []*Rule
	Decisions []*Decision

	// Vocabulary maps the terminal numbers of a parser automaton to their texts. It is nil in lexer
	// automata.
	Vocabulary *symbol.VocabularyReader

	name2Rule map[string]*Rule
}

func newAutomaton(kind AutomatonKind) *Automaton {
	return &Automaton{
		Kind:      kind,
		name2Rule: map[string]*Rule{},
	}
}

func (a *Automaton) Rule(name string) (*Rule, bool) {
	r, ok := a.name2Rule[name]
	return r, ok
}

func (a *Automaton) newRule(name string, fragment bool, pos spec.Position) *Rule {
	r := &Rule{
		Name:     name,
		Fragment: fragment,
		Pos:      pos,
	}
	r.Start = a.newState(r)
	r.Stop = a.newState(r)
	r.Stop.stop = true
	a.Rules = append(a.Rules, r)
	a.name2Rule[name] = r
	return r
}

func (a *Automaton) newState(r *Rule) *State {
	s := &State{
		ID:   StateID(len(a.States)),
		Rule: r,
	}
	a.States = append(a.States, s)
	return s
}

func (a *Automaton) newDecision(r *Rule, kind DecisionKind, pos spec.Position) *Decision {
	d := &Decision{
		Number: len(a.Decisions) + 1,
		Kind:   kind,
		State:  a.newState(r),
		Pos:    pos,
	}
	d.State.Decision = d
	a.Decisions = append(a.Decisions, d)
	return d
}

func (a *Automaton) addEpsilon(from, to *State) {
	from.Transitions = append(from.Transitions, &Transition{
		Kind:   TransitionEpsilon,
		Target: to,
	})
}

func (a *Automaton) addSymbol(from, to *State, l Label) *Transition {
	t := &Transition{
		Kind:   TransitionSymbol,
		Target: to,
		Label:  l,
	}
	from.Transitions = append(from.Transitions, t)
	return t
}

func (a *Automaton) addInvocation(from *State, callee *Rule, follow *State) {
	t := &Transition{
		Kind:   TransitionRule,
		Target: callee.Start,
		Follow: follow,
	}
	from.Transitions = append(from.Transitions, t)
	callee.invokers = append(callee.invokers, t)
}

// Labels returns the interval of every input symbol of the automaton, excluding LabelEOF.
func (a *Automaton) Labels() Label {
	if a.Kind == AutomatonKindLexer {
		return newLabel(codePointMin, codePointMax)
	}
	return newLabel(symbol.TerminalNil.Int()+1, a.Vocabulary.Max().Int())
}

// DisplaySample renders a sequence of input symbols as a sample input. Terminals of a parser automaton are
// separated by a space, and code points of a lexer automaton are concatenated leaving out the end of a
// token.
func (a *Automaton) DisplaySample(syms []int) string {
	var b strings.Builder
	for i, sym := range syms {
		if a.Kind == AutomatonKindLexer {
			if sym == LabelEOF {
				continue
			}
			b.WriteString(displayCodePoint(rune(sym)))
			continue
		}
		if i > 0 {
			b.WriteString(" ")
		}
		text, ok := a.Vocabulary.ToDisplay(symbol.Terminal(sym))
		if !ok {
			text = fmt.Sprintf("<%v>", sym)
		}
		b.WriteString(text)
	}
	return b.String()
}

// DisplayLabel renders a transition label for graphs.
func (a *Automaton) DisplayLabel(l Label) string {
	if a.Kind == AutomatonKindLexer {
		if l == a.Labels() {
			return "."
		}
		if l.Lo == l.Hi {
			return strconv.QuoteRune(rune(l.Lo))
		}
		return fmt.Sprintf("%v..%v", strconv.QuoteRune(rune(l.Lo)), strconv.QuoteRune(rune(l.Hi)))
	}
	if l.Lo != l.Hi {
		return "."
	}
	name, ok := a.Vocabulary.ToName(symbol.Terminal(l.Lo))
	if !ok {
		return fmt.Sprintf("<%v>", l.Lo)
	}
	return name
}

func displayCodePoint(r rune) string {
	if unicode.IsPrint(r) {
		return string(r)
	}
	q := strconv.QuoteRune(r)
	return q[1 : len(q)-1]
}

// IsLexerName reports whether a rule name denotes a lexer rule, that is, whether it begins with an
// upper-case letter.
func IsLexerName(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}
