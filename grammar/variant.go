package grammar

import "github.com/nihei9/decisive/spec"

type Kind string

const (
	KindCombined   = Kind("combined")
	KindParser     = Kind("parser")
	KindTreeParser = Kind("tree-parser")
	KindLexer      = Kind("lexer")
)

func (k Kind) String() string {
	return string(k)
}

// Variant is the set of automata a grammar has. The concrete types are Combined, Parser, TreeParser, and
// Lexer; each carries only the automata valid for its kind of grammar.
type Variant interface {
	Kind() Kind

	// Primary returns the automaton analyzed first: the parser automaton, or the lexer automaton of a
	// lexer grammar.
	Primary() *Automaton

	// Automata returns every automaton in analysis order.
	Automata() []*Automaton

	// ForRule returns the automaton containing the rule, or nil when no automaton contains it.
	ForRule(name string) *Automaton

	variant()
}

// Combined is a grammar defining parser rules and lexer rules together. Lexer is nil when the grammar
// produces no token rule.
type Combined struct {
	Parser *Automaton
	Lexer  *Automaton
}

func (v *Combined) Kind() Kind {
	return KindCombined
}

func (v *Combined) Primary() *Automaton {
	return v.Parser
}

func (v *Combined) Automata() []*Automaton {
	if v.Lexer == nil {
		return []*Automaton{v.Parser}
	}
	return []*Automaton{v.Parser, v.Lexer}
}

func (v *Combined) ForRule(name string) *Automaton {
	a := v.Parser
	if IsLexerName(name) {
		a = v.Lexer
	}
	return containing(a, name)
}

func (v *Combined) variant() {}

type Parser struct {
	Parser *Automaton
}

func (v *Parser) Kind() Kind {
	return KindParser
}

func (v *Parser) Primary() *Automaton {
	return v.Parser
}

func (v *Parser) Automata() []*Automaton {
	return []*Automaton{v.Parser}
}

func (v *Parser) ForRule(name string) *Automaton {
	return containing(v.Parser, name)
}

func (v *Parser) variant() {}

type TreeParser struct {
	Parser *Automaton
}

func (v *TreeParser) Kind() Kind {
	return KindTreeParser
}

func (v *TreeParser) Primary() *Automaton {
	return v.Parser
}

func (v *TreeParser) Automata() []*Automaton {
	return []*Automaton{v.Parser}
}

func (v *TreeParser) ForRule(name string) *Automaton {
	return containing(v.Parser, name)
}

func (v *TreeParser) variant() {}

type Lexer struct {
	Lexer *Automaton
}

func (v *Lexer) Kind() Kind {
	return KindLexer
}

func (v *Lexer) Primary() *Automaton {
	return v.Lexer
}

func (v *Lexer) Automata() []*Automaton {
	return []*Automaton{v.Lexer}
}

func (v *Lexer) ForRule(name string) *Automaton {
	return containing(v.Lexer, name)
}

func (v *Lexer) variant() {}

func containing(a *Automaton, name string) *Automaton {
	if a == nil {
		return nil
	}
	if _, ok := a.Rule(name); !ok {
		return nil
	}
	return a
}

// Model is the immutable result of building a grammar.
type Model struct {
	Name    string
	Source  spec.GrammarKind
	Variant Variant
}
