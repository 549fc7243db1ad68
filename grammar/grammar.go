package grammar

import (
	"fmt"
	"unicode/utf8"

	verr "github.com/nihei9/decisive/error"
	"github.com/nihei9/decisive/grammar/symbol"
	"github.com/nihei9/decisive/spec"
)

// tokensRuleName is the name of the rule a lexer automaton synthesizes to select a token.
const tokensRuleName = "Tokens"

type GrammarBuilder struct {
	AST *spec.RootNode

	errs verr.SpecErrors
}

func (b *GrammarBuilder) Build() (*Model, error) {
	var parserRules []*spec.RuleNode
	var lexerRules []*spec.RuleNode
	{
		defined := map[string]struct{}{}
		for _, r := range b.AST.Rules {
			if _, ok := defined[r.Name]; ok {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrDuplicateRule,
					Detail: r.Name,
					Row:    r.NamePos.Row,
					Col:    r.NamePos.Col,
				})
				continue
			}
			defined[r.Name] = struct{}{}

			if !IsLexerName(r.Name) {
				if r.Fragment {
					b.errs = append(b.errs, &verr.SpecError{
						Cause:  semErrFragmentParserRule,
						Detail: r.Name,
						Row:    r.Pos.Row,
						Col:    r.Pos.Col,
					})
					continue
				}
				if b.AST.Kind == spec.GrammarKindLexer {
					b.errs = append(b.errs, &verr.SpecError{
						Cause:  semErrParserRuleInLexer,
						Detail: r.Name,
						Row:    r.NamePos.Row,
						Col:    r.NamePos.Col,
					})
					continue
				}
				parserRules = append(parserRules, r)
				continue
			}

			switch b.AST.Kind {
			case spec.GrammarKindParser, spec.GrammarKindTree:
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrLexerRuleInParser,
					Detail: r.Name,
					Row:    r.NamePos.Row,
					Col:    r.NamePos.Col,
				})
				continue
			}
			if r.Name == tokensRuleName {
				b.errs = append(b.errs, &verr.SpecError{
					Cause:  semErrReservedName,
					Detail: r.Name,
					Row:    r.NamePos.Row,
					Col:    r.NamePos.Col,
				})
				continue
			}
			lexerRules = append(lexerRules, r)
		}
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	if b.AST.Kind != spec.GrammarKindLexer && len(parserRules) == 0 {
		b.errs = append(b.errs, &verr.SpecError{
			Cause: semErrNoParserRule,
			Row:   b.AST.Pos.Row,
			Col:   b.AST.Pos.Col,
		})
		return nil, b.errs
	}

	var parser *Automaton
	literal2Token := literalTokens(lexerRules)
	if b.AST.Kind != spec.GrammarKindLexer {
		var err error
		parser, err = b.buildParserAutomaton(parserRules, lexerRules, literal2Token)
		if err != nil {
			return nil, err
		}
	}

	var lexer *Automaton
	if b.AST.Kind == spec.GrammarKindLexer || b.AST.Kind == spec.GrammarKindCombined {
		var implicit []string
		if parser != nil {
			for _, lit := range parser.Vocabulary.Literals() {
				if _, ok := literal2Token[lit]; ok {
					continue
				}
				implicit = append(implicit, lit)
			}
		}
		var err error
		lexer, err = b.buildLexerAutomaton(lexerRules, implicit)
		if err != nil {
			return nil, err
		}
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}

	var v Variant
	switch b.AST.Kind {
	case spec.GrammarKindCombined:
		v = &Combined{
			Parser: parser,
			Lexer:  lexer,
		}
	case spec.GrammarKindParser:
		v = &Parser{
			Parser: parser,
		}
	case spec.GrammarKindTree:
		v = &TreeParser{
			Parser: parser,
		}
	case spec.GrammarKindLexer:
		v = &Lexer{
			Lexer: lexer,
		}
	default:
		return nil, fmt.Errorf("unknown grammar kind: %v", b.AST.Kind)
	}

	tracer().Debugf("built %v grammar %v: %v automata", v.Kind(), b.AST.Name, len(v.Automata()))

	return &Model{
		Name:    b.AST.Name,
		Source:  b.AST.Kind,
		Variant: v,
	}, nil
}

// literalTokens finds lexer rules consisting of just one literal. A parser rule referring to such a literal
// refers to the token the lexer rule defines.
func literalTokens(lexerRules []*spec.RuleNode) map[string]string {
	lit2Tok := map[string]string{}
	for _, r := range lexerRules {
		if r.Fragment || len(r.Block.Alternatives) != 1 {
			continue
		}
		elems := r.Block.Alternatives[0].Elements
		if len(elems) != 1 || elems[0].Kind != spec.ElementKindLiteral || elems[0].Suffix != spec.SuffixNone {
			continue
		}
		if _, ok := lit2Tok[elems[0].Text]; ok {
			continue
		}
		lit2Tok[elems[0].Text] = r.Name
	}
	return lit2Tok
}

func (b *GrammarBuilder) buildParserAutomaton(rules []*spec.RuleNode, lexerRules []*spec.RuleNode, literal2Token map[string]string) (*Automaton, error) {
	a := newAutomaton(AutomatonKindParser)
	voc := symbol.NewVocabulary()
	a.Vocabulary = voc.Reader()

	var tokens map[string]*spec.RuleNode
	if b.AST.Kind == spec.GrammarKindCombined {
		tokens = map[string]*spec.RuleNode{}
		for _, r := range lexerRules {
			tokens[r.Name] = r
		}
	}

	ab := &automatonBuilder{
		a:             a,
		errs:          &b.errs,
		voc:           voc.Writer(),
		tokens:        tokens,
		literal2Token: literal2Token,
	}
	for _, r := range rules {
		a.newRule(r.Name, false, r.Pos)
	}
	for i, r := range rules {
		ab.buildRule(a.Rules[i], r)
	}
	if ab.err != nil {
		return nil, ab.err
	}

	// A wildcard matches any terminal, so its upper bound is known only after every terminal is registered.
	for _, t := range ab.wildcards {
		t.Label.Hi = a.Vocabulary.Max().Int()
	}

	return a, nil
}

func (b *GrammarBuilder) buildLexerAutomaton(rules []*spec.RuleNode, implicit []string) (*Automaton, error) {
	var tokenRules int
	for _, r := range rules {
		if !r.Fragment {
			tokenRules++
		}
	}
	tokenRules += len(implicit)
	if tokenRules == 0 {
		if b.AST.Kind == spec.GrammarKindLexer {
			b.errs = append(b.errs, &verr.SpecError{
				Cause: semErrNoTokenRule,
				Row:   b.AST.Pos.Row,
				Col:   b.AST.Pos.Col,
			})
		}
		return nil, nil
	}

	a := newAutomaton(AutomatonKindLexer)
	ab := &automatonBuilder{
		a:     a,
		errs:  &b.errs,
		lexer: true,
	}

	var toks []*Rule
	for i, lit := range implicit {
		r := a.newRule(fmt.Sprintf("T__%v", i+1), false, spec.Position{})
		s := r.Start
		for _, c := range lit {
			next := a.newState(r)
			a.addSymbol(s, next, newLabel(int(c), int(c)))
			s = next
		}
		a.addEpsilon(s, r.Stop)
		toks = append(toks, r)
	}
	for _, r := range rules {
		rule := a.newRule(r.Name, r.Fragment, r.Pos)
		if !r.Fragment {
			toks = append(toks, rule)
		}
	}
	for _, r := range rules {
		rule, _ := a.Rule(r.Name)
		ab.buildRule(rule, r)
	}
	if ab.err != nil {
		return nil, ab.err
	}

	tokensRule := a.newRule(tokensRuleName, false, spec.Position{})
	from := tokensRule.Start
	if len(toks) > 1 {
		d := a.newDecision(tokensRule, DecisionKindTokens, b.AST.Pos)
		a.addEpsilon(from, d.State)
		from = d.State
	}
	for _, tok := range toks {
		s := a.newState(tokensRule)
		a.addEpsilon(from, s)
		a.addInvocation(s, tok, tokensRule.Stop)
	}

	return a, nil
}

type automatonBuilder struct {
	a     *Automaton
	errs  *verr.SpecErrors
	err   error
	lexer bool

	// voc, tokens, and literal2Token are used only while building a parser automaton. tokens is nil unless
	// the grammar is a combined grammar.
	voc           *symbol.VocabularyWriter
	tokens        map[string]*spec.RuleNode
	literal2Token map[string]string
	wildcards     []*Transition
}

func (b *automatonBuilder) buildRule(r *Rule, node *spec.RuleNode) {
	b.buildBlock(r, node.Block, r.Start, r.Stop, DecisionKindRule)
}

func (b *automatonBuilder) buildBlock(r *Rule, block *spec.BlockNode, from, to *State, kind DecisionKind) {
	if len(block.Alternatives) == 1 {
		b.buildAlternative(r, block.Alternatives[0], from, to)
		return
	}
	d := b.a.newDecision(r, kind, block.Pos)
	b.a.addEpsilon(from, d.State)
	for _, alt := range block.Alternatives {
		s := b.a.newState(r)
		b.a.addEpsilon(d.State, s)
		b.buildAlternative(r, alt, s, to)
	}
}

func (b *automatonBuilder) buildAlternative(r *Rule, alt *spec.AlternativeNode, from, to *State) {
	cur := from
	for _, elem := range alt.Elements {
		next := b.a.newState(r)
		b.buildElement(r, elem, cur, next)
		cur = next
	}
	b.a.addEpsilon(cur, to)
}

func (b *automatonBuilder) buildElement(r *Rule, elem *spec.ElementNode, from, to *State) {
	switch elem.Suffix {
	case spec.SuffixOptional:
		d := b.a.newDecision(r, DecisionKindOptional, elem.Pos)
		b.a.addEpsilon(from, d.State)
		b.buildBranches(r, elem, d.State, to)
		b.a.addEpsilon(d.State, to)
	case spec.SuffixStar:
		d := b.a.newDecision(r, DecisionKindLoop, elem.Pos)
		b.a.addEpsilon(from, d.State)
		b.buildBranches(r, elem, d.State, d.State)
		b.a.addEpsilon(d.State, to)
	case spec.SuffixPlus:
		entry := b.a.newState(r)
		back := b.a.newState(r)
		b.a.addEpsilon(from, entry)
		b.buildAtom(r, elem, entry, back)
		d := b.a.newDecision(r, DecisionKindLoopBack, elem.Pos)
		b.a.addEpsilon(back, d.State)
		b.a.addEpsilon(d.State, entry)
		b.a.addEpsilon(d.State, to)
	default:
		b.buildAtom(r, elem, from, to)
	}
}

// buildBranches adds one alternative to a decision per alternative of a block, or a single alternative for
// any other element.
func (b *automatonBuilder) buildBranches(r *Rule, elem *spec.ElementNode, d, to *State) {
	if elem.Kind == spec.ElementKindBlock {
		for _, alt := range elem.Block.Alternatives {
			s := b.a.newState(r)
			b.a.addEpsilon(d, s)
			b.buildAlternative(r, alt, s, to)
		}
		return
	}
	s := b.a.newState(r)
	b.a.addEpsilon(d, s)
	b.buildAtom(r, elem, s, to)
}

func (b *automatonBuilder) buildAtom(r *Rule, elem *spec.ElementNode, from, to *State) {
	switch elem.Kind {
	case spec.ElementKindLiteral:
		if b.lexer {
			s := from
			n := utf8.RuneCountInString(elem.Text)
			i := 0
			for _, c := range elem.Text {
				next := to
				if i < n-1 {
					next = b.a.newState(r)
				}
				b.a.addSymbol(s, next, newLabel(int(c), int(c)))
				s = next
				i++
			}
			return
		}
		term, err := b.literalTerminal(elem.Text)
		if err != nil {
			b.err = err
			b.a.addEpsilon(from, to)
			return
		}
		b.a.addSymbol(from, to, newLabel(term.Int(), term.Int()))
	case spec.ElementKindReference:
		b.buildReference(r, elem, from, to)
	case spec.ElementKindRange:
		if !b.lexer {
			b.addError(semErrRangeInParser, "", elem.Pos)
			b.a.addEpsilon(from, to)
			return
		}
		if utf8.RuneCountInString(elem.Text) != 1 || utf8.RuneCountInString(elem.To) != 1 {
			b.addError(semErrInvalidRange, fmt.Sprintf("'%v'..'%v'", elem.Text, elem.To), elem.Pos)
			b.a.addEpsilon(from, to)
			return
		}
		lo, _ := utf8.DecodeRuneInString(elem.Text)
		hi, _ := utf8.DecodeRuneInString(elem.To)
		if lo > hi {
			b.addError(semErrInvertedRange, fmt.Sprintf("'%v'..'%v'", elem.Text, elem.To), elem.Pos)
			b.a.addEpsilon(from, to)
			return
		}
		b.a.addSymbol(from, to, newLabel(int(lo), int(hi)))
	case spec.ElementKindWildcard:
		if b.lexer {
			b.a.addSymbol(from, to, newLabel(codePointMin, codePointMax))
			return
		}
		t := b.a.addSymbol(from, to, newLabel(symbol.TerminalNil.Int()+1, symbol.TerminalNil.Int()+1))
		b.wildcards = append(b.wildcards, t)
	case spec.ElementKindBlock:
		b.buildBlock(r, elem.Block, from, to, DecisionKindBlock)
	}
}

func (b *automatonBuilder) buildReference(r *Rule, elem *spec.ElementNode, from, to *State) {
	name := elem.Text
	if b.lexer {
		if !IsLexerName(name) {
			b.addError(semErrParserRuleRef, name, elem.Pos)
			b.a.addEpsilon(from, to)
			return
		}
		callee, ok := b.a.Rule(name)
		if !ok || callee.Synthesized() {
			b.addError(semErrUndefinedRule, name, elem.Pos)
			b.a.addEpsilon(from, to)
			return
		}
		b.a.addInvocation(from, callee, to)
		return
	}

	if IsLexerName(name) {
		if b.tokens != nil {
			tok, ok := b.tokens[name]
			if !ok {
				b.addError(semErrUndefinedToken, name, elem.Pos)
				b.a.addEpsilon(from, to)
				return
			}
			if tok.Fragment {
				b.addError(semErrFragmentRef, name, elem.Pos)
				b.a.addEpsilon(from, to)
				return
			}
		}
		term, err := b.voc.RegisterToken(name)
		if err != nil {
			b.err = err
			b.a.addEpsilon(from, to)
			return
		}
		b.a.addSymbol(from, to, newLabel(term.Int(), term.Int()))
		return
	}

	callee, ok := b.a.Rule(name)
	if !ok {
		b.addError(semErrUndefinedRule, name, elem.Pos)
		b.a.addEpsilon(from, to)
		return
	}
	b.a.addInvocation(from, callee, to)
}

func (b *automatonBuilder) literalTerminal(text string) (symbol.Terminal, error) {
	if tok, ok := b.literal2Token[text]; ok && b.tokens != nil {
		return b.voc.RegisterToken(tok)
	}
	return b.voc.RegisterLiteral(text)
}

func (b *automatonBuilder) addError(cause error, detail string, pos spec.Position) {
	*b.errs = append(*b.errs, &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}
