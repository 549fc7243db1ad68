package spec

import (
	"io"

	verr "github.com/nihei9/decisive/error"
)

type GrammarKind string

const (
	GrammarKindCombined = GrammarKind("combined")
	GrammarKindParser   = GrammarKind("parser")
	GrammarKindTree     = GrammarKind("tree")
	GrammarKindLexer    = GrammarKind("lexer")
)

func (k GrammarKind) String() string {
	return string(k)
}

type RootNode struct {
	Kind  GrammarKind
	Name  string
	Rules []*RuleNode
	Pos   Position
}

type RuleNode struct {
	Name     string
	Fragment bool
	Block    *BlockNode

	// Pos is the position of the first token of the rule, NamePos is the position of its name, and EndPos is
	// the position of the terminating semicolon.
	Pos     Position
	NamePos Position
	EndPos  Position
}

// Span returns the 0-based lines on which the rule begins and ends.
func (n *RuleNode) Span() (int, int) {
	return n.Pos.Row - 1, n.EndPos.Row - 1
}

type BlockNode struct {
	Alternatives []*AlternativeNode
	Pos          Position
}

type AlternativeNode struct {
	Elements []*ElementNode
	Pos      Position
}

type ElementKind string

const (
	ElementKindLiteral   = ElementKind("literal")
	ElementKindReference = ElementKind("reference")
	ElementKindRange     = ElementKind("range")
	ElementKindWildcard  = ElementKind("wildcard")
	ElementKindBlock     = ElementKind("block")
)

type Suffix string

const (
	SuffixNone     = Suffix("")
	SuffixOptional = Suffix("?")
	SuffixStar     = Suffix("*")
	SuffixPlus     = Suffix("+")
)

type ElementNode struct {
	Kind ElementKind

	// Text is the unescaped content of a literal, the lower bound of a range, or the name of a reference.
	Text string

	// To is the upper bound of a range.
	To string

	Block  *BlockNode
	Suffix Suffix
	Pos    Position
}

func raiseSyntaxError(pos Position, synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   pos.Row,
		Col:   pos.Col,
	})
}

func raiseSyntaxErrorWithDetail(pos Position, synErr *SyntaxError, detail string) {
	panic(&verr.SpecError{
		Cause:  synErr,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func Parse(src io.Reader) (*RootNode, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	return root, nil
}

type parser struct {
	lex       *lexer
	peekedTok *token
	lastTok   *token
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	defer func() {
		err := recover()
		if err != nil {
			specErr, ok := err.(*verr.SpecError)
			if !ok {
				panic(err)
			}
			retErr = specErr
			return
		}
	}()
	return p.parseRoot(), nil
}

func (p *parser) parseRoot() *RootNode {
	root := p.parseHeader()
	for {
		rule := p.parseRule()
		if rule == nil {
			break
		}
		root.Rules = append(root.Rules, rule)
	}
	if len(root.Rules) == 0 {
		raiseSyntaxError(p.lastTok.pos, synErrNoRule)
	}
	return root
}

func (p *parser) parseHeader() *RootNode {
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.peek().pos, synErrNoHeader)
	}
	pos := p.lastTok.pos
	kind := GrammarKindCombined
	switch p.lastTok.text {
	case "grammar":
	case "lexer", "parser", "tree":
		kind = GrammarKind(p.lastTok.text)
		if !p.consume(tokenKindID) || p.lastTok.text != "grammar" {
			raiseSyntaxError(p.lastTok.pos, synErrNoGrammarKeyword)
		}
	default:
		raiseSyntaxError(pos, synErrNoHeader)
	}
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.peek().pos, synErrNoGrammarName)
	}
	name := p.lastTok.text
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.peek().pos, synErrHeaderNoSemicolon)
	}
	return &RootNode{
		Kind: kind,
		Name: name,
		Pos:  pos,
	}
}

func (p *parser) parseRule() *RuleNode {
	if p.consume(tokenKindEOF) {
		return nil
	}

	var fragment bool
	var pos Position
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.peek().pos, synErrNoRuleName)
	}
	pos = p.lastTok.pos
	if p.lastTok.text == "fragment" && p.peek().kind == tokenKindID {
		fragment = true
		p.consume(tokenKindID)
	}
	name := p.lastTok.text
	namePos := p.lastTok.pos

	if !p.consume(tokenKindColon) {
		raiseSyntaxError(p.peek().pos, synErrNoColon)
	}
	block := p.parseAlternatives(p.lastTok.pos)
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.peek().pos, synErrNoSemicolon)
	}

	return &RuleNode{
		Name:     name,
		Fragment: fragment,
		Block:    block,
		Pos:      pos,
		NamePos:  namePos,
		EndPos:   p.lastTok.pos,
	}
}

func (p *parser) parseAlternatives(pos Position) *BlockNode {
	alts := []*AlternativeNode{p.parseAlternative()}
	for p.consume(tokenKindOr) {
		alts = append(alts, p.parseAlternative())
	}
	return &BlockNode{
		Alternatives: alts,
		Pos:          pos,
	}
}

func (p *parser) parseAlternative() *AlternativeNode {
	alt := &AlternativeNode{
		Pos: p.peek().pos,
	}
	for {
		elem := p.parseElement()
		if elem == nil {
			break
		}
		alt.Elements = append(alt.Elements, elem)
	}
	return alt
}

func (p *parser) parseElement() *ElementNode {
	var elem *ElementNode
	switch {
	case p.consume(tokenKindStringLiteral):
		elem = &ElementNode{
			Kind: ElementKindLiteral,
			Text: p.lastTok.text,
			Pos:  p.lastTok.pos,
		}
		if p.consume(tokenKindRange) {
			if !p.consume(tokenKindStringLiteral) {
				raiseSyntaxError(p.peek().pos, synErrNoRangeUpperBound)
			}
			elem.Kind = ElementKindRange
			elem.To = p.lastTok.text
		}
	case p.consume(tokenKindID):
		elem = &ElementNode{
			Kind: ElementKindReference,
			Text: p.lastTok.text,
			Pos:  p.lastTok.pos,
		}
	case p.consume(tokenKindWildcard):
		elem = &ElementNode{
			Kind: ElementKindWildcard,
			Pos:  p.lastTok.pos,
		}
	case p.consume(tokenKindLParen):
		pos := p.lastTok.pos
		block := p.parseAlternatives(pos)
		if !p.consume(tokenKindRParen) {
			raiseSyntaxError(p.peek().pos, synErrUnclosedBlock)
		}
		elem = &ElementNode{
			Kind:  ElementKindBlock,
			Block: block,
			Pos:   pos,
		}
	default:
		return nil
	}

	switch {
	case p.consume(tokenKindQuestion):
		elem.Suffix = SuffixOptional
	case p.consume(tokenKindStar):
		elem.Suffix = SuffixStar
	case p.consume(tokenKindPlus):
		elem.Suffix = SuffixPlus
	}

	return elem
}

func (p *parser) peek() *token {
	if p.peekedTok == nil {
		tok, err := p.lex.next()
		if err != nil {
			if specErr, ok := err.(*verr.SpecError); ok {
				panic(specErr)
			}
			panic(&verr.SpecError{
				Cause: err,
			})
		}
		p.peekedTok = tok
	}
	return p.peekedTok
}

func (p *parser) consume(expected tokenKind) bool {
	tok := p.peek()
	if tok.kind == tokenKindInvalid && expected != tokenKindInvalid {
		raiseSyntaxErrorWithDetail(tok.pos, synErrInvalidToken, tok.text)
	}
	if tok.kind != expected {
		return false
	}
	p.peekedTok = nil
	p.lastTok = tok
	return true
}
