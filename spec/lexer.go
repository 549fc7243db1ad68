package spec

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	verr "github.com/nihei9/decisive/error"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type tokenKind string

const (
	tokenKindID            = tokenKind("id")
	tokenKindStringLiteral = tokenKind("string")
	tokenKindColon         = tokenKind(":")
	tokenKindSemicolon     = tokenKind(";")
	tokenKindOr            = tokenKind("|")
	tokenKindLParen        = tokenKind("(")
	tokenKindRParen        = tokenKind(")")
	tokenKindQuestion      = tokenKind("?")
	tokenKindStar          = tokenKind("*")
	tokenKindPlus          = tokenKind("+")
	tokenKindRange         = tokenKind("..")
	tokenKindWildcard      = tokenKind(".")
	tokenKindEOF           = tokenKind("eof")
	tokenKindInvalid       = tokenKind("invalid")
)

type Position struct {
	Row int
	Col int
}

func newPosition(row, col int) Position {
	return Position{
		Row: row,
		Col: col,
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%v:%v", p.Row, p.Col)
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func newSymbolToken(kind tokenKind, pos Position) *token {
	return &token{
		kind: kind,
		pos:  pos,
	}
}

func newIDToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindID,
		text: text,
		pos:  pos,
	}
}

func newStringLiteralToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindStringLiteral,
		text: text,
		pos:  pos,
	}
}

func newEOFToken(pos Position) *token {
	return &token{
		kind: tokenKindEOF,
		pos:  pos,
	}
}

func newInvalidToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindInvalid,
		text: text,
		pos:  pos,
	}
}

// lexEntries is the lexical specification of the grammar notation. The unclosed_* kinds match a prefix of
// the corresponding closed kind, so a closed literal or comment always wins by length.
var lexEntries = []*mlspec.LexEntry{
	{Kind: "white_space", Pattern: `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
	{Kind: "line_comment", Pattern: `//[^\u{000A}]*`},
	{Kind: "block_comment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`},
	{Kind: "unclosed_block_comment", Pattern: `/\*([^*]|\*+[^*/])*\**`},
	{Kind: "identifier", Pattern: `[A-Za-z][0-9A-Za-z_]*`},
	{Kind: "string_literal", Pattern: `'([^'\u{005C}\u{000A}]|\u{005C}[^\u{000A}])*'`},
	{Kind: "unclosed_string_literal", Pattern: `'([^'\u{005C}\u{000A}]|\u{005C}[^\u{000A}])*\u{005C}?`},
	{Kind: "colon", Pattern: `:`},
	{Kind: "semicolon", Pattern: `;`},
	{Kind: "or", Pattern: `\|`},
	{Kind: "l_paren", Pattern: `\(`},
	{Kind: "r_paren", Pattern: `\)`},
	{Kind: "question", Pattern: `\?`},
	{Kind: "star", Pattern: `\*`},
	{Kind: "plus", Pattern: `\+`},
	{Kind: "range", Pattern: `\.\.`},
	{Kind: "wildcard", Pattern: `\.`},
}

var (
	compiledLexSpec     *mlspec.CompiledLexSpec
	compiledLexSpecErr  error
	compiledLexSpecOnce sync.Once
)

func lexSpec() (*mlspec.CompiledLexSpec, error) {
	compiledLexSpecOnce.Do(func() {
		s, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
			Name:    "decisive",
			Entries: lexEntries,
		}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		if err != nil {
			if len(cErrs) > 0 {
				compiledLexSpecErr = fmt.Errorf("cannot compile the lexical specification: %v: %w", cErrs[0].Kind, cErrs[0].Cause)
				return
			}
			compiledLexSpecErr = fmt.Errorf("cannot compile the lexical specification: %w", err)
			return
		}
		compiledLexSpec = s
	})
	return compiledLexSpec, compiledLexSpecErr
}

type lexer struct {
	s *mlspec.CompiledLexSpec
	d *mldriver.Lexer
}

func newLexer(src io.Reader) (*lexer, error) {
	s, err := lexSpec()
	if err != nil {
		return nil, err
	}
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(s), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		s: s,
		d: d,
	}, nil
}

func (l *lexer) next() (*token, error) {
	var tok *mldriver.Token
	var kind string
	for {
		var err error
		tok, err = l.d.Next()
		if err != nil {
			return nil, err
		}
		pos := newPosition(tok.Row+1, tok.Col+1)
		if tok.Invalid {
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}
		if tok.EOF {
			return newEOFToken(pos), nil
		}
		kind = string(l.s.KindNames[tok.KindID])
		if kind == "white_space" || kind == "line_comment" || kind == "block_comment" {
			continue
		}
		break
	}

	pos := newPosition(tok.Row+1, tok.Col+1)
	text := string(tok.Lexeme)
	switch kind {
	case "identifier":
		return newIDToken(text, pos), nil
	case "string_literal":
		str, err := unescape(text[1 : len(text)-1])
		if err != nil {
			err.Row = pos.Row
			err.Col = pos.Col
			return nil, err
		}
		if str == "" {
			return nil, &verr.SpecError{
				Cause: synErrEmptyString,
				Row:   pos.Row,
				Col:   pos.Col,
			}
		}
		return newStringLiteralToken(str, pos), nil
	case "unclosed_string_literal":
		if strings.HasSuffix(text, `\`) && !strings.HasSuffix(text, `\\`) {
			return nil, &verr.SpecError{
				Cause: synErrIncompletedEscSeq,
				Row:   pos.Row,
				Col:   pos.Col,
			}
		}
		return nil, &verr.SpecError{
			Cause: synErrUnclosedString,
			Row:   pos.Row,
			Col:   pos.Col,
		}
	case "unclosed_block_comment":
		return nil, &verr.SpecError{
			Cause: synErrUnclosedComment,
			Row:   pos.Row,
			Col:   pos.Col,
		}
	case "colon":
		return newSymbolToken(tokenKindColon, pos), nil
	case "semicolon":
		return newSymbolToken(tokenKindSemicolon, pos), nil
	case "or":
		return newSymbolToken(tokenKindOr, pos), nil
	case "l_paren":
		return newSymbolToken(tokenKindLParen, pos), nil
	case "r_paren":
		return newSymbolToken(tokenKindRParen, pos), nil
	case "question":
		return newSymbolToken(tokenKindQuestion, pos), nil
	case "star":
		return newSymbolToken(tokenKindStar, pos), nil
	case "plus":
		return newSymbolToken(tokenKindPlus, pos), nil
	case "range":
		return newSymbolToken(tokenKindRange, pos), nil
	case "wildcard":
		return newSymbolToken(tokenKindWildcard, pos), nil
	default:
		return newInvalidToken(text, pos), nil
	}
}

// unescape interprets the escape sequences in the body of a string literal.
func unescape(s string) (string, *verr.SpecError) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '\\' {
			b.WriteRune(rs[i])
			continue
		}
		i++
		if i >= len(rs) {
			return "", &verr.SpecError{
				Cause: synErrIncompletedEscSeq,
			}
		}
		switch rs[i] {
		case '\'':
			b.WriteRune('\'')
		case '\\':
			b.WriteRune('\\')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case 'u':
			if i+4 >= len(rs) {
				return "", &verr.SpecError{
					Cause:  synErrInvalidEscSeq,
					Detail: `\` + string(rs[i:]),
				}
			}
			code, err := strconv.ParseUint(string(rs[i+1:i+5]), 16, 32)
			if err != nil {
				return "", &verr.SpecError{
					Cause:  synErrInvalidEscSeq,
					Detail: `\` + string(rs[i:i+5]),
				}
			}
			b.WriteRune(rune(code))
			i += 4
		default:
			return "", &verr.SpecError{
				Cause:  synErrInvalidEscSeq,
				Detail: `\` + string(rs[i]),
			}
		}
	}
	return b.String(), nil
}
