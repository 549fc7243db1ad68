package spec

import (
	"strings"
	"testing"

	verr "github.com/nihei9/decisive/error"
)

func TestLexer_Run(t *testing.T) {
	idTok := func(text string) *token {
		return newIDToken(text, newPosition(1, 1))
	}

	strTok := func(text string) *token {
		return newStringLiteralToken(text, newPosition(1, 1))
	}

	symTok := func(kind tokenKind) *token {
		return newSymbolToken(kind, newPosition(1, 1))
	}

	tests := []struct {
		caption string
		src     string
		tokens  []*token
		err     error
	}{
		{
			caption: "the lexer can recognize all kinds of tokens",
			src:     `id 'a':;|()?*+.. .`,
			tokens: []*token{
				idTok("id"),
				strTok("a"),
				symTok(tokenKindColon),
				symTok(tokenKindSemicolon),
				symTok(tokenKindOr),
				symTok(tokenKindLParen),
				symTok(tokenKindRParen),
				symTok(tokenKindQuestion),
				symTok(tokenKindStar),
				symTok(tokenKindPlus),
				symTok(tokenKindRange),
				symTok(tokenKindWildcard),
				newEOFToken(newPosition(1, 1)),
			},
		},
		{
			caption: "the lexer skips white spaces and comments",
			src: `
// a line comment
a /* a block
comment */ b
`,
			tokens: []*token{
				idTok("a"),
				idTok("b"),
				newEOFToken(newPosition(1, 1)),
			},
		},
		{
			caption: "the lexer interprets escape sequences in a string",
			src:     `'\'' '\\' '\n\r\t' 'Ab'`,
			tokens: []*token{
				strTok(`'`),
				strTok(`\`),
				strTok("\n\r\t"),
				strTok("Ab"),
				newEOFToken(newPosition(1, 1)),
			},
		},
		{
			caption: "a range is not a pair of wildcards",
			src:     `'a'..'z'`,
			tokens: []*token{
				strTok("a"),
				symTok(tokenKindRange),
				strTok("z"),
				newEOFToken(newPosition(1, 1)),
			},
		},
		{
			caption: "an unknown character is an invalid token",
			src:     `a !`,
			tokens: []*token{
				idTok("a"),
				newInvalidToken("!", newPosition(1, 1)),
				newEOFToken(newPosition(1, 1)),
			},
		},
		{
			caption: "an empty string is not allowed",
			src:     `''`,
			err:     synErrEmptyString,
		},
		{
			caption: "a string must be closed",
			src: `'abc
`,
			err: synErrUnclosedString,
		},
		{
			caption: "a block comment must be closed",
			src:     `a /* comment`,
			tokens: []*token{
				idTok("a"),
			},
			err: synErrUnclosedComment,
		},
		{
			caption: "an unknown escape sequence is not allowed",
			src:     `'\x'`,
			err:     synErrInvalidEscSeq,
		},
		{
			caption: "a \\u escape sequence needs four hexadecimal digits",
			src:     `'\u00'`,
			err:     synErrInvalidEscSeq,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := newLexer(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			n := 0
			for {
				var tok *token
				tok, err = l.next()
				if err != nil {
					break
				}
				if n >= len(tt.tokens) {
					t.Fatalf("too many tokens; got: %+v", tok)
				}
				testToken(t, tok, tt.tokens[n])
				n++
				if tok.kind == tokenKindEOF {
					break
				}
			}
			if tt.err != nil {
				synErr, ok := err.(*verr.SpecError)
				if !ok {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
				if tt.err != synErr.Cause {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, synErr.Cause)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error; want: %v, got: %v", tt.err, err)
				}
				if n != len(tt.tokens) {
					t.Fatalf("unexpected token count; want: %v, got: %v", len(tt.tokens), n)
				}
			}
		})
	}
}

func TestLexer_Position(t *testing.T) {
	src := `grammar g;
r : 'a'
  | b ;`
	l, err := newLexer(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	expected := []Position{
		newPosition(1, 1),  // grammar
		newPosition(1, 9),  // g
		newPosition(1, 10), // ;
		newPosition(2, 1),  // r
		newPosition(2, 3),  // :
		newPosition(2, 5),  // 'a'
		newPosition(3, 3),  // |
		newPosition(3, 5),  // b
		newPosition(3, 7),  // ;
	}
	for i, want := range expected {
		tok, err := l.next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.pos != want {
			t.Fatalf("unexpected position of token #%v (%v); want: %v, got: %v", i, tok.kind, want, tok.pos)
		}
	}
}

func testToken(t *testing.T, tok, expected *token) {
	t.Helper()
	if tok.kind != expected.kind || tok.text != expected.text {
		t.Fatalf("unexpected token; want: %+v, got: %+v", expected, tok)
	}
}
