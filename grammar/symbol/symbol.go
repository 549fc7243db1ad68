package symbol

import (
	"fmt"
	"strconv"
)

type terminalKind string

const (
	terminalKindLiteral = terminalKind("literal")
	terminalKindToken   = terminalKind("token")
)

func (k terminalKind) String() string {
	return string(k)
}

// Terminal is a number identifying a terminal symbol of a parser automaton. Terminals registered in a
// vocabulary are numbered from 1 in registration order.
type Terminal int

const (
	TerminalNil = Terminal(0)
	TerminalEOF = Terminal(-1)

	// The name contains `<` and `>` to avoid conflicting with user-defined tokens.
	terminalNameEOF    = "<eof>"
	terminalDisplayEOF = "EOF"

	terminalMin = Terminal(1)
	terminalMax = Terminal(0x3fff)
)

func (t Terminal) Int() int {
	return int(t)
}

func (t Terminal) IsNil() bool {
	return t == TerminalNil
}

func (t Terminal) IsEOF() bool {
	return t == TerminalEOF
}

func (t Terminal) String() string {
	switch {
	case t.IsNil():
		return "t<nil>"
	case t.IsEOF():
		return "t<eof>"
	}
	return fmt.Sprintf("t%v", t.Int())
}

type terminal struct {
	kind terminalKind
	text string
}

// key returns a text that distinguishes a literal from a token having the same spelling.
func (t *terminal) key() string {
	if t.kind == terminalKindLiteral {
		return strconv.Quote(t.text)
	}
	return t.text
}

type Vocabulary struct {
	key2Term map[string]Terminal
	terms    []*terminal
}

type VocabularyWriter struct {
	*Vocabulary
}

type VocabularyReader struct {
	*Vocabulary
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		key2Term: map[string]Terminal{},
		terms: []*terminal{
			nil, // Nil
		},
	}
}

func (v *Vocabulary) Writer() *VocabularyWriter {
	return &VocabularyWriter{
		Vocabulary: v,
	}
}

func (v *Vocabulary) Reader() *VocabularyReader {
	return &VocabularyReader{
		Vocabulary: v,
	}
}

// RegisterLiteral registers a literal such as 'a' appearing in a parser rule. Registering the same literal
// twice returns the same terminal.
func (w *VocabularyWriter) RegisterLiteral(text string) (Terminal, error) {
	return w.register(&terminal{
		kind: terminalKindLiteral,
		text: text,
	})
}

// RegisterToken registers a token referenced by name.
func (w *VocabularyWriter) RegisterToken(name string) (Terminal, error) {
	return w.register(&terminal{
		kind: terminalKindToken,
		text: name,
	})
}

func (w *VocabularyWriter) register(t *terminal) (Terminal, error) {
	if term, ok := w.key2Term[t.key()]; ok {
		return term, nil
	}
	term := Terminal(len(w.terms))
	if term > terminalMax {
		return TerminalNil, fmt.Errorf("a terminal number exceeds the limit; limit: %v, passed: %v", terminalMax, term)
	}
	w.key2Term[t.key()] = term
	w.terms = append(w.terms, t)
	return term, nil
}

func (r *VocabularyReader) LookupLiteral(text string) (Terminal, bool) {
	t := &terminal{
		kind: terminalKindLiteral,
		text: text,
	}
	term, ok := r.key2Term[t.key()]
	return term, ok
}

func (r *VocabularyReader) LookupToken(name string) (Terminal, bool) {
	term, ok := r.key2Term[name]
	return term, ok
}

// Max returns the greatest terminal in the vocabulary, or TerminalNil when the vocabulary is empty.
func (r *VocabularyReader) Max() Terminal {
	return Terminal(len(r.terms) - 1)
}

func (r *VocabularyReader) Terminals() []Terminal {
	terms := make([]Terminal, 0, len(r.terms)-1)
	for t := terminalMin; t.Int() < len(r.terms); t++ {
		terms = append(terms, t)
	}
	return terms
}

// Literals returns the texts of the registered literals in registration order.
func (r *VocabularyReader) Literals() []string {
	var lits []string
	for _, t := range r.terms[terminalMin:] {
		if t.kind == terminalKindLiteral {
			lits = append(lits, t.text)
		}
	}
	return lits
}

func (r *VocabularyReader) IsLiteral(term Terminal) bool {
	if term < terminalMin || term.Int() >= len(r.terms) {
		return false
	}
	return r.terms[term].kind == terminalKindLiteral
}

// ToName returns a name usable in reports: the quoted text of a literal or the name of a token.
func (r *VocabularyReader) ToName(term Terminal) (string, bool) {
	if term.IsEOF() {
		return terminalNameEOF, true
	}
	if term < terminalMin || term.Int() >= len(r.terms) {
		return "", false
	}
	t := r.terms[term]
	if t.kind == terminalKindLiteral {
		return "'" + t.text + "'", true
	}
	return t.text, true
}

// ToDisplay returns a text representing the terminal in a sample input: the bare text of a literal, the
// name of a token, or EOF.
func (r *VocabularyReader) ToDisplay(term Terminal) (string, bool) {
	if term.IsEOF() {
		return terminalDisplayEOF, true
	}
	if term < terminalMin || term.Int() >= len(r.terms) {
		return "", false
	}
	return r.terms[term].text, true
}
