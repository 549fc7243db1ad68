package spec

type SyntaxError struct {
	message string
}

func newSyntaxError(message string) *SyntaxError {
	return &SyntaxError{
		message: message,
	}
}

func (e *SyntaxError) Error() string {
	return e.message
}

var (
	// lexical errors
	synErrUnclosedString    = newSyntaxError("unclosed string")
	synErrUnclosedComment   = newSyntaxError("unclosed block comment")
	synErrEmptyString       = newSyntaxError("a string must include at least one character")
	synErrInvalidEscSeq     = newSyntaxError("invalid escape sequence")
	synErrIncompletedEscSeq = newSyntaxError("incompleted escape sequence; unexpected end of string following a backslash")

	// syntax errors
	synErrInvalidToken      = newSyntaxError("invalid token")
	synErrNoHeader          = newSyntaxError("a grammar must begin with a header such as `grammar NAME;`")
	synErrNoGrammarKeyword  = newSyntaxError("the grammar kind must be followed by the keyword `grammar`")
	synErrNoGrammarName     = newSyntaxError("a grammar name is missing")
	synErrHeaderNoSemicolon = newSyntaxError("a header must be terminated by ;")
	synErrNoRule            = newSyntaxError("a grammar must have at least one rule")
	synErrNoRuleName        = newSyntaxError("a rule name is missing")
	synErrNoColon           = newSyntaxError("the colon must precede alternatives")
	synErrNoSemicolon       = newSyntaxError("the semicolon is missing at the last of an alternative")
	synErrUnclosedBlock     = newSyntaxError("a block must be closed by )")
	synErrNoRangeUpperBound = newSyntaxError("a range operator .. must be followed by a string")
)
