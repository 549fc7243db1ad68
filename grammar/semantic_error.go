package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrDuplicateRule      = newSemanticError("duplicate rule")
	semErrReservedName       = newSemanticError("the name is reserved for the rule that selects a token")
	semErrLexerRuleInParser  = newSemanticError("a parser grammar or a tree grammar cannot define a lexer rule")
	semErrParserRuleInLexer  = newSemanticError("a lexer grammar cannot define a parser rule")
	semErrFragmentParserRule = newSemanticError("only a lexer rule can be a fragment")
	semErrNoParserRule       = newSemanticError("a grammar needs at least one parser rule")
	semErrNoTokenRule        = newSemanticError("a lexer grammar needs at least one non-fragment rule")
	semErrUndefinedRule      = newSemanticError("undefined rule")
	semErrUndefinedToken     = newSemanticError("no lexer rule corresponds to the token")
	semErrFragmentRef        = newSemanticError("a parser rule cannot reference a fragment")
	semErrParserRuleRef      = newSemanticError("a lexer rule cannot reference a parser rule")
	semErrRangeInParser      = newSemanticError("a range can appear only in a lexer rule")
	semErrInvalidRange       = newSemanticError("both bounds of a range must be a single character")
	semErrInvertedRange      = newSemanticError("the lower bound of a range must not exceed the upper bound")
)
