package session

import (
	"strings"
	"sync"

	"github.com/nihei9/decisive/analysis"
	"github.com/nihei9/decisive/spec"
)

type RuleSpan = analysis.RuleSpan

// Document is the source of a grammar a session analyzes.
type Document interface {
	Text() string

	// FileName is the path of the grammar file. It is empty when the grammar is not stored in a file.
	FileName() string

	// Rules returns the spans of the rules defined in the text.
	Rules() []RuleSpan
}

// TextDocument is a Document holding its text in memory.
type TextDocument struct {
	mu       sync.RWMutex
	fileName string
	text     string
	rules    []RuleSpan
}

func NewTextDocument(fileName, text string) *TextDocument {
	d := &TextDocument{
		fileName: fileName,
	}
	d.SetText(text)
	return d
}

// SetText replaces the text. When the new text is malformed, the rule spans of the last well-formed text
// are kept.
func (d *TextDocument) SetText(text string) {
	rules, err := ParseRuleSpans(text)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	if err != nil {
		tracer().Debugf("keeping the rule spans of %v: %v", d.fileName, err)
		return
	}
	d.rules = rules
}

func (d *TextDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

func (d *TextDocument) FileName() string {
	return d.fileName
}

func (d *TextDocument) Rules() []RuleSpan {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rules := make([]RuleSpan, len(d.rules))
	copy(rules, d.rules)
	return rules
}

// ParseRuleSpans returns the spans of the rules of a grammar source in definition order.
func ParseRuleSpans(text string) ([]RuleSpan, error) {
	ast, err := spec.Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return ruleSpans(ast), nil
}

func ruleSpans(ast *spec.RootNode) []RuleSpan {
	spans := make([]RuleSpan, 0, len(ast.Rules))
	for _, r := range ast.Rules {
		start, end := r.Span()
		spans = append(spans, RuleSpan{
			Name:  r.Name,
			Start: start,
			End:   end,
		})
	}
	return spans
}
