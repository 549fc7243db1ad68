package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nihei9/decisive/analysis"
	verr "github.com/nihei9/decisive/error"
	"github.com/nihei9/decisive/grammar"
	"github.com/nihei9/decisive/spec"
)

// ErrSuperseded is returned by a pass whose document was edited while the pass was running. The pass
// commits nothing.
var ErrSuperseded = errors.New("the analysis was superseded by an edit")

type Option func(s *Session)

func WithAnalysisOptions(opts analysis.Options) Option {
	return func(s *Session) {
		s.opts = opts
	}
}

func WithGraphCacheSize(size int) Option {
	return func(s *Session) {
		s.graphCacheSize = size
	}
}

func WithInboxSize(size int) Option {
	return func(s *Session) {
		s.inboxSize = size
	}
}

// Session analyzes one grammar document. The document is rebuilt and reanalyzed on demand after every
// edit; a pass computes without holding the session lock and commits its result only when no edit
// happened in the meantime.
type Session struct {
	mu      sync.Mutex
	doc     Document
	opts    analysis.Options
	state   State
	version uint64

	// model is the model built from the text of version modelVersion.
	model        *grammar.Model
	modelVersion uint64

	// result is the last committed pass. It may be older than the current version.
	result *Result

	graphCacheSize int
	graphs         *graphCache
	inboxSize      int
	inbox          *Inbox

	// beforeCommit is called between the computation of a pass and its commit.
	beforeCommit func(version uint64)
}

// New creates a session for a document. The session starts with the document already edited, so the
// first call of EnsureAnalyzed analyzes it.
func New(doc Document, opts ...Option) (*Session, error) {
	s := &Session{
		doc:   doc,
		opts:  analysis.DefaultOptions(),
		state: StateClean,
	}
	for _, opt := range opts {
		opt(s)
	}
	graphs, err := newGraphCache(s.graphCacheSize)
	if err != nil {
		return nil, err
	}
	s.graphs = graphs
	s.inbox = newInbox(s.inboxSize, s.Version)
	s.Edit()
	return s, nil
}

// Edit tells the session that the document changed. Any pass running at that time is superseded.
func (s *Session) Edit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.mustTransition(StateGrammarStale)
	tracer().Debugf("%v: edited; version %v", s.doc.FileName(), s.version)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// IsDirty reports whether the committed diagnostics may differ from those of the current text.
func (s *Session) IsDirty() bool {
	return s.State() != StateAnalyzed
}

func (s *Session) Inbox() *Inbox {
	return s.inbox
}

func (s *Session) transition(next State) error {
	if !s.state.canTransitionTo(next) {
		return &TransitionError{
			From: s.state,
			To:   next,
		}
	}
	tracer().Debugf("%v: %v -> %v", s.doc.FileName(), s.state, next)
	s.state = next
	return nil
}

// mustTransition is used for the transitions the session itself guarantees to be legal.
func (s *Session) mustTransition(next State) {
	err := s.transition(next)
	if err != nil {
		panic(err)
	}
}

type snapshot struct {
	version  uint64
	text     string
	fileName string
	rules    []RuleSpan
	model    *grammar.Model
}

func (s *Session) takeSnapshot() *snapshot {
	snap := &snapshot{
		version:  s.version,
		text:     s.doc.Text(),
		fileName: s.doc.FileName(),
		rules:    s.doc.Rules(),
	}
	if s.model != nil && s.modelVersion == s.version {
		snap.model = s.model
	}
	return snap
}

// EnsureBuilt builds the model of the current text unless it is already built. On a malformed grammar, the
// session stays GrammarStale and keeps the diagnostics of the last committed pass.
func (s *Session) EnsureBuilt() error {
	s.mu.Lock()
	snap := s.takeSnapshot()
	s.mu.Unlock()
	if snap.model != nil {
		return nil
	}
	_, err := s.build(snap)
	return err
}

func (s *Session) build(snap *snapshot) (*grammar.Model, error) {
	m, err := buildModel(snap.text, snap.fileName)
	if err != nil {
		tracer().Infof("%v: failed to build the grammar: %v", snap.fileName, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != snap.version {
		return nil, ErrSuperseded
	}
	if s.model != nil && s.modelVersion == snap.version {
		// A concurrent pass built the same text first.
		return s.model, nil
	}
	err = s.transition(StateGrammarBuilt)
	if err != nil {
		return nil, err
	}
	s.model = m
	s.modelVersion = snap.version
	s.graphs.purge()
	return m, nil
}

// EnsureAnalyzed runs a pass unless the current text is already analyzed, and returns the committed
// result.
func (s *Session) EnsureAnalyzed(ctx context.Context) (*Result, error) {
	res, _, err := s.ensureAnalyzed(ctx)
	return res, err
}

// ensureAnalyzed also returns the version the pass analyzed.
func (s *Session) ensureAnalyzed(ctx context.Context) (*Result, uint64, error) {
	s.mu.Lock()
	if s.state == StateAnalyzed {
		res := s.result
		s.mu.Unlock()
		return res, res.Version, nil
	}
	snap := s.takeSnapshot()
	s.mu.Unlock()

	res, err := s.analyze(ctx, snap)
	return res, snap.version, err
}

func (s *Session) analyze(ctx context.Context, snap *snapshot) (*Result, error) {
	m := snap.model
	if m == nil {
		var err error
		m, err = s.build(snap)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	if s.version != snap.version {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if s.state == StateGrammarBuilt {
		s.mustTransition(StateAnalysisStale)
	}
	s.mu.Unlock()

	c := &analysis.Collector{}
	err := analysis.Analyze(ctx, m, s.opts, c)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %v: %w", m.Name, err)
	}
	diags := analysis.BuildDiagnostics(c.Messages())

	if s.beforeCommit != nil {
		s.beforeCommit(snap.version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != snap.version {
		tracer().Debugf("%v: discarded the result of version %v", snap.fileName, snap.version)
		return nil, ErrSuperseded
	}
	err = s.transition(StateAnalyzed)
	if err != nil {
		return nil, err
	}
	s.result = &Result{
		Version:         snap.version,
		Name:            m.Name,
		Kind:            m.Variant.Kind(),
		FileName:        snap.fileName,
		LookaheadDepth:  s.opts.LookaheadDepth,
		Diagnostics:     diags,
		RuleDiagnostics: analysis.Annotate(snap.rules, diags, s.graphs),
		Rules:           snap.rules,
	}
	tracer().Infof("%v: analyzed version %v: %v diagnostics", snap.fileName, snap.version, len(diags))
	return s.result, nil
}

// AnalyzeAsync runs a pass on a new goroutine and posts its outcome to the inbox. A superseded pass posts
// nothing. The returned channel is closed when the pass finishes.
func (s *Session) AnalyzeAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, version, err := s.ensureAnalyzed(ctx)
		if err != nil {
			if errors.Is(err, ErrSuperseded) {
				return
			}
			s.inbox.post(&notification{
				version: version,
				err:     err,
			})
			return
		}
		s.inbox.post(&notification{
			version: version,
			result:  res,
		})
	}()
	return done
}

// Variant returns the automata of the last built model, or nil when no model is built.
func (s *Session) Variant() grammar.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil
	}
	return s.model.Variant
}

// Diagnostics returns the diagnostics of the last committed pass.
func (s *Session) Diagnostics() []*analysis.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	return s.result.Diagnostics
}

func (s *Session) RuleDiagnostics(rule string) []*analysis.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	return s.result.RuleDiagnostics[rule]
}

// AutomatonForRule returns the automaton containing a rule: the lexer automaton for lexer names and the
// parser automaton otherwise.
func (s *Session) AutomatonForRule(rule string) *grammar.Automaton {
	v := s.Variant()
	if v == nil {
		return nil
	}
	return v.ForRule(rule)
}

func (s *Session) RuleStartState(rule string) *grammar.State {
	a := s.AutomatonForRule(rule)
	if a == nil {
		return nil
	}
	r, ok := a.Rule(rule)
	if !ok {
		return nil
	}
	return r.Start
}

// RuleGraph renders a rule in DOT highlighting the states of the diagnostics attached to the rule.
func (s *Session) RuleGraph(rule string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.graphs.get(rule); ok {
		return g, nil
	}
	if s.model == nil {
		return "", fmt.Errorf("the grammar is not built")
	}
	a := s.model.Variant.ForRule(rule)
	if a == nil {
		return "", fmt.Errorf("rule not found: %v", rule)
	}
	r, _ := a.Rule(rule)
	highlight := map[grammar.StateID]bool{}
	// State IDs of a result are meaningful only in the model the result was computed from.
	if s.result != nil && s.result.Version == s.modelVersion {
		for _, d := range s.result.RuleDiagnostics[rule] {
			if d.Automaton != a.Kind {
				continue
			}
			for _, st := range d.States {
				highlight[st.ID] = true
			}
		}
	}
	var b bytes.Buffer
	err := a.WriteDOT(&b, r, highlight)
	if err != nil {
		return "", err
	}
	g := b.String()
	s.graphs.add(rule, g)
	return g, nil
}

func buildModel(text, fileName string) (*grammar.Model, error) {
	ast, err := spec.Parse(strings.NewReader(text))
	if err != nil {
		return nil, locateErrors(err, fileName)
	}
	b := grammar.GrammarBuilder{
		AST: ast,
	}
	m, err := b.Build()
	if err != nil {
		return nil, locateErrors(err, fileName)
	}
	return m, nil
}

func locateErrors(err error, fileName string) error {
	var specErrs verr.SpecErrors
	if errors.As(err, &specErrs) {
		for _, e := range specErrs {
			e.FilePath = fileName
			e.SourceName = fileName
		}
		return err
	}
	var specErr *verr.SpecError
	if errors.As(err, &specErr) {
		specErr.FilePath = fileName
		specErr.SourceName = fileName
	}
	return err
}
