package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/nihei9/decisive/grammar"
)

var ErrStateLimit = errors.New("the number of lookahead states exceeds the limit")

// InternalFailure aborts an analysis pass. The model the pass analyzed stays valid, so retrying is safe.
type InternalFailure struct {
	Automaton grammar.AutomatonKind
	Decision  int
	Cause     error
}

func (e *InternalFailure) Error() string {
	return fmt.Sprintf("analysis of %v decision %v failed: %v", e.Automaton, e.Decision, e.Cause)
}

func (e *InternalFailure) Unwrap() error {
	return e.Cause
}

type Options struct {
	// LookaheadDepth is the number of input symbols a decision may look ahead to choose an alternative.
	LookaheadDepth int

	// MaxDFAStates limits the number of lookahead states built for one decision.
	MaxDFAStates int

	// MaxRecursion limits how many times one rule may appear on an invocation stack.
	MaxRecursion int

	// Workers is the number of decisions probed concurrently. Zero means GOMAXPROCS.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		LookaheadDepth: 3,
		MaxDFAStates:   10000,
		MaxRecursion:   4,
	}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.LookaheadDepth <= 0 {
		o.LookaheadDepth = d.LookaheadDepth
	}
	if o.MaxDFAStates <= 0 {
		o.MaxDFAStates = d.MaxDFAStates
	}
	if o.MaxRecursion <= 0 {
		o.MaxRecursion = d.MaxRecursion
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Path is a trace through the automaton from a decision state along one alternative that consumes a
// sample input.
type Path struct {
	Alternative int
	States      []*grammar.State
	Disabled    bool
}

// Conflict is a sample input more than one alternative of a decision accepts. The decision chooses the
// least alternative for the input, disabling the others.
type Conflict struct {
	Alternatives []int
	Resolved     int
	Disabled     []int
	Sample       []int
	Paths        []*Path
}

type ProbeResult struct {
	Automaton *grammar.Automaton
	Decision  *grammar.Decision
	Conflicts []*Conflict

	// Disabled is the union of the disabled alternatives of every conflict.
	Disabled []int

	// Unreachable is the set of alternatives the decision never chooses.
	Unreachable []int
}

// Probe builds the lookahead states of a decision breadth first up to the lookahead depth and reports the
// inputs that alternatives cannot be distinguished on.
func Probe(ctx context.Context, a *grammar.Automaton, d *grammar.Decision, opts Options) (retRes *ProbeResult, retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		retRes = nil
		retErr = &InternalFailure{
			Automaton: a.Kind,
			Decision:  d.Number,
			Cause:     fmt.Errorf("%v", v),
		}
	}()

	p := &prober{
		a:         a,
		d:         d,
		opts:      opts.normalize(),
		predicted: map[int]bool{},
		truncated: map[int]bool{},
	}
	err := p.run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &InternalFailure{
			Automaton: a.Kind,
			Decision:  d.Number,
			Cause:     err,
		}
	}
	return p.result(), nil
}

type stack struct {
	follow *grammar.State
	callee *grammar.Rule
	parent *stack
	key    string
}

func (s *stack) push(follow *grammar.State, callee *grammar.Rule) *stack {
	var key string
	if s == nil {
		key = strconv.Itoa(follow.ID.Int())
	} else {
		key = s.key + "," + strconv.Itoa(follow.ID.Int())
	}
	return &stack{
		follow: follow,
		callee: callee,
		parent: s,
		key:    key,
	}
}

func (s *stack) String() string {
	if s == nil {
		return ""
	}
	return s.key
}

func (s *stack) count(callee *grammar.Rule) int {
	n := 0
	for f := s; f != nil; f = f.parent {
		if f.callee == callee {
			n++
		}
	}
	return n
}

// config is an automaton state reached by an alternative with an invocation stack. A config whose state
// is nil has consumed LabelEOF.
type config struct {
	state *grammar.State
	alt   int
	stack *stack
}

func (c *config) stateKey() int {
	if c.state == nil {
		return -1
	}
	return c.state.ID.Int()
}

func (c *config) key() string {
	return strconv.Itoa(c.stateKey()) + "/" + strconv.Itoa(c.alt) + "/" + c.stack.String()
}

// acceptsEOF reports whether the config is at the end of a start rule.
func (c *config) acceptsEOF() bool {
	return c.state != nil && c.state.IsStop() && c.stack == nil && len(c.state.Rule.Invokers()) == 0
}

type lookaheadState struct {
	configs []*config
	input   []int
}

type prober struct {
	a    *grammar.Automaton
	d    *grammar.Decision
	opts Options

	predicted map[int]bool
	truncated map[int]bool
	conflicts []*Conflict
}

func (p *prober) run(ctx context.Context) error {
	var seed []*config
	for alt := 1; alt <= p.d.Alternatives(); alt++ {
		seed = append(seed, &config{
			state: p.d.Alternative(alt).Target,
			alt:   alt,
		})
	}
	start := &lookaheadState{
		configs: p.closure(seed),
	}

	seen := map[string]bool{
		setKey(start.configs): true,
	}
	queue := []*lookaheadState{start}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(seen) > p.opts.MaxDFAStates {
			return ErrStateLimit
		}

		s := queue[0]
		queue = queue[1:]

		if !p.resolve(s) {
			continue
		}

		for _, sym := range p.inputs(s) {
			next := p.move(s, sym)
			if len(next) == 0 {
				continue
			}
			configs := p.closure(next)
			k := setKey(configs)
			if seen[k] {
				continue
			}
			seen[k] = true
			input := make([]int, len(s.input)+1)
			copy(input, s.input)
			input[len(s.input)] = sym
			queue = append(queue, &lookaheadState{
				configs: configs,
				input:   input,
			})
		}
	}

	tracer().Debugf("%v decision %v: %v lookahead states, %v conflicts", p.a.Kind, p.d.Number, len(seen), len(p.conflicts))

	return nil
}

// resolve removes the conflicts of a lookahead state, recording each of them, and reports whether the state
// needs more lookahead.
func (p *prober) resolve(s *lookaheadState) bool {
	for {
		alts := altsOf(s.configs)
		if len(alts) == 1 {
			p.predicted[alts[0]] = true
			return false
		}
		if len(alts) == 0 {
			return false
		}

		input := s.input
		conflicting, shared := conflictingAlts(s.configs)
		if len(conflicting) == 0 {
			if len(s.input) < p.opts.LookaheadDepth && len(p.inputs(s)) > 0 {
				return true
			}
			conflicting = alts
		} else if len(input) == 0 {
			input = p.firstInput(shared)
		}

		p.addConflict(conflicting, input)

		resolved := conflicting[0]
		disabled := map[int]bool{}
		for _, alt := range conflicting[1:] {
			disabled[alt] = true
		}
		var configs []*config
		for _, c := range s.configs {
			if disabled[c.alt] {
				continue
			}
			configs = append(configs, c)
		}
		tracer().Debugf("%v decision %v: alternatives %v conflict on %v; chose %v", p.a.Kind, p.d.Number, conflicting, s.input, resolved)
		s.configs = configs
	}
}

// firstInput returns the first symbol the shared configs consume. Every alternative sharing a config
// accepts it, so it witnesses a conflict found before any input is consumed.
func (p *prober) firstInput(shared []*config) []int {
	syms := p.inputs(&lookaheadState{
		configs: shared,
	})
	if len(syms) == 0 {
		return nil
	}
	return syms[:1]
}

func (p *prober) addConflict(alts []int, input []int) {
	for _, c := range p.conflicts {
		if equalInts(c.Alternatives, alts) {
			return
		}
	}

	sample := make([]int, len(input))
	copy(sample, input)
	c := &Conflict{
		Alternatives: alts,
		Resolved:     alts[0],
		Disabled:     alts[1:],
		Sample:       sample,
	}
	for _, alt := range alts {
		c.Paths = append(c.Paths, &Path{
			Alternative: alt,
			States:      p.witness(alt, sample),
			Disabled:    alt != c.Resolved,
		})
	}
	p.conflicts = append(p.conflicts, c)
}

// closure adds every config reachable without consuming input.
func (p *prober) closure(seed []*config) []*config {
	var result []*config
	visited := map[string]bool{}
	work := make([]*config, len(seed))
	for i, c := range seed {
		work[len(seed)-1-i] = c
	}
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		k := c.key()
		if visited[k] {
			continue
		}
		visited[k] = true
		result = append(result, c)

		if c.state == nil {
			continue
		}
		if c.state.IsStop() {
			if c.stack != nil {
				work = append(work, &config{
					state: c.stack.follow,
					alt:   c.alt,
					stack: c.stack.parent,
				})
				continue
			}
			// Without a stack, the rule may return to any of its invokers.
			invs := c.state.Rule.Invokers()
			for i := len(invs) - 1; i >= 0; i-- {
				work = append(work, &config{
					state: invs[i].Follow,
					alt:   c.alt,
				})
			}
			continue
		}
		ts := c.state.Transitions
		for i := len(ts) - 1; i >= 0; i-- {
			t := ts[i]
			switch t.Kind {
			case grammar.TransitionEpsilon:
				work = append(work, &config{
					state: t.Target,
					alt:   c.alt,
					stack: c.stack,
				})
			case grammar.TransitionRule:
				if c.stack.count(t.Target.Rule) >= p.opts.MaxRecursion {
					p.truncated[c.alt] = true
					continue
				}
				work = append(work, &config{
					state: t.Target,
					alt:   c.alt,
					stack: c.stack.push(t.Follow, t.Target.Rule),
				})
			}
		}
	}
	return result
}

// inputs returns the input symbols the configs of a lookahead state can consume: one sample per disjoint
// interval of the labels, followed by LabelEOF when a config accepts it.
func (p *prober) inputs(s *lookaheadState) []int {
	var labels []grammar.Label
	eof := false
	for _, c := range s.configs {
		if c.acceptsEOF() {
			eof = true
			continue
		}
		if c.state == nil {
			continue
		}
		for _, t := range c.state.Transitions {
			if t.Kind != grammar.TransitionSymbol || t.Label.Lo > t.Label.Hi {
				continue
			}
			labels = append(labels, t.Label)
		}
	}

	var syms []int
	for _, seg := range partition(labels) {
		syms = append(syms, seg.Lo)
	}
	if eof {
		syms = append(syms, grammar.LabelEOF)
	}
	return syms
}

func (p *prober) move(s *lookaheadState, sym int) []*config {
	var next []*config
	for _, c := range s.configs {
		if sym == grammar.LabelEOF {
			if c.acceptsEOF() {
				next = append(next, &config{
					alt: c.alt,
				})
			}
			continue
		}
		if c.state == nil {
			continue
		}
		for _, t := range c.state.Transitions {
			if t.Kind != grammar.TransitionSymbol || !t.Label.Contains(sym) {
				continue
			}
			next = append(next, &config{
				state: t.Target,
				alt:   c.alt,
				stack: c.stack,
			})
		}
	}
	return next
}

type pathNode struct {
	state *grammar.State
	stack *stack
	pos   int
	prev  *pathNode
}

func (n *pathNode) key() string {
	id := -1
	if n.state != nil {
		id = n.state.ID.Int()
	}
	return strconv.Itoa(id) + "/" + n.stack.String() + "/" + strconv.Itoa(n.pos)
}

// witness finds the shortest trace from the decision state along an alternative that consumes the input.
func (p *prober) witness(alt int, input []int) []*grammar.State {
	start := &pathNode{
		state: p.d.Alternative(alt).Target,
	}
	visited := map[string]bool{start.key(): true}
	queue := []*pathNode{start}
	enqueue := func(n *pathNode) {
		k := n.key()
		if visited[k] {
			return
		}
		visited[k] = true
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.pos == len(input) {
			var states []*grammar.State
			for m := n; m != nil; m = m.prev {
				if m.state != nil {
					states = append(states, m.state)
				}
			}
			states = append(states, p.d.State)
			for i, j := 0, len(states)-1; i < j; i, j = i+1, j-1 {
				states[i], states[j] = states[j], states[i]
			}
			return states
		}
		if n.state == nil {
			continue
		}

		s := n.state
		if s.IsStop() {
			switch {
			case n.stack != nil:
				enqueue(&pathNode{state: n.stack.follow, stack: n.stack.parent, pos: n.pos, prev: n})
			case len(s.Rule.Invokers()) > 0:
				for _, inv := range s.Rule.Invokers() {
					enqueue(&pathNode{state: inv.Follow, pos: n.pos, prev: n})
				}
			case input[n.pos] == grammar.LabelEOF:
				enqueue(&pathNode{pos: n.pos + 1, prev: n})
			}
			continue
		}
		for _, t := range s.Transitions {
			switch t.Kind {
			case grammar.TransitionEpsilon:
				enqueue(&pathNode{state: t.Target, stack: n.stack, pos: n.pos, prev: n})
			case grammar.TransitionRule:
				if n.stack.count(t.Target.Rule) >= p.opts.MaxRecursion {
					continue
				}
				enqueue(&pathNode{state: t.Target, stack: n.stack.push(t.Follow, t.Target.Rule), pos: n.pos, prev: n})
			case grammar.TransitionSymbol:
				if input[n.pos] == grammar.LabelEOF || !t.Label.Contains(input[n.pos]) {
					continue
				}
				enqueue(&pathNode{state: t.Target, stack: n.stack, pos: n.pos + 1, prev: n})
			}
		}
	}

	// The input was found by the lookahead states, so a trace exists unless recursion was truncated.
	return []*grammar.State{p.d.State}
}

func (p *prober) result() *ProbeResult {
	res := &ProbeResult{
		Automaton: p.a,
		Decision:  p.d,
		Conflicts: p.conflicts,
	}
	disabled := map[int]bool{}
	for _, c := range p.conflicts {
		for _, alt := range c.Disabled {
			disabled[alt] = true
		}
	}
	for alt := 1; alt <= p.d.Alternatives(); alt++ {
		if disabled[alt] {
			res.Disabled = append(res.Disabled, alt)
		}
		if !p.predicted[alt] && !p.truncated[alt] {
			res.Unreachable = append(res.Unreachable, alt)
		}
	}
	return res
}

func altsOf(configs []*config) []int {
	set := map[int]bool{}
	for _, c := range configs {
		set[c.alt] = true
	}
	return sortedInts(set)
}

// conflictingAlts returns the alternatives having the same state with compatible stacks, and the configs
// they share. Such alternatives accept the same input from then on, so no amount of lookahead distinguishes
// them.
func conflictingAlts(configs []*config) ([]int, []*config) {
	byState := map[int][]*config{}
	var order []int
	for _, c := range configs {
		if _, ok := byState[c.stateKey()]; !ok {
			order = append(order, c.stateKey())
		}
		byState[c.stateKey()] = append(byState[c.stateKey()], c)
	}
	set := map[int]bool{}
	var shared []*config
	for _, key := range order {
		cs := byState[key]
		inShared := map[*config]bool{}
		for i := 0; i < len(cs); i++ {
			for j := i + 1; j < len(cs); j++ {
				a, b := cs[i], cs[j]
				if a.alt == b.alt {
					continue
				}
				if a.stack != nil && b.stack != nil && a.stack.key != b.stack.key {
					continue
				}
				set[a.alt] = true
				set[b.alt] = true
				for _, c := range []*config{a, b} {
					if !inShared[c] {
						inShared[c] = true
						shared = append(shared, c)
					}
				}
			}
		}
	}
	return sortedInts(set), shared
}

func setKey(configs []*config) string {
	keys := make([]string, len(configs))
	for i, c := range configs {
		keys[i] = c.key()
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

func sortedInts(set map[int]bool) []int {
	if len(set) == 0 {
		return nil
	}
	ns := make([]int, 0, len(set))
	for n := range set {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	return ns
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
