package session

import "fmt"

type State int

const (
	StateClean State = iota
	StateGrammarStale
	StateGrammarBuilt
	StateAnalysisStale
	StateAnalyzed
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateGrammarStale:
		return "grammar-stale"
	case StateGrammarBuilt:
		return "grammar-built"
	case StateAnalysisStale:
		return "analysis-stale"
	case StateAnalyzed:
		return "analyzed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the states each state may move to. An edit moves any state except Clean to
// GrammarStale.
var transitions = map[State][]State{
	StateClean:         {StateGrammarStale},
	StateGrammarStale:  {StateGrammarStale, StateGrammarBuilt},
	StateGrammarBuilt:  {StateGrammarStale, StateAnalysisStale, StateAnalyzed},
	StateAnalysisStale: {StateGrammarStale, StateAnalysisStale, StateAnalyzed},
	StateAnalyzed:      {StateGrammarStale, StateAnalyzed},
}

func (s State) canTransitionTo(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal session state transition: %v -> %v", e.From, e.To)
}
