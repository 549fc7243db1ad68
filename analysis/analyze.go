package analysis

import (
	"context"

	"github.com/nihei9/decisive/grammar"
	"golang.org/x/sync/errgroup"
)

type probeTask struct {
	a *grammar.Automaton
	d *grammar.Decision
}

// Analyze probes every decision of every automaton of a model and reports the findings to a listener.
// Decisions are probed concurrently, but the messages are reported in order: automata in the order of
// Variant.Automata, decisions in number order, and the non-determinisms of a decision before its
// unreachable alternatives. When a probe fails, nothing is reported.
func Analyze(ctx context.Context, m *grammar.Model, opts Options, l Listener) error {
	opts = opts.normalize()

	var tasks []*probeTask
	for _, a := range m.Variant.Automata() {
		for _, d := range a.Decisions {
			tasks = append(tasks, &probeTask{
				a: a,
				d: d,
			})
		}
	}

	tracer().Debugf("analyzing %v decisions of %v with %v workers", len(tasks), m.Name, opts.Workers)

	results := make([]*ProbeResult, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for i, task := range tasks {
		eg.Go(func() error {
			res, err := Probe(egCtx, task.a, task.d, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := eg.Wait()
	if err != nil {
		tracer().Errorf("analysis of %v failed: %v", m.Name, err)
		return err
	}

	for _, res := range results {
		for _, c := range res.Conflicts {
			l.Report(&NonDeterminismMessage{
				Probe:    res,
				Conflict: c,
			})
		}
		if len(res.Unreachable) > 0 {
			l.Report(&UnreachableAltsMessage{
				Probe:        res,
				Alternatives: res.Unreachable,
			})
		}
	}
	return nil
}
