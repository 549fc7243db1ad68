package session

import (
	"context"
)

const defaultInboxSize = 4

// Presenter receives the outcomes of analysis passes. Its methods are called only from the goroutine
// draining the inbox.
type Presenter interface {
	AnalysisDidComplete(res *Result)
	AnalysisDidFail(err error)
}

type notification struct {
	version uint64
	result  *Result
	err     error
}

// Inbox carries the outcomes of analysis passes from worker goroutines to the presentation goroutine. It
// never blocks a worker: when the inbox is full, the oldest notification is dropped.
type Inbox struct {
	ch chan *notification

	// current returns the version of the document at delivery time. Notifications of older versions are
	// not delivered.
	current func() uint64
}

func newInbox(size int, current func() uint64) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{
		ch:      make(chan *notification, size),
		current: current,
	}
}

func (in *Inbox) post(n *notification) {
	for {
		select {
		case in.ch <- n:
			return
		default:
		}
		select {
		case old := <-in.ch:
			tracer().Debugf("dropped the notification of version %v", old.version)
		default:
		}
	}
}

// Run delivers notifications to a presenter until the context is done.
func (in *Inbox) Run(ctx context.Context, p Presenter) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-in.ch:
			in.deliver(n, p)
		}
	}
}

// Drain delivers the pending notifications to a presenter and returns the number of delivered ones.
func (in *Inbox) Drain(p Presenter) int {
	count := 0
	for {
		select {
		case n := <-in.ch:
			if in.deliver(n, p) {
				count++
			}
		default:
			return count
		}
	}
}

// Next waits for one notification and delivers it. It reports whether the notification was delivered
// rather than discarded as superseded.
func (in *Inbox) Next(ctx context.Context, p Presenter) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case n := <-in.ch:
		return in.deliver(n, p), nil
	}
}

func (in *Inbox) deliver(n *notification, p Presenter) bool {
	if in.current != nil && n.version != in.current() {
		tracer().Debugf("discarded the superseded notification of version %v", n.version)
		return false
	}
	if n.err != nil {
		p.AnalysisDidFail(n.err)
		return true
	}
	p.AnalysisDidComplete(n.result)
	return true
}
