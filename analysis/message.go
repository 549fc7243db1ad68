package analysis

import "sync"

// Message is a finding of the analysis. The concrete types are *NonDeterminismMessage and
// *UnreachableAltsMessage.
type Message interface {
	message()
}

type NonDeterminismMessage struct {
	Probe    *ProbeResult
	Conflict *Conflict
}

func (m *NonDeterminismMessage) message() {}

type UnreachableAltsMessage struct {
	Probe        *ProbeResult
	Alternatives []int
}

func (m *UnreachableAltsMessage) message() {}

// Listener receives the messages of one analysis pass. Each pass is given its own listener, so
// listeners are never shared between passes running concurrently.
type Listener interface {
	Report(msg Message)
}

// Collector is a Listener that keeps the messages in the order they are reported.
type Collector struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *Collector) Report(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]Message, len(c.msgs))
	copy(msgs, c.msgs)
	return msgs
}
