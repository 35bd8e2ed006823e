package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/hstr/output"
)

// TimingCollector builds a tree of timed operations. It is safe for
// concurrent use; children started concurrently are reported in the order
// they were started.
type TimingCollector struct {
	mu   sync.Mutex
	root *timerNode
	now  func() time.Time
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now()}
	if c.root == nil {
		c.root = node
	} else {
		c.root.children = append(c.root.children, node)
	}
	return &timingTimer{collector: c, node: node}
}

// Report writes the timing tree. Operations that have not ended are
// reported with their duration so far.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return
	}
	formatTimingTree(w, c.root, c.now(), styles)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

// End stops the timer. Only the first call has an effect.
func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	if t.node.end.IsZero() {
		t.node.end = t.collector.now()
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{name: name, start: t.collector.now()}
	t.node.children = append(t.node.children, node)
	return &timingTimer{collector: t.collector, node: node}
}

func (n *timerNode) duration(now time.Time) time.Duration {
	if n.end.IsZero() {
		return now.Sub(n.start)
	}
	return n.end.Sub(n.start)
}
