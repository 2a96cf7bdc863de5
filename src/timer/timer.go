package timer

import (
	"container/heap"
	"log/slog"
	"time"
)

// Clock schedules delayed callbacks. Timers cannot be cancelled and fire exactly once.
type Clock interface {
	AfterFunc(d time.Duration, f func())
	Now() time.Duration
}

type pending struct {
	deadline time.Duration
	seq      uint64
	f        func()
}

type timerHeap []pending

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(pending)) }
func (h *timerHeap) Pop() any {
	old := *h
	p := old[len(old)-1]
	*h = old[:len(old)-1]
	return p
}

// ManualClock is a logical clock. Time only moves on Advance or RunUntilIdle,
// and callbacks with equal deadlines fire in registration order.
type ManualClock struct {
	now    time.Duration
	seq    uint64
	timers timerHeap
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() time.Duration {
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) {
	if d < 0 {
		d = 0
	}
	c.seq++
	heap.Push(&c.timers, pending{deadline: c.now + d, seq: c.seq, f: f})
}

// Pending returns the number of registered timers that have not fired.
func (c *ManualClock) Pending() int {
	return c.timers.Len()
}

// Advance fires every timer due within d, including timers registered by
// callbacks along the way, and leaves the clock at now+d.
func (c *ManualClock) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	end := c.now + d
	for c.timers.Len() > 0 && c.timers[0].deadline <= end {
		c.fireNext()
	}
	c.now = end
}

// RunUntilIdle fires timers until none remain. Returns the number fired.
func (c *ManualClock) RunUntilIdle() int {
	fired := 0
	for c.timers.Len() > 0 {
		c.fireNext()
		fired++
	}
	return fired
}

func (c *ManualClock) fireNext() {
	p := heap.Pop(&c.timers).(pending)
	c.now = p.deadline
	p.f()
}

// RealClock runs on wall time. Expired callbacks are not run on the timer
// goroutine but handed to deliver, so the owner can run them on its own loop.
type RealClock struct {
	start   time.Time
	deliver func(f func())
}

func NewRealClock(deliver func(f func())) *RealClock {
	return &RealClock{start: time.Now(), deliver: deliver}
}

func (c *RealClock) Now() time.Duration {
	return time.Since(c.start)
}

func (c *RealClock) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() {
		slog.Debug("Timer timed out", "after", d)
		c.deliver(f)
	})
}
