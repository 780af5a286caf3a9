// Package tickqueue implements the engine's tick-ordered expiry queue:
// a FIFO of tokens stamped with their creation tick, which yields a
// token once its age reaches max_ticks (spec §4.4).
package tickqueue

import (
	"fmt"

	"go.uber.org/atomic"
)

type entry struct {
	token        string
	creationTick int64
}

// TickQueue is a FIFO of (token, creation_tick) pairs ordered by
// creation tick non-decreasing, plus a monotonic ticks-passed counter.
//
// ticksPassed is boxed in go.uber.org/atomic rather than a bare int64,
// so TicksPassed may be read from a different goroutine than the one
// driving Push/Tick; every mutating method here is still called under
// the engine's own single-owner discipline. No package in this
// repository calls TicksPassed.
type TickQueue struct {
	entries     []entry
	ticksPassed atomic.Int64
	maxTicks    int64
}

// New builds a TickQueue with the given reservation lifetime. maxTicks
// must be > 0.
func New(maxTicks int64) *TickQueue {
	if maxTicks <= 0 {
		panic(fmt.Sprintf("tickqueue: max_ticks must be > 0, got %d", maxTicks))
	}
	return &TickQueue{maxTicks: maxTicks}
}

// Push records token at the queue's current ticks-passed value. Callers
// must push in non-decreasing tick order (true of every caller in this
// repo: pushes only ever happen at the current tick).
func (q *TickQueue) Push(token string) {
	q.entries = append(q.entries, entry{token: token, creationTick: q.ticksPassed.Load()})
}

// Tick advances ticks-passed by one and pops every token at the front
// of the queue whose age has reached exactly max_ticks, in FIFO order.
//
// Equality rather than >= is correct here: entries are pushed in
// non-decreasing creation-tick order, so nothing can be pushed with a
// creation tick the boundary has already passed.
func (q *TickQueue) Tick() []string {
	ticksPassed := q.ticksPassed.Inc()
	var expired []string
	for len(q.entries) > 0 && q.entries[0].creationTick+q.maxTicks == ticksPassed {
		expired = append(expired, q.entries[0].token)
		q.entries = q.entries[1:]
	}
	return expired
}

// TicksPassed returns the number of ticks the queue has observed.
func (q *TickQueue) TicksPassed() int64 { return q.ticksPassed.Load() }

// Len returns the number of outstanding tokens.
func (q *TickQueue) Len() int { return len(q.entries) }
