// Package scheduler orders pending events by (timestamp, sequence) so the
// driver always processes the earliest-due event, breaking ties in the
// order events were scheduled.
package scheduler

import (
	"container/heap"

	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
)

type entry struct {
	at  ids.Timestamp
	seq ids.SequenceNumber
	ev  event.Event
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler is a min-heap over (timestamp, sequence). Sequence numbers are
// assigned in Schedule call order, so events scheduled for the same
// timestamp pop out FIFO.
type Scheduler struct {
	h       entryHeap
	nextSeq ids.SequenceNumber
	now     ids.Timestamp
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Now is the timestamp of the most recently popped event, or zero if
// nothing has been popped yet.
func (s *Scheduler) Now() ids.Timestamp { return s.now }

// Schedule enqueues ev to fire at its own Timestamp().
func (s *Scheduler) Schedule(ev event.Event) {
	heap.Push(&s.h, entry{at: ev.Timestamp(), seq: s.nextSeq, ev: ev})
	s.nextSeq++
}

// Peek returns the earliest-due event without removing it.
func (s *Scheduler) Peek() (event.Event, bool) {
	if len(s.h) == 0 {
		return nil, false
	}
	return s.h[0].ev, true
}

// Pop removes and returns the earliest-due event, advancing Now to its
// timestamp.
func (s *Scheduler) Pop() (event.Event, bool) {
	if len(s.h) == 0 {
		return nil, false
	}
	e := heap.Pop(&s.h).(entry)
	s.now = e.at
	return e.ev, true
}

// Len reports how many events are still pending.
func (s *Scheduler) Len() int { return len(s.h) }

// Clear resets the scheduler to its zero state: no pending events, sequence
// counter and current time both back to zero.
func (s *Scheduler) Clear() {
	s.h = nil
	s.nextSeq = 0
	s.now = 0
}
