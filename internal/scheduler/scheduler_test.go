package scheduler

import (
	"testing"

	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
)

func wakeup(at ids.Timestamp, client ids.ClientID) event.AgentWakeup {
	return event.AgentWakeup{At: at, ClientID: client}
}

func TestPopOrdersByTimestamp(t *testing.T) {
	s := New()
	s.Schedule(wakeup(30, 1))
	s.Schedule(wakeup(10, 2))
	s.Schedule(wakeup(20, 3))

	var order []ids.Timestamp
	for s.Len() > 0 {
		ev, _ := s.Pop()
		order = append(order, ev.Timestamp())
	}

	want := []ids.Timestamp{10, 20, 30}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("expected pop order %v, got %v", want, order)
		}
	}
}

func TestSameTimestampBreaksTiesFIFO(t *testing.T) {
	s := New()
	s.Schedule(wakeup(5, 1))
	s.Schedule(wakeup(5, 2))
	s.Schedule(wakeup(5, 3))

	for i, want := range []ids.ClientID{1, 2, 3} {
		ev, ok := s.Pop()
		if !ok {
			t.Fatalf("expected an event at position %d", i)
		}
		got := ev.(event.AgentWakeup).ClientID
		if got != want {
			t.Fatalf("expected FIFO tie-break to yield client %d at position %d, got %d", want, i, got)
		}
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	s := New()
	s.Schedule(wakeup(1, 1))

	ev, ok := s.Peek()
	if !ok || ev.Timestamp() != 1 {
		t.Fatalf("expected to peek timestamp 1")
	}
	if s.Len() != 1 {
		t.Fatalf("peek must not remove the event, len=%d", s.Len())
	}
}

func TestNowAdvancesOnPop(t *testing.T) {
	s := New()
	s.Schedule(wakeup(42, 1))

	if s.Now() != 0 {
		t.Fatalf("expected Now to start at 0, got %d", s.Now())
	}
	s.Pop()
	if s.Now() != 42 {
		t.Fatalf("expected Now to advance to 42 after Pop, got %d", s.Now())
	}
}

func TestClearResetsPendingEvents(t *testing.T) {
	s := New()
	s.Schedule(wakeup(1, 1))
	s.Schedule(wakeup(2, 2))
	s.Pop()

	s.Clear()

	if s.Len() != 0 {
		t.Fatalf("expected an empty scheduler after Clear, got len=%d", s.Len())
	}
	if s.Now() != 0 {
		t.Fatalf("expected Now to reset to 0 after Clear, got %d", s.Now())
	}
	s.Schedule(wakeup(3, 3))
	if _, ok := s.Pop(); !ok {
		t.Fatalf("expected scheduling to still work after Clear")
	}
}
