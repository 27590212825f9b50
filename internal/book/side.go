package book

import (
	"container/list"
	"sort"

	"github.com/realmfikri/auctionsim/internal/ids"
)

// side holds one side of the book: a price-indexed set of FIFO queues plus a
// price-priority ordering. Bids keep descending order, asks ascending,
// controlled by the `less` comparator supplied at construction.
//
// Each FIFO queue is a container/list.List of *Order; list elements remain
// valid across mutation of other levels, so the registry in Engine can hold
// a *list.Element as a stable locator without risking a dangling pointer the
// way the original's raw Order* registry would in an unsafe language.
type side struct {
	levels map[ids.Price]*list.List
	prices []ids.Price // kept sorted according to less
	less   func(a, b ids.Price) bool
}

func newSide(less func(a, b ids.Price) bool) *side {
	return &side{
		levels: make(map[ids.Price]*list.List),
		less:   less,
	}
}

func descending(a, b ids.Price) bool { return a > b }
func ascending(a, b ids.Price) bool  { return a < b }

func (s *side) empty() bool { return len(s.prices) == 0 }

func (s *side) bestPrice() (ids.Price, bool) {
	if len(s.prices) == 0 {
		return 0, false
	}
	return s.prices[0], true
}

func (s *side) queueAt(price ids.Price) *list.List {
	return s.levels[price]
}

// enqueue appends an order to the back of the FIFO at order.Price, creating
// the level if necessary, and returns the new list element (the locator the
// registry stores).
func (s *side) enqueue(o *Order) *list.Element {
	q, ok := s.levels[o.Price]
	if !ok {
		q = list.New()
		s.levels[o.Price] = q
		s.insertPrice(o.Price)
	}
	return q.PushBack(o)
}

func (s *side) insertPrice(p ids.Price) {
	i := sort.Search(len(s.prices), func(i int) bool { return s.less(p, s.prices[i]) })
	if i < len(s.prices) && s.prices[i] == p {
		return
	}
	s.prices = append(s.prices, 0)
	copy(s.prices[i+1:], s.prices[i:])
	s.prices[i] = p
}

// removeLevelIfEmpty deletes the price key once its queue has no orders
// left, matching the invariant that price-level keys are never empty.
func (s *side) removeLevelIfEmpty(p ids.Price) {
	q, ok := s.levels[p]
	if !ok || q.Len() > 0 {
		return
	}
	delete(s.levels, p)
	i := sort.Search(len(s.prices), func(i int) bool { return !s.less(s.prices[i], p) })
	if i < len(s.prices) && s.prices[i] == p {
		s.prices = append(s.prices[:i], s.prices[i+1:]...)
	}
}

// snapshot returns (price, aggregated quantity) pairs in price-priority
// order, omitting zero-aggregate levels (none should exist given
// removeLevelIfEmpty, but the check is cheap and matches the original's
// defensive filter in make_snapshot).
func (s *side) snapshot() []PriceLevel {
	out := make([]PriceLevel, 0, len(s.prices))
	for _, p := range s.prices {
		q := s.levels[p]
		var total ids.Quantity
		for e := q.Front(); e != nil; e = e.Next() {
			total += e.Value.(*Order).Quantity
		}
		if total > 0 {
			out = append(out, PriceLevel{Price: p, Quantity: total})
		}
	}
	return out
}

func (s *side) reset() {
	s.levels = make(map[ids.Price]*list.List)
	s.prices = nil
}
