// Package ids defines the strong scalar identifiers shared across the
// simulator: timestamps, prices, quantities, and the various id spaces
// (order, trade, client, instrument, sequence). Each is a distinct named
// type over an unsigned (or, for Cash, signed) 64-bit integer so the
// compiler rejects accidental mixing of e.g. a Price where a Quantity is
// expected, while same-tag arithmetic and ordering stay free via Go's
// native operators.
package ids

import "fmt"

// Timestamp is simulated logical time; it has no relation to wall-clock time.
type Timestamp uint64

// Price is a fixed-point integer expressed in ticks. There is no fractional
// component anywhere in this system.
type Price uint64

// Quantity is the size of an order or a fill, in whole units.
type Quantity uint64

// OrderID identifies a single order request as assigned by a matching
// engine. Monotonically increasing per engine.
type OrderID uint64

// TradeID identifies a single executed trade. Monotonically increasing per
// engine.
type TradeID uint64

// ClientID identifies a participant: an agent or a synthetic seed-order
// submitter.
type ClientID uint64

// InstrumentID identifies a tradable instrument.
type InstrumentID uint32

// SequenceNumber breaks ties between events scheduled at the same Timestamp.
type SequenceNumber uint64

// Cash is signed — it can go negative when a participant has spent more
// than it has received.
type Cash int64

func (t Timestamp) String() string { return fmt.Sprintf("%d", uint64(t)) }
func (p Price) String() string     { return fmt.Sprintf("%d", uint64(p)) }
func (q Quantity) String() string  { return fmt.Sprintf("%d", uint64(q)) }
func (o OrderID) String() string   { return fmt.Sprintf("%d", uint64(o)) }
func (t TradeID) String() string   { return fmt.Sprintf("%d", uint64(t)) }
func (c ClientID) String() string  { return fmt.Sprintf("%d", uint64(c)) }
func (i InstrumentID) String() string { return fmt.Sprintf("%d", uint32(i)) }
func (c Cash) String() string      { return fmt.Sprintf("%d", int64(c)) }
func (s SequenceNumber) String() string { return fmt.Sprintf("%d", uint64(s)) }

// MaxPrice returns p, or floor when p is below it. Both arguments are
// already unsigned Prices, so a negative floating-point result has to be
// clamped before it is converted to a Price.
func MaxPrice(p Price, floor Price) Price {
	if p < floor {
		return floor
	}
	return p
}
