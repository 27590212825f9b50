package simulation

import "github.com/realmfikri/auctionsim/internal/ids"

// PnL is one participant's running ledger. Positive cash means more was
// received than spent.
type PnL struct {
	LongPosition  ids.Quantity
	ShortPosition ids.Quantity
	Cash          ids.Cash
}

// NetPosition is long minus short, signed.
func (p PnL) NetPosition() int64 {
	return int64(p.LongPosition) - int64(p.ShortPosition)
}

// UnrealizedPnL values the net position at mark.
func (p PnL) UnrealizedPnL(mark ids.Price) int64 {
	return p.NetPosition() * int64(mark)
}

// TotalPnL is cash plus the unrealized value of the net position at mark.
func (p PnL) TotalPnL(mark ids.Price) int64 {
	return int64(p.Cash) + p.UnrealizedPnL(mark)
}
