package revshare

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Entry is one holder's live share balance at distribution time.
type Entry struct {
	Address common.Address
	Balance uint256.Int
}

// Distribution is a single payout of a dividend round.
type Distribution struct {
	Address common.Address
	Amount  uint256.Int
}

// Round summarizes one computed dividend round.
type Round struct {
	Pool          uint256.Int
	TotalShares   uint256.Int
	Distributions []Distribution
	Remainder     uint256.Int
}

// Paid returns the sum of all payouts in the round.
func (r *Round) Paid() *uint256.Int {
	var sum uint256.Int
	for i := range r.Distributions {
		sum.Add(&sum, &r.Distributions[i].Amount)
	}
	return &sum
}
