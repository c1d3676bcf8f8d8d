package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Distribute computes per-holder payouts of pool, pro rata to each entry's
// balance over totalShares: amount_i = pool * balance_i / totalShares,
// rounded down. Zero-balance entries are skipped. The undistributed
// remainder is returned and stays with the payer.
//
// totalShares may exceed the sum of entry balances (shares held outside the
// enumerated holders); their portion is part of the remainder.
func Distribute(pool *uint256.Int, entries []Entry, totalShares *uint256.Int) (*Round, error) {
	if pool.IsZero() {
		return nil, ErrInsufficientPayment
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	if totalShares.IsZero() {
		return nil, ErrZeroTotalShares
	}

	round := &Round{Pool: *pool, TotalShares: *totalShares}
	var held, paid uint256.Int

	for i := range entries {
		bal := &entries[i].Balance
		if bal.IsZero() {
			continue
		}
		held.Add(&held, bal)

		// pool*balance can exceed 256 bits; MulDivOverflow keeps a 512-bit
		// intermediate. The quotient never overflows since balance <= totalShares.
		var amount uint256.Int
		amount.MulDivOverflow(pool, bal, totalShares)

		round.Distributions = append(round.Distributions, Distribution{
			Address: entries[i].Address,
			Amount:  amount,
		})
		paid.Add(&paid, &amount)
	}

	if held.Gt(totalShares) {
		return nil, fmt.Errorf("%w: held=%s total=%s", ErrSharesExceedTotal, held.Dec(), totalShares.Dec())
	}
	round.Remainder.Sub(pool, &paid)
	return round, nil
}
