package revshare

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ValidateConservation checks that the payouts plus the remainder equal the pool.
func ValidateConservation(r *Round) error {
	var total uint256.Int
	total.Add(r.Paid(), &r.Remainder)
	if !total.Eq(&r.Pool) {
		return fmt.Errorf("%w: pool=%s paid+remainder=%s", ErrConservationViolation, r.Pool.Dec(), total.Dec())
	}
	return nil
}

// ValidateDistribution checks that distributions match the pro-rata payouts
// of pool over entries.
func ValidateDistribution(distributions []Distribution, entries []Entry, pool, totalShares *uint256.Int) error {
	expected, err := Distribute(pool, entries, totalShares)
	if err != nil {
		return err
	}
	if len(distributions) != len(expected.Distributions) {
		return fmt.Errorf("distribution count %d != expected %d", len(distributions), len(expected.Distributions))
	}

	for i := range distributions {
		if distributions[i].Address != expected.Distributions[i].Address {
			return fmt.Errorf("entry %d: address mismatch", i)
		}
		if !distributions[i].Amount.Eq(&expected.Distributions[i].Amount) {
			return fmt.Errorf("entry %d: amount %s != expected %s", i,
				distributions[i].Amount.Dec(), expected.Distributions[i].Amount.Dec())
		}
	}
	return nil
}
