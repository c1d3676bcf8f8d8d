package revshare

import "errors"

var (
	// ErrConservationViolation indicates payouts plus remainder differ from the pool.
	ErrConservationViolation = errors.New("revshare: conservation violated")

	// ErrInsufficientPayment indicates the pool is empty.
	ErrInsufficientPayment = errors.New("revshare: insufficient payment for distribution")

	// ErrNoEntries indicates there are no holders to pay.
	ErrNoEntries = errors.New("revshare: no shareholder entries")

	// ErrZeroTotalShares indicates total shares is zero.
	ErrZeroTotalShares = errors.New("revshare: zero total shares")

	// ErrSharesExceedTotal indicates the entries hold more than the declared total.
	ErrSharesExceedTotal = errors.New("revshare: entry balances exceed total shares")
)
