package token

import "github.com/bitfsorg/librbf-go/chain"

var (
	// ErrZeroAddress indicates a transfer, approval or mint involving the zero address.
	ErrZeroAddress = chain.NewReason(chain.Invalid, "token: zero address")

	// ErrInsufficientBalance indicates the sender holds less than the amount moved.
	ErrInsufficientBalance = chain.NewReason(chain.Capacity, "token: transfer amount exceeds balance")

	// ErrInsufficientAllowance indicates the spender's allowance is below the amount.
	ErrInsufficientAllowance = chain.NewReason(chain.Capacity, "token: insufficient allowance")

	// ErrBurnExceedsBalance indicates a burn larger than the holder's balance.
	ErrBurnExceedsBalance = chain.NewReason(chain.Capacity, "token: burn amount exceeds balance")

	// ErrSupplyOverflow indicates a mint would overflow the total supply.
	ErrSupplyOverflow = chain.NewReason(chain.Capacity, "token: total supply overflow")

	// ErrNotMinter indicates a mint or burn by an account other than the token's minter.
	ErrNotMinter = chain.NewReason(chain.Unauthorized, "token: caller is not the minter")
)
