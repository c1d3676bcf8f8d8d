package rbf

import "github.com/bitfsorg/librbf-go/chain"

var (
	// ErrZeroVault indicates SetVault was given the zero address.
	ErrZeroVault = chain.NewReason(chain.Invalid, "rbf: vaultAddr cannot be zero address")

	// ErrVaultAlreadySet indicates a second SetVault call.
	ErrVaultAlreadySet = chain.NewReason(chain.Sequencing, "rbf: vaultAddr already set")

	// ErrNotVault indicates RequestDeposit from an account other than the bound vault.
	ErrNotVault = chain.NewReason(chain.Unauthorized, "rbf: you are not vault")

	// ErrZeroDepositAmount indicates no principal has been accepted.
	ErrZeroDepositAmount = chain.NewReason(chain.State, "rbf: depositAmount must be greater than 0")

	// ErrZeroMintAmount indicates ClaimDeposit before a mint amount was set.
	ErrZeroMintAmount = chain.NewReason(chain.Sequencing, "rbf: depositMintAmount must be greater than 0")

	// ErrMintAmountOutOfRange indicates a bounded claim outside [threshold, maxSupply].
	ErrMintAmountOutOfRange = chain.NewReason(chain.Capacity, "rbf: depositMintAmount is not in the range")

	// ErrZeroTotalSupply indicates Dividend before any share was claimed.
	ErrZeroTotalSupply = chain.NewReason(chain.State, "rbf: totalSupply must be greater than 0")

	// ErrZeroDividend indicates an empty dividend treasury.
	ErrZeroDividend = chain.NewReason(chain.State, "rbf: totalDividend must be greater than 0")

	// ErrInvalidParams indicates a construction parameter is missing.
	ErrInvalidParams = chain.NewReason(chain.Invalid, "rbf: invalid params")
)
