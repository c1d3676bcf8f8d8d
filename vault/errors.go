package vault

import "github.com/bitfsorg/librbf-go/chain"

var (
	// ErrInvalidTime indicates a call outside its valid window.
	ErrInvalidTime = chain.NewReason(chain.Temporal, "vault: invalid time")

	// ErrInvalidEndTime indicates a share transfer before the subscription end.
	ErrInvalidEndTime = chain.NewReason(chain.Temporal, "vault: invalid endTime")

	// ErrNotAllowedWithdraw indicates a redemption after strategy execution.
	ErrNotAllowedWithdraw = chain.NewReason(chain.Temporal, "vault: not allowed withdraw")

	// ErrFundraisingFail indicates ExecStrategy without a met threshold.
	ErrFundraisingFail = chain.NewReason(chain.Capacity, "vault: fundraising fail")

	// ErrWhitelistFull indicates a namespace already holds 100 addresses.
	ErrWhitelistFull = chain.NewReason(chain.Capacity, "vault: whitelist is full")

	// ErrDepositBelowMin indicates a deposit smaller than the minimum.
	ErrDepositBelowMin = chain.NewReason(chain.Capacity, "vault: deposit less than min")

	// ErrOffChainDepositBelowMin indicates an off-chain mint smaller than the minimum.
	ErrOffChainDepositBelowMin = chain.NewReason(chain.Capacity, "vault: offchain deposit less than min")

	// ErrMaxSupplyExceeded indicates a mint past the max supply.
	ErrMaxSupplyExceeded = chain.NewReason(chain.Capacity, "vault: maxSupply exceeded")

	// ErrNotOnChainWL indicates the caller is not an on-chain member.
	ErrNotOnChainWL = chain.NewReason(chain.Unauthorized, "vault: you are not in onChainWL")

	// ErrNotOffChainWL indicates the caller is not an off-chain member.
	ErrNotOffChainWL = chain.NewReason(chain.Unauthorized, "vault: you are not in offChainWL")

	// ErrOffChainReceiverNotInWL indicates an off-chain mint to a non off-chain member.
	ErrOffChainReceiverNotInWL = chain.NewReason(chain.Unauthorized, "vault: offchain receiver are not in offChainWL")

	// ErrTransferNotWhitelisted indicates a share transfer touching a non-member.
	ErrTransferNotWhitelisted = chain.NewReason(chain.Unauthorized, "vault: transfer from and to must in onChainWL or offChainWL")

	// ErrAlreadyOnChainWL indicates the address is already an on-chain member.
	ErrAlreadyOnChainWL = chain.NewReason(chain.Invalid, "vault: address is already onChainWL")

	// ErrAlreadyOffChainWL indicates the address is already an off-chain member.
	ErrAlreadyOffChainWL = chain.NewReason(chain.Invalid, "vault: address is already offChainWL")

	// ErrNotInWhitelist indicates removal of a non on-chain member.
	ErrNotInWhitelist = chain.NewReason(chain.Invalid, "vault: address is not in the whitelist")

	// ErrNotInOffChainWhitelist indicates removal of a non off-chain member.
	ErrNotInOffChainWhitelist = chain.NewReason(chain.Invalid, "vault: address is not in the offChain whitelist")

	// ErrAddressHasBalance indicates removal of a member still holding shares.
	ErrAddressHasBalance = chain.NewReason(chain.State, "vault: address has balance")

	// ErrZeroAddress indicates the zero address was given as a member.
	ErrZeroAddress = chain.NewReason(chain.Invalid, "vault: invalid address")

	// ErrAssetBalanceZero indicates ExecStrategy without principal.
	ErrAssetBalanceZero = chain.NewReason(chain.State, "vault: assetBalance is zero")

	// ErrNoSharesToRedeem indicates a redemption with a zero balance.
	ErrNoSharesToRedeem = chain.NewReason(chain.State, "vault: no shares to redeem")

	// ErrNoManageFee indicates an empty fee balance.
	ErrNoManageFee = chain.NewReason(chain.State, "vault: no manage fee")

	// ErrNoDividend indicates an empty dividend treasury.
	ErrNoDividend = chain.NewReason(chain.Sequencing, "vault: no dividend to pay")

	// ErrNoShares indicates a dividend with no outstanding shares.
	ErrNoShares = chain.NewReason(chain.State, "vault: totalSupply is zero")

	// ErrInvalidParams indicates an unusable construction parameter.
	ErrInvalidParams = chain.NewReason(chain.Invalid, "vault: invalid params")
)
