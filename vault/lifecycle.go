package vault

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/revshare"
	"github.com/bitfsorg/librbf-go/roles"
)

// Event names emitted after subscription.
const (
	EventExecStrategy      = "ExecStrategy"
	EventRedeem            = "Redeem"
	EventOffChainRedeem    = "OffChainRedeem"
	EventWithdrawManageFee = "WithdrawManageFee"
	EventDividend          = "Dividend"
	EventDividendPaid      = "DividendPaid"
)

// ExecStrategy hands the pooled principal to the bound instrument. Before
// the subscription end it requires a fully subscribed supply; afterwards the
// supply must reach the funding threshold.
func (v *Vault) ExecStrategy(tx *chain.Tx) error {
	if err := v.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if v.assetBalance.IsZero() {
		return ErrAssetBalanceZero
	}
	supply := v.shares.TotalSupply()
	if v.ended(tx.Now()) {
		if supply.Lt(v.threshold()) {
			return fmt.Errorf("%w: supply %s below threshold %s", ErrFundraisingFail, supply.Dec(), v.threshold().Dec())
		}
	} else if !supply.Eq(&v.maxSupply) {
		return fmt.Errorf("%w: supply %s below max %s before end", ErrFundraisingFail, supply.Dec(), v.maxSupply.Dec())
	}

	principal := v.assetBalance
	self := tx.As(v.addr)
	if err := v.asset.Approve(self, v.instrument.Address(), &principal); err != nil {
		return err
	}
	if err := v.instrument.RequestDeposit(self, &principal); err != nil {
		return fmt.Errorf("vault: request deposit: %w", err)
	}
	chain.Assign(tx, &v.assetBalance, uint256.Int{})
	chain.Assign(tx, &v.funded, true)
	tx.Emit(v.addr, EventExecStrategy, map[string]string{
		"instrument": v.instrument.Address().Hex(),
		"amount":     principal.Dec(),
	})
	return nil
}

// Redeem burns the caller's shares and refunds their principal plus the fees
// the caller was charged on deposit. Allowed for on-chain members after the end while the
// vault is not funded; the caller must have approved the vault for its shares.
func (v *Vault) Redeem(tx *chain.Tx) error {
	caller := tx.Caller()
	if !v.onChain.Contains(caller) {
		return ErrNotOnChainWL
	}
	shares, err := v.checkRedeem(tx, caller)
	if err != nil {
		return err
	}

	principal := new(uint256.Int).Div(shares, &v.scale)
	if principal.Gt(&v.assetBalance) {
		principal.Set(&v.assetBalance)
	}
	paid := v.feePaid[caller]
	fee := paid.Clone()
	if fee.Gt(&v.manageFeeBalance) {
		fee.Set(&v.manageFeeBalance)
	}
	chain.Delete(tx, v.feePaid, caller)
	refund := new(uint256.Int).Add(principal, fee)

	debit(tx, &v.assetBalance, principal)
	debit(tx, &v.manageFeeBalance, fee)
	if !refund.IsZero() {
		if err := v.asset.Transfer(tx.As(v.addr), caller, refund); err != nil {
			return err
		}
	}
	tx.Emit(v.addr, EventRedeem, map[string]string{
		"account": caller.Hex(),
		"shares":  shares.Dec(),
		"amount":  principal.Dec(),
		"fee":     fee.Dec(),
	})
	return nil
}

// OffChainRedeem burns an off-chain member's shares without an asset refund.
func (v *Vault) OffChainRedeem(tx *chain.Tx) error {
	caller := tx.Caller()
	if !v.offChain.Contains(caller) {
		return ErrNotOffChainWL
	}
	shares, err := v.checkRedeem(tx, caller)
	if err != nil {
		return err
	}
	tx.Emit(v.addr, EventOffChainRedeem, map[string]string{
		"account": caller.Hex(),
		"shares":  shares.Dec(),
	})
	return nil
}

// checkRedeem applies the common redemption gates, then spends the caller's
// share allowance to the vault and burns the full balance.
func (v *Vault) checkRedeem(tx *chain.Tx, caller common.Address) (*uint256.Int, error) {
	if !v.ended(tx.Now()) {
		return nil, ErrInvalidTime
	}
	if v.funded {
		return nil, ErrNotAllowedWithdraw
	}
	shares := v.shares.BalanceOf(caller)
	if shares.IsZero() {
		return nil, ErrNoSharesToRedeem
	}
	self := tx.As(v.addr)
	if err := v.shares.SpendAllowance(self, caller, v.addr, shares); err != nil {
		return nil, err
	}
	if err := v.shares.Burn(self, caller, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// WithdrawManageFee sweeps the accumulated fee balance to the fee receiver.
func (v *Vault) WithdrawManageFee(tx *chain.Tx) error {
	if err := v.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if !v.ended(tx.Now()) {
		return ErrInvalidTime
	}
	if v.manageFeeBalance.IsZero() {
		return ErrNoManageFee
	}
	fee := v.manageFeeBalance
	chain.Assign(tx, &v.manageFeeBalance, uint256.Int{})
	if err := v.asset.Transfer(tx.As(v.addr), v.feeReceiver, &fee); err != nil {
		return err
	}
	tx.Emit(v.addr, EventWithdrawManageFee, map[string]string{
		"receiver": v.feeReceiver.Hex(),
		"amount":   fee.Dec(),
	})
	return nil
}

// checkTransfer gates share transfers: only after the end and only between
// members of either whitelist.
func (v *Vault) checkTransfer(tx *chain.Tx, from, to common.Address) error {
	if !v.ended(tx.Now()) {
		return ErrInvalidEndTime
	}
	if !v.IsMember(from) || !v.IsMember(to) {
		return ErrTransferNotWhitelisted
	}
	return nil
}

// Transfer moves the caller's shares.
func (v *Vault) Transfer(tx *chain.Tx, to common.Address, amount *uint256.Int) error {
	return v.shares.Transfer(tx, to, amount)
}

// TransferFrom moves from's shares using the caller's allowance.
func (v *Vault) TransferFrom(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	return v.shares.TransferFrom(tx, from, to, amount)
}

// Approve sets the caller's share allowance for spender.
func (v *Vault) Approve(tx *chain.Tx, spender common.Address, amount *uint256.Int) error {
	return v.shares.Approve(tx, spender, amount)
}

// Dividend pays the dividend-treasury balance to current holders pro rata to
// their live share balances. Rounding leftovers stay in the treasury.
func (v *Vault) Dividend(tx *chain.Tx) error {
	if err := v.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	pool := v.asset.BalanceOf(v.dividendTreasury)
	if pool.IsZero() {
		return ErrNoDividend
	}

	entries := revshare.Snapshot(v.shares.BalanceOf, v.onChain.Items(), v.offChain.Items())
	round, err := revshare.Distribute(pool, entries, v.shares.TotalSupply())
	if err != nil {
		if errors.Is(err, revshare.ErrNoEntries) || errors.Is(err, revshare.ErrZeroTotalShares) {
			return ErrNoShares
		}
		return fmt.Errorf("vault: distribute: %w", err)
	}

	self := tx.As(v.addr)
	for i := range round.Distributions {
		d := &round.Distributions[i]
		if d.Amount.IsZero() {
			continue
		}
		if err := v.asset.TransferFrom(self, v.dividendTreasury, d.Address, &d.Amount); err != nil {
			return fmt.Errorf("vault: pay %s: %w", d.Address.Hex(), err)
		}
		tx.Emit(v.addr, EventDividendPaid, map[string]string{
			"account": d.Address.Hex(),
			"amount":  d.Amount.Dec(),
		})
	}

	rounds := v.dividendRounds + 1
	chain.Assign(tx, &v.dividendRounds, rounds)
	tx.Emit(v.addr, EventDividend, map[string]string{
		"round":     strconv.FormatUint(rounds, 10),
		"pool":      pool.Dec(),
		"paid":      round.Paid().Dec(),
		"remainder": round.Remainder.Dec(),
		"holders":   strconv.Itoa(len(round.Distributions)),
	})
	return nil
}
