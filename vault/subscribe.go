package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/roles"
)

// Event names emitted during subscription.
const (
	EventDeposit             = "Deposit"
	EventOffChainDepositMint = "OffChainDepositMint"
	EventWhitelistAdded      = "WhitelistAdded"
	EventWhitelistRemoved    = "WhitelistRemoved"
)

// Namespace names a whitelist.
type Namespace string

const (
	OnChain  Namespace = "onChain"
	OffChain Namespace = "offChain"
)

// Deposit subscribes amount of the asset. The caller pays amount plus the
// management fee and receives amount scaled to share decimals.
func (v *Vault) Deposit(tx *chain.Tx, amount *uint256.Int) error {
	if !v.inWindow(tx.Now()) {
		return ErrInvalidTime
	}
	caller := tx.Caller()
	if !v.onChain.Contains(caller) {
		if !v.isOpen {
			return ErrNotOnChainWL
		}
		if v.offChain.Contains(caller) {
			return ErrAlreadyOffChainWL
		}
		if err := addMember(tx, v.onChain, caller); err != nil {
			return err
		}
		v.emitMembership(tx, EventWhitelistAdded, OnChain, caller)
	}
	if amount.Lt(&v.minDeposit) {
		return fmt.Errorf("%w: %s < %s", ErrDepositBelowMin, amount.Dec(), v.minDeposit.Dec())
	}
	shares, overflow := v.sharesFor(amount)
	if overflow {
		return ErrMaxSupplyExceeded
	}
	if err := v.checkHeadroom(shares); err != nil {
		return err
	}

	fee := v.feeFor(amount)
	total := new(uint256.Int).Add(amount, fee)
	if err := v.asset.TransferFrom(tx.As(v.addr), caller, v.addr, total); err != nil {
		return err
	}
	credit(tx, &v.assetBalance, amount)
	credit(tx, &v.manageFeeBalance, fee)
	paid := v.feePaid[caller]
	paid.Add(&paid, fee)
	chain.Put(tx, v.feePaid, caller, paid)
	if err := v.shares.Mint(tx.As(v.addr), caller, shares); err != nil {
		return err
	}

	tx.Emit(v.addr, EventDeposit, map[string]string{
		"account": caller.Hex(),
		"amount":  amount.Dec(),
		"fee":     fee.Dec(),
		"shares":  shares.Dec(),
	})
	return nil
}

// OffChainDepositMint mints shares to an off-chain member whose payment was
// settled outside the ledger. Manager only.
func (v *Vault) OffChainDepositMint(tx *chain.Tx, receiver common.Address, shares *uint256.Int) error {
	if err := v.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if !v.inWindow(tx.Now()) {
		return ErrInvalidTime
	}
	if !v.offChain.Contains(receiver) || v.onChain.Contains(receiver) {
		return ErrOffChainReceiverNotInWL
	}
	minShares, overflow := v.sharesFor(&v.minDeposit)
	if !overflow && shares.Lt(minShares) {
		return fmt.Errorf("%w: %s < %s", ErrOffChainDepositBelowMin, shares.Dec(), minShares.Dec())
	}
	if err := v.checkHeadroom(shares); err != nil {
		return err
	}
	if err := v.shares.Mint(tx.As(v.addr), receiver, shares); err != nil {
		return err
	}
	tx.Emit(v.addr, EventOffChainDepositMint, map[string]string{
		"account": receiver.Hex(),
		"shares":  shares.Dec(),
	})
	return nil
}

// AddToOnChainWL enrolls addr in the on-chain whitelist.
func (v *Vault) AddToOnChainWL(tx *chain.Tx, addr common.Address) error {
	if err := v.checkWhitelistEdit(tx, addr); err != nil {
		return err
	}
	if v.onChain.Contains(addr) {
		return ErrAlreadyOnChainWL
	}
	if v.offChain.Contains(addr) {
		return ErrAlreadyOffChainWL
	}
	if err := addMember(tx, v.onChain, addr); err != nil {
		return err
	}
	v.emitMembership(tx, EventWhitelistAdded, OnChain, addr)
	return nil
}

// RemoveFromOnChainWL removes a member without shares from the on-chain whitelist.
func (v *Vault) RemoveFromOnChainWL(tx *chain.Tx, addr common.Address) error {
	if err := v.checkWhitelistEdit(tx, addr); err != nil {
		return err
	}
	if !v.onChain.Contains(addr) {
		return ErrNotInWhitelist
	}
	if !v.shares.BalanceOf(addr).IsZero() {
		return ErrAddressHasBalance
	}
	if err := removeMember(tx, v.onChain, addr); err != nil {
		return err
	}
	v.emitMembership(tx, EventWhitelistRemoved, OnChain, addr)
	return nil
}

// AddToOffChainWL enrolls addr in the off-chain whitelist.
func (v *Vault) AddToOffChainWL(tx *chain.Tx, addr common.Address) error {
	if err := v.checkWhitelistEdit(tx, addr); err != nil {
		return err
	}
	if v.offChain.Contains(addr) {
		return ErrAlreadyOffChainWL
	}
	if v.onChain.Contains(addr) {
		return ErrAlreadyOnChainWL
	}
	if err := addMember(tx, v.offChain, addr); err != nil {
		return err
	}
	v.emitMembership(tx, EventWhitelistAdded, OffChain, addr)
	return nil
}

// RemoveFromOffChainWL removes a member without shares from the off-chain whitelist.
func (v *Vault) RemoveFromOffChainWL(tx *chain.Tx, addr common.Address) error {
	if err := v.checkWhitelistEdit(tx, addr); err != nil {
		return err
	}
	if !v.offChain.Contains(addr) {
		return ErrNotInOffChainWhitelist
	}
	if !v.shares.BalanceOf(addr).IsZero() {
		return ErrAddressHasBalance
	}
	if err := removeMember(tx, v.offChain, addr); err != nil {
		return err
	}
	v.emitMembership(tx, EventWhitelistRemoved, OffChain, addr)
	return nil
}

// checkWhitelistEdit applies the common manager, time and address checks.
func (v *Vault) checkWhitelistEdit(tx *chain.Tx, addr common.Address) error {
	if err := v.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if v.ended(tx.Now()) {
		return ErrInvalidTime
	}
	if chain.IsZero(addr) {
		return ErrZeroAddress
	}
	return nil
}

func (v *Vault) emitMembership(tx *chain.Tx, name string, ns Namespace, addr common.Address) {
	tx.Emit(v.addr, name, map[string]string{"namespace": string(ns), "account": addr.Hex()})
}
