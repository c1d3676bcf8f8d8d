// Package token implements the fungible balance, transfer and allowance
// primitive used for both the asset (stablecoin) and the share tokens.
package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
)

// Event names emitted by Token.
const (
	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

// Gate is consulted before every Transfer and TransferFrom. Mint and burn
// bypass it.
type Gate func(tx *chain.Tx, from, to common.Address) error

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Token is a fungible token ledger. Only its minter may mint or burn.
// Mutating methods must run inside a chain call; queries are not
// synchronized and should be made from a call or under Env.View.
type Token struct {
	addr     common.Address
	name     string
	symbol   string
	decimals uint8
	minter   common.Address

	balances    map[common.Address]uint256.Int
	allowances  map[allowanceKey]uint256.Int
	totalSupply uint256.Int
	gate        Gate
}

// New creates an empty token at addr whose supply is controlled by minter.
func New(addr common.Address, name, symbol string, decimals uint8, minter common.Address) *Token {
	return &Token{
		addr:       addr,
		name:       name,
		symbol:     symbol,
		decimals:   decimals,
		minter:     minter,
		balances:   make(map[common.Address]uint256.Int),
		allowances: make(map[allowanceKey]uint256.Int),
	}
}

// SetTransferGate installs g. Intended for construction time only.
func (t *Token) SetTransferGate(g Gate) { t.gate = g }

// Address returns the token's address.
func (t *Token) Address() common.Address { return t.addr }

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the number of decimals of one whole token.
func (t *Token) Decimals() uint8 { return t.decimals }

// Minter returns the account allowed to mint and burn.
func (t *Token) Minter() common.Address { return t.minter }

// BalanceOf returns a copy of addr's balance.
func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	b := t.balances[addr]
	return &b
}

// TotalSupply returns a copy of the total supply.
func (t *Token) TotalSupply() *uint256.Int {
	s := t.totalSupply
	return &s
}

// Allowance returns how much spender may move on owner's behalf.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	a := t.allowances[allowanceKey{owner, spender}]
	return &a
}

// Transfer moves amount from the caller to to.
func (t *Token) Transfer(tx *chain.Tx, to common.Address, amount *uint256.Int) error {
	from := tx.Caller()
	if t.gate != nil {
		if err := t.gate(tx, from, to); err != nil {
			return err
		}
	}
	return t.move(tx, from, to, amount)
}

// Approve sets the caller's allowance for spender to amount.
func (t *Token) Approve(tx *chain.Tx, spender common.Address, amount *uint256.Int) error {
	owner := tx.Caller()
	if chain.IsZero(owner) || chain.IsZero(spender) {
		return ErrZeroAddress
	}
	chain.Put(tx, t.allowances, allowanceKey{owner, spender}, *amount)
	tx.Emit(t.addr, EventApproval, map[string]string{
		"owner":   owner.Hex(),
		"spender": spender.Hex(),
		"value":   amount.Dec(),
	})
	return nil
}

// TransferFrom moves amount from from to to using the caller's allowance.
func (t *Token) TransferFrom(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	if t.gate != nil {
		if err := t.gate(tx, from, to); err != nil {
			return err
		}
	}
	if err := t.SpendAllowance(tx, from, tx.Caller(), amount); err != nil {
		return err
	}
	return t.move(tx, from, to, amount)
}

// SpendAllowance decreases owner's allowance for spender by amount. An
// unlimited (all ones) allowance is left untouched.
func (t *Token) SpendAllowance(tx *chain.Tx, owner, spender common.Address, amount *uint256.Int) error {
	key := allowanceKey{owner, spender}
	current := t.allowances[key]
	if current.Eq(maxAllowance) {
		return nil
	}
	if current.Lt(amount) {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientAllowance, current.Dec(), amount.Dec())
	}
	var left uint256.Int
	left.Sub(&current, amount)
	chain.Put(tx, t.allowances, key, left)
	return nil
}

// Mint creates amount new tokens for to. Caller must be the minter.
func (t *Token) Mint(tx *chain.Tx, to common.Address, amount *uint256.Int) error {
	if tx.Caller() != t.minter {
		return ErrNotMinter
	}
	if chain.IsZero(to) {
		return ErrZeroAddress
	}
	var supply uint256.Int
	if _, overflow := supply.AddOverflow(&t.totalSupply, amount); overflow {
		return ErrSupplyOverflow
	}
	chain.Assign(tx, &t.totalSupply, supply)

	bal := t.balances[to]
	bal.Add(&bal, amount)
	t.setBalance(tx, to, bal)

	tx.Emit(t.addr, EventTransfer, transferAttrs(common.Address{}, to, amount))
	return nil
}

// Burn destroys amount of from's tokens. Caller must be the minter.
func (t *Token) Burn(tx *chain.Tx, from common.Address, amount *uint256.Int) error {
	if tx.Caller() != t.minter {
		return ErrNotMinter
	}
	if chain.IsZero(from) {
		return ErrZeroAddress
	}
	bal := t.balances[from]
	if bal.Lt(amount) {
		return fmt.Errorf("%w: have %s, want %s", ErrBurnExceedsBalance, bal.Dec(), amount.Dec())
	}
	bal.Sub(&bal, amount)
	t.setBalance(tx, from, bal)

	var supply uint256.Int
	supply.Sub(&t.totalSupply, amount)
	chain.Assign(tx, &t.totalSupply, supply)

	tx.Emit(t.addr, EventTransfer, transferAttrs(from, common.Address{}, amount))
	return nil
}

func (t *Token) move(tx *chain.Tx, from, to common.Address, amount *uint256.Int) error {
	if chain.IsZero(from) || chain.IsZero(to) {
		return ErrZeroAddress
	}
	fromBal := t.balances[from]
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, fromBal.Dec(), amount.Dec())
	}
	fromBal.Sub(&fromBal, amount)
	t.setBalance(tx, from, fromBal)

	toBal := t.balances[to]
	toBal.Add(&toBal, amount)
	t.setBalance(tx, to, toBal)

	tx.Emit(t.addr, EventTransfer, transferAttrs(from, to, amount))
	return nil
}

// setBalance drops zero entries so the map only holds live holders.
func (t *Token) setBalance(tx *chain.Tx, addr common.Address, bal uint256.Int) {
	if bal.IsZero() {
		chain.Delete(tx, t.balances, addr)
		return
	}
	chain.Put(tx, t.balances, addr, bal)
}

// Holders returns the number of accounts with a nonzero balance.
func (t *Token) Holders() int { return len(t.balances) }

func transferAttrs(from, to common.Address, amount *uint256.Int) map[string]string {
	return map[string]string{
		"from":  from.Hex(),
		"to":    to.Hex(),
		"value": amount.Dec(),
	}
}

var maxAllowance = new(uint256.Int).SetAllOne()

// MaxAllowance returns the unlimited allowance value.
func MaxAllowance() *uint256.Int { return maxAllowance.Clone() }
