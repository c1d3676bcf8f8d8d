// Package rbf implements the Instrument ledger: the off-chain custody binding
// of pooled principal, the oracle-driven claim of instrument shares into the
// bound vault, NAV computation, and the first leg of dividend forwarding.
package rbf

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/roles"
	"github.com/bitfsorg/librbf-go/token"
)

// Event names emitted by RBF.
const (
	EventVaultSet        = "VaultSet"
	EventDepositRequest  = "DepositRequest"
	EventMintAmountSet   = "MintAmountSet"
	EventDepositClaimed  = "DepositClaimed"
	EventDividendForward = "DividendForwarded"
)

// PriceSource reports the latest valuation price of one instrument share.
type PriceSource interface {
	LatestPrice() (*uint256.Int, time.Time)
}

// Vault is the view of the bound vault the instrument relies on.
type Vault interface {
	Address() common.Address
	DividendTreasury() common.Address
	MaxSupply() *uint256.Int
	FundThreshold() uint64
}

// Params are the construction parameters of an RBF.
type Params struct {
	ID               uint64
	Address          common.Address
	Name             string
	Symbol           string
	Decimals         uint8
	Asset            *token.Token
	DepositTreasury  common.Address
	DividendTreasury common.Address
	PriceFeed        PriceSource
	Manager          common.Address
	Guardian         common.Address
	MintAmountSetter common.Address

	// BoundedMint requires claimed mint amounts to lie within
	// [maxSupply*fundThreshold/10000, maxSupply] of the bound vault.
	BoundedMint bool
}

// RBF is one Instrument ledger.
type RBF struct {
	id               uint64
	addr             common.Address
	asset            *token.Token
	shares           *token.Token
	depositTreasury  common.Address
	dividendTreasury common.Address
	priceFeed        PriceSource
	roles            *roles.Registry
	boundedMint      bool

	vault             Vault
	depositAmount     uint256.Int
	depositMintAmount uint256.Int
}

// New constructs an RBF. Parameter validation beyond presence is the
// router's job.
func New(p Params) (*RBF, error) {
	if p.Asset == nil || p.PriceFeed == nil || chain.IsZero(p.Address) || chain.IsZero(p.Manager) {
		return nil, ErrInvalidParams
	}
	r := &RBF{
		id:               p.ID,
		addr:             p.Address,
		asset:            p.Asset,
		shares:           token.New(p.Address, p.Name, p.Symbol, p.Decimals, p.Address),
		depositTreasury:  p.DepositTreasury,
		dividendTreasury: p.DividendTreasury,
		priceFeed:        p.PriceFeed,
		roles:            roles.New(p.Address),
		boundedMint:      p.BoundedMint,
	}
	r.roles.Setup(roles.Manager, p.Manager)
	r.roles.Setup(roles.Guardian, p.Guardian)
	r.roles.Setup(roles.MintAmountSetter, p.MintAmountSetter)
	return r, nil
}

// SetVault binds the vault. Manager only; succeeds at most once.
func (r *RBF) SetVault(tx *chain.Tx, v Vault) error {
	if err := r.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if r.vault != nil {
		return ErrVaultAlreadySet
	}
	if isNilVault(v) || chain.IsZero(v.Address()) {
		return ErrZeroVault
	}
	chain.Assign(tx, &r.vault, v)
	tx.Emit(r.addr, EventVaultSet, map[string]string{"vault": v.Address().Hex()})
	return nil
}

// isNilVault reports whether v is nil or wraps a nil pointer.
func isNilVault(v Vault) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// RequestDeposit accepts principal from the bound vault, pulling amount of
// the asset from the vault straight into the deposit treasury.
func (r *RBF) RequestDeposit(tx *chain.Tx, amount *uint256.Int) error {
	if r.vault == nil || tx.Caller() != r.vault.Address() {
		return ErrNotVault
	}
	if amount.IsZero() {
		return ErrZeroDepositAmount
	}
	if err := r.asset.TransferFrom(tx.As(r.addr), r.vault.Address(), r.depositTreasury, amount); err != nil {
		return fmt.Errorf("rbf: pull principal: %w", err)
	}
	var total uint256.Int
	total.Add(&r.depositAmount, amount)
	chain.Assign(tx, &r.depositAmount, total)
	tx.Emit(r.addr, EventDepositRequest, map[string]string{
		"vault": tx.Caller().Hex(), "amount": amount.Dec(),
	})
	return nil
}

// SetMintAmount stores the pending mint amount. Zero is valid.
func (r *RBF) SetMintAmount(tx *chain.Tx, amount *uint256.Int) error {
	if err := r.roles.Require(tx, roles.MintAmountSetter); err != nil {
		return err
	}
	chain.Assign(tx, &r.depositMintAmount, *amount)
	tx.Emit(r.addr, EventMintAmountSet, map[string]string{"amount": amount.Dec()})
	return nil
}

// ClaimDeposit mints the pending amount of instrument shares to the bound
// vault and clears it.
func (r *RBF) ClaimDeposit(tx *chain.Tx) error {
	if err := r.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if r.depositAmount.IsZero() {
		return ErrZeroDepositAmount
	}
	if r.depositMintAmount.IsZero() {
		return ErrZeroMintAmount
	}
	if r.vault == nil {
		return ErrNotVault
	}
	amount := r.depositMintAmount
	if r.boundedMint {
		if err := r.checkMintRange(&amount); err != nil {
			return err
		}
	}
	if err := r.shares.Mint(tx.As(r.addr), r.vault.Address(), &amount); err != nil {
		return err
	}
	chain.Assign(tx, &r.depositMintAmount, uint256.Int{})
	tx.Emit(r.addr, EventDepositClaimed, map[string]string{
		"vault": r.vault.Address().Hex(), "amount": amount.Dec(),
	})
	return nil
}

func (r *RBF) checkMintRange(amount *uint256.Int) error {
	maxSupply := r.vault.MaxSupply()
	var lo uint256.Int
	lo.MulDivOverflow(maxSupply, uint256.NewInt(r.vault.FundThreshold()), uint256.NewInt(10000))
	if amount.Lt(&lo) || amount.Gt(maxSupply) {
		return fmt.Errorf("%w: %s not in [%s, %s]", ErrMintAmountOutOfRange, amount.Dec(), lo.Dec(), maxSupply.Dec())
	}
	return nil
}

// Dividend forwards the whole dividend-treasury balance to the bound vault's
// dividend treasury.
func (r *RBF) Dividend(tx *chain.Tx) error {
	if err := r.roles.Require(tx, roles.Manager); err != nil {
		return err
	}
	if r.shares.TotalSupply().IsZero() {
		return ErrZeroTotalSupply
	}
	total := r.asset.BalanceOf(r.dividendTreasury)
	if total.IsZero() {
		return ErrZeroDividend
	}
	to := r.vault.DividendTreasury()
	if err := r.asset.TransferFrom(tx.As(r.addr), r.dividendTreasury, to, total); err != nil {
		return fmt.Errorf("rbf: forward dividend: %w", err)
	}
	tx.Emit(r.addr, EventDividendForward, map[string]string{
		"from": r.dividendTreasury.Hex(), "to": to.Hex(), "amount": total.Dec(),
	})
	return nil
}

// GetAssetsNav returns balanceOf(vault) * latestPrice / 10^decimals, or 0
// when the price is 0 or no vault is bound.
func (r *RBF) GetAssetsNav() *uint256.Int {
	price, _ := r.priceFeed.LatestPrice()
	if price.IsZero() || r.vault == nil {
		return new(uint256.Int)
	}
	held := r.shares.BalanceOf(r.vault.Address())
	nav, _ := new(uint256.Int).MulDivOverflow(held, price, pow10(r.shares.Decimals()))
	return nav
}

func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}
