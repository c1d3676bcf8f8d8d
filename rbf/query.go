package rbf

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/roles"
	"github.com/bitfsorg/librbf-go/token"
)

// ID returns the router-assigned id.
func (r *RBF) ID() uint64 { return r.id }

// Address returns the instrument's address, which is also its share token's.
func (r *RBF) Address() common.Address { return r.addr }

// Shares returns the instrument share token.
func (r *RBF) Shares() *token.Token { return r.shares }

// Asset returns the asset token.
func (r *RBF) Asset() *token.Token { return r.asset }

// Roles returns the role registry.
func (r *RBF) Roles() *roles.Registry { return r.roles }

// Vault returns the bound vault address, or the zero address.
func (r *RBF) Vault() common.Address {
	if r.vault == nil {
		return common.Address{}
	}
	return r.vault.Address()
}

// DepositAmount returns the accepted principal.
func (r *RBF) DepositAmount() *uint256.Int {
	v := r.depositAmount
	return &v
}

// DepositMintAmount returns the pending mint amount.
func (r *RBF) DepositMintAmount() *uint256.Int {
	v := r.depositMintAmount
	return &v
}

// BalanceOf returns addr's instrument share balance.
func (r *RBF) BalanceOf(addr common.Address) *uint256.Int { return r.shares.BalanceOf(addr) }

// TotalSupply returns the instrument share supply.
func (r *RBF) TotalSupply() *uint256.Int { return r.shares.TotalSupply() }

// Decimals returns the instrument share decimals.
func (r *RBF) Decimals() uint8 { return r.shares.Decimals() }

// DepositTreasury returns the off-chain custody address.
func (r *RBF) DepositTreasury() common.Address { return r.depositTreasury }

// DividendTreasury returns the escrow the instrument forwards dividends from.
func (r *RBF) DividendTreasury() common.Address { return r.dividendTreasury }

// BoundedMint reports whether claims are range checked.
func (r *RBF) BoundedMint() bool { return r.boundedMint }

// Snapshot is a serializable view of an RBF.
type Snapshot struct {
	ID                uint64
	Address           common.Address
	Name              string
	Symbol            string
	Decimals          uint8
	Asset             common.Address
	Vault             common.Address
	DepositTreasury   common.Address
	DividendTreasury  common.Address
	DepositAmount     string
	DepositMintAmount string
	TotalSupply       string
	NAV               string
	DividendBalance   string
	BoundedMint       bool
}

// Snapshot returns the current state view.
func (r *RBF) Snapshot() Snapshot {
	return Snapshot{
		ID:                r.id,
		Address:           r.addr,
		Name:              r.shares.Name(),
		Symbol:            r.shares.Symbol(),
		Decimals:          r.shares.Decimals(),
		Asset:             r.asset.Address(),
		Vault:             r.Vault(),
		DepositTreasury:   r.depositTreasury,
		DividendTreasury:  r.dividendTreasury,
		DepositAmount:     r.depositAmount.Dec(),
		DepositMintAmount: r.depositMintAmount.Dec(),
		TotalSupply:       r.shares.TotalSupply().Dec(),
		NAV:               r.GetAssetsNav().Dec(),
		DividendBalance:   r.asset.BalanceOf(r.dividendTreasury).Dec(),
		BoundedMint:       r.boundedMint,
	}
}
