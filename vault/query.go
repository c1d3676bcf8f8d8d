package vault

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/roles"
	"github.com/bitfsorg/librbf-go/token"
)

// Phase is the lifecycle stage of a vault at a point in time.
type Phase uint8

const (
	Pending Phase = iota
	Subscribing
	SubscriptionClosed
	Failed
	Funded
	Distributing
	Matured
)

var phaseNames = [...]string{
	Pending:            "pending",
	Subscribing:        "subscribing",
	SubscriptionClosed: "subscription_closed",
	Failed:             "failed",
	Funded:             "funded",
	Distributing:       "distributing",
	Matured:            "matured",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Phase reports the lifecycle stage at now.
func (v *Vault) Phase(now time.Time) Phase {
	switch {
	case v.funded && !now.Before(v.end.Add(v.duration)):
		return Matured
	case v.funded && v.dividendRounds > 0:
		return Distributing
	case v.funded:
		return Funded
	case now.Before(v.start):
		return Pending
	case now.Before(v.end):
		return Subscribing
	case !v.shares.TotalSupply().Lt(v.threshold()) && !v.assetBalance.IsZero():
		return SubscriptionClosed
	default:
		return Failed
	}
}

// Price returns nav * 10^decimals / totalSupply, or 0 when either is 0.
func (v *Vault) Price() *uint256.Int {
	supply := v.shares.TotalSupply()
	nav := v.instrument.GetAssetsNav()
	if supply.IsZero() || nav.IsZero() {
		return new(uint256.Int)
	}
	unit := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(v.shares.Decimals())))
	price, _ := new(uint256.Int).MulDivOverflow(nav, unit, supply)
	return price
}

// ID returns the router-assigned id.
func (v *Vault) ID() uint64 { return v.id }

// Address returns the vault's address, which is also its share token's.
func (v *Vault) Address() common.Address { return v.addr }

// Shares returns the vault share token.
func (v *Vault) Shares() *token.Token { return v.shares }

// Asset returns the asset token.
func (v *Vault) Asset() *token.Token { return v.asset }

// Instrument returns the bound instrument's address.
func (v *Vault) Instrument() common.Address { return v.instrument.Address() }

// Roles returns the role registry.
func (v *Vault) Roles() *roles.Registry { return v.roles }

func (v *Vault) SubStartTime() time.Time     { return v.start }
func (v *Vault) SubEndTime() time.Time       { return v.end }
func (v *Vault) Duration() time.Duration     { return v.duration }
func (v *Vault) FundThreshold() uint64       { return v.fundThreshold }
func (v *Vault) ManageFee() uint64           { return v.manageFee }
func (v *Vault) IsOpen() bool                { return v.isOpen }
func (v *Vault) Funded() bool                { return v.funded }
func (v *Vault) DividendRounds() uint64      { return v.dividendRounds }
func (v *Vault) FeeReceiver() common.Address { return v.feeReceiver }

// DividendTreasury returns the escrow dividends are paid from.
func (v *Vault) DividendTreasury() common.Address { return v.dividendTreasury }

// MaxSupply returns the share cap.
func (v *Vault) MaxSupply() *uint256.Int { return v.maxSupply.Clone() }

// MinDepositAmount returns the per-call minimum deposit in asset units.
func (v *Vault) MinDepositAmount() *uint256.Int { return v.minDeposit.Clone() }

// FinancePrice returns the valuation price set at deployment.
func (v *Vault) FinancePrice() *uint256.Int { return v.financePrice.Clone() }

// Threshold returns the minimum share supply for a successful offering.
func (v *Vault) Threshold() *uint256.Int { return v.threshold() }

// AssetBalance returns the principal not yet handed to the instrument.
func (v *Vault) AssetBalance() *uint256.Int { return v.assetBalance.Clone() }

// FeePaid returns the fees addr was charged on deposit and not yet refunded.
func (v *Vault) FeePaid(addr common.Address) *uint256.Int {
	paid := v.feePaid[addr]
	return paid.Clone()
}

// ManageFeeBalance returns the accrued, unwithdrawn management fee.
func (v *Vault) ManageFeeBalance() *uint256.Int { return v.manageFeeBalance.Clone() }

// BalanceOf returns addr's share balance.
func (v *Vault) BalanceOf(addr common.Address) *uint256.Int { return v.shares.BalanceOf(addr) }

// TotalSupply returns the issued shares.
func (v *Vault) TotalSupply() *uint256.Int { return v.shares.TotalSupply() }

// DividendBalance returns the dividend treasury's asset balance.
func (v *Vault) DividendBalance() *uint256.Int { return v.asset.BalanceOf(v.dividendTreasury) }

// GetAssetsNav returns the instrument's NAV.
func (v *Vault) GetAssetsNav() *uint256.Int { return v.instrument.GetAssetsNav() }

// IsOnChainMember reports on-chain whitelist membership.
func (v *Vault) IsOnChainMember(addr common.Address) bool { return v.onChain.Contains(addr) }

// IsOffChainMember reports off-chain whitelist membership.
func (v *Vault) IsOffChainMember(addr common.Address) bool { return v.offChain.Contains(addr) }

// IsMember reports membership in either whitelist.
func (v *Vault) IsMember(addr common.Address) bool {
	return v.onChain.Contains(addr) || v.offChain.Contains(addr)
}

// OnChainWhitelist returns the on-chain members in enumeration order.
func (v *Vault) OnChainWhitelist() []common.Address { return v.onChain.Items() }

// OffChainWhitelist returns the off-chain members in enumeration order.
func (v *Vault) OffChainWhitelist() []common.Address { return v.offChain.Items() }

// OnChainWLLen returns the number of on-chain members.
func (v *Vault) OnChainWLLen() int { return v.onChain.Len() }

// OffChainWLLen returns the number of off-chain members.
func (v *Vault) OffChainWLLen() int { return v.offChain.Len() }

// Holding is one member's share balance in a Snapshot.
type Holding struct {
	Address   common.Address
	Namespace Namespace
	Balance   string
}

// Snapshot is a serializable view of a vault.
type Snapshot struct {
	ID               uint64
	Address          common.Address
	Name             string
	Symbol           string
	Decimals         uint8
	Asset            common.Address
	Instrument       common.Address
	Phase            string
	SubStartTime     int64
	SubEndTime       int64
	DurationSeconds  int64
	FundThreshold    uint64
	ManageFee        uint64
	IsOpen           bool
	MinDepositAmount string
	MaxSupply        string
	FinancePrice     string
	TotalSupply      string
	AssetBalance     string
	ManageFeeBalance string
	DividendBalance  string
	DividendRounds   uint64
	NAV              string
	Price            string
	Holdings         []Holding
}

// Snapshot returns the state view at now.
func (v *Vault) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		ID:               v.id,
		Address:          v.addr,
		Name:             v.shares.Name(),
		Symbol:           v.shares.Symbol(),
		Decimals:         v.shares.Decimals(),
		Asset:            v.asset.Address(),
		Instrument:       v.instrument.Address(),
		Phase:            v.Phase(now).String(),
		SubStartTime:     v.start.Unix(),
		SubEndTime:       v.end.Unix(),
		DurationSeconds:  int64(v.duration / time.Second),
		FundThreshold:    v.fundThreshold,
		ManageFee:        v.manageFee,
		IsOpen:           v.isOpen,
		MinDepositAmount: v.minDeposit.Dec(),
		MaxSupply:        v.maxSupply.Dec(),
		FinancePrice:     v.financePrice.Dec(),
		TotalSupply:      v.shares.TotalSupply().Dec(),
		AssetBalance:     v.assetBalance.Dec(),
		ManageFeeBalance: v.manageFeeBalance.Dec(),
		DividendBalance:  v.DividendBalance().Dec(),
		DividendRounds:   v.dividendRounds,
		NAV:              v.GetAssetsNav().Dec(),
		Price:            v.Price().Dec(),
	}
	for _, addr := range v.onChain.Items() {
		s.Holdings = append(s.Holdings, Holding{Address: addr, Namespace: OnChain, Balance: v.BalanceOf(addr).Dec()})
	}
	for _, addr := range v.offChain.Items() {
		s.Holdings = append(s.Holdings, Holding{Address: addr, Namespace: OffChain, Balance: v.BalanceOf(addr).Dec()})
	}
	return s
}
