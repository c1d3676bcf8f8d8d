// Package vault implements the subscription pool: whitelist-gated deposits,
// the threshold-gated hand-off of principal to the bound instrument,
// redemption of failed offerings, share transfer gating and live-balance
// pro-rata dividend rounds.
package vault

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/roles"
	"github.com/bitfsorg/librbf-go/token"
	"github.com/bitfsorg/librbf-go/whitelist"
)

// BasisPoints is the denominator of fee and threshold ratios.
const BasisPoints = 10000

// Instrument is the bound instrument ledger as seen by the vault.
type Instrument interface {
	Address() common.Address
	RequestDeposit(tx *chain.Tx, amount *uint256.Int) error
	GetAssetsNav() *uint256.Int
}

// Params are the construction parameters of a vault. The router validates
// them; New only rejects values the vault cannot operate with.
type Params struct {
	ID       uint64
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8

	Asset      *token.Token
	Instrument Instrument

	SubStartTime time.Time
	SubEndTime   time.Time
	Duration     time.Duration

	FundThreshold    uint64       // basis points of MaxSupply
	MinDepositAmount *uint256.Int // asset units
	ManageFee        uint64       // basis points of each deposit
	MaxSupply        *uint256.Int // share units
	FinancePrice     *uint256.Int

	Manager          common.Address
	FeeReceiver      common.Address
	DividendTreasury common.Address
	Guardian         common.Address

	WhiteList []common.Address
	IsOpen    bool
}

// Vault is one subscription pool. Its address is also its share token's.
type Vault struct {
	id         uint64
	addr       common.Address
	asset      *token.Token
	shares     *token.Token
	instrument Instrument
	roles      *roles.Registry

	start    time.Time
	end      time.Time
	duration time.Duration

	fundThreshold uint64
	minDeposit    uint256.Int
	manageFee     uint64
	maxSupply     uint256.Int
	financePrice  uint256.Int
	scale         uint256.Int

	feeReceiver      common.Address
	dividendTreasury common.Address
	isOpen           bool

	onChain  *whitelist.Set
	offChain *whitelist.Set

	assetBalance     uint256.Int
	manageFeeBalance uint256.Int
	feePaid          map[common.Address]uint256.Int
	funded           bool
	dividendRounds   uint64
}

// New constructs a vault and installs its share transfer gate.
func New(p Params) (*Vault, error) {
	switch {
	case p.Asset == nil || p.Instrument == nil:
		return nil, fmt.Errorf("%w: missing asset or instrument", ErrInvalidParams)
	case chain.IsZero(p.Address) || chain.IsZero(p.Manager):
		return nil, fmt.Errorf("%w: zero address", ErrInvalidParams)
	case p.Decimals < p.Asset.Decimals():
		return nil, fmt.Errorf("%w: decimals %d below asset decimals %d", ErrInvalidParams, p.Decimals, p.Asset.Decimals())
	case p.MaxSupply == nil || p.MinDepositAmount == nil:
		return nil, fmt.Errorf("%w: missing max supply or min deposit", ErrInvalidParams)
	case !p.SubStartTime.Before(p.SubEndTime):
		return nil, fmt.Errorf("%w: start not before end", ErrInvalidParams)
	}

	v := &Vault{
		id:               p.ID,
		addr:             p.Address,
		asset:            p.Asset,
		shares:           token.New(p.Address, p.Name, p.Symbol, p.Decimals, p.Address),
		instrument:       p.Instrument,
		roles:            roles.New(p.Address),
		start:            p.SubStartTime,
		end:              p.SubEndTime,
		duration:         p.Duration,
		fundThreshold:    p.FundThreshold,
		minDeposit:       *p.MinDepositAmount,
		manageFee:        p.ManageFee,
		maxSupply:        *p.MaxSupply,
		feeReceiver:      p.FeeReceiver,
		dividendTreasury: p.DividendTreasury,
		isOpen:           p.IsOpen,
		onChain:          whitelist.New(whitelist.DefaultLimit),
		offChain:         whitelist.New(whitelist.DefaultLimit),
		feePaid:          make(map[common.Address]uint256.Int),
	}
	if p.FinancePrice != nil {
		v.financePrice = *p.FinancePrice
	}
	v.scale.Exp(uint256.NewInt(10), uint256.NewInt(uint64(p.Decimals-p.Asset.Decimals())))

	for _, addr := range p.WhiteList {
		if chain.IsZero(addr) {
			return nil, fmt.Errorf("%w: zero whitelist address", ErrInvalidParams)
		}
		if err := v.onChain.Add(addr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}

	v.roles.Setup(roles.Manager, p.Manager)
	v.roles.Setup(roles.Guardian, p.Guardian)
	v.shares.SetTransferGate(v.checkTransfer)
	return v, nil
}

// sharesFor converts principal in asset units to share units.
func (v *Vault) sharesFor(amount *uint256.Int) (*uint256.Int, bool) {
	return new(uint256.Int).MulOverflow(amount, &v.scale)
}

// feeFor returns amount * manageFee / 10000.
func (v *Vault) feeFor(amount *uint256.Int) *uint256.Int {
	fee, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(v.manageFee), uint256.NewInt(BasisPoints))
	return fee
}

// threshold returns maxSupply * fundThreshold / 10000.
func (v *Vault) threshold() *uint256.Int {
	t, _ := new(uint256.Int).MulDivOverflow(&v.maxSupply, uint256.NewInt(v.fundThreshold), uint256.NewInt(BasisPoints))
	return t
}

// checkHeadroom fails unless minting shares keeps the supply within maxSupply.
func (v *Vault) checkHeadroom(shares *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(v.shares.TotalSupply(), shares)
	if overflow || supply.Gt(&v.maxSupply) {
		return fmt.Errorf("%w: supply would be %s of %s", ErrMaxSupplyExceeded, supply.Dec(), v.maxSupply.Dec())
	}
	return nil
}

func (v *Vault) inWindow(now time.Time) bool {
	return !now.Before(v.start) && now.Before(v.end)
}

func (v *Vault) ended(now time.Time) bool { return !now.Before(v.end) }

// addMember adds addr to set and undoes the insertion on revert.
func addMember(tx *chain.Tx, set *whitelist.Set, addr common.Address) error {
	if set.Len() >= set.Limit() {
		return ErrWhitelistFull
	}
	if err := set.Add(addr); err != nil {
		return err
	}
	tx.OnRevert(func() { set.Pop() })
	return nil
}

// removeMember removes addr from set and restores its slot on revert.
func removeMember(tx *chain.Tx, set *whitelist.Set, addr common.Address) error {
	slot, err := set.Remove(addr)
	if err != nil {
		return err
	}
	tx.OnRevert(func() { _ = set.Restore(addr, slot) })
	return nil
}

// credit adds delta to *dst, journaled.
func credit(tx *chain.Tx, dst *uint256.Int, delta *uint256.Int) {
	var sum uint256.Int
	sum.Add(dst, delta)
	chain.Assign(tx, dst, sum)
}

// debit subtracts delta from *dst, journaled. Callers check delta <= *dst.
func debit(tx *chain.Tx, dst *uint256.Int, delta *uint256.Int) {
	var diff uint256.Int
	diff.Sub(dst, delta)
	chain.Assign(tx, dst, diff)
}
