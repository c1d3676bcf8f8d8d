package router

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/pricefeed"
	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/roles"
	"github.com/bitfsorg/librbf-go/token"
	"github.com/bitfsorg/librbf-go/vault"
)

// VaultDeployData are the parameters of a vault deployment.
type VaultDeployData struct {
	ID       uint64
	Name     string
	Symbol   string
	Decimals uint8
	RBF      common.Address

	SubStartTime time.Time
	SubEndTime   time.Time
	Duration     time.Duration

	FundThreshold    uint64
	MinDepositAmount *uint256.Int
	ManageFee        uint64
	MaxSupply        *uint256.Int
	FinancePrice     *uint256.Int

	Manager     common.Address
	FeeReceiver common.Address
	Guardian    common.Address
	WhiteList   []common.Address
	IsOpen      bool
}

// DeployRBF creates an instrument together with its price feed and dividend
// escrow. The caller must be data.Deployer and sigs must carry at least the
// threshold of distinct whitelisted signatures over data's digest.
func (r *Router) DeployRBF(tx *chain.Tx, data *RBFDeployData, sigs []Signature) (*rbf.RBF, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil deploy data", ErrInvalidParams)
	}
	if data.ID != r.rbfNonce {
		return nil, ErrInvalidRBFID
	}
	if tx.Caller() != data.Deployer {
		return nil, ErrInvalidDeployer
	}
	digest, err := data.Digest(r.addr)
	if err != nil {
		return nil, err
	}
	if err := r.verify(digest, sigs); err != nil {
		return nil, err
	}
	if chain.IsZero(data.DepositTreasury) || chain.IsZero(data.Manager) {
		return nil, fmt.Errorf("%w: zero treasury or manager", ErrInvalidParams)
	}
	asset, ok := r.assets[data.Asset]
	if !ok {
		return nil, ErrUnknownAsset
	}
	if data.Decimals < asset.Decimals() {
		return nil, fmt.Errorf("%w: decimals %d below asset decimals %d", ErrInvalidParams, data.Decimals, asset.Decimals())
	}

	salt := r.addr.Bytes()
	feed := pricefeed.New(chain.DeriveAddress(kindFeed, data.ID, salt), data.PriceDecimals, data.Manager, data.PriceFeeder)
	escrow := chain.DeriveAddress(kindRBFEscrow, data.ID, salt)
	instrument, err := rbf.New(rbf.Params{
		ID:               data.ID,
		Address:          chain.DeriveAddress(kindRBF, data.ID, salt),
		Name:             data.Name,
		Symbol:           data.Symbol,
		Decimals:         data.Decimals,
		Asset:            asset,
		DepositTreasury:  data.DepositTreasury,
		DividendTreasury: escrow,
		PriceFeed:        feed,
		Manager:          data.Manager,
		Guardian:         data.Guardian,
		MintAmountSetter: data.MintAmountSetter,
		BoundedMint:      data.BoundedMint,
	})
	if err != nil {
		return nil, err
	}
	if err := asset.Approve(tx.As(escrow), instrument.Address(), token.MaxAllowance()); err != nil {
		return nil, err
	}

	appendUndo(tx, &r.rbfs, instrument)
	appendUndo(tx, &r.feeds, feed)
	chain.Put(tx, r.rbfIndex, instrument.Address(), int(data.ID))
	chain.Assign(tx, &r.rbfNonce, r.rbfNonce+1)

	tx.Emit(r.addr, EventRBFDeployed, map[string]string{
		"id":        fmt.Sprint(data.ID),
		"rbf":       instrument.Address().Hex(),
		"priceFeed": feed.Address().Hex(),
		"escrow":    escrow.Hex(),
	})
	r.log.Info("rbf deployed",
		zap.Uint64("id", data.ID),
		zap.String("rbf", instrument.Address().Hex()),
		zap.String("deployer", data.Deployer.Hex()))
	return instrument, nil
}

func (d *VaultDeployData) validate(asset *token.Token) error {
	switch {
	case chain.IsZero(d.Manager) || chain.IsZero(d.FeeReceiver) || chain.IsZero(d.Guardian):
		return fmt.Errorf("%w: zero manager, fee receiver or guardian", ErrInvalidParams)
	case d.SubStartTime.Unix() <= 0 || !d.SubStartTime.Before(d.SubEndTime):
		return fmt.Errorf("%w: subscription window", ErrInvalidParams)
	case d.Duration <= 0:
		return fmt.Errorf("%w: duration", ErrInvalidParams)
	case d.FundThreshold == 0 || d.FundThreshold > vault.BasisPoints:
		return fmt.Errorf("%w: fund threshold %d", ErrInvalidParams, d.FundThreshold)
	case d.MinDepositAmount == nil || d.MinDepositAmount.IsZero():
		return fmt.Errorf("%w: min deposit amount", ErrInvalidParams)
	case d.ManageFee > vault.BasisPoints:
		return fmt.Errorf("%w: manage fee %d", ErrInvalidParams, d.ManageFee)
	case len(d.WhiteList) == 0 || len(d.WhiteList) > maxWhiteList:
		return fmt.Errorf("%w: whitelist length %d", ErrInvalidParams, len(d.WhiteList))
	case d.MaxSupply == nil || d.MaxSupply.IsZero():
		return fmt.Errorf("%w: max supply", ErrInvalidParams)
	case d.FinancePrice == nil || d.FinancePrice.IsZero():
		return fmt.Errorf("%w: finance price", ErrInvalidParams)
	case d.Decimals < asset.Decimals():
		return fmt.Errorf("%w: decimals %d below asset decimals %d", ErrInvalidParams, d.Decimals, asset.Decimals())
	}
	return nil
}

// DeployVault creates a vault and its dividend escrow over a deployed
// instrument. The caller must hold the instrument's manager role. Binding the
// vault to the instrument is left to the manager (rbf.SetVault).
func (r *Router) DeployVault(tx *chain.Tx, data *VaultDeployData) (*vault.Vault, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil deploy data", ErrInvalidParams)
	}
	if data.ID != r.vaultNonce {
		return nil, ErrInvalidVaultID
	}
	idx, ok := r.rbfIndex[data.RBF]
	if !ok {
		return nil, ErrUnknownRBF
	}
	instrument := r.rbfs[idx]
	if !instrument.Roles().Has(roles.Manager, tx.Caller()) {
		return nil, ErrNotRBFManager
	}
	asset := instrument.Asset()
	if err := data.validate(asset); err != nil {
		return nil, err
	}

	salt := r.addr.Bytes()
	escrow := chain.DeriveAddress(kindVaultEscrow, data.ID, salt)
	v, err := vault.New(vault.Params{
		ID:               data.ID,
		Address:          chain.DeriveAddress(kindVault, data.ID, salt),
		Name:             data.Name,
		Symbol:           data.Symbol,
		Decimals:         data.Decimals,
		Asset:            asset,
		Instrument:       instrument,
		SubStartTime:     data.SubStartTime,
		SubEndTime:       data.SubEndTime,
		Duration:         data.Duration,
		FundThreshold:    data.FundThreshold,
		MinDepositAmount: data.MinDepositAmount,
		ManageFee:        data.ManageFee,
		MaxSupply:        data.MaxSupply,
		FinancePrice:     data.FinancePrice,
		Manager:          data.Manager,
		FeeReceiver:      data.FeeReceiver,
		DividendTreasury: escrow,
		Guardian:         data.Guardian,
		WhiteList:        data.WhiteList,
		IsOpen:           data.IsOpen,
	})
	if err != nil {
		return nil, err
	}
	if err := asset.Approve(tx.As(escrow), v.Address(), token.MaxAllowance()); err != nil {
		return nil, err
	}

	appendUndo(tx, &r.vaults, v)
	chain.Assign(tx, &r.vaultNonce, r.vaultNonce+1)

	tx.Emit(r.addr, EventVaultDeployed, map[string]string{
		"id":     fmt.Sprint(data.ID),
		"vault":  v.Address().Hex(),
		"rbf":    instrument.Address().Hex(),
		"escrow": escrow.Hex(),
	})
	r.log.Info("vault deployed",
		zap.Uint64("id", data.ID),
		zap.String("vault", v.Address().Hex()),
		zap.String("rbf", instrument.Address().Hex()))
	return v, nil
}
