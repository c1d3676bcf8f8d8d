package router

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/chain"
)

// RBFDeployData are the signed parameters of an instrument deployment.
type RBFDeployData struct {
	ID               uint64
	Name             string
	Symbol           string
	Decimals         uint8
	Asset            common.Address
	DepositTreasury  common.Address
	Manager          common.Address
	Guardian         common.Address
	MintAmountSetter common.Address
	PriceFeeder      common.Address
	PriceDecimals    uint8
	BoundedMint      bool
	Deployer         common.Address
}

var rbfDeployArgs = mustArguments(
	"address", // router
	"uint256", // id
	"string", "string", "uint8",
	"address", "address", "address", "address", "address", "address",
	"uint8", "bool", "address",
)

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("router: abi type %q: %v", t, err))
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args
}

// Encode returns the ABI encoding of d bound to the router at routerAddr.
func (d *RBFDeployData) Encode(routerAddr common.Address) ([]byte, error) {
	return rbfDeployArgs.Pack(
		routerAddr,
		new(big.Int).SetUint64(d.ID),
		d.Name, d.Symbol, d.Decimals,
		d.Asset, d.DepositTreasury, d.Manager, d.Guardian, d.MintAmountSetter, d.PriceFeeder,
		d.PriceDecimals, d.BoundedMint, d.Deployer,
	)
}

// Digest returns keccak256 of the encoded deployment; signers sign it.
func (d *RBFDeployData) Digest(routerAddr common.Address) ([]byte, error) {
	enc, err := d.Encode(routerAddr)
	if err != nil {
		return nil, fmt.Errorf("router: encode deploy data: %w", err)
	}
	return chain.Keccak256(enc), nil
}
