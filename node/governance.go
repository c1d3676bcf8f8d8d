package node

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/config"
	"github.com/bitfsorg/librbf-go/signerid"
)

// ResolveGovernance resolves a governance template's signer entries.
func ResolveGovernance(t *config.Governance, res *signerid.Resolver) (Governance, error) {
	router, err := parseAddr("router", t.Router)
	if err != nil {
		return Governance{}, err
	}
	owner, err := parseAddr("owner", t.Owner)
	if err != nil {
		return Governance{}, err
	}
	signers, err := res.ResolveAll(t.Signers)
	if err != nil {
		return Governance{}, fmt.Errorf("node: signers: %w", err)
	}
	return Governance{Router: router, Owner: owner, Signers: signers, Threshold: t.Threshold}, nil
}

func parseAddr(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q", config.ErrInvalidOffering, field, s)
	}
	return common.HexToAddress(s), nil
}
