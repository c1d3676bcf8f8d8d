package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/config"
	"github.com/bitfsorg/librbf-go/keyring"
	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/vault"
)

// Deploy deploys an offering in one call: the instrument, signed by the
// keyring keys at indices and sent by the offering's deployer, then the vault,
// sent by the instrument's manager. Either both are created or neither.
func (n *Node) Deploy(o *config.Offering, kr *keyring.Keyring, indices ...uint32) (*rbf.RBF, *vault.Vault, error) {
	var (
		instrument *rbf.RBF
		v          *vault.Vault
	)
	rbfData, err := o.RBFDeployData(0)
	if err != nil {
		return nil, nil, err
	}

	err = n.Env.Execute(rbfData.Deployer, "deployOffering", func(tx *chain.Tx) error {
		rbfData.ID = n.Router.RBFNonce()
		sigs, err := kr.SignRBF(rbfData, n.Router.Address(), indices...)
		if err != nil {
			return err
		}
		instrument, err = n.Router.DeployRBF(tx, rbfData, sigs)
		if err != nil {
			return err
		}

		vaultData, err := o.VaultDeployData(n.Router.VaultNonce(), instrument.Address())
		if err != nil {
			return err
		}
		v, err = n.Router.DeployVault(tx.As(rbfData.Manager), vaultData)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("node: deploy offering %q: %w", o.RBF.Symbol, err)
	}

	n.Log.Info("offering deployed",
		zap.String("rbf", instrument.Address().Hex()),
		zap.String("vault", v.Address().Hex()),
		zap.Int("signatures", len(indices)))
	return instrument, v, nil
}
