package keyring

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/router"
)

// Derivation path constants.
const (
	purpose  = 44
	coinType = 60
	hardened = 0x80000000

	// MaxIndex is the largest non-hardened child index.
	MaxIndex = hardened - 1
)

// Keyring derives the signer keys of one account.
type Keyring struct {
	account *bip32.ExtendedKey
	index   uint32
}

// New derives account m/44'/60'/account'/0 of seed. Regtest and testnet
// use the testnet version bytes; the path is the same on every network.
func New(seed []byte, network string, account uint32) (*Keyring, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if account > MaxIndex {
		return nil, ErrIndexOutOfRange
	}
	params := &chaincfg.TestNet
	if network == "mainnet" {
		params = &chaincfg.MainNet
	}
	master, err := bip32.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	key := master
	for depth, child := range []uint32{purpose + hardened, coinType + hardened, account + hardened, 0} {
		if key, err = key.Child(child); err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, depth+1, err)
		}
	}
	return &Keyring{account: key, index: account}, nil
}

// Account returns the account index the keyring was derived for.
func (k *Keyring) Account() uint32 { return k.index }

// Key returns the signer key at index.
func (k *Keyring) Key(index uint32) (*ec.PrivateKey, error) {
	if index > MaxIndex {
		return nil, ErrIndexOutOfRange
	}
	child, err := k.account.Child(index)
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %w", ErrDerivationFailed, index, err)
	}
	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: index %d: %w", ErrDerivationFailed, index, err)
	}
	return priv, nil
}

// Signers returns the router whitelist addresses of the first n keys.
func (k *Keyring) Signers(n int) ([]common.Address, error) {
	out := make([]common.Address, 0, n)
	for i := 0; i < n; i++ {
		priv, err := k.Key(uint32(i))
		if err != nil {
			return nil, err
		}
		out = append(out, router.SignerAddress(priv.PubKey()))
	}
	return out, nil
}

// SignRBF signs an instrument deployment for the router at routerAddr with
// the keys at indices.
func (k *Keyring) SignRBF(data *router.RBFDeployData, routerAddr common.Address, indices ...uint32) ([]router.Signature, error) {
	digest, err := data.Digest(routerAddr)
	if err != nil {
		return nil, err
	}
	sigs := make([]router.Signature, 0, len(indices))
	for _, i := range indices {
		priv, err := k.Key(i)
		if err != nil {
			return nil, err
		}
		sig, err := router.Sign(priv, digest)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
