// Package router deploys instrument and vault ledgers. Instrument
// deployments require a threshold of whitelisted signatures; vault
// deployments require the instrument's manager. Both assign sequential ids.
package router

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/pricefeed"
	"github.com/bitfsorg/librbf-go/rbf"
	"github.com/bitfsorg/librbf-go/store"
	"github.com/bitfsorg/librbf-go/token"
	"github.com/bitfsorg/librbf-go/vault"
	"github.com/bitfsorg/librbf-go/whitelist"
)

var _ rbf.Vault = (*vault.Vault)(nil)
var _ vault.Instrument = (*rbf.RBF)(nil)

// Event names emitted by Router.
const (
	EventSignersSet      = "WhiteListsAndThresholdSet"
	EventAssetRegistered = "AssetRegistered"
	EventRBFDeployed     = "RBFDeployed"
	EventVaultDeployed   = "VaultDeployed"
)

// Address derivation kinds.
const (
	kindFeed        = "pricefeed"
	kindRBFEscrow   = "rbf-escrow"
	kindRBF         = "rbf"
	kindVaultEscrow = "vault-escrow"
	kindVault       = "vault"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithStore sets where Checkpoint persists snapshots and price rounds.
func WithStore(cps store.CheckpointStore, prices store.PriceStore) Option {
	return func(r *Router) {
		r.checkpoints = cps
		r.prices = prices
	}
}

// Router deploys and indexes instruments and vaults.
type Router struct {
	env   *chain.Env
	addr  common.Address
	owner common.Address
	log   *zap.Logger

	signers   []common.Address
	threshold int

	assets     map[common.Address]*token.Token
	rbfNonce   uint64
	vaultNonce uint64
	rbfs       []*rbf.RBF
	feeds      []*pricefeed.Feed
	vaults     []*vault.Vault
	rbfIndex   map[common.Address]int

	checkpoints store.CheckpointStore
	prices      store.PriceStore
}

// New creates a router owned by owner with an initial signer whitelist.
func New(env *chain.Env, addr, owner common.Address, signers []common.Address, threshold int, opts ...Option) (*Router, error) {
	if env == nil || chain.IsZero(addr) || chain.IsZero(owner) {
		return nil, fmt.Errorf("%w: missing env or zero address", ErrInvalidParams)
	}
	if err := checkSigners(signers, threshold); err != nil {
		return nil, err
	}
	r := &Router{
		env:       env,
		addr:      addr,
		owner:     owner,
		log:       zap.NewNop(),
		signers:   append([]common.Address(nil), signers...),
		threshold: threshold,
		assets:    make(map[common.Address]*token.Token),
		rbfIndex:  make(map[common.Address]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func checkSigners(signers []common.Address, threshold int) error {
	if len(signers) == 0 {
		return ErrEmptyWhiteList
	}
	if threshold <= 0 {
		return ErrZeroThreshold
	}
	if threshold > len(signers) {
		return ErrThresholdTooHigh
	}
	seen := make(map[common.Address]struct{}, len(signers))
	for _, s := range signers {
		if chain.IsZero(s) {
			return fmt.Errorf("%w: zero signer", ErrInvalidParams)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate signer %s", ErrInvalidParams, s.Hex())
		}
		seen[s] = struct{}{}
	}
	return nil
}

func (r *Router) requireOwner(tx *chain.Tx) error {
	if tx.Caller() != r.owner {
		return ErrNotOwner
	}
	return nil
}

// SetWhiteListsAndThreshold replaces the signer whitelist. Owner only.
func (r *Router) SetWhiteListsAndThreshold(tx *chain.Tx, signers []common.Address, threshold int) error {
	if err := r.requireOwner(tx); err != nil {
		return err
	}
	if err := checkSigners(signers, threshold); err != nil {
		return err
	}
	chain.Assign(tx, &r.signers, append([]common.Address(nil), signers...))
	chain.Assign(tx, &r.threshold, threshold)
	tx.Emit(r.addr, EventSignersSet, map[string]string{
		"signers":   fmt.Sprint(len(signers)),
		"threshold": fmt.Sprint(threshold),
	})
	return nil
}

// RegisterAsset makes tok available as an instrument asset. Owner only.
func (r *Router) RegisterAsset(tx *chain.Tx, tok *token.Token) error {
	if err := r.requireOwner(tx); err != nil {
		return err
	}
	if tok == nil || chain.IsZero(tok.Address()) {
		return fmt.Errorf("%w: nil asset", ErrInvalidParams)
	}
	chain.Put(tx, r.assets, tok.Address(), tok)
	tx.Emit(r.addr, EventAssetRegistered, map[string]string{"asset": tok.Address().Hex()})
	return nil
}

// verify checks sigs over digest against the current whitelist.
func (r *Router) verify(digest []byte, sigs []Signature) error {
	if len(sigs) < r.threshold {
		return ErrInvalidThreshold
	}
	seen := make(map[common.Address]struct{}, len(sigs))
	for _, s := range sigs {
		signer, err := recoverSigner(s, digest)
		if err != nil {
			return err
		}
		if !r.isSigner(signer) {
			return fmt.Errorf("%w: %s not whitelisted", ErrInvalidSigner, signer.Hex())
		}
		if _, dup := seen[signer]; dup {
			return fmt.Errorf("%w: duplicate signer %s", ErrInvalidSigner, signer.Hex())
		}
		seen[signer] = struct{}{}
	}
	return nil
}

func (r *Router) isSigner(addr common.Address) bool {
	for _, s := range r.signers {
		if s == addr {
			return true
		}
	}
	return false
}

// appendUndo appends v to *s and truncates it again if the call reverts.
func appendUndo[T any](tx *chain.Tx, s *[]T, v T) {
	n := len(*s)
	*s = append(*s, v)
	tx.OnRevert(func() { *s = (*s)[:n] })
}

// Address returns the router address.
func (r *Router) Address() common.Address { return r.addr }

// Owner returns the router owner.
func (r *Router) Owner() common.Address { return r.owner }

// Signers returns a copy of the signer whitelist.
func (r *Router) Signers() []common.Address { return append([]common.Address(nil), r.signers...) }

// Threshold returns the number of signatures a deployment needs.
func (r *Router) Threshold() int { return r.threshold }

// RBFNonce is the id the next instrument deployment must carry.
func (r *Router) RBFNonce() uint64 { return r.rbfNonce }

// VaultNonce is the id the next vault deployment must carry.
func (r *Router) VaultNonce() uint64 { return r.vaultNonce }

// RBF returns the instrument with the given id.
func (r *Router) RBF(id uint64) (*rbf.RBF, bool) {
	if id >= uint64(len(r.rbfs)) {
		return nil, false
	}
	return r.rbfs[id], true
}

// Feed returns the price feed of the instrument with the given id.
func (r *Router) Feed(id uint64) (*pricefeed.Feed, bool) {
	if id >= uint64(len(r.feeds)) {
		return nil, false
	}
	return r.feeds[id], true
}

// Vault returns the vault with the given id.
func (r *Router) Vault(id uint64) (*vault.Vault, bool) {
	if id >= uint64(len(r.vaults)) {
		return nil, false
	}
	return r.vaults[id], true
}

// maxWhiteList bounds the initial vault whitelist.
const maxWhiteList = whitelist.DefaultLimit
