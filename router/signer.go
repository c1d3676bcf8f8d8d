package router

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/librbf-go/chain"
)

// Signature is one signer's approval of a deployment digest.
type Signature struct {
	PubKey []byte // compressed secp256k1 public key
	Sig    []byte // DER-encoded ECDSA signature
}

// SignerAddress derives the whitelist address of a public key: the last 20
// bytes of keccak256 over the compressed key.
func SignerAddress(pub *ec.PublicKey) common.Address {
	return common.BytesToAddress(chain.Keccak256(pub.Compressed()))
}

// Sign signs digest with priv.
func Sign(priv *ec.PrivateKey, digest []byte) (Signature, error) {
	sig, err := priv.Sign(digest)
	if err != nil {
		return Signature{}, fmt.Errorf("router: sign: %w", err)
	}
	return Signature{PubKey: priv.PubKey().Compressed(), Sig: sig.Serialize()}, nil
}

// recoverSigner parses s and checks it over digest, returning the signer address.
func recoverSigner(s Signature, digest []byte) (common.Address, error) {
	pub, err := ec.PublicKeyFromBytes(s.PubKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: public key: %v", ErrInvalidSigner, err)
	}
	sig, err := ec.ParseDERSignature(s.Sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: signature: %v", ErrInvalidSigner, err)
	}
	if !sig.Verify(digest, pub) {
		return common.Address{}, fmt.Errorf("%w: verification failed", ErrInvalidSigner)
	}
	return SignerAddress(pub), nil
}
