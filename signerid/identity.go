// Package signerid resolves the signer entries of a router whitelist to
// addresses. An entry is a 0x address, a compressed public key in hex, a
// paymail handle (alias@domain) resolved through its PKI capability, or
// "dns:domain" resolved through a _librbf TXT record.
package signerid

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"
)

// Kind is the form of a signer entry.
type Kind int

const (
	KindAddress Kind = iota
	KindPubKey
	KindPaymail
	KindDNS
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindPubKey:
		return "pubkey"
	case KindPaymail:
		return "paymail"
	case KindDNS:
		return "dns"
	default:
		return "unknown"
	}
}

// Identity is a parsed signer entry.
type Identity struct {
	Kind    Kind
	Raw     string
	Alias   string // paymail only
	Domain  string // paymail and dns
	PubKey  []byte // pubkey only
	Address common.Address
}

const (
	dnsPrefix              = "dns:"
	compressedPubKeyHexLen = 66
)

// Parse classifies s without any network access.
func Parse(s string) (*Identity, error) {
	s = strings.TrimSpace(s)
	id := &Identity{Raw: s}
	switch {
	case s == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidIdentity)
	case strings.HasPrefix(s, "0x") && common.IsHexAddress(s):
		id.Kind = KindAddress
		id.Address = common.HexToAddress(s)
	case isPubKeyHex(s):
		pub, _ := hex.DecodeString(s)
		if _, err := ec.PublicKeyFromBytes(pub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
		}
		id.Kind = KindPubKey
		id.PubKey = pub
	case strings.HasPrefix(s, dnsPrefix):
		id.Kind = KindDNS
		id.Domain = strings.TrimPrefix(s, dnsPrefix)
		if id.Domain == "" {
			return nil, fmt.Errorf("%w: empty domain in %q", ErrInvalidIdentity, s)
		}
	case strings.Contains(s, "@"):
		alias, domain, _ := strings.Cut(s, "@")
		if alias == "" || domain == "" || strings.Contains(domain, "@") {
			return nil, fmt.Errorf("%w: paymail %q", ErrInvalidIdentity, s)
		}
		id.Kind = KindPaymail
		id.Alias = alias
		id.Domain = domain
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return id, nil
}

// isPubKeyHex reports whether s has the shape of a compressed key in hex.
func isPubKeyHex(s string) bool {
	if len(s) != compressedPubKeyHexLen {
		return false
	}
	if !strings.HasPrefix(s, "02") && !strings.HasPrefix(s, "03") {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// decodePubKey parses a hex compressed public key from a remote source.
func decodePubKey(s string) (*ec.PublicKey, error) {
	s = strings.TrimSpace(s)
	if !isPubKeyHex(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPubKey, s)
	}
	raw, _ := hex.DecodeString(s)
	pub, err := ec.PublicKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPubKey, err)
	}
	return pub, nil
}
