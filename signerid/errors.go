package signerid

import "errors"

var (
	// ErrInvalidIdentity indicates a signer entry matches no supported form.
	ErrInvalidIdentity = errors.New("signerid: invalid signer identity")

	// ErrInvalidPubKey indicates a public key is not a valid compressed secp256k1 key.
	ErrInvalidPubKey = errors.New("signerid: invalid compressed public key")

	// ErrDNSLookupFailed indicates a DNS SRV/TXT lookup failed.
	ErrDNSLookupFailed = errors.New("signerid: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("signerid: DNSSEC validation failed")

	// ErrDiscovery indicates .well-known/bsvalias could not be fetched or parsed.
	ErrDiscovery = errors.New("signerid: paymail capability discovery failed")

	// ErrPKIResolution indicates the paymail PKI endpoint returned no usable key.
	ErrPKIResolution = errors.New("signerid: PKI resolution failed")

	// ErrDuplicateSigner indicates two entries resolve to the same address.
	ErrDuplicateSigner = errors.New("signerid: duplicate signer")
)
