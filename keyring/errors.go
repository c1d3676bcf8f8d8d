package keyring

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("keyring: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("keyring: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty.
	ErrInvalidSeed = errors.New("keyring: invalid seed")

	// ErrIndexOutOfRange indicates a signer index at or above the hardened boundary.
	ErrIndexOutOfRange = errors.New("keyring: signer index exceeds maximum (2^31-1)")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("keyring: key derivation failed")

	// ErrUnsealFailed indicates a wrong password or corrupted sealed seed.
	ErrUnsealFailed = errors.New("keyring: unseal failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates the unsealed seed does not match its checksum.
	ErrChecksumMismatch = errors.New("keyring: seed checksum mismatch")
)
