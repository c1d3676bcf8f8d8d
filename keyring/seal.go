package keyring

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters of the sealing key.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32

	saltLen     = 16
	nonceLen    = 12
	checksumLen = 4
)

func sealingKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts seed under password:
// salt(16) || nonce(12) || AES-256-GCM(seed || sha256(seed)[:4]).
func Seal(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	salt := make([]byte, saltLen)
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("keyring: random salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("keyring: random nonce: %w", err)
	}

	gcm, err := newGCM(sealingKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("keyring: cipher: %w", err)
	}
	sum := sha256.Sum256(seed)
	plaintext := append(append([]byte{}, seed...), sum[:checksumLen]...)

	out := make([]byte, 0, saltLen+nonceLen+len(plaintext)+gcm.Overhead())
	out = append(append(out, salt...), nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Unseal reverses Seal.
func Unseal(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < saltLen+nonceLen+checksumLen {
		return nil, ErrUnsealFailed
	}
	salt := sealed[:saltLen]
	nonce := sealed[saltLen : saltLen+nonceLen]

	gcm, err := newGCM(sealingKey(password, salt))
	if err != nil {
		return nil, ErrUnsealFailed
	}
	plaintext, err := gcm.Open(nil, nonce, sealed[saltLen+nonceLen:], nil)
	if err != nil || len(plaintext) <= checksumLen {
		return nil, ErrUnsealFailed
	}

	seed := plaintext[:len(plaintext)-checksumLen]
	sum := sha256.Sum256(seed)
	if !bytes.Equal(sum[:checksumLen], plaintext[len(plaintext)-checksumLen:]) {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}

// SaveSealed seals seed and writes it to path with owner-only permissions.
func SaveSealed(path string, seed []byte, password string) error {
	sealed, err := Seal(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keyring: create directory: %w", err)
	}
	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("keyring: write %s: %w", path, err)
	}
	return nil
}

// LoadSealed reads and unseals the seed at path.
func LoadSealed(path, password string) ([]byte, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyring: read %s: %w", path, err)
	}
	return Unseal(sealed, password)
}
