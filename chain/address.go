package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of data with legacy Keccak-256.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// DeriveAddress returns a deterministic contract address for the kind-th
// instance with the given id: the last 20 bytes of
// keccak256(kind || id(8, big-endian) || salt).
func DeriveAddress(kind string, id uint64, salt []byte) common.Address {
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], id)
	return common.BytesToAddress(Keccak256([]byte(kind), idBuf[:], salt))
}

// IsZero reports whether addr is the zero address.
func IsZero(addr common.Address) bool {
	return addr == (common.Address{})
}
