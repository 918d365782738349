package crypto

import (
	"golang.org/x/crypto/sha3"
)

// Signer is the narrow signing interface used by consensus code. The
// operator node holds exactly one.
type Signer interface {
	Address() [20]byte
	SignCompact(hash [32]byte) (v byte, r [32]byte, s [32]byte, err error)
}

// Keccak256 hashes the concatenation of data with legacy Keccak-256.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		_, _ = h.Write(b)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
