package crypto

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec"
)

const PrivKeySize = 32

var (
	ErrMalleableSignature = errors.New("signature s value above curve order / 2")
	ErrBadRecoveryID      = errors.New("signature v must be 27 or 28")
	ErrRecoveryFailed     = errors.New("public key recovery failed")
)

// used to reject malleable signatures
var secp256k1halfN = new(big.Int).Rsh(btcec.S256().N, 1)

// PrivKey is a secp256k1 private key that signs in the recoverable
// [v | r | s] form with v in {27, 28}.
type PrivKey struct {
	key *btcec.PrivateKey
}

var _ Signer = (*PrivKey)(nil)

func GenPrivKey() (*PrivKey, error) {
	k, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &PrivKey{key: k}, nil
}

func PrivKeyFromBytes(b []byte) (*PrivKey, error) {
	if len(b) != PrivKeySize {
		return nil, fmt.Errorf("private key must be %d bytes (got %d)", PrivKeySize, len(b))
	}
	d := new(big.Int).SetBytes(b)
	if d.Sign() == 0 || d.Cmp(btcec.S256().N) >= 0 {
		return nil, errors.New("private key out of range")
	}
	k, _ := btcec.PrivKeyFromBytes(btcec.S256(), b)
	return &PrivKey{key: k}, nil
}

func PrivKeyFromHex(s string) (*PrivKey, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("private key hex: %w", err)
	}
	return PrivKeyFromBytes(raw)
}

func (p *PrivKey) Bytes() []byte {
	return p.key.Serialize()
}

func (p *PrivKey) Hex() string {
	return hex.EncodeToString(p.Bytes())
}

func (p *PrivKey) ToECDSA() *ecdsa.PrivateKey {
	return p.key.ToECDSA()
}

func (p *PrivKey) Address() [20]byte {
	return pubKeyToAddress(p.key.PubKey())
}

func (p *PrivKey) SignCompact(hash [32]byte) (byte, [32]byte, [32]byte, error) {
	var r, s [32]byte
	sig, err := btcec.SignCompact(btcec.S256(), p.key, hash[:], false)
	if err != nil {
		return 0, r, s, fmt.Errorf("sign: %w", err)
	}
	if len(sig) != 65 {
		return 0, r, s, fmt.Errorf("sign: unexpected compact signature length %d", len(sig))
	}
	copy(r[:], sig[1:33])
	copy(s[:], sig[33:65])
	return sig[0], r, s, nil
}

// RecoverAddress recovers the signer address of hash from a recoverable
// signature. High-s signatures are rejected.
func RecoverAddress(hash [32]byte, v byte, r, s [32]byte) ([20]byte, error) {
	var zero [20]byte
	if v != 27 && v != 28 {
		return zero, ErrBadRecoveryID
	}
	if new(big.Int).SetBytes(s[:]).Cmp(secp256k1halfN) > 0 {
		return zero, ErrMalleableSignature
	}
	sig := make([]byte, 0, 65)
	sig = append(sig, v)
	sig = append(sig, r[:]...)
	sig = append(sig, s[:]...)
	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig, hash[:])
	if err != nil || pub == nil {
		return zero, ErrRecoveryFailed
	}
	return pubKeyToAddress(pub), nil
}

func pubKeyToAddress(pub *btcec.PublicKey) [20]byte {
	raw := pub.SerializeUncompressed()
	h := Keccak256(raw[1:])
	var out [20]byte
	copy(out[:], h[12:])
	return out
}
