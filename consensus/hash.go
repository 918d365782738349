package consensus

import (
	"strconv"

	"plasma.dev/node/crypto"
)

const personalMessagePrefix = "\x19Ethereum Signed Message:\n"

// GenesisParentHash is the parent hash of block 1.
var GenesisParentHash = crypto.Keccak256([]byte("plasma-genesis"))

// PersonalHash is keccak256 over the personal-message prefix, the decimal
// message length and the message.
func PersonalHash(msg []byte) [32]byte {
	return crypto.Keccak256([]byte(personalMessagePrefix), []byte(strconv.Itoa(len(msg))), msg)
}

// TxSigHash is the digest a sender signs: type, inputs and outputs, without
// the in-block index, so a transaction can be signed before it is numbered.
func TxSigHash(tx *Tx) ([32]byte, error) {
	if err := validateShape(tx); err != nil {
		return [32]byte{}, err
	}
	body, err := appendTxBody(nil, tx)
	if err != nil {
		return [32]byte{}, err
	}
	return PersonalHash(body), nil
}

// TxHash is the commitment hash over the full encoding, index and signature
// included. Merkle leaves are TxHash values.
func TxHash(tx *Tx) ([32]byte, error) {
	raw, err := EncodeTx(tx)
	if err != nil {
		return [32]byte{}, err
	}
	return PersonalHash(raw), nil
}

// HeaderSigHash is the digest the operator signs for a block header.
func HeaderSigHash(h *BlockHeader) [32]byte {
	return PersonalHash(appendHeaderFields(nil, h))
}

// HeaderHash links a block to its parent.
func HeaderHash(h *BlockHeader) [32]byte {
	return PersonalHash(EncodeHeader(h))
}
